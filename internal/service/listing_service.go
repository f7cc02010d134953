package service

import (
	"context"
	"fmt"
	"strings"

	"campusnest/internal/models"
	"campusnest/internal/observability"
	"campusnest/internal/repository"
	"campusnest/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MilestoneTitle         = "Listing Milestone Reached! 🚀"
	milestoneContentFormat = `Your listing at "%s" has reached %d views!`
	sellerDashboardLink    = "/dashboard/seller"
)

// IsViewMilestone reports whether a listing that just reached views should
// notify its seller: 10, 50 and 100, then every further hundred.
func IsViewMilestone(views int64) bool {
	switch views {
	case 10, 50, 100:
		return true
	}
	return views > 100 && views%100 == 0
}

// CreateListingInput is the seller-supplied content of a new listing.
type CreateListingInput struct {
	SellerID    uint     `json:"-"`
	Address     string   `json:"address" validate:"required,notblank,max=255"`
	Location    string   `json:"location" validate:"required,notblank,max=120"`
	Price       float64  `json:"price" validate:"gt=0"`
	Description string   `json:"description" validate:"max=5000"`
	Images      []string `json:"images" validate:"min=1,dive,required"`
	Video       string   `json:"video"`
}

// UpdateListingInput carries the fields a seller wants to change. Nil fields are kept.
type UpdateListingInput struct {
	ListingID   uint      `json:"-"`
	SellerID    uint      `json:"-"`
	Address     *string   `json:"address" validate:"omitnil,notblank,max=255"`
	Location    *string   `json:"location" validate:"omitnil,notblank,max=120"`
	Price       *float64  `json:"price" validate:"omitnil,gt=0"`
	Description *string   `json:"description" validate:"omitnil,max=5000"`
	Images      *[]string `json:"images" validate:"omitnil,min=1,dive,required"`
	Video       *string   `json:"video"`
}

// ListingService manages listings and their view counters.
type ListingService struct {
	store         *repository.Store
	notifications *NotificationService
}

// NewListingService returns a new ListingService.
func NewListingService(store *repository.Store, notifSvc *NotificationService) *ListingService {
	return &ListingService{store: store, notifications: notifSvc}
}

// CreateListing publishes a new active listing. Only sellers may list.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	seller, err := s.store.Users.GetByID(ctx, in.SellerID)
	if err != nil {
		return nil, err
	}
	if seller.Role != models.RoleSeller {
		return nil, models.NewForbiddenError("Only sellers can create listings")
	}

	listing := &models.Listing{
		SellerID:    seller.ID,
		Address:     strings.TrimSpace(in.Address),
		Location:    strings.TrimSpace(in.Location),
		Price:       in.Price,
		Description: in.Description,
		Images:      in.Images,
		Video:       in.Video,
		Status:      models.ListingStatusActive,
	}
	if err := s.store.Listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// GetListing returns one listing with its seller.
func (s *ListingService) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	return s.store.Listings.GetByID(ctx, id)
}

// ListListings returns listings newest first.
func (s *ListingService) ListListings(ctx context.Context, filter repository.ListingFilter, limit, offset int) ([]models.Listing, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown listing status %q", filter.Status))
	}
	return s.store.Listings.List(ctx, filter, limit, offset)
}

// UpdateListing applies a seller's edit to a listing they own.
func (s *ListingService) UpdateListing(ctx context.Context, in UpdateListingInput) (*models.Listing, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	listing, err := s.ownedListing(ctx, in.ListingID, in.SellerID)
	if err != nil {
		return nil, err
	}

	if in.Address != nil {
		listing.Address = strings.TrimSpace(*in.Address)
	}
	if in.Location != nil {
		listing.Location = strings.TrimSpace(*in.Location)
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}
	if in.Description != nil {
		listing.Description = *in.Description
	}
	if in.Images != nil {
		listing.Images = *in.Images
	}
	if in.Video != nil {
		listing.Video = *in.Video
	}

	if err := s.store.Listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// DeleteListing takes a listing off the market by marking it sold.
func (s *ListingService) DeleteListing(ctx context.Context, listingID, sellerID uint) error {
	if _, err := s.ownedListing(ctx, listingID, sellerID); err != nil {
		return err
	}
	return s.store.Listings.SetStatus(ctx, listingID, models.ListingStatusSold)
}

func (s *ListingService) ownedListing(ctx context.Context, listingID, sellerID uint) (*models.Listing, error) {
	listing, err := s.store.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, models.NewForbiddenError("You can only modify your own listings")
	}
	return listing, nil
}

// RecordView adds one view and returns the new count. Reaching a milestone
// stores the seller's notification in the same transaction as the increment.
func (s *ListingService) RecordView(ctx context.Context, listingID uint) (views int64, err error) {
	ctx, span := observability.StartSpan(ctx, "listing.record_view",
		attribute.Int64("listing.id", int64(listingID)))
	defer func() { observability.EndSpan(span, err) }()

	return s.recordView(ctx, listingID)
}

func (s *ListingService) recordView(ctx context.Context, listingID uint) (int64, error) {
	var (
		vc     *repository.ViewCount
		notice *models.Notification
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		vc, err = tx.Listings.IncrementViews(ctx, listingID)
		if err != nil {
			return err
		}
		if !IsViewMilestone(vc.Views) {
			return nil
		}
		notice, err = s.notifications.NotifyWith(ctx, tx.Notifications, NotifyInput{
			UserID:  vc.SellerID,
			Type:    models.NotificationViewMilestone,
			Title:   MilestoneTitle,
			Content: fmt.Sprintf(milestoneContentFormat, vc.Address, vc.Views),
			Link:    sellerDashboardLink,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	observability.ListingViews.Inc()
	if notice != nil {
		observability.ViewMilestones.Inc()
		s.notifications.Publish(ctx, notice)
	}
	return vc.Views, nil
}
