package repository

import (
	"context"
	"errors"

	"campusnest/internal/models"

	"gorm.io/gorm"
)

// ListingFilter narrows List. Zero values match everything.
type ListingFilter struct {
	SellerID uint
	Status   models.ListingStatus
	Location string
}

// ViewCount is the post-increment state of a listing's view counter.
type ViewCount struct {
	ListingID uint
	Views     int64
	SellerID  uint
	Address   string
}

// ListingStats aggregates listing counts for the admin dashboard.
type ListingStats struct {
	Total       int64   `json:"totalListings"`
	Active      int64   `json:"activeListings"`
	Sold        int64   `json:"soldListings"`
	TotalVolume float64 `json:"totalVolume"`
}

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	WithTx(tx *gorm.DB) ListingRepository
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	List(ctx context.Context, filter ListingFilter, limit, offset int) ([]models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	SetStatus(ctx context.Context, id uint, status models.ListingStatus) error
	IncrementViews(ctx context.Context, id uint) (*ViewCount, error)
	Stats(ctx context.Context) (*ListingStats, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository returns a new ListingRepository implementation.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) WithTx(tx *gorm.DB) ListingRepository {
	return &listingRepository{db: tx}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Preload("Seller").First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, filter ListingFilter, limit, offset int) ([]models.Listing, error) {
	q := r.db.WithContext(ctx).Model(&models.Listing{}).Preload("Seller")
	if filter.SellerID != 0 {
		q = q.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Location != "" {
		q = q.Where("LOWER(location) = LOWER(?)", filter.Location)
	}

	var listings []models.Listing
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

// Update writes the seller-editable fields. Status and views are not touched.
func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	res := r.db.WithContext(ctx).
		Model(listing).
		Select("address", "location", "price", "description", "images", "video").
		Updates(listing)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", listing.ID)
	}
	return nil
}

func (r *listingRepository) SetStatus(ctx context.Context, id uint, status models.ListingStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	return nil
}

// IncrementViews adds exactly one view and reads back the new count in the
// same transaction. The row lock taken by the UPDATE makes the value read
// back the one this call produced.
func (r *listingRepository) IncrementViews(ctx context.Context, id uint) (*ViewCount, error) {
	var vc ViewCount
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Listing{}).
			Select("id AS listing_id, views, seller_id, address").
			Where("id = ?", id).
			Take(&vc).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &vc, nil
}

func (r *listingRepository) Stats(ctx context.Context) (*ListingStats, error) {
	var stats ListingStats
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS sold, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN price ELSE 0 END), 0) AS total_volume",
			models.ListingStatusActive, models.ListingStatusSold, models.ListingStatusSold,
		).
		Scan(&stats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}
