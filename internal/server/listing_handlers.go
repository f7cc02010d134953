package server

import (
	"strings"

	"campusnest/internal/models"
	"campusnest/internal/repository"
	"campusnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultListingPageSize = 20

// GetListings handles GET /api/listings
// @Summary Browse listings
// @Description Active listings newest first. Filter by location or status.
// @Tags listings
// @Produce json
// @Param location query string false "Exact location (case-insensitive)"
// @Param sellerId query int false "Only this seller's listings"
// @Param status query string false "active or sold (default active)"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Router /listings [get]
func (s *Server) GetListings(c *fiber.Ctx) error {
	page := parsePagination(c, defaultListingPageSize)
	filter := repository.ListingFilter{
		Status:   models.ListingStatus(c.Query("status", string(models.ListingStatusActive))),
		Location: strings.TrimSpace(c.Query("location")),
	}
	if sellerID := c.QueryInt("sellerId", 0); sellerID > 0 {
		filter.SellerID = uint(sellerID)
	}

	listings, err := s.listingService.ListListings(c.UserContext(), filter, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(publicListings(listings))
}

// GetListing handles GET /api/listings/:id
// @Summary Listing detail
// @Tags listings
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.Listing
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id} [get]
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.GetListing(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(publicListing(*listing))
}

// RecordListingView handles POST /api/listings/:id/view
// @Summary Record a listing view
// @Description Adds one view. Reaching 10, 50, 100 or a further multiple of 100 notifies the seller.
// @Tags listings
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} object{views=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id}/view [post]
func (s *Server) RecordListingView(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	views, err := s.listingService.RecordView(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"views": views})
}

// CreateListing handles POST /api/listings
// @Summary Create a listing
// @Tags listings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateListingInput true "Listing"
// @Success 201 {object} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /listings [post]
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req service.CreateListingInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	req.SellerID = currentUserID(c)

	listing, err := s.listingService.CreateListing(c.UserContext(), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// UpdateListing handles PUT /api/listings/:id
// @Summary Edit a listing
// @Tags listings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Listing ID"
// @Param request body service.UpdateListingInput true "Fields to change"
// @Success 200 {object} models.Listing
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id} [put]
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateListingInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	req.ListingID = id
	req.SellerID = currentUserID(c)

	listing, err := s.listingService.UpdateListing(c.UserContext(), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/listings/:id
// @Summary Take a listing down
// @Description Marks the seller's listing as sold.
// @Tags listings
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /listings/{id} [delete]
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listingService.DeleteListing(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyListings handles GET /api/seller/listings
// @Summary The caller's listings
// @Description Every listing the caller owns, active and sold, with view counts.
// @Tags listings
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Listing
// @Router /seller/listings [get]
func (s *Server) GetMyListings(c *fiber.Ctx) error {
	page := parsePagination(c, maxPaginationLimit)
	filter := repository.ListingFilter{SellerID: currentUserID(c)}

	listings, err := s.listingService.ListListings(c.UserContext(), filter, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(listings)
}

// GetAdminListings handles GET /api/admin/listings
// @Summary All listings
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "active or sold"
// @Success 200 {array} models.Listing
// @Router /admin/listings [get]
func (s *Server) GetAdminListings(c *fiber.Ctx) error {
	page := parsePagination(c, maxPaginationLimit)
	filter := repository.ListingFilter{Status: models.ListingStatus(c.Query("status"))}

	listings, err := s.listingService.ListListings(c.UserContext(), filter, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(listings)
}

// AdminDeleteListing handles DELETE /api/admin/listings/:id
// @Summary Remove any listing
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/listings/{id} [delete]
func (s *Server) AdminDeleteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.AdminDeleteListing(c.UserContext(), currentUserID(c), id); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// publicListing hides the seller's private fields.
func publicListing(l models.Listing) models.Listing {
	if l.Seller != nil {
		seller := l.Seller.PublicProfile()
		l.Seller = &seller
	}
	return l
}

func publicListings(in []models.Listing) []models.Listing {
	out := make([]models.Listing, len(in))
	for i, l := range in {
		out[i] = publicListing(l)
	}
	return out
}
