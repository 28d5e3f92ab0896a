package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pokefolio/pokefolio/internal/apperr"
	"github.com/pokefolio/pokefolio/internal/metrics"
	"github.com/pokefolio/pokefolio/internal/models"
)

// Maximum quantity allowed per listing
const maxListingQuantity = 9999

// ListingService owns marketplace listings and the quantity locks that back
// them. Locked quantity on a collection item is the sum reserved by that
// user's active listings; it is adjusted here and nowhere else.
//
// Lock acquisition uses a conditional UPDATE (affected rows = 0 means the
// sellable quantity was exceeded), so two concurrent listings for the same
// item cannot jointly overlock. Lock release clamps at zero rather than
// erroring, tolerating drift from partial failures.
type ListingService struct {
	db *gorm.DB
}

func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{db: db}
}

// CreateListing reserves quantity from the seller's collection item and
// creates an active listing for it.
func (s *ListingService) CreateListing(userID string, req models.CreateListingRequest) (*models.Listing, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be positive")
	}
	if req.Quantity > maxListingQuantity {
		return nil, apperr.Validationf("quantity exceeds maximum allowed (%d)", maxListingQuantity)
	}
	if req.PricePerCard <= 0 {
		return nil, apperr.Validationf("price per card must be positive")
	}
	condition := req.Condition
	if condition == "" {
		condition = models.ConditionRaw
	}
	if !condition.Valid() {
		return nil, apperr.Validationf("unknown condition %q", condition)
	}

	var item models.CollectionItem
	if err := s.db.Where("user_id = ? AND card_id = ?", userID, req.CardID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("card not in your collection")
		}
		return nil, err
	}

	// Atomically reserve the quantity. The WHERE clause re-checks
	// availability so a stale read above cannot oversell.
	result := s.db.Model(&models.CollectionItem{}).
		Where("id = ? AND locked_quantity + ? <= quantity", item.ID, req.Quantity).
		Update("locked_quantity", gorm.Expr("locked_quantity + ?", req.Quantity))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		metrics.InsufficientQuantityTotal.Inc()
		return nil, fmt.Errorf("%w: only %d available to list", apperr.ErrConflict, item.Available())
	}

	gradingStatus := models.GradingRaw
	if req.GradingCompany != "" {
		gradingStatus = models.GradingGraded
	}

	now := time.Now()
	listing := models.Listing{
		ID:             uuid.New().String(),
		UserID:         userID,
		CardID:         req.CardID,
		Card:           item.Card,
		Quantity:       req.Quantity,
		PricePerCard:   req.PricePerCard,
		Condition:      condition,
		GradingStatus:  gradingStatus,
		GradingCompany: req.GradingCompany,
		GradingGrade:   req.GradingGrade,
		Description:    req.Description,
		Images:         req.Images,
		Status:         models.ListingActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.Create(&listing).Error; err != nil {
		// Best effort: hand the reservation back so a failed insert does
		// not strand locked quantity.
		s.releaseLock(userID, req.CardID, req.Quantity, false)
		return nil, err
	}

	metrics.ListingsCreatedTotal.Inc()
	s.refreshActiveGauge()
	return &listing, nil
}

// UpdateStatus moves an active listing to sold or cancelled. Both targets
// are terminal; attempts to transition a terminal listing are rejected.
func (s *ListingService) UpdateStatus(listingID, userID string, newStatus models.ListingStatus) (*models.Listing, error) {
	if !newStatus.Valid() || newStatus == models.ListingActive {
		return nil, apperr.Validationf("status must be sold or cancelled")
	}

	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("listing not found")
		}
		return nil, err
	}
	if listing.UserID != userID {
		return nil, apperr.Forbiddenf("listing belongs to another user")
	}
	if listing.Status.Terminal() {
		return nil, apperr.Conflictf("listing is already %s", listing.Status)
	}

	// Release the reservation; a sale also consumes the owned quantity.
	s.releaseLock(listing.UserID, listing.CardID, listing.Quantity, newStatus == models.ListingSold)

	listing.Status = newStatus
	listing.UpdatedAt = time.Now()
	if err := s.db.Save(&listing).Error; err != nil {
		return nil, err
	}

	metrics.ListingsClosedTotal.WithLabelValues(string(newStatus)).Inc()
	s.refreshActiveGauge()
	return &listing, nil
}

// Delete removes a listing entirely. An active listing releases its lock
// first, same as cancellation; terminal listings are deleted as-is.
func (s *ListingService) Delete(listingID, userID string) error {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("listing not found")
		}
		return err
	}
	if listing.UserID != userID {
		return apperr.Forbiddenf("listing belongs to another user")
	}

	if listing.Status == models.ListingActive {
		s.releaseLock(listing.UserID, listing.CardID, listing.Quantity, false)
	}

	if err := s.db.Delete(&listing).Error; err != nil {
		return err
	}

	metrics.ListingsClosedTotal.WithLabelValues("deleted").Inc()
	s.refreshActiveGauge()
	return nil
}

// releaseLock returns quantity reserved by a listing to the sellable pool,
// clamping at zero. When consume is true the owned quantity is decremented
// as well (the cards were sold), also clamped at zero. A missing collection
// item is logged and skipped: the status change still stands.
func (s *ListingService) releaseLock(userID, cardID string, quantity int, consume bool) {
	updates := map[string]any{
		"locked_quantity": gorm.Expr("MAX(0, locked_quantity - ?)", quantity),
	}
	if consume {
		updates["quantity"] = gorm.Expr("MAX(0, quantity - ?)", quantity)
	}

	result := s.db.Model(&models.CollectionItem{}).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Updates(updates)
	if result.Error != nil {
		log.Printf("Failed to release lock for user %s card %s: %v", userID, cardID, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		log.Printf("Lock release skipped: collection item missing for user %s card %s", userID, cardID)
	}
}

// Get returns a single listing by ID.
func (s *ListingService) Get(listingID string) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("listing not found")
		}
		return nil, err
	}
	return &listing, nil
}

// List returns a filtered, paginated page of listings.
func (s *ListingService) List(filters models.ListingFilters) (*models.ListingPage, error) {
	query := s.db.Model(&models.Listing{})

	status := filters.Status
	if status == "" {
		status = models.ListingActive
	}
	if status != "all" {
		query = query.Where("status = ?", status)
	}

	if filters.Query != "" {
		query = query.Where("card_name LIKE ?", "%"+strings.TrimSpace(filters.Query)+"%")
	}
	if filters.SetCode != "" {
		query = query.Where("card_set_code = ?", filters.SetCode)
	}
	if filters.Condition != "" {
		query = query.Where("condition = ?", filters.Condition)
	}
	if filters.SellerID != "" {
		query = query.Where("user_id = ?", filters.SellerID)
	}
	if filters.MinPrice > 0 {
		query = query.Where("price_per_card >= ?", filters.MinPrice)
	}
	if filters.MaxPrice > 0 {
		query = query.Where("price_per_card <= ?", filters.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	switch filters.Sort {
	case "price_asc":
		query = query.Order("price_per_card ASC")
	case "price_desc":
		query = query.Order("price_per_card DESC")
	default:
		query = query.Order("created_at DESC")
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	var listings []models.Listing
	if err := query.Limit(limit).Offset(filters.Offset).Find(&listings).Error; err != nil {
		return nil, err
	}

	return &models.ListingPage{
		Listings:   listings,
		TotalCount: total,
		HasMore:    int64(filters.Offset+len(listings)) < total,
	}, nil
}

func (s *ListingService) refreshActiveGauge() {
	var count int64
	if err := s.db.Model(&models.Listing{}).Where("status = ?", models.ListingActive).Count(&count).Error; err == nil {
		metrics.ActiveListings.Set(float64(count))
	}
}
