package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokefolio/pokefolio/internal/apperr"
	"github.com/pokefolio/pokefolio/internal/currency"
	"github.com/pokefolio/pokefolio/internal/metrics"
	"github.com/pokefolio/pokefolio/internal/models"
)

// Maximum quantity allowed per collection item
const maxQuantity = 9999

// CollectionService owns per-user collections and wishlists, including the
// whole-payload replace sync used by clients migrating a locally stored
// collection on first login.
type CollectionService struct {
	db *gorm.DB
}

func NewCollectionService(db *gorm.DB) *CollectionService {
	return &CollectionService{db: db}
}

// GetCollection returns the user's collection and wishlist with valuation
// in the user's display currency.
func (s *CollectionService) GetCollection(user *models.User) (*models.CollectionResponse, error) {
	var items []models.CollectionItem
	if err := s.db.Where("user_id = ?", user.ID).Order("added_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	var wishlist []models.WishlistItem
	if err := s.db.Where("user_id = ?", user.ID).Order("added_at DESC").Find(&wishlist).Error; err != nil {
		return nil, err
	}

	cur := user.Currency
	rate := currency.DefaultUSDToPHP

	valued := make([]models.ValuedCollectionItem, 0, len(items))
	var totalMarket, totalCost float64
	for _, item := range items {
		purchase := 0.0
		if item.PurchasePriceUSD != nil {
			purchase = *item.PurchasePriceUSD
		}

		market := currency.Convert(item.Card.MarketPriceUSD, cur, rate) * float64(item.Quantity)
		cost := currency.Convert(purchase, cur, rate) * float64(item.Quantity)

		v := models.ValuedCollectionItem{
			CollectionItem: item,
			MarketValue:    market,
			CostBasis:      cost,
			ProfitLoss:     market - cost,
			DisplayValue:   currency.FormatPrice(market, cur),
		}
		if item.PurchasePriceUSD != nil {
			if pct, ok := currency.ProfitLossPercent(item.Card.MarketPriceUSD, purchase, item.Quantity, cur, rate); ok {
				v.ProfitLossPercent = &pct
			}
		}
		valued = append(valued, v)

		totalMarket += market
		totalCost += cost
	}

	totals := models.CollectionTotals{
		MarketValue:  totalMarket,
		CostBasis:    totalCost,
		ProfitLoss:   totalMarket - totalCost,
		DisplayValue: currency.FormatPrice(totalMarket, cur),
	}
	if totalCost != 0 {
		pct := (totalMarket - totalCost) / totalCost * 100
		totals.ProfitLossPercent = &pct
	}

	return &models.CollectionResponse{
		Items:    valued,
		Wishlist: wishlist,
		Totals:   totals,
		Currency: string(cur),
	}, nil
}

// Sync replaces the user's entire collection and wishlist with the payload.
// Rows are upserted per (user, card) and rows absent from the payload are
// deleted, but locked_quantity stays server-owned: the stored lock is
// preserved and clamped to the incoming quantity so it never exceeds what
// the user now claims to own.
func (s *CollectionService) Sync(userID string, req models.CollectionSyncRequest) error {
	now := time.Now()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.CollectionItem
		if err := tx.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
			return err
		}
		lockedByCard := make(map[string]int, len(existing))
		for _, item := range existing {
			lockedByCard[item.CardID] = item.LockedQuantity
		}

		keepCards := make([]string, 0, len(req.Items))
		for i := range req.Items {
			item := &req.Items[i]
			if item.CardID == "" {
				return apperr.Validationf("collection item missing card_id")
			}
			if item.Quantity < 0 {
				return apperr.Validationf("quantity must not be negative")
			}
			if item.Quantity > maxQuantity {
				return apperr.Validationf("quantity exceeds maximum allowed (%d)", maxQuantity)
			}
			if item.Condition == "" {
				item.Condition = models.ConditionRaw
			}
			if !item.Condition.Valid() {
				return apperr.Validationf("unknown condition %q", item.Condition)
			}

			item.ID = 0
			item.UserID = userID
			item.UpdatedAt = now
			if item.AddedAt.IsZero() {
				item.AddedAt = now
			}

			// The client copy of the lock is ignored outright.
			locked := lockedByCard[item.CardID]
			if locked > item.Quantity {
				locked = item.Quantity
			}
			item.LockedQuantity = locked

			keepCards = append(keepCards, item.CardID)
		}

		// Drop rows the payload no longer contains.
		del := tx.Where("user_id = ?", userID)
		if len(keepCards) > 0 {
			del = del.Where("card_id NOT IN ?", keepCards)
		}
		if err := del.Delete(&models.CollectionItem{}).Error; err != nil {
			return err
		}

		if len(req.Items) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "card_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"quantity", "locked_quantity", "purchase_price_usd",
					"condition", "grading_company", "grading_grade",
					"card_name", "card_set_name", "card_set_code", "card_number",
					"card_rarity", "card_image_url", "card_market_price_usd",
					"card_price_updated_at", "updated_at",
				}),
			}).Create(&req.Items).Error
			if err != nil {
				return err
			}
		}

		// Wishlist follows the same replace semantics, minus the locks.
		keepWish := make([]string, 0, len(req.Wishlist))
		for i := range req.Wishlist {
			w := &req.Wishlist[i]
			if w.CardID == "" {
				return apperr.Validationf("wishlist item missing card_id")
			}
			if w.Priority == "" {
				w.Priority = models.PriorityMedium
			}
			if !w.Priority.Valid() {
				return apperr.Validationf("unknown priority %q", w.Priority)
			}
			w.ID = 0
			w.UserID = userID
			if w.AddedAt.IsZero() {
				w.AddedAt = now
			}
			keepWish = append(keepWish, w.CardID)
		}

		delWish := tx.Where("user_id = ?", userID)
		if len(keepWish) > 0 {
			delWish = delWish.Where("card_id NOT IN ?", keepWish)
		}
		if err := delWish.Delete(&models.WishlistItem{}).Error; err != nil {
			return err
		}

		if len(req.Wishlist) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "card_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"priority", "card_name", "card_set_name", "card_set_code",
					"card_number", "card_rarity", "card_image_url",
					"card_market_price_usd", "card_price_updated_at",
				}),
			}).Create(&req.Wishlist).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// AddItem adds a card to the collection, merging into an existing row for
// the same card when one exists.
func (s *CollectionService) AddItem(userID string, req models.AddToCollectionRequest) (*models.CollectionItem, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, apperr.Validationf("quantity must be positive")
	}
	if quantity > maxQuantity {
		return nil, apperr.Validationf("quantity exceeds maximum allowed (%d)", maxQuantity)
	}
	condition := req.Condition
	if condition == "" {
		condition = models.ConditionRaw
	}
	if !condition.Valid() {
		return nil, apperr.Validationf("unknown condition %q", condition)
	}

	var existing models.CollectionItem
	err := s.db.Where("user_id = ? AND card_id = ?", userID, req.CardID).First(&existing).Error
	if err == nil {
		existing.Quantity += quantity
		if existing.Quantity > maxQuantity {
			return nil, apperr.Validationf("quantity exceeds maximum allowed (%d)", maxQuantity)
		}
		if req.PurchasePriceUSD != nil {
			existing.PurchasePriceUSD = req.PurchasePriceUSD
		}
		existing.UpdatedAt = time.Now()
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	item := models.CollectionItem{
		UserID:           userID,
		CardID:           req.CardID,
		Card:             req.Card,
		Quantity:         quantity,
		PurchasePriceUSD: req.PurchasePriceUSD,
		Condition:        condition,
		GradingCompany:   req.GradingCompany,
		GradingGrade:     req.GradingGrade,
		AddedAt:          now,
		UpdatedAt:        now,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem mutates quantity, condition, grading, or purchase price.
// Quantity cannot drop below the locked amount, and reaching zero removes
// the row. A nil item with nil error means the item was removed.
func (s *CollectionService) UpdateItem(userID, cardID string, req models.UpdateCollectionItemRequest) (*models.CollectionItem, error) {
	var item models.CollectionItem
	if err := s.db.Where("user_id = ? AND card_id = ?", userID, cardID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("item not found")
		}
		return nil, err
	}

	if req.Quantity != nil {
		q := *req.Quantity
		if q < 0 {
			return nil, apperr.Validationf("quantity must not be negative")
		}
		if q > maxQuantity {
			return nil, apperr.Validationf("quantity exceeds maximum allowed (%d)", maxQuantity)
		}
		if q < item.LockedQuantity {
			return nil, apperr.Conflictf("%d cards are locked by active listings", item.LockedQuantity)
		}
		item.Quantity = q
	}
	if req.Condition != nil {
		if !req.Condition.Valid() {
			return nil, apperr.Validationf("unknown condition %q", *req.Condition)
		}
		item.Condition = *req.Condition
	}
	if req.PurchasePriceUSD != nil {
		item.PurchasePriceUSD = req.PurchasePriceUSD
	}
	if req.GradingCompany != nil {
		item.GradingCompany = *req.GradingCompany
	}
	if req.GradingGrade != nil {
		item.GradingGrade = *req.GradingGrade
	}

	if item.Quantity == 0 {
		if err := s.db.Delete(&item).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}

	item.UpdatedAt = time.Now()
	if err := s.db.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a collection row. Items with quantity locked by
// active listings cannot be removed.
func (s *CollectionService) RemoveItem(userID, cardID string) error {
	var item models.CollectionItem
	if err := s.db.Where("user_id = ? AND card_id = ?", userID, cardID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("item not found")
		}
		return err
	}
	if item.LockedQuantity > 0 {
		return apperr.Conflictf("%d cards are locked by active listings", item.LockedQuantity)
	}
	return s.db.Delete(&item).Error
}

// AddWishlistItem adds a card to the wishlist or updates its priority.
func (s *CollectionService) AddWishlistItem(userID string, req models.AddToWishlistRequest) (*models.WishlistItem, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validationf("unknown priority %q", priority)
	}

	var existing models.WishlistItem
	err := s.db.Where("user_id = ? AND card_id = ?", userID, req.CardID).First(&existing).Error
	if err == nil {
		existing.Priority = priority
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item := models.WishlistItem{
		UserID:   userID,
		CardID:   req.CardID,
		Card:     req.Card,
		Priority: priority,
		AddedAt:  time.Now(),
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateWishlistPriority changes the priority of a wishlist entry.
func (s *CollectionService) UpdateWishlistPriority(userID, cardID string, priority models.WishlistPriority) (*models.WishlistItem, error) {
	if !priority.Valid() {
		return nil, apperr.Validationf("unknown priority %q", priority)
	}
	var item models.WishlistItem
	if err := s.db.Where("user_id = ? AND card_id = ?", userID, cardID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("wishlist item not found")
		}
		return nil, err
	}
	item.Priority = priority
	if err := s.db.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveWishlistItem deletes a wishlist entry.
func (s *CollectionService) RemoveWishlistItem(userID, cardID string) error {
	result := s.db.Where("user_id = ? AND card_id = ?", userID, cardID).Delete(&models.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("wishlist item not found")
	}
	return nil
}

// Stats summarizes one user's collection in USD.
func (s *CollectionService) Stats(userID string) (*models.CollectionStats, error) {
	var stats models.CollectionStats

	if err := s.db.Model(&models.CollectionItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&stats.TotalCards).Error; err != nil {
		return nil, err
	}

	var uniqueCount int64
	s.db.Model(&models.CollectionItem{}).Where("user_id = ?", userID).Count(&uniqueCount)
	stats.UniqueCards = int(uniqueCount)

	s.db.Model(&models.CollectionItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(locked_quantity), 0)").
		Scan(&stats.LockedCards)

	var wishCount int64
	s.db.Model(&models.WishlistItem{}).Where("user_id = ?", userID).Count(&wishCount)
	stats.WishlistCards = int(wishCount)

	s.db.Model(&models.CollectionItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(card_market_price_usd * quantity), 0)").
		Scan(&stats.TotalValueUSD)

	return &stats, nil
}

// RefreshGlobalGauges recomputes the cross-user collection metrics.
func (s *CollectionService) RefreshGlobalGauges() {
	var totalCards int
	s.db.Model(&models.CollectionItem{}).Select("COALESCE(SUM(quantity), 0)").Scan(&totalCards)
	metrics.CollectionCardsTotal.Set(float64(totalCards))

	var totalValue float64
	s.db.Model(&models.CollectionItem{}).Select("COALESCE(SUM(card_market_price_usd * quantity), 0)").Scan(&totalValue)
	metrics.CollectionValueUSD.Set(totalValue)
}
