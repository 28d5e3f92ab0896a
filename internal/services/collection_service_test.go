package services

import (
	"errors"
	"testing"

	"github.com/pokefolio/pokefolio/internal/apperr"
	"github.com/pokefolio/pokefolio/internal/models"
)

func syncItem(cardID string, quantity int) models.CollectionItem {
	return models.CollectionItem{
		CardID:   cardID,
		Quantity: quantity,
		Card: models.CardSnapshot{
			Name:           "Pikachu",
			SetCode:        "sv1",
			MarketPriceUSD: 2.0,
		},
	}
}

func TestSyncReplacesCollection(t *testing.T) {
	db := newTestDB(t)
	svc := NewCollectionService(db)
	user := seedUser(t, db, "collector")
	seedItem(t, db, user.ID, "old-card", 4)

	err := svc.Sync(user.ID, models.CollectionSyncRequest{
		Items: []models.CollectionItem{
			syncItem("sv1-001", 2),
			syncItem("sv1-002", 7),
		},
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	var items []models.CollectionItem
	db.Where("user_id = ?", user.ID).Find(&items)
	if len(items) != 2 {
		t.Fatalf("collection has %d items after sync, want 2", len(items))
	}
	for _, item := range items {
		if item.CardID == "old-card" {
			t.Errorf("row absent from the payload survived the sync")
		}
	}
}

func TestSyncPreservesServerLocks(t *testing.T) {
	db := newTestDB(t)
	collection := NewCollectionService(db)
	listings := NewListingService(db)
	user := seedUser(t, db, "collector")
	seedItem(t, db, user.ID, "sv3-125", 10)

	if _, err := listings.CreateListing(user.ID, listingReq("sv3-125", 4, 100)); err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}

	tests := []struct {
		name         string
		syncQuantity int
		clientLock   int
		wantLocked   int
	}{
		{"lock survives client omitting it", 10, 0, 4},
		{"client cannot inflate the lock", 10, 9, 4},
		{"lock clamped to reduced quantity", 2, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := syncItem("sv3-125", tt.syncQuantity)
			item.LockedQuantity = tt.clientLock
			err := collection.Sync(user.ID, models.CollectionSyncRequest{
				Items: []models.CollectionItem{item},
			})
			if err != nil {
				t.Fatalf("Sync failed: %v", err)
			}

			got := getItem(t, db, user.ID, "sv3-125")
			if got.LockedQuantity != tt.wantLocked {
				t.Errorf("locked quantity = %d, want %d", got.LockedQuantity, tt.wantLocked)
			}
			if got.Quantity != tt.syncQuantity {
				t.Errorf("quantity = %d, want %d", got.Quantity, tt.syncQuantity)
			}

			// Restore for the next case.
			db.Model(&models.CollectionItem{}).
				Where("user_id = ? AND card_id = ?", user.ID, "sv3-125").
				Updates(map[string]any{"quantity": 10, "locked_quantity": 4})
		})
	}
}

func TestSyncValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCollectionService(db)
	user := seedUser(t, db, "collector")

	tests := []struct {
		name string
		item models.CollectionItem
	}{
		{"missing card id", syncItem("", 1)},
		{"negative quantity", syncItem("sv1-001", -1)},
		{"over max quantity", syncItem("sv1-001", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Sync(user.ID, models.CollectionSyncRequest{Items: []models.CollectionItem{tt.item}})
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestAddItemMergesByCard(t *testing.T) {
	db := newTestDB(t)
	svc := NewCollectionService(db)
	user := seedUser(t, db, "collector")

	req := models.AddToCollectionRequest{
		CardID:   "sv1-001",
		Card:     models.CardSnapshot{Name: "Pikachu", MarketPriceUSD: 2},
		Quantity: 2,
	}
	if _, err := svc.AddItem(user.ID, req); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	item, err := svc.AddItem(user.ID, req)
	if err != nil {
		t.Fatalf("second AddItem failed: %v", err)
	}
	if item.Quantity != 4 {
		t.Errorf("quantity after merge = %d, want 4", item.Quantity)
	}

	var count int64
	db.Model(&models.CollectionItem{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("collection has %d rows, want 1 merged row", count)
	}
}

func TestUpdateItemQuantityZeroRemoves(t *testing.T) {
	db := newTestDB(t)
	svc := NewCollectionService(db)
	user := seedUser(t, db, "collector")
	seedItem(t, db, user.ID, "sv3-125", 3)

	zero := 0
	item, err := svc.UpdateItem(user.ID, "sv3-125", models.UpdateCollectionItemRequest{Quantity: &zero})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if item != nil {
		t.Errorf("item = %+v, want nil after zero-quantity removal", item)
	}

	var count int64
	db.Model(&models.CollectionItem{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("collection has %d rows, want 0", count)
	}
}

func TestGetCollectionValuation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCollectionService(db)
	user := seedUser(t, db, "collector")

	purchase := 20.0
	item := seedItem(t, db, user.ID, "sv3-125", 2) // market 42.50 each
	db.Model(item).Update("purchase_price_usd", purchase)

	t.Run("USD", func(t *testing.T) {
		resp, err := svc.GetCollection(user)
		if err != nil {
			t.Fatalf("GetCollection failed: %v", err)
		}
		if len(resp.Items) != 1 {
			t.Fatalf("items = %d, want 1", len(resp.Items))
		}
		got := resp.Items[0]
		if got.MarketValue != 85.0 {
			t.Errorf("market value = %v, want 85.0", got.MarketValue)
		}
		if got.ProfitLoss != 45.0 {
			t.Errorf("profit = %v, want 45.0", got.ProfitLoss)
		}
		if resp.Totals.MarketValue != 85.0 {
			t.Errorf("total market value = %v, want 85.0", resp.Totals.MarketValue)
		}
	})

	t.Run("PHP", func(t *testing.T) {
		phpUser := *user
		phpUser.Currency = "PHP"
		resp, err := svc.GetCollection(&phpUser)
		if err != nil {
			t.Fatalf("GetCollection failed: %v", err)
		}
		want := 85.0 * 56.5
		if resp.Totals.MarketValue != want {
			t.Errorf("total market value = %v, want %v", resp.Totals.MarketValue, want)
		}
		if resp.Currency != "PHP" {
			t.Errorf("currency = %q, want PHP", resp.Currency)
		}
	})
}

func TestWishlistLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewCollectionService(db)
	user := seedUser(t, db, "collector")

	item, err := svc.AddWishlistItem(user.ID, models.AddToWishlistRequest{
		CardID: "sv1-001",
		Card:   models.CardSnapshot{Name: "Pikachu"},
	})
	if err != nil {
		t.Fatalf("AddWishlistItem failed: %v", err)
	}
	if item.Priority != models.PriorityMedium {
		t.Errorf("default priority = %q, want medium", item.Priority)
	}

	item, err = svc.UpdateWishlistPriority(user.ID, "sv1-001", models.PriorityHigh)
	if err != nil {
		t.Fatalf("UpdateWishlistPriority failed: %v", err)
	}
	if item.Priority != models.PriorityHigh {
		t.Errorf("priority = %q, want high", item.Priority)
	}

	if err := svc.RemoveWishlistItem(user.ID, "sv1-001"); err != nil {
		t.Fatalf("RemoveWishlistItem failed: %v", err)
	}
	if err := svc.RemoveWishlistItem(user.ID, "sv1-001"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove: error = %v, want not found", err)
	}
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewCollectionService(db)
	listings := NewListingService(db)
	user := seedUser(t, db, "collector")
	seedItem(t, db, user.ID, "sv3-125", 3)

	if _, err := listings.CreateListing(user.ID, listingReq("sv3-125", 2, 100)); err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}
	if _, err := svc.AddWishlistItem(user.ID, models.AddToWishlistRequest{
		CardID: "sv1-001",
		Card:   models.CardSnapshot{Name: "Pikachu"},
	}); err != nil {
		t.Fatalf("AddWishlistItem failed: %v", err)
	}

	stats, err := svc.Stats(user.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCards != 3 {
		t.Errorf("total cards = %d, want 3", stats.TotalCards)
	}
	if stats.UniqueCards != 1 {
		t.Errorf("unique cards = %d, want 1", stats.UniqueCards)
	}
	if stats.LockedCards != 2 {
		t.Errorf("locked cards = %d, want 2", stats.LockedCards)
	}
	if stats.WishlistCards != 1 {
		t.Errorf("wishlist cards = %d, want 1", stats.WishlistCards)
	}
	if want := 3 * 42.50; stats.TotalValueUSD != want {
		t.Errorf("total value = %v, want %v", stats.TotalValueUSD, want)
	}
}
