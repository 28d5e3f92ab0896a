package database

import (
	"log"

	"gorm.io/gorm"
)

// RunMigrations runs custom data migrations after schema changes.
// Each step is safe to run multiple times.
func RunMigrations(db *gorm.DB) error {
	if err := normalizeLockedQuantities(db); err != nil {
		return err
	}
	if err := normalizeListingStatus(db); err != nil {
		return err
	}
	return nil
}

// normalizeLockedQuantities repairs rows where drift from partial failures
// left locked_quantity outside [0, quantity]. The running system clamps at
// zero on every release; this sweeps anything that slipped through.
func normalizeLockedQuantities(db *gorm.DB) error {
	if !db.Migrator().HasTable("collection_items") {
		return nil
	}

	result := db.Exec(`UPDATE collection_items SET locked_quantity = 0 WHERE locked_quantity < 0`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Normalized %d collection items with negative locked quantity", result.RowsAffected)
	}

	result = db.Exec(`UPDATE collection_items SET locked_quantity = quantity WHERE locked_quantity > quantity`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Clamped %d collection items with locked quantity above owned quantity", result.RowsAffected)
	}

	return nil
}

// normalizeListingStatus defaults NULL/empty statuses to 'active'.
func normalizeListingStatus(db *gorm.DB) error {
	if !db.Migrator().HasTable("listings") {
		return nil
	}

	result := db.Exec(`UPDATE listings SET status = 'active' WHERE status IS NULL OR status = ''`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Normalized %d listings with missing status", result.RowsAffected)
	}

	return nil
}
