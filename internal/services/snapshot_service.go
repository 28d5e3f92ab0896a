package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokefolio/pokefolio/internal/metrics"
	"github.com/pokefolio/pokefolio/internal/models"
)

// SnapshotService records each user's collection value once per day for the
// portfolio history chart. It runs outside the request path.
type SnapshotService struct {
	db         *gorm.DB
	collection *CollectionService

	mu            sync.RWMutex
	lastSnapshot  time.Time
	snapshotHour  int // Hour of day to take snapshots (0-23)
	checkInterval time.Duration
}

func NewSnapshotService(db *gorm.DB, collection *CollectionService) *SnapshotService {
	return &SnapshotService{
		db:            db,
		collection:    collection,
		snapshotHour:  23, // Default: 11 PM
		checkInterval: 15 * time.Minute,
	}
}

// Start begins the background snapshot worker.
func (s *SnapshotService) Start(ctx context.Context) {
	log.Println("Snapshot service started: will record daily collection values")

	s.checkAndSnapshot()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping...")
			return
		case <-ticker.C:
			s.checkAndSnapshot()
		}
	}
}

// checkAndSnapshot takes today's snapshots if the configured hour has
// passed and none exist yet.
func (s *SnapshotService) checkAndSnapshot() {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if s.hasSnapshotsForDate(today) {
		return
	}

	if now.Hour() >= s.snapshotHour {
		if err := s.TakeSnapshots(); err != nil {
			log.Printf("Snapshot service: failed to take snapshots: %v", err)
		}
	}
}

func (s *SnapshotService) hasSnapshotsForDate(date time.Time) bool {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var count int64
	s.db.Model(&models.CollectionValueSnapshot{}).
		Where("snapshot_date >= ? AND snapshot_date < ?", startOfDay, endOfDay).
		Count(&count)

	return count > 0
}

// TakeSnapshots records the current collection value for every user that
// owns at least one card. Safe to call more than once per day: rows are
// upserted on (user, date).
func (s *SnapshotService) TakeSnapshots() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	snapshotDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var userIDs []string
	if err := s.db.Model(&models.CollectionItem{}).Distinct("user_id").Pluck("user_id", &userIDs).Error; err != nil {
		return err
	}

	for _, userID := range userIDs {
		stats, err := s.collection.Stats(userID)
		if err != nil {
			log.Printf("Snapshot service: failed to compute stats for user %s: %v", userID, err)
			continue
		}

		snapshot := models.CollectionValueSnapshot{
			UserID:        userID,
			SnapshotDate:  snapshotDate,
			TotalCards:    stats.TotalCards,
			UniqueCards:   stats.UniqueCards,
			TotalValueUSD: stats.TotalValueUSD,
			WishlistCards: stats.WishlistCards,
			CreatedAt:     now,
		}

		err = s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_cards", "unique_cards", "total_value_usd", "wishlist_cards",
			}),
		}).Create(&snapshot).Error
		if err != nil {
			log.Printf("Snapshot service: failed to save snapshot for user %s: %v", userID, err)
			continue
		}
		metrics.SnapshotsRecordedTotal.Inc()
	}

	s.collection.RefreshGlobalGauges()

	s.lastSnapshot = now
	log.Printf("Snapshot service: recorded value snapshots for %d users on %s",
		len(userIDs), snapshotDate.Format("2006-01-02"))

	return nil
}

// GetHistory retrieves one user's value snapshots for a given period.
func (s *SnapshotService) GetHistory(userID, period string) ([]models.CollectionValueSnapshot, error) {
	var snapshots []models.CollectionValueSnapshot

	now := time.Now()
	var startDate time.Time

	switch period {
	case "week":
		startDate = now.AddDate(0, 0, -7)
	case "month":
		startDate = now.AddDate(0, -1, 0)
	case "3month":
		startDate = now.AddDate(0, -3, 0)
	case "year":
		startDate = now.AddDate(-1, 0, 0)
	case "all":
		startDate = time.Time{} // No filter
	default:
		startDate = now.AddDate(0, -1, 0) // Default to 1 month
	}

	query := s.db.Where("user_id = ?", userID).Order("snapshot_date ASC")
	if !startDate.IsZero() {
		query = query.Where("snapshot_date >= ?", startDate)
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}
