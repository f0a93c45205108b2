package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sunriver-travel/nilecms/internal/logger"
	"github.com/sunriver-travel/nilecms/internal/models"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// AvailabilityService manages the per-vessel calendar grid. A (vessel, date)
// cell is in one of three states: unset (no row), available (row,
// available=true), or blocked (row, available=false). Rows are only ever
// created by the month seeding operation; the toggle flips existing rows and
// nothing deletes them.
type AvailabilityService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewAvailabilityService wires the service dependencies.
func NewAvailabilityService(db *gorm.DB, log *logger.Logger) *AvailabilityService {
	return &AvailabilityService{db: db, log: log.With("service", "availability")}
}

// GetRange returns every row for the vessel whose date falls in
// [start, end], ordered by date. Days in range without a row are "unset";
// the calendar infers that client-side.
func (s *AvailabilityService) GetRange(ctx context.Context, dahabiyaID string, start, end time.Time) ([]models.AvailabilityDate, error) {
	var rows []models.AvailabilityDate
	err := s.db.WithContext(ctx).
		Clauses(hints.CommentBefore("select", "availability-range")).
		Where("dahabiya_id = ? AND date >= ? AND date <= ?",
			dahabiyaID, normalizeDate(start), normalizeDate(end)).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SeedMonth creates one row per day of the given month that does not
// already have one, available and priced at the vessel's daily rate.
// Existing rows are left untouched, so running it twice creates nothing the
// second time. Returns the number of rows created.
func (s *AvailabilityService) SeedMonth(ctx context.Context, dahabiyaID string, year int, month time.Month) (int64, error) {
	var vessel models.Dahabiya
	if err := s.db.WithContext(ctx).First(&vessel, "id = ?", dahabiyaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("dahabiya %q: %w", dahabiyaID, ErrNotFound)
		}
		return 0, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	var existing []models.AvailabilityDate
	if err := s.db.WithContext(ctx).
		Where("dahabiya_id = ? AND date >= ? AND date < ?", dahabiyaID, first, next).
		Find(&existing).Error; err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		have[row.Date.UTC().Format("2006-01-02")] = struct{}{}
	}

	var missing []models.AvailabilityDate
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if _, ok := have[d.Format("2006-01-02")]; ok {
			continue
		}
		missing = append(missing, models.AvailabilityDate{
			DahabiyaID: dahabiyaID,
			Date:       d,
			Available:  true,
			Price:      vessel.DailyRate,
		})
	}
	if len(missing) == 0 {
		return 0, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&missing, 31).Error
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("seeded availability month",
		"dahabiya", dahabiyaID, "year", year, "month", int(month), "created", len(missing))
	return int64(len(missing)), nil
}

// Toggle flips the available flag of an existing row. Toggling a cell with
// no row fails with ErrNotFound; it never creates one.
func (s *AvailabilityService) Toggle(ctx context.Context, id uint64) (*models.AvailabilityDate, error) {
	var row models.AvailabilityDate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("availability row %d: %w", id, ErrNotFound)
			}
			return err
		}
		row.Available = !row.Available
		return tx.Model(&models.AvailabilityDate{}).
			Where("id = ?", id).
			Update("available", row.Available).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// normalizeDate truncates a timestamp to midnight UTC, the canonical form
// for grid dates.
func normalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
