package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultMeasurementLimit = 100
	MaxMeasurementLimit     = 1000
)

type MeasurementStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMeasurementStore(db *gorm.DB) *MeasurementStore {
	return &MeasurementStore{db: db, now: time.Now}
}

// HistoryQuery filters a device's measurements. Zero times are open bounds.
type HistoryQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Add stores a reading and marks the device online. A zero at means now.
func (s *MeasurementStore) Add(ctx context.Context, deviceID uint, value float64, at time.Time) (*models.Measurement, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value must be a finite number", apperror.ErrInvalidArgument)
	}
	now := s.now().UTC()
	if at.IsZero() {
		at = now
	}

	m := &models.Measurement{Time: at.UTC(), DeviceID: deviceID, Value: value}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: measurement for device %d at %s already exists",
					apperror.ErrConflict, deviceID, at.Format(time.RFC3339Nano))
			}
			return fmt.Errorf("failed to store measurement: %w", err)
		}
		return tx.Model(&models.Device{ID: deviceID}).Updates(map[string]interface{}{
			"last_seen": now,
			"status":    models.DeviceStatusOnline,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// History returns a device's measurements, newest first.
func (s *MeasurementStore) History(ctx context.Context, deviceID uint, q HistoryQuery) ([]models.Measurement, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultMeasurementLimit
	}
	if limit > MaxMeasurementLimit {
		limit = MaxMeasurementLimit
	}

	query := s.db.WithContext(ctx).Where("device_id = ?", deviceID)
	if !q.From.IsZero() {
		query = query.Where("time >= ?", q.From.UTC())
	}
	if !q.To.IsZero() {
		query = query.Where("time <= ?", q.To.UTC())
	}

	measurements := []models.Measurement{}
	if err := query.Order("time desc").Limit(limit).Find(&measurements).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch measurements: %w", err)
	}
	return measurements, nil
}
