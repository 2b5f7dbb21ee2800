package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

type DeviceStore struct {
	db *gorm.DB
}

func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

type DeviceInput struct {
	Name        string `json:"name" binding:"required"`
	ReservoirID *uint  `json:"reservoir_id"`
}

// DeviceUpdate changes a device. DetachReservoir clears the link and wins
// over ReservoirID.
type DeviceUpdate struct {
	Name            *string              `json:"name"`
	ReservoirID     *uint                `json:"reservoir_id"`
	DetachReservoir bool                 `json:"detach_reservoir"`
	Status          *models.DeviceStatus `json:"status"`
}

func newAPIKey() string {
	return uuid.NewString()
}

// checkReservoir makes sure a device is only attached to the caller's own
// reservoirs.
func (s *DeviceStore) checkReservoir(ctx context.Context, reservoirID, userID uint) error {
	var n int64
	if err := s.db.WithContext(ctx).
		Model(&models.Reservoir{}).
		Where("id = ? AND user_id = ?", reservoirID, userID).
		Count(&n).Error; err != nil {
		return fmt.Errorf("failed to fetch reservoir: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reservoir %d: %w", reservoirID, apperror.ErrNotFound)
	}
	return nil
}

func (s *DeviceStore) List(ctx context.Context, userID uint) ([]models.Device, error) {
	devices := []models.Device{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	return devices, nil
}

// Get returns a device owned by userID. Devices of other users are reported
// as not found.
func (s *DeviceStore) Get(ctx context.Context, id, userID uint) (*models.Device, error) {
	var d models.Device
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("device %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device: %w", err)
	}
	return &d, nil
}

// Create registers a device and issues its API key.
func (s *DeviceStore) Create(ctx context.Context, userID uint, in DeviceInput) (*models.Device, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperror.ErrInvalidArgument)
	}
	if in.ReservoirID != nil {
		if err := s.checkReservoir(ctx, *in.ReservoirID, userID); err != nil {
			return nil, err
		}
	}

	d := &models.Device{
		UserID:      userID,
		ReservoirID: in.ReservoirID,
		Name:        name,
		APIKey:      newAPIKey(),
		Status:      models.DeviceStatusOffline,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return d, nil
}

func (s *DeviceStore) Update(ctx context.Context, id, userID uint, u DeviceUpdate) (*models.Device, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", apperror.ErrInvalidArgument)
		}
		changes["name"] = name
	}
	switch {
	case u.DetachReservoir:
		changes["reservoir_id"] = nil
	case u.ReservoirID != nil:
		if err := s.checkReservoir(ctx, *u.ReservoirID, userID); err != nil {
			return nil, err
		}
		changes["reservoir_id"] = *u.ReservoirID
	}
	if u.Status != nil {
		if !models.IsValidDeviceStatus(*u.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", apperror.ErrInvalidArgument, *u.Status)
		}
		changes["status"] = *u.Status
	}

	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Device{ID: id}).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("failed to update device: %w", err)
		}
	}
	return s.Get(ctx, id, userID)
}

func (s *DeviceStore) Delete(ctx context.Context, id, userID uint) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Device{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}

// RotateKey replaces the API key of a device. The old key stops working
// immediately.
func (s *DeviceStore) RotateKey(ctx context.Context, id, userID uint) (*models.Device, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Device{ID: id}).
		Update("api_key", newAPIKey()).Error; err != nil {
		return nil, fmt.Errorf("failed to rotate api key: %w", err)
	}
	return s.Get(ctx, id, userID)
}

// ByAPIKey resolves a device and its owner from an API key.
func (s *DeviceStore) ByAPIKey(ctx context.Context, key string) (*models.Device, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: missing api key", apperror.ErrUnauthorized)
	}
	var d models.Device
	err := s.db.WithContext(ctx).
		Joins("User").
		Where("devices.api_key = ?", key).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid api key", apperror.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device: %w", err)
	}
	return &d, nil
}
