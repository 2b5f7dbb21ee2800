package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

type ReservoirStore struct {
	db *gorm.DB
}

func NewReservoirStore(db *gorm.DB) *ReservoirStore {
	return &ReservoirStore{db: db}
}

type ReservoirInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Capacity    float64 `json:"capacity"`
	Location    *string `json:"location"`
}

type ReservoirUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Capacity    *float64 `json:"capacity"`
	Location    *string  `json:"location"`
}

func validateCapacity(c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return fmt.Errorf("%w: capacity must be a non-negative number", apperror.ErrInvalidArgument)
	}
	return nil
}

func (s *ReservoirStore) List(ctx context.Context, userID uint) ([]models.Reservoir, error) {
	reservoirs := []models.Reservoir{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&reservoirs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reservoirs: %w", err)
	}
	return reservoirs, nil
}

// Get returns a reservoir owned by userID. Reservoirs of other users are
// reported as not found.
func (s *ReservoirStore) Get(ctx context.Context, id, userID uint) (*models.Reservoir, error) {
	var r models.Reservoir
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reservoir %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservoir: %w", err)
	}
	return &r, nil
}

func (s *ReservoirStore) Create(ctx context.Context, userID uint, in ReservoirInput) (*models.Reservoir, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperror.ErrInvalidArgument)
	}
	if err := validateCapacity(in.Capacity); err != nil {
		return nil, err
	}

	r := &models.Reservoir{
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		Capacity:    in.Capacity,
		Location:    in.Location,
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to create reservoir: %w", err)
	}
	return r, nil
}

func (s *ReservoirStore) Update(ctx context.Context, id, userID uint, u ReservoirUpdate) (*models.Reservoir, error) {
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
	if u.Description != nil {
		changes["description"] = *u.Description
	}
	if u.Capacity != nil {
		if err := validateCapacity(*u.Capacity); err != nil {
			return nil, err
		}
		changes["capacity"] = *u.Capacity
	}
	if u.Location != nil {
		changes["location"] = *u.Location
	}

	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Reservoir{ID: id}).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("failed to update reservoir: %w", err)
		}
	}
	return s.Get(ctx, id, userID)
}

// Delete removes a reservoir together with its rules and their alert
// history. Devices attached to it are detached.
func (s *ReservoirStore) Delete(ctx context.Context, id, userID uint) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Device{}).
			Where("reservoir_id = ?", id).
			Update("reservoir_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach devices: %w", err)
		}
		if err := tx.Delete(&models.Reservoir{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete reservoir: %w", err)
		}
		return nil
	})
}
