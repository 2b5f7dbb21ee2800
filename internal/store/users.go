// Package store holds the gorm backed persistence for users, reservoirs,
// devices and measurements.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Registration is the input of Register.
type Registration struct {
	Email     string  `json:"email" binding:"required"`
	Password  string  `json:"password" binding:"required"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ProfileUpdate carries the fields a user may change on their own account.
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email %q", apperror.ErrInvalidArgument, email)
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperror.ErrInvalidArgument, minPasswordLength)
	}
	return nil
}

func (s *UserStore) Register(ctx context.Context, r Registration) (*models.User, error) {
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(r.Password); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      models.RoleUser,
	}
	if err := user.SetPassword(r.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email %s is already registered", apperror.ErrConflict, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	}
	if user.IsBanned {
		return nil, fmt.Errorf("%w: account is banned", apperror.ErrPermissionDenied)
	}
	return &user, nil
}

func (s *UserStore) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id uint, u ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if u.FirstName != nil {
		changes["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		changes["last_name"] = *u.LastName
	}
	if u.Password != nil {
		if err := validatePassword(*u.Password); err != nil {
			return nil, err
		}
		if err := user.SetPassword(*u.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changes["password"] = user.Password
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (s *UserStore) SetRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: invalid role %q", apperror.ErrInvalidArgument, role)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{ID: id}).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return s.Get(ctx, id)
}

// SetBanned bans or unbans a user. Devices of banned users cannot submit
// measurements and their reservoirs are not evaluated.
func (s *UserStore) SetBanned(ctx context.Context, id uint, banned bool) (*models.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{ID: id}).Update("is_banned", banned).Error; err != nil {
		return nil, fmt.Errorf("failed to update ban flag: %w", err)
	}
	return s.Get(ctx, id)
}

// SystemStats is the admin overview.
type SystemStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalReservoirs  int64 `json:"total_reservoirs"`
	TotalDevices     int64 `json:"total_devices"`
	AlertRulesActive int64 `json:"alert_rules_active"`
	AlertEvents      int64 `json:"alert_events"`
}

func (s *UserStore) Stats(ctx context.Context) (*SystemStats, error) {
	var st SystemStats
	db := s.db.WithContext(ctx)
	counts := []struct {
		query *gorm.DB
		dst   *int64
	}{
		{db.Model(&models.User{}), &st.TotalUsers},
		{db.Model(&models.Reservoir{}), &st.TotalReservoirs},
		{db.Model(&models.Device{}), &st.TotalDevices},
		{db.Model(&models.AlertRule{}).Where("is_active = ?", true), &st.AlertRulesActive},
		{db.Model(&models.AlertEvent{}), &st.AlertEvents},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to collect stats: %w", err)
		}
	}
	return &st, nil
}

// EnsureAdmin grants the admin role to the user registered under email.
// It reports whether such a user exists.
func (s *UserStore) EnsureAdmin(ctx context.Context, email string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("role", models.RoleAdmin)
	if res.Error != nil {
		return false, fmt.Errorf("failed to promote admin: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
