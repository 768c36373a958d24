package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

// Source resolves accounts for authorization checks and notification fan-out
type Source interface {
	FindAccountByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ActiveAdminsInRegion(ctx context.Context, role models.Role, region string) ([]models.User, error)
}

// Store is the GORM-backed identity source
type Store struct {
	db *gorm.DB
}

// NewStore creates a new identity store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindAccountByID looks up one account
func (s *Store) FindAccountByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Account", id.String())
		}
		return nil, apperrors.Infrastructure("identity store lookup failed", err)
	}
	return &user, nil
}

// ActiveAdminsInRegion returns every active, approved administrator of the
// given tier assigned to the region.
func (s *Store) ActiveAdminsInRegion(ctx context.Context, role models.Role, region string) ([]models.User, error) {
	var admins []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND is_active = ? AND is_approved = ? AND region = ?", role, true, true, region).
		Find(&admins).Error
	if err != nil {
		return nil, apperrors.Infrastructure("identity store query failed", err)
	}
	return admins, nil
}

// FindAccountByPhone looks up one account by phone number
func (s *Store) FindAccountByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Account", phone)
		}
		return nil, apperrors.Infrastructure("identity store lookup failed", err)
	}
	return &user, nil
}
