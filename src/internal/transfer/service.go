package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
	"github.com/geekskaran/Cattel-Backend/src/internal/notifications"
)

// Service owns the peer-to-peer ownership transfer workflow
type Service struct {
	db       *gorm.DB
	cfg      *viper.Viper
	identity identity.Source
	notifier *notifications.Service
	logger   *slog.Logger
}

// NewService creates a new transfer service
func NewService(db *gorm.DB, cfg *viper.Viper, ids identity.Source, notifier *notifications.Service, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		identity: ids,
		notifier: notifier,
		logger:   logger,
	}
}

// InitiateInput carries a new transfer request
type InitiateInput struct {
	CattleID  uuid.UUID
	ToOwnerID uuid.UUID
	Type      models.TransferType
	Price     *float64
	Notes     string
}

// Initiate creates a pending transfer for an active cattle record. At most
// one pending request may exist per animal; the check runs inside the
// creating transaction and is backed by a partial unique index.
func (s *Service) Initiate(ctx context.Context, fromOwnerID uuid.UUID, in InitiateInput) (*models.TransferRequest, error) {
	if in.ToOwnerID == fromOwnerID {
		return nil, apperrors.Validation("cannot transfer cattle to yourself", "to_owner_id")
	}
	if in.Type == "" {
		in.Type = models.TransferTypeOther
	}

	receiver, err := s.identity.FindAccountByID(ctx, in.ToOwnerID)
	if err != nil {
		return nil, err
	}
	if !receiver.IsActive {
		return nil, apperrors.Validation("receiving account is not active", "to_owner_id")
	}

	expiryDays := s.cfg.GetInt("transfer.expiry_days")
	if expiryDays <= 0 {
		expiryDays = 30
	}

	now := time.Now().UTC()
	request := &models.TransferRequest{
		CattleID:    in.CattleID,
		FromOwnerID: fromOwnerID,
		ToOwnerID:   in.ToOwnerID,
		Type:        in.Type,
		Price:       in.Price,
		Notes:       in.Notes,
		Status:      models.TransferStatusPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(time.Duration(expiryDays) * 24 * time.Hour),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cattle models.Cattle
		if err := tx.First(&cattle, "id = ?", in.CattleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Cattle", in.CattleID.String())
			}
			return apperrors.WrapDB("load cattle", err)
		}
		if cattle.OwnerID != fromOwnerID {
			return apperrors.NotFound("Cattle", in.CattleID.String())
		}
		if cattle.Lifecycle != models.LifecycleActive {
			return apperrors.Conflict("only active cattle can be transferred", "cattle")
		}

		var pending int64
		if err := tx.Model(&models.TransferRequest{}).
			Where("cattle_id = ? AND status = ?", in.CattleID, models.TransferStatusPending).
			Count(&pending).Error; err != nil {
			return apperrors.WrapDB("check pending transfers", err)
		}
		if pending > 0 {
			return apperrors.Conflict("a pending transfer already exists for this cattle", "transfer_request")
		}

		if err := tx.Create(request).Error; err != nil {
			return apperrors.WrapDB("create transfer request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, in.ToOwnerID, notifications.Input{
		Type:              models.NotificationTransferRequested,
		Title:             "Cattle transfer offered",
		Message:           "You received a cattle ownership transfer request.",
		RelatedEntityType: "transfer_request",
		RelatedEntityID:   &request.ID,
	})

	return request, nil
}

// Accept settles a pending transfer for the receiving owner. The status
// flip, the cattle owner reassignment and the history entry are written in
// one transaction so ownership is never split between two holders.
func (s *Service) Accept(ctx context.Context, transferID, userID uuid.UUID, message string) (*models.TransferRequest, error) {
	request, err := s.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if request.ToOwnerID != userID {
		return nil, apperrors.NotFound("Transfer request", transferID.String())
	}
	if request.Status != models.TransferStatusPending {
		return nil, s.wrongState(request.Status, "accept")
	}
	if time.Now().UTC().After(request.ExpiresAt) {
		return nil, apperrors.Conflict("transfer request has expired", "transfer_request")
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The conditional flip decides the winner between concurrent calls.
		result := tx.Model(&models.TransferRequest{}).
			Where("id = ? AND status = ?", request.ID, models.TransferStatusPending).
			Updates(map[string]interface{}{
				"status":           models.TransferStatusAccepted,
				"response_message": message,
				"processed_at":     now,
			})
		if result.Error != nil {
			return apperrors.WrapDB("accept transfer", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflict("transfer request was resolved concurrently", "transfer_request")
		}

		reassign := tx.Model(&models.Cattle{}).
			Where("id = ? AND owner_id = ?", request.CattleID, request.FromOwnerID).
			Update("owner_id", request.ToOwnerID)
		if reassign.Error != nil {
			return apperrors.WrapDB("reassign cattle owner", reassign.Error)
		}
		if reassign.RowsAffected == 0 {
			return apperrors.Conflict("cattle ownership changed since the transfer was created", "cattle")
		}

		history := &models.TransferRecord{
			CattleID:          request.CattleID,
			TransferRequestID: &request.ID,
			FromOwnerID:       request.FromOwnerID,
			ToOwnerID:         request.ToOwnerID,
			Type:              request.Type,
			Price:             request.Price,
			Notes:             request.Notes,
			TransferredAt:     now,
		}
		if err := tx.Create(history).Error; err != nil {
			return apperrors.WrapDB("create transfer record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, request.FromOwnerID, notifications.Input{
		Type:              models.NotificationTransferAccepted,
		Title:             "Transfer accepted",
		Message:           "Your cattle transfer request was accepted. Ownership has moved to the receiver.",
		RelatedEntityType: "transfer_request",
		RelatedEntityID:   &request.ID,
	})

	return s.Get(ctx, request.ID)
}

// Reject declines a pending transfer for the receiving owner
func (s *Service) Reject(ctx context.Context, transferID, userID uuid.UUID, message string) (*models.TransferRequest, error) {
	request, err := s.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if request.ToOwnerID != userID {
		return nil, apperrors.NotFound("Transfer request", transferID.String())
	}
	if request.Status != models.TransferStatusPending {
		return nil, s.wrongState(request.Status, "reject")
	}

	if err := s.settle(ctx, request, models.TransferStatusRejected, message); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, request.FromOwnerID, notifications.Input{
		Type:              models.NotificationTransferRejected,
		Title:             "Transfer rejected",
		Message:           "Your cattle transfer request was rejected by the receiver.",
		RelatedEntityType: "transfer_request",
		RelatedEntityID:   &request.ID,
	})

	return s.Get(ctx, request.ID)
}

// Cancel withdraws a pending transfer for the sending owner
func (s *Service) Cancel(ctx context.Context, transferID, userID uuid.UUID, reason string) (*models.TransferRequest, error) {
	request, err := s.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if request.FromOwnerID != userID {
		return nil, apperrors.NotFound("Transfer request", transferID.String())
	}
	if request.Status != models.TransferStatusPending {
		return nil, s.wrongState(request.Status, "cancel")
	}

	message := strings.TrimSpace(reason)
	if message == "" {
		message = "Cancelled by sender"
	}
	if err := s.settle(ctx, request, models.TransferStatusCancelled, message); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, request.ToOwnerID, notifications.Input{
		Type:              models.NotificationTransferCancelled,
		Title:             "Transfer cancelled",
		Message:           "A cattle transfer offered to you was cancelled by the sender.",
		RelatedEntityType: "transfer_request",
		RelatedEntityID:   &request.ID,
	})

	return s.Get(ctx, request.ID)
}

// ExpireStale cancels every pending transfer past its expiry horizon. It is
// invoked by an external periodic trigger.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.TransferRequest{}).
		Where("status = ? AND expires_at < ?", models.TransferStatusPending, now).
		Updates(map[string]interface{}{
			"status":           models.TransferStatusCancelled,
			"response_message": "Expired",
			"processed_at":     now,
		})
	if result.Error != nil {
		return 0, apperrors.WrapDB("expire transfer requests", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Info("expired stale transfer requests", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// Get loads one transfer request
func (s *Service) Get(ctx context.Context, transferID uuid.UUID) (*models.TransferRequest, error) {
	var request models.TransferRequest
	err := s.db.WithContext(ctx).First(&request, "id = ?", transferID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Transfer request", transferID.String())
		}
		return nil, apperrors.WrapDB("load transfer request", err)
	}
	return &request, nil
}

// ListForUser returns transfers the user sent or received
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, status models.TransferStatus) ([]models.TransferRequest, error) {
	query := s.db.WithContext(ctx).Preload("Cattle").
		Where("from_owner_id = ? OR to_owner_id = ?", userID, userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.TransferRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, apperrors.WrapDB("list transfer requests", err)
	}
	return requests, nil
}

// HistoryForCattle returns the append-only handoff history of one animal
func (s *Service) HistoryForCattle(ctx context.Context, cattleID uuid.UUID) ([]models.TransferRecord, error) {
	var history []models.TransferRecord
	err := s.db.WithContext(ctx).
		Preload("FromOwner").
		Preload("ToOwner").
		Where("cattle_id = ?", cattleID).
		Order("transferred_at DESC").
		Find(&history).Error
	if err != nil {
		return nil, apperrors.WrapDB("load transfer history", err)
	}
	return history, nil
}

// settle writes a terminal status with an optimistic check on pending
func (s *Service) settle(ctx context.Context, request *models.TransferRequest, status models.TransferStatus, message string) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.TransferRequest{}).
		Where("id = ? AND status = ?", request.ID, models.TransferStatusPending).
		Updates(map[string]interface{}{
			"status":           status,
			"response_message": message,
			"processed_at":     now,
		})
	if result.Error != nil {
		return apperrors.WrapDB("settle transfer", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("transfer request was resolved concurrently", "transfer_request")
	}
	return nil
}

func (s *Service) wrongState(current models.TransferStatus, action string) error {
	return apperrors.Conflict(
		fmt.Sprintf("cannot %s a transfer in state %q", action, current),
		"transfer_request",
	).WithDetail("current_status", string(current))
}
