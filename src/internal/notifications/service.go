package notifications

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
)

// Input describes one notification to deliver
type Input struct {
	Type              models.NotificationType
	Title             string
	Message           string
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
	Priority          models.NotificationPriority
}

// Service persists notification records and mirrors them to email when
// configured. Delivery is fire-and-forget: failures are logged and never
// propagated to the caller of the triggering transition.
type Service struct {
	db       *gorm.DB
	identity identity.Source
	mailer   *Mailer
	logger   *slog.Logger
}

// NewService creates a new notifications service
func NewService(db *gorm.DB, ids identity.Source, mailer *Mailer, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		identity: ids,
		mailer:   mailer,
		logger:   logger,
	}
}

// Notify records a notification for one recipient
func (s *Service) Notify(ctx context.Context, recipientID uuid.UUID, in Input) {
	if in.Priority == "" {
		in.Priority = models.NotificationPriorityNormal
	}

	record := &models.Notification{
		RecipientID:       recipientID,
		Type:              in.Type,
		Title:             in.Title,
		Message:           in.Message,
		RelatedEntityType: in.RelatedEntityType,
		RelatedEntityID:   in.RelatedEntityID,
		Priority:          in.Priority,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.Warn("failed to persist notification",
			"recipient", recipientID.String(),
			"type", string(in.Type),
			"error", err,
		)
		return
	}

	if s.mailer != nil && s.mailer.Enabled() {
		recipient, err := s.identity.FindAccountByID(ctx, recipientID)
		if err != nil || recipient.Email == "" {
			return
		}
		if err := s.mailer.Send(recipient.Email, recipient.Name, in.Title, in.Message); err != nil {
			s.logger.Warn("failed to send notification email",
				"recipient", recipientID.String(),
				"error", err,
			)
		}
	}
}

// NotifyAdminsInRegion fans one notification out to every active, approved
// administrator of the given tier assigned to the region.
func (s *Service) NotifyAdminsInRegion(ctx context.Context, role models.Role, region string, in Input) {
	admins, err := s.identity.ActiveAdminsInRegion(ctx, role, region)
	if err != nil {
		s.logger.Warn("failed to resolve admins for notification",
			"role", string(role),
			"region", region,
			"error", err,
		)
		return
	}
	for _, admin := range admins {
		s.Notify(ctx, admin.ID, in)
	}
}

// ListForUser returns a page of the user's notifications, newest first
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDB("count notifications", err)
	}

	var records []models.Notification
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, apperrors.WrapDB("list notifications", err)
	}
	return records, total, nil
}

// MarkRead marks one of the user's notifications as read
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return apperrors.WrapDB("mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("Notification", id.String())
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
	if err != nil {
		return apperrors.WrapDB("mark notifications read", err)
	}
	return nil
}
