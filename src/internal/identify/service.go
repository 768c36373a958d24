package identify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/authz"
	"github.com/geekskaran/Cattel-Backend/src/internal/cache"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
	"github.com/geekskaran/Cattel-Backend/src/internal/notifications"
	"github.com/geekskaran/Cattel-Backend/src/internal/photos"
)

// expiredMessage is written by the stale sweep
const expiredMessage = "Request expired before it could be processed"

// Service owns the identification request workflow
type Service struct {
	db       *gorm.DB
	cfg      *viper.Viper
	identity identity.Source
	notifier *notifications.Service
	cache    *cache.Manager
	logger   *slog.Logger
}

// NewService creates a new identification service
func NewService(db *gorm.DB, cfg *viper.Viper, ids identity.Source, notifier *notifications.Service, cacheManager *cache.Manager, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		identity: ids,
		notifier: notifier,
		cache:    cacheManager,
		logger:   logger,
	}
}

// CreateInput carries a new lookup request
type CreateInput struct {
	Photo             photos.FileMeta
	Latitude          *float64
	Longitude         *float64
	Address           string
	DeviceFingerprint string
	Priority          models.IdentificationPriority
}

// Result is the outcome recorded by identification staff
type Result struct {
	Found      bool
	CattleID   *uuid.UUID
	Confidence *float64
	Message    string
}

// Create submits a lookup request and notifies the identification tier in
// the requester's region.
func (s *Service) Create(ctx context.Context, requesterID uuid.UUID, in CreateInput) (*models.IdentificationRequest, error) {
	requester, err := s.identity.FindAccountByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsActive {
		return nil, apperrors.Authorization("account is not active")
	}
	if in.Photo.Filename == "" || in.Photo.Path == "" {
		return nil, apperrors.Validation("a photo is required", "photo")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}

	expiryDays := s.cfg.GetInt("identification.expiry_days")
	if expiryDays <= 0 {
		expiryDays = 7
	}

	now := time.Now().UTC()
	request := &models.IdentificationRequest{
		RequesterID:       requester.ID,
		Filename:          in.Photo.Filename,
		Path:              in.Photo.Path,
		Size:              in.Photo.Size,
		MimeType:          in.Photo.MimeType,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		Address:           in.Address,
		DeviceFingerprint: in.DeviceFingerprint,
		Priority:          in.Priority,
		Status:            models.IdentificationPending,
		SubmittedAt:       now,
		ExpiresAt:         now.Add(time.Duration(expiryDays) * 24 * time.Hour),
	}

	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, apperrors.WrapDB("create identification request", err)
	}

	s.notifier.NotifyAdminsInRegion(ctx, models.RoleMAdmin, requester.AddressState, notifications.Input{
		Type:              models.NotificationIdentifyRequested,
		Title:             "New identification request",
		Message:           "A farmer submitted a photo for cattle identification.",
		RelatedEntityType: "identification_request",
		RelatedEntityID:   &request.ID,
		Priority:          models.NotificationPriority(in.Priority),
	})

	return request, nil
}

// StartProcessing claims a pending request for an administrator
func (s *Service) StartProcessing(ctx context.Context, requestID, adminID uuid.UUID) (*models.IdentificationRequest, error) {
	admin, err := s.identity.FindAccountByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(admin, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	request, err := s.loadScoped(ctx, requestID, admin)
	if err != nil {
		return nil, err
	}
	if request.Status != models.IdentificationPending {
		return nil, s.wrongState(request.Status, "start processing")
	}

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Where("id = ? AND status = ?", request.ID, models.IdentificationPending).
		Updates(map[string]interface{}{
			"status":            models.IdentificationProcessing,
			"started_at":        now,
			"assigned_admin_id": admin.ID,
		})
	if result.Error != nil {
		return nil, apperrors.WrapDB("start identification processing", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.Conflict("request was claimed concurrently", "identification_request")
	}

	return s.Get(ctx, request.ID)
}

// CompleteWithResult records the outcome of a lookup. A found result must
// resolve to an existing cattle record, which also receives an
// identification-history entry.
func (s *Service) CompleteWithResult(ctx context.Context, requestID, adminID uuid.UUID, res Result) (*models.IdentificationRequest, error) {
	admin, err := s.identity.FindAccountByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(admin, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	request, err := s.loadScoped(ctx, requestID, admin)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, s.wrongState(request.Status, "complete")
	}

	var matched *models.Cattle
	if res.Found {
		if res.CattleID == nil {
			return nil, apperrors.Validation("a found result requires a cattle reference", "cattle_id")
		}
		var cattle models.Cattle
		if err := s.db.WithContext(ctx).First(&cattle, "id = ?", *res.CattleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("Cattle", res.CattleID.String())
			}
			return nil, apperrors.WrapDB("resolve matched cattle", err)
		}
		matched = &cattle
	}

	now := time.Now().UTC()
	started := request.SubmittedAt
	if request.StartedAt != nil {
		started = *request.StartedAt
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":            models.IdentificationCompleted,
			"completed_at":      now,
			"processing_ms":     now.Sub(started).Milliseconds(),
			"assigned_admin_id": admin.ID,
			"result_found":      res.Found,
			"result_message":    res.Message,
		}
		if res.CattleID != nil {
			updates["result_cattle_id"] = *res.CattleID
		}
		if res.Confidence != nil {
			updates["result_confidence"] = *res.Confidence
		}

		result := tx.Model(&models.IdentificationRequest{}).
			Where("id = ? AND status IN ?", request.ID, []models.IdentificationStatus{
				models.IdentificationPending, models.IdentificationProcessing,
			}).
			Updates(updates)
		if result.Error != nil {
			return apperrors.WrapDB("complete identification request", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflict("request was resolved concurrently", "identification_request")
		}

		if matched != nil {
			record := &models.IdentificationRecord{
				CattleID:  matched.ID,
				AdminID:   admin.ID,
				RequestID: &request.ID,
				Notes:     res.Message,
			}
			if err := tx.Create(record).Error; err != nil {
				return apperrors.WrapDB("create identification record", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	message := "Your identification request completed: no matching animal was found."
	if res.Found {
		message = fmt.Sprintf("Your identification request completed: matched cattle %s.", matched.DisplayID())
	}
	s.notifier.Notify(ctx, request.RequesterID, notifications.Input{
		Type:              models.NotificationIdentifyCompleted,
		Title:             "Identification completed",
		Message:           message,
		RelatedEntityType: "identification_request",
		RelatedEntityID:   &request.ID,
	})

	return s.Get(ctx, request.ID)
}

// MarkFailed fails a request that cannot be processed
func (s *Service) MarkFailed(ctx context.Context, requestID, adminID uuid.UUID, message string) (*models.IdentificationRequest, error) {
	admin, err := s.identity.FindAccountByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(admin, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	request, err := s.loadScoped(ctx, requestID, admin)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, s.wrongState(request.Status, "fail")
	}

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Where("id = ? AND status IN ?", request.ID, []models.IdentificationStatus{
			models.IdentificationPending, models.IdentificationProcessing,
		}).
		Updates(map[string]interface{}{
			"status":         models.IdentificationFailed,
			"completed_at":   now,
			"result_message": message,
		})
	if result.Error != nil {
		return nil, apperrors.WrapDB("fail identification request", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.Conflict("request was resolved concurrently", "identification_request")
	}

	return s.Get(ctx, request.ID)
}

// Cancel withdraws a request. Only the requesting farmer may cancel, and
// only before the request settles.
func (s *Service) Cancel(ctx context.Context, requestID, userID uuid.UUID, reason string) (*models.IdentificationRequest, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != userID {
		return nil, apperrors.NotFound("Identification request", requestID.String())
	}
	if request.Status.Terminal() {
		return nil, s.wrongState(request.Status, "cancel")
	}

	now := time.Now().UTC()
	message := strings.TrimSpace(reason)
	if message == "" {
		message = "Cancelled by requester"
	}

	result := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Where("id = ? AND status IN ?", request.ID, []models.IdentificationStatus{
			models.IdentificationPending, models.IdentificationProcessing,
		}).
		Updates(map[string]interface{}{
			"status":         models.IdentificationCancelled,
			"completed_at":   now,
			"result_message": message,
		})
	if result.Error != nil {
		return nil, apperrors.WrapDB("cancel identification request", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.Conflict("request was resolved concurrently", "identification_request")
	}

	return s.Get(ctx, request.ID)
}

// ExpireStale forces every unresolved request past its expiry horizon to
// failed. It is invoked by an external periodic trigger, never by reads.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Where("status IN ? AND expires_at < ?", []models.IdentificationStatus{
			models.IdentificationPending, models.IdentificationProcessing,
		}, now).
		Updates(map[string]interface{}{
			"status":         models.IdentificationFailed,
			"completed_at":   now,
			"result_message": expiredMessage,
		})
	if result.Error != nil {
		return 0, apperrors.WrapDB("expire identification requests", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Info("expired stale identification requests", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// Get loads one request
func (s *Service) Get(ctx context.Context, requestID uuid.UUID) (*models.IdentificationRequest, error) {
	var request models.IdentificationRequest
	err := s.db.WithContext(ctx).Preload("ResultCattle").First(&request, "id = ?", requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Identification request", requestID.String())
		}
		return nil, apperrors.WrapDB("load identification request", err)
	}
	return &request, nil
}

// GetScoped loads one request as seen by the actor: requesters always see
// their own, admins see requests whose requester lives in their region, and
// anything else reads as not found.
func (s *Service) GetScoped(ctx context.Context, requestID, actorID uuid.UUID) (*models.IdentificationRequest, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID == actorID {
		return request, nil
	}
	actor, err := s.identity.FindAccountByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsAdmin() {
		return nil, apperrors.NotFound("Identification request", requestID.String())
	}
	return s.loadScoped(ctx, requestID, actor)
}

// ListForRequester returns a farmer's own requests, newest first
func (s *Service) ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]models.IdentificationRequest, error) {
	var requests []models.IdentificationRequest
	err := s.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("submitted_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, apperrors.WrapDB("list identification requests", err)
	}
	return requests, nil
}

// ListQueue returns requests in a status within the actor's region
func (s *Service) ListQueue(ctx context.Context, actorID uuid.UUID, status models.IdentificationStatus) ([]models.IdentificationRequest, error) {
	actor, err := s.identity.FindAccountByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(actor, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Where("identification_requests.status = ?", status)
	if actor.Role != models.RoleSuperAdmin {
		query = query.
			Joins("JOIN users ON users.id = identification_requests.requester_id").
			Where("users.address_state = ?", actor.Region)
	}

	var requests []models.IdentificationRequest
	if err := query.Order("priority DESC, submitted_at ASC").Find(&requests).Error; err != nil {
		return nil, apperrors.WrapDB("list identification queue", err)
	}
	return requests, nil
}

// Stats summarizes the tracker for admin dashboards
type Stats struct {
	Pending         int64   `json:"pending"`
	Processing      int64   `json:"processing"`
	Completed       int64   `json:"completed"`
	Failed          int64   `json:"failed"`
	Cancelled       int64   `json:"cancelled"`
	Found           int64   `json:"found"`
	AvgProcessingMs float64 `json:"avg_processing_ms"`
}

// GetStats computes tracker statistics, cached briefly
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, "identify:stats"); err == nil {
			var stats Stats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	var stats Stats
	type statusCount struct {
		Status models.IdentificationStatus
		Count  int64
	}
	var counts []statusCount
	err := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, apperrors.WrapDB("count identification requests", err)
	}
	for _, c := range counts {
		switch c.Status {
		case models.IdentificationPending:
			stats.Pending = c.Count
		case models.IdentificationProcessing:
			stats.Processing = c.Count
		case models.IdentificationCompleted:
			stats.Completed = c.Count
		case models.IdentificationFailed:
			stats.Failed = c.Count
		case models.IdentificationCancelled:
			stats.Cancelled = c.Count
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Where("status = ? AND result_found = ?", models.IdentificationCompleted, true).
		Count(&stats.Found).Error; err != nil {
		return nil, apperrors.WrapDB("count found results", err)
	}

	var avg sql.NullFloat64
	if err := s.db.WithContext(ctx).Model(&models.IdentificationRequest{}).
		Where("status = ?", models.IdentificationCompleted).
		Select("AVG(processing_ms)").
		Scan(&avg).Error; err != nil {
		return nil, apperrors.WrapDB("average processing time", err)
	}
	if avg.Valid {
		stats.AvgProcessingMs = avg.Float64
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(&stats); err == nil {
			ttl := s.cfg.GetDuration("cache.stats_ttl")
			if ttl <= 0 {
				ttl = time.Minute
			}
			_ = s.cache.Set(ctx, "identify:stats", string(encoded), ttl)
		}
	}

	return &stats, nil
}

// loadScoped loads a request and enforces the admin's regional scope via
// the requester's address, reporting out-of-region access as not found.
func (s *Service) loadScoped(ctx context.Context, requestID uuid.UUID, actor *models.User) (*models.IdentificationRequest, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	requester, err := s.identity.FindAccountByID(ctx, request.RequesterID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccessRegion(actor, requester.AddressState) {
		return nil, apperrors.NotFound("Identification request", requestID.String())
	}
	return request, nil
}

func (s *Service) wrongState(current models.IdentificationStatus, action string) error {
	return apperrors.Conflict(
		fmt.Sprintf("cannot %s a request in state %q", action, current),
		"identification_request",
	).WithDetail("current_status", string(current))
}
