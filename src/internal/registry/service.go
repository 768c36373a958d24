package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/authz"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
	"github.com/geekskaran/Cattel-Backend/src/internal/notifications"
	"github.com/geekskaran/Cattel-Backend/src/internal/photos"
	"github.com/geekskaran/Cattel-Backend/src/pkg/utils"
)

// Service owns the cattle verification workflow
type Service struct {
	db       *gorm.DB
	cfg      *viper.Viper
	identity identity.Source
	notifier *notifications.Service
	logger   *slog.Logger
}

// NewService creates a new registry service
func NewService(db *gorm.DB, cfg *viper.Viper, ids identity.Source, notifier *notifications.Service, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		identity: ids,
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterInput carries the farmer-supplied attributes for a new record
type RegisterInput struct {
	TagNumber      string
	Breed          string
	Age            int
	Color          string
	Type           string
	MedicalHistory string
	Photos         photos.Set
}

// Register creates a cattle record in transit, awaiting regional review.
// The owner's address is snapshotted onto the record and never updated
// afterwards. Every matching regional administrator is notified.
func (s *Service) Register(ctx context.Context, ownerID uuid.UUID, in RegisterInput) (*models.Cattle, error) {
	owner, err := s.identity.FindAccountByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.IsActive {
		return nil, apperrors.Authorization("account is not active")
	}
	if owner.AddressState == "" {
		return nil, apperrors.Validation("owner address state is required for registration", "address_state")
	}

	if err := photos.ValidateUpload(in.Photos); err != nil {
		return nil, err
	}

	turnaround := s.cfg.GetInt("verification.turnaround_hours")
	if turnaround <= 0 {
		turnaround = 48
	}

	now := time.Now().UTC()
	cattle := &models.Cattle{
		TemporaryID:        utils.TemporaryID(),
		TagNumber:          in.TagNumber,
		Breed:              in.Breed,
		Age:                in.Age,
		Color:              in.Color,
		Type:               in.Type,
		MedicalHistory:     in.MedicalHistory,
		OwnerID:            owner.ID,
		LocationState:      owner.AddressState,
		LocationDistrict:   owner.AddressDistrict,
		LocationPIN:        owner.AddressPIN,
		Lifecycle:          models.LifecycleTransit,
		VerificationStatus: models.VerificationPendingRegionalReview,
		SubmittedAt:        now,
		ReviewDeadline:     now.Add(time.Duration(turnaround) * time.Hour),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cattle).Error; err != nil {
			return apperrors.WrapDB("create cattle", err)
		}
		for category, files := range in.Photos {
			for i, file := range files {
				photo := &models.CattlePhoto{
					CattleID: cattle.ID,
					Category: category,
					Position: i + 1,
					Filename: file.Filename,
					Path:     file.Path,
					Size:     file.Size,
					MimeType: file.MimeType,
				}
				if err := tx.Create(photo).Error; err != nil {
					return apperrors.WrapDB("create cattle photo", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdminsInRegion(ctx, models.RoleRegionalAdmin, cattle.LocationState, notifications.Input{
		Type:              models.NotificationCattleSubmitted,
		Title:             "New cattle registration",
		Message:           fmt.Sprintf("A new cattle registration (%s) is awaiting regional review.", cattle.TemporaryID),
		RelatedEntityType: "cattle",
		RelatedEntityID:   &cattle.ID,
	})

	return s.Get(ctx, cattle.ID)
}

// ForwardToMAdmin moves a record from regional review to the identification
// tier. Only a regional administrator assigned to the record's region (or a
// super admin) may forward it.
func (s *Service) ForwardToMAdmin(ctx context.Context, cattleID, reviewerID uuid.UUID) (*models.Cattle, error) {
	reviewer, err := s.identity.FindAccountByID(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(reviewer, models.RoleRegionalAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	cattle, err := s.loadScoped(ctx, cattleID, reviewer)
	if err != nil {
		return nil, err
	}

	next, err := nextState(cattle.VerificationStatus, eventForward)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.applyTransition(ctx, cattle, next, map[string]interface{}{
		"reviewed_by_id": reviewer.ID,
		"reviewed_at":    now,
	}); err != nil {
		return nil, err
	}

	s.notifier.NotifyAdminsInRegion(ctx, models.RoleMAdmin, cattle.LocationState, notifications.Input{
		Type:              models.NotificationCattleForwarded,
		Title:             "Cattle forwarded for identification",
		Message:           fmt.Sprintf("Cattle %s is awaiting identification.", cattle.DisplayID()),
		RelatedEntityType: "cattle",
		RelatedEntityID:   &cattle.ID,
	})
	s.notifier.Notify(ctx, cattle.OwnerID, notifications.Input{
		Type:              models.NotificationCattleForwarded,
		Title:             "Registration forwarded",
		Message:           "Your cattle registration passed regional review and was forwarded for identification.",
		RelatedEntityType: "cattle",
		RelatedEntityID:   &cattle.ID,
	})

	return s.Get(ctx, cattle.ID)
}

// DenyByRegionalAdmin terminally denies a record at regional review.
// A reason is mandatory.
func (s *Service) DenyByRegionalAdmin(ctx context.Context, cattleID, reviewerID uuid.UUID, reason string) (*models.Cattle, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("a denial reason is required", "reason")
	}

	reviewer, err := s.identity.FindAccountByID(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(reviewer, models.RoleRegionalAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	cattle, err := s.loadScoped(ctx, cattleID, reviewer)
	if err != nil {
		return nil, err
	}

	next, err := nextState(cattle.VerificationStatus, eventDeny)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.applyTransition(ctx, cattle, next, map[string]interface{}{
		"reviewed_by_id": reviewer.ID,
		"reviewed_at":    now,
		"status_reason":  reason,
	}); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, cattle.OwnerID, notifications.Input{
		Type:              models.NotificationCattleDenied,
		Title:             "Registration denied",
		Message:           fmt.Sprintf("Your cattle registration was denied at regional review: %s", reason),
		RelatedEntityType: "cattle",
		RelatedEntityID:   &cattle.ID,
		Priority:          models.NotificationPriorityHigh,
	})

	return s.Get(ctx, cattle.ID)
}

// Approve finalizes identification. The photo set must be complete, the
// lifecycle flips to active and the temporary id is cleared.
func (s *Service) Approve(ctx context.Context, cattleID, identifierID uuid.UUID) (*models.Cattle, error) {
	identifier, err := s.identity.FindAccountByID(ctx, identifierID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(identifier, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	cattle, err := s.loadScoped(ctx, cattleID, identifier)
	if err != nil {
		return nil, err
	}

	next, err := nextState(cattle.VerificationStatus, eventApprove)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Checked inside the transaction so the photo set cannot shrink
		// between validation and the status flip.
		var stored []models.CattlePhoto
		if err := tx.Where("cattle_id = ?", cattle.ID).Find(&stored).Error; err != nil {
			return apperrors.WrapDB("load cattle photos", err)
		}
		if err := photos.ValidateComplete(photos.CountByCategory(stored)); err != nil {
			return err
		}

		result := tx.Model(&models.Cattle{}).
			Where("id = ? AND verification_status = ?", cattle.ID, cattle.VerificationStatus).
			Updates(map[string]interface{}{
				"verification_status": next,
				"lifecycle":           models.LifecycleActive,
				"temporary_id":        "",
				"identified_by_id":    identifier.ID,
				"identified_at":       now,
			})
		if result.Error != nil {
			return apperrors.WrapDB("approve cattle", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflict("cattle record was modified concurrently", "cattle")
		}

		record := &models.IdentificationRecord{
			CattleID: cattle.ID,
			AdminID:  identifier.ID,
			Notes:    "approved at registration",
		}
		if err := tx.Create(record).Error; err != nil {
			return apperrors.WrapDB("create identification record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, cattle.OwnerID, notifications.Input{
		Type:              models.NotificationCattleApproved,
		Title:             "Registration approved",
		Message:           "Your cattle registration was approved and is now active.",
		RelatedEntityType: "cattle",
		RelatedEntityID:   &cattle.ID,
	})

	return s.Get(ctx, cattle.ID)
}

// Reject terminally rejects a record at the identification tier. The
// lifecycle stays in transit. A reason is mandatory.
func (s *Service) Reject(ctx context.Context, cattleID, identifierID uuid.UUID, reason string) (*models.Cattle, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("a rejection reason is required", "reason")
	}

	identifier, err := s.identity.FindAccountByID(ctx, identifierID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(identifier, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	cattle, err := s.loadScoped(ctx, cattleID, identifier)
	if err != nil {
		return nil, err
	}

	next, err := nextState(cattle.VerificationStatus, eventReject)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.applyTransition(ctx, cattle, next, map[string]interface{}{
		"identified_by_id": identifier.ID,
		"identified_at":    now,
		"status_reason":    reason,
	}); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, cattle.OwnerID, notifications.Input{
		Type:              models.NotificationCattleRejected,
		Title:             "Registration rejected",
		Message:           fmt.Sprintf("Your cattle registration was rejected at identification: %s", reason),
		RelatedEntityType: "cattle",
		RelatedEntityID:   &cattle.ID,
		Priority:          models.NotificationPriorityHigh,
	})

	return s.Get(ctx, cattle.ID)
}

// Archive soft-deletes a record for its owner. Verification state is
// untouched.
func (s *Service) Archive(ctx context.Context, cattleID, ownerID uuid.UUID) (*models.Cattle, error) {
	cattle, err := s.loadOwned(ctx, cattleID, ownerID)
	if err != nil {
		return nil, err
	}
	if cattle.Lifecycle == models.LifecycleArchive {
		return nil, apperrors.Conflict("cattle record is already archived", "cattle")
	}

	result := s.db.WithContext(ctx).Model(&models.Cattle{}).
		Where("id = ? AND lifecycle = ?", cattle.ID, cattle.Lifecycle).
		Update("lifecycle", models.LifecycleArchive)
	if result.Error != nil {
		return nil, apperrors.WrapDB("archive cattle", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.Conflict("cattle record was modified concurrently", "cattle")
	}

	return s.Get(ctx, cattle.ID)
}

// Restore brings an archived record back. The lifecycle is re-derived from
// the verification state: active when approved, transit otherwise.
func (s *Service) Restore(ctx context.Context, cattleID, ownerID uuid.UUID) (*models.Cattle, error) {
	cattle, err := s.loadOwned(ctx, cattleID, ownerID)
	if err != nil {
		return nil, err
	}
	if cattle.Lifecycle != models.LifecycleArchive {
		return nil, apperrors.Conflict("cattle record is not archived", "cattle")
	}

	restored := models.LifecycleTransit
	if cattle.VerificationStatus == models.VerificationApproved {
		restored = models.LifecycleActive
	}

	result := s.db.WithContext(ctx).Model(&models.Cattle{}).
		Where("id = ? AND lifecycle = ?", cattle.ID, models.LifecycleArchive).
		Update("lifecycle", restored)
	if result.Error != nil {
		return nil, apperrors.WrapDB("restore cattle", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.Conflict("cattle record was modified concurrently", "cattle")
	}

	return s.Get(ctx, cattle.ID)
}

// Delete hard-deletes a record for its owner, including stored photo files
func (s *Service) Delete(ctx context.Context, cattleID, ownerID uuid.UUID) error {
	cattle, err := s.loadOwned(ctx, cattleID, ownerID)
	if err != nil {
		return err
	}

	var stored []models.CattlePhoto
	if err := s.db.WithContext(ctx).Where("cattle_id = ?", cattle.ID).Find(&stored).Error; err != nil {
		return apperrors.WrapDB("load cattle photos", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cattle_id = ?", cattle.ID).Delete(&models.CattlePhoto{}).Error; err != nil {
			return apperrors.WrapDB("delete cattle photos", err)
		}
		if err := tx.Where("cattle_id = ?", cattle.ID).Delete(&models.IdentificationRecord{}).Error; err != nil {
			return apperrors.WrapDB("delete identification records", err)
		}
		if err := tx.Where("cattle_id = ?", cattle.ID).Delete(&models.TransferRecord{}).Error; err != nil {
			return apperrors.WrapDB("delete transfer history", err)
		}
		if err := tx.Delete(&models.Cattle{}, "id = ?", cattle.ID).Error; err != nil {
			return apperrors.WrapDB("delete cattle", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// File removal is best-effort once the rows are gone.
	for _, photo := range stored {
		if photo.Path == "" {
			continue
		}
		if err := os.Remove(photo.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove photo file", "path", photo.Path, "error", err)
		}
	}

	return nil
}

// IsOverdue reports whether a record sat in regional review past its
// turnaround deadline. It never changes state.
func IsOverdue(cattle *models.Cattle, now time.Time) bool {
	return cattle.VerificationStatus == models.VerificationPendingRegionalReview &&
		now.After(cattle.ReviewDeadline)
}

// ListOverdue returns records past their review deadline, scoped to the
// actor's region.
func (s *Service) ListOverdue(ctx context.Context, actorID uuid.UUID) ([]models.Cattle, error) {
	actor, err := s.identity.FindAccountByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(actor, models.RoleRegionalAdmin, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("verification_status = ? AND review_deadline < ?", models.VerificationPendingRegionalReview, time.Now().UTC())
	if actor.Role != models.RoleSuperAdmin {
		query = query.Where("location_state = ?", actor.Region)
	}

	var overdue []models.Cattle
	if err := query.Order("review_deadline ASC").Find(&overdue).Error; err != nil {
		return nil, apperrors.WrapDB("list overdue cattle", err)
	}
	return overdue, nil
}

// ListForReview returns records in a verification status within the actor's
// region, for admin dashboards.
func (s *Service) ListForReview(ctx context.Context, actorID uuid.UUID, status models.VerificationStatus) ([]models.Cattle, error) {
	actor, err := s.identity.FindAccountByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(actor, models.RoleRegionalAdmin, models.RoleMAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Preload("Photos").Where("verification_status = ?", status)
	if actor.Role != models.RoleSuperAdmin {
		query = query.Where("location_state = ?", actor.Region)
	}

	var records []models.Cattle
	if err := query.Order("submitted_at ASC").Find(&records).Error; err != nil {
		return nil, apperrors.WrapDB("list cattle for review", err)
	}
	return records, nil
}

// ListByOwner returns a farmer's records, optionally including archived ones
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeArchived bool) ([]models.Cattle, error) {
	query := s.db.WithContext(ctx).Preload("Photos").Where("owner_id = ?", ownerID)
	if !includeArchived {
		query = query.Where("lifecycle <> ?", models.LifecycleArchive)
	}

	var records []models.Cattle
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, apperrors.WrapDB("list cattle by owner", err)
	}
	return records, nil
}

// Get loads one record with its photos and history
func (s *Service) Get(ctx context.Context, cattleID uuid.UUID) (*models.Cattle, error) {
	var cattle models.Cattle
	err := s.db.WithContext(ctx).
		Preload("Photos").
		Preload("IdentificationRecords").
		Preload("TransferHistory").
		First(&cattle, "id = ?", cattleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Cattle", cattleID.String())
		}
		return nil, apperrors.WrapDB("load cattle", err)
	}
	return &cattle, nil
}

// GetScoped loads one record visible to the actor: the owner always, and
// admins only within their region.
func (s *Service) GetScoped(ctx context.Context, cattleID, actorID uuid.UUID) (*models.Cattle, error) {
	actor, err := s.identity.FindAccountByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	cattle, err := s.Get(ctx, cattleID)
	if err != nil {
		return nil, err
	}
	if cattle.OwnerID == actor.ID {
		return cattle, nil
	}
	if !authz.CanAccessRegion(actor, cattle.LocationState) {
		return nil, apperrors.NotFound("Cattle", cattleID.String())
	}
	return cattle, nil
}

// loadScoped loads a record and enforces the actor's regional scope,
// reporting out-of-region access as not found.
func (s *Service) loadScoped(ctx context.Context, cattleID uuid.UUID, actor *models.User) (*models.Cattle, error) {
	var cattle models.Cattle
	err := s.db.WithContext(ctx).First(&cattle, "id = ?", cattleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Cattle", cattleID.String())
		}
		return nil, apperrors.WrapDB("load cattle", err)
	}
	if !authz.CanAccessRegion(actor, cattle.LocationState) {
		return nil, apperrors.NotFound("Cattle", cattleID.String())
	}
	return &cattle, nil
}

// loadOwned loads a record and enforces ownership
func (s *Service) loadOwned(ctx context.Context, cattleID, ownerID uuid.UUID) (*models.Cattle, error) {
	var cattle models.Cattle
	err := s.db.WithContext(ctx).First(&cattle, "id = ?", cattleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Cattle", cattleID.String())
		}
		return nil, apperrors.WrapDB("load cattle", err)
	}
	if cattle.OwnerID != ownerID {
		return nil, apperrors.NotFound("Cattle", cattleID.String())
	}
	return &cattle, nil
}

// applyTransition writes a verification transition with an optimistic check
// on the current status, so two concurrent transitions cannot both succeed.
func (s *Service) applyTransition(ctx context.Context, cattle *models.Cattle, next models.VerificationStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"verification_status": next,
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := s.db.WithContext(ctx).Model(&models.Cattle{}).
		Where("id = ? AND verification_status = ?", cattle.ID, cattle.VerificationStatus).
		Updates(updates)
	if result.Error != nil {
		return apperrors.WrapDB("update cattle verification", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("cattle record was modified concurrently", "cattle")
	}
	return nil
}
