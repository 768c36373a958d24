package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentificationStatus tracks the processing of a lookup request
type IdentificationStatus string

const (
	IdentificationPending    IdentificationStatus = "pending"
	IdentificationProcessing IdentificationStatus = "processing"
	IdentificationCompleted  IdentificationStatus = "completed"
	IdentificationFailed     IdentificationStatus = "failed"
	IdentificationCancelled  IdentificationStatus = "cancelled"
)

// Terminal reports whether no further processing transition is allowed
func (s IdentificationStatus) Terminal() bool {
	switch s {
	case IdentificationCompleted, IdentificationFailed, IdentificationCancelled:
		return true
	}
	return false
}

// IdentificationPriority tags request urgency
type IdentificationPriority string

const (
	PriorityNormal IdentificationPriority = "normal"
	PriorityHigh   IdentificationPriority = "high"
)

// IdentificationRequest is a farmer-submitted photo used to look up an
// already-registered animal. Requests are retained for audit and statistics
// and are never hard-deleted.
type IdentificationRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Uploaded photo metadata
	Filename string `gorm:"size:255;not null"`
	Path     string `gorm:"size:500;not null"`
	Size     int64  `gorm:"default:0"`
	MimeType string `gorm:"size:100"`

	Latitude          *float64
	Longitude         *float64
	Address           string                 `gorm:"size:500"`
	DeviceFingerprint string                 `gorm:"size:255"`
	Priority          IdentificationPriority `gorm:"size:10;default:'normal'"`

	Status IdentificationStatus `gorm:"size:20;not null;default:'pending';index"`

	SubmittedAt time.Time
	ExpiresAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	// ProcessingMs is the elapsed time between start and completion
	ProcessingMs int64 `gorm:"default:0"`

	AssignedAdminID *uuid.UUID `gorm:"type:uuid"`

	ResultFound      bool
	ResultCattleID   *uuid.UUID `gorm:"type:uuid"`
	ResultConfidence *float64
	ResultMessage    string `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Requester     *User   `gorm:"foreignKey:RequesterID"`
	AssignedAdmin *User   `gorm:"foreignKey:AssignedAdminID;constraint:OnDelete:SET NULL"`
	ResultCattle  *Cattle `gorm:"foreignKey:ResultCattleID;constraint:OnDelete:SET NULL"`
}

// BeforeCreate assigns an ID and submission timestamps
func (r *IdentificationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	return nil
}
