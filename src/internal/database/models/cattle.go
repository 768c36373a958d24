package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationStatus tracks the admin approval pipeline for a cattle record
type VerificationStatus string

const (
	VerificationPendingRegionalReview VerificationStatus = "pending_regional_review"
	VerificationForwardedToMAdmin     VerificationStatus = "forwarded_to_m_admin"
	VerificationDeniedByRegional      VerificationStatus = "denied_by_regional"
	VerificationApproved              VerificationStatus = "approved"
	VerificationRejected              VerificationStatus = "rejected"
)

// Terminal reports whether no further verification transition is allowed
func (s VerificationStatus) Terminal() bool {
	switch s {
	case VerificationDeniedByRegional, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// LifecycleStatus tracks cattle visibility, orthogonal to verification
type LifecycleStatus string

const (
	LifecycleTransit LifecycleStatus = "transit"
	LifecycleActive  LifecycleStatus = "active"
	LifecycleArchive LifecycleStatus = "archive"
)

// PhotoCategory identifies one of the six required photo slots
type PhotoCategory string

const (
	PhotoMuzzle        PhotoCategory = "muzzle"
	PhotoFace          PhotoCategory = "face"
	PhotoLeft          PhotoCategory = "left"
	PhotoRight         PhotoCategory = "right"
	PhotoFullBodyLeft  PhotoCategory = "full_body_left"
	PhotoFullBodyRight PhotoCategory = "full_body_right"
)

// Cattle represents a registered animal
type Cattle struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`

	// TemporaryID labels the record while it moves through verification.
	// Cleared on final approval.
	TemporaryID string `gorm:"size:40;index"`

	// TagNumber is the optional user-supplied ear tag. Never used as identity.
	TagNumber string `gorm:"size:40"`

	Breed          string `gorm:"size:100"`
	Age            int
	Color          string `gorm:"size:50"`
	Type           string `gorm:"size:50"`
	MedicalHistory string `gorm:"type:text"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Location is snapshotted from the owner's address at registration
	// and never follows later address changes.
	LocationState    string `gorm:"size:100;index"`
	LocationDistrict string `gorm:"size:100"`
	LocationPIN      string `gorm:"size:10"`

	Lifecycle          LifecycleStatus    `gorm:"size:20;not null;default:'transit'"`
	VerificationStatus VerificationStatus `gorm:"size:30;not null;default:'pending_regional_review';index"`

	SubmittedAt    time.Time
	ReviewDeadline time.Time

	ReviewedByID   *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt     *time.Time
	IdentifiedByID *uuid.UUID `gorm:"type:uuid"`
	IdentifiedAt   *time.Time
	StatusReason   string `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Owner                 *User                  `gorm:"foreignKey:OwnerID"`
	ReviewedBy            *User                  `gorm:"foreignKey:ReviewedByID;constraint:OnDelete:SET NULL"`
	IdentifiedBy          *User                  `gorm:"foreignKey:IdentifiedByID;constraint:OnDelete:SET NULL"`
	Photos                []CattlePhoto          `gorm:"constraint:OnDelete:CASCADE"`
	IdentificationRecords []IdentificationRecord `gorm:"constraint:OnDelete:CASCADE"`
	TransferHistory       []TransferRecord       `gorm:"constraint:OnDelete:CASCADE"`
}

// CattlePhoto stores validated file metadata for one categorized photo
type CattlePhoto struct {
	ID       uuid.UUID     `gorm:"type:uuid;primary_key"`
	CattleID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Category PhotoCategory `gorm:"size:20;not null"`
	Position int           `gorm:"default:1"`
	Filename string        `gorm:"size:255;not null"`
	Path     string        `gorm:"size:500;not null"`
	Size     int64         `gorm:"default:0"`
	MimeType string        `gorm:"size:100"`

	CreatedAt time.Time
}

// IdentificationRecord is an append-only history entry written whenever an
// administrator identifies the animal, either at final approval or when an
// identification request resolves to this record.
type IdentificationRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	CattleID uuid.UUID `gorm:"type:uuid;not null;index"`
	AdminID  uuid.UUID `gorm:"type:uuid;not null"`

	// RequestID links the entry to an identification request when one
	// triggered it. Nil for approval entries.
	RequestID *uuid.UUID `gorm:"type:uuid"`
	Notes     string     `gorm:"size:500"`

	CreatedAt time.Time

	// Relations
	Admin *User `gorm:"foreignKey:AdminID;constraint:OnDelete:SET NULL"`
}

// DisplayID returns the temporary id while the record moves through
// verification, falling back to the ear tag or the permanent id.
func (c *Cattle) DisplayID() string {
	if c.TemporaryID != "" {
		return c.TemporaryID
	}
	if c.TagNumber != "" {
		return c.TagNumber
	}
	return c.ID.String()
}

// BeforeCreate hooks
func (c *Cattle) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (p *CattlePhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (r *IdentificationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
