package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferStatus represents the status of a transfer request
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusAccepted  TransferStatus = "accepted"
	TransferStatusRejected  TransferStatus = "rejected"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// TransferType represents the kind of ownership handoff
type TransferType string

const (
	TransferTypeSell        TransferType = "sell"
	TransferTypeGift        TransferType = "gift"
	TransferTypeInheritance TransferType = "inheritance"
	TransferTypeOther       TransferType = "other"
)

// TransferRequest represents a pending or settled ownership handoff.
// At most one pending request may exist per animal: the transfer service
// serializes the check inside the creating transaction, and database.Migrate
// backs it with a partial unique index on engines that support one.
type TransferRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key"`
	CattleID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	FromOwnerID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ToOwnerID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type        TransferType   `gorm:"size:20;not null;default:'other'"`
	Price       *float64       `gorm:"type:decimal(12,2)"`
	Notes       string         `gorm:"size:500"`
	Status      TransferStatus `gorm:"size:20;not null;default:'pending'"`

	// ResponseMessage carries the receiver's accept/reject message,
	// or the cancellation reason.
	ResponseMessage string `gorm:"size:500"`

	RequestedAt time.Time
	ExpiresAt   time.Time
	ProcessedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Cattle    *Cattle `gorm:"foreignKey:CattleID"`
	FromOwner *User   `gorm:"foreignKey:FromOwnerID"`
	ToOwner   *User   `gorm:"foreignKey:ToOwnerID"`
}

// TransferRecord is the append-only history of completed handoffs
type TransferRecord struct {
	ID                uuid.UUID    `gorm:"type:uuid;primary_key"`
	CattleID          uuid.UUID    `gorm:"type:uuid;not null;index"`
	TransferRequestID *uuid.UUID   `gorm:"type:uuid"`
	FromOwnerID       uuid.UUID    `gorm:"type:uuid;not null"`
	ToOwnerID         uuid.UUID    `gorm:"type:uuid;not null"`
	Type              TransferType `gorm:"size:20"`
	Price             *float64     `gorm:"type:decimal(12,2)"`
	Notes             string       `gorm:"size:500"`
	TransferredAt     time.Time

	// Relations
	FromOwner *User `gorm:"foreignKey:FromOwnerID;constraint:OnDelete:SET NULL"`
	ToOwner   *User `gorm:"foreignKey:ToOwnerID;constraint:OnDelete:SET NULL"`
}

// BeforeCreate hooks
func (t *TransferRequest) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.RequestedAt.IsZero() {
		t.RequestedAt = time.Now().UTC()
	}
	if t.FromOwnerID == t.ToOwnerID {
		return gorm.ErrInvalidData
	}
	return nil
}

func (r *TransferRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.TransferredAt.IsZero() {
		r.TransferredAt = time.Now().UTC()
	}
	return nil
}
