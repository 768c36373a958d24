package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType classifies notification records
type NotificationType string

const (
	NotificationCattleSubmitted     NotificationType = "cattle_submitted"
	NotificationCattleForwarded     NotificationType = "cattle_forwarded"
	NotificationCattleDenied        NotificationType = "cattle_denied"
	NotificationCattleApproved      NotificationType = "cattle_approved"
	NotificationCattleRejected      NotificationType = "cattle_rejected"
	NotificationIdentifyRequested   NotificationType = "identification_requested"
	NotificationIdentifyCompleted   NotificationType = "identification_completed"
	NotificationTransferRequested   NotificationType = "transfer_requested"
	NotificationTransferAccepted    NotificationType = "transfer_accepted"
	NotificationTransferRejected    NotificationType = "transfer_rejected"
	NotificationTransferCancelled   NotificationType = "transfer_cancelled"
)

// NotificationPriority tags delivery urgency
type NotificationPriority string

const (
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is a persisted fire-and-forget message for one recipient
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type        NotificationType `gorm:"size:40;not null"`
	Title       string           `gorm:"size:255;not null"`
	Message     string           `gorm:"size:1000"`

	RelatedEntityType string     `gorm:"size:40"`
	RelatedEntityID   *uuid.UUID `gorm:"type:uuid"`

	Priority NotificationPriority `gorm:"size:10;default:'normal'"`
	IsRead   bool                 `gorm:"default:false;index"`
	ReadAt   *time.Time

	CreatedAt time.Time
}

// BeforeCreate assigns an ID when missing
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
