package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite records an organizer inviting a user to an event.
type Invite struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	EventID   uuid.UUID `json:"event_id" gorm:"type:char(36);not null;index"`
	Sender    string    `json:"sender" gorm:"size:64;not null"`
	Recipient string    `json:"recipient" gorm:"size:64;not null;index"`
	Message   string    `json:"message,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Event{},
		&EventInvitee{},
		&EventRSVP{},
		&Invite{},
	}
}
