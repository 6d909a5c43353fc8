package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
)

// Capability names an action gated by role.
type Capability string

const (
	// CapabilityCreateEvent allows creating events (and thus organizing them).
	CapabilityCreateEvent Capability = "event:create"
)

var roleCapabilities = map[Role][]Capability{
	RoleUser:      nil,
	RoleOrganizer: {CapabilityCreateEvent},
}

// ParseRole returns the role named by s. An empty string yields RoleUser.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleUser, true
	}
	r := Role(s)
	_, ok := roleCapabilities[r]
	return r, ok
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// User represents an authenticated user in the system.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role      `json:"role" gorm:"size:20;not null;default:'user'"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
