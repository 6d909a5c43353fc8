package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RSVPResponse names one of the three mutually exclusive RSVP buckets.
type RSVPResponse string

const (
	RSVPGoing RSVPResponse = "going"
	RSVPMaybe RSVPResponse = "maybe"
	RSVPPass  RSVPResponse = "pass"
)

// RSVPResponses lists the buckets in display order.
var RSVPResponses = []RSVPResponse{RSVPGoing, RSVPMaybe, RSVPPass}

// Valid reports whether r names a bucket.
func (r RSVPResponse) Valid() bool {
	switch r {
	case RSVPGoing, RSVPMaybe, RSVPPass:
		return true
	}
	return false
}

// AttendeeStatus is the organizer-facing status of an invited user.
type AttendeeStatus string

const (
	StatusGoing      AttendeeStatus = "going"
	StatusMaybe      AttendeeStatus = "maybe"
	StatusNotGoing   AttendeeStatus = "not going"
	StatusNoResponse AttendeeStatus = "no response"
)

// SlugMaxLength matches the size of the slug column.
const SlugMaxLength = 120

// Event represents a planned event.
type Event struct {
	ID                uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Slug              string    `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	Title             string    `json:"title" gorm:"size:255;not null"`
	Date              string    `json:"date" gorm:"size:10;not null;index"`
	Time              string    `json:"time,omitempty" gorm:"size:5"`
	Location          string    `json:"location,omitempty" gorm:"size:255"`
	Description       string    `json:"description,omitempty" gorm:"type:text"`
	OrganizerUsername string    `json:"organizer" gorm:"size:64;not null;index"`
	OrganizerID       uuid.UUID `json:"organizer_id" gorm:"type:char(36);not null;index"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	Invitees []EventInvitee `json:"-" gorm:"foreignKey:EventID"`
	RSVPs    []EventRSVP    `json:"-" gorm:"foreignKey:EventID"`
}

// BeforeCreate sets UUID before creating the record.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsOrganizedBy reports whether userID organizes the event.
func (e *Event) IsOrganizedBy(userID uuid.UUID) bool {
	return e.OrganizerID == userID
}

// InvitedUsernames returns the invited-set sorted by username.
func (e *Event) InvitedUsernames() []string {
	names := make([]string, 0, len(e.Invitees))
	for _, inv := range e.Invitees {
		names = append(names, inv.Username)
	}
	sort.Strings(names)
	return names
}

// IsInvited reports whether username is in the invited-set.
func (e *Event) IsInvited(username string) bool {
	for _, inv := range e.Invitees {
		if inv.Username == username {
			return true
		}
	}
	return false
}

// Buckets returns the RSVP buckets. All three keys are always present.
func (e *Event) Buckets() map[RSVPResponse][]string {
	buckets := make(map[RSVPResponse][]string, len(RSVPResponses))
	for _, r := range RSVPResponses {
		buckets[r] = []string{}
	}
	for _, rsvp := range e.RSVPs {
		buckets[rsvp.Response] = append(buckets[rsvp.Response], rsvp.Username)
	}
	for _, names := range buckets {
		sort.Strings(names)
	}
	return buckets
}

// StatusOf derives the attendee status of username from bucket membership.
func (e *Event) StatusOf(username string) AttendeeStatus {
	for _, rsvp := range e.RSVPs {
		if rsvp.Username != username {
			continue
		}
		switch rsvp.Response {
		case RSVPGoing:
			return StatusGoing
		case RSVPMaybe:
			return StatusMaybe
		case RSVPPass:
			return StatusNotGoing
		}
	}
	return StatusNoResponse
}

// EventInvitee is one member of an event's invited-set.
type EventInvitee struct {
	EventID   uuid.UUID `json:"event_id" gorm:"type:char(36);primaryKey"`
	Username  string    `json:"username" gorm:"size:64;primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRSVP records the single bucket a username currently occupies for an event.
// The composite key keeps bucket membership mutually exclusive.
type EventRSVP struct {
	EventID   uuid.UUID    `json:"event_id" gorm:"type:char(36);primaryKey"`
	Username  string       `json:"username" gorm:"size:64;primaryKey"`
	Response  RSVPResponse `json:"response" gorm:"size:10;not null;index"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName overrides gorm's default "event_rsvps" pluralization.
func (EventRSVP) TableName() string {
	return "event_rsvps"
}

// EventFilter narrows event listings. Zero-valued fields are ignored and the
// rest combine with AND.
type EventFilter struct {
	Keyword           string
	Date              string
	OrganizerUsername string
	InvitedUsername   string
}

// AttendeeEntry is one invited user's status in an AttendeeReport.
type AttendeeEntry struct {
	Username string         `json:"username"`
	Status   AttendeeStatus `json:"status"`
}

// AttendeeReport is the organizer view of who was invited and how they answered.
type AttendeeReport struct {
	EventID         uuid.UUID       `json:"event_id"`
	Title           string          `json:"title"`
	Attendees       []AttendeeEntry `json:"attendees"`
	TotalInvited    int             `json:"total_invited"`
	TotalGoing      int             `json:"total_going"`
	TotalMaybe      int             `json:"total_maybe"`
	TotalNotGoing   int             `json:"total_not_going"`
	TotalNoResponse int             `json:"total_no_response"`
}

// AttendeeReport derives a status for every invited username. RSVPs from
// users outside the invited-set are not reported.
func (e *Event) AttendeeReport() AttendeeReport {
	report := AttendeeReport{
		EventID:   e.ID,
		Title:     e.Title,
		Attendees: []AttendeeEntry{},
	}
	for _, username := range e.InvitedUsernames() {
		status := e.StatusOf(username)
		report.Attendees = append(report.Attendees, AttendeeEntry{Username: username, Status: status})
		switch status {
		case StatusGoing:
			report.TotalGoing++
		case StatusMaybe:
			report.TotalMaybe++
		case StatusNotGoing:
			report.TotalNotGoing++
		default:
			report.TotalNoResponse++
		}
	}
	report.TotalInvited = len(report.Attendees)
	return report
}
