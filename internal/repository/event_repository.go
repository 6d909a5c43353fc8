package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventplanner/internal/model"
)

// likeEscaper escapes LIKE wildcards using '!' as the escape character, which
// both MySQL and SQLite accept without string-literal quirks.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// EventRepository defines event, invitee, RSVP and invite persistence operations.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	FindBySlug(ctx context.Context, slug string) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]model.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddInvitees(ctx context.Context, eventID uuid.UUID, invites []model.Invite) (added []string, err error)
	SetRSVP(ctx context.Context, eventID uuid.UUID, username string, response model.RSVPResponse) error
}

type eventRepository struct {
	conn
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *gorm.DB, timeout time.Duration) EventRepository {
	return &eventRepository{conn: newConn(db, timeout)}
}

// Create inserts an event without invitees or RSVPs.
func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	db, cancel := r.with(ctx)
	defer cancel()
	return db.Omit(clause.Associations).Create(event).Error
}

// FindByID loads an event with its invited-set and RSVPs.
func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	db, cancel := r.with(ctx)
	defer cancel()

	var event model.Event
	if err := withRelations(db).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindBySlug loads an event by its slug.
func (r *eventRepository) FindBySlug(ctx context.Context, slug string) (*model.Event, error) {
	db, cancel := r.with(ctx)
	defer cancel()

	var event model.Event
	if err := withRelations(db).Where("slug = ?", slug).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns events matching filter, newest date first.
func (r *eventRepository) List(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	db, cancel := r.with(ctx)
	defer cancel()

	q := withRelations(db.Model(&model.Event{}))
	if filter.Keyword != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Keyword)) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if filter.OrganizerUsername != "" {
		q = q.Where("organizer_username = ?", filter.OrganizerUsername)
	}
	if filter.InvitedUsername != "" {
		invited := db.Model(&model.EventInvitee{}).Select("event_id").Where("username = ?", filter.InvitedUsername)
		q = q.Where("id IN (?)", invited)
	}

	events := []model.Event{}
	if err := q.Order("date DESC").Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Delete removes an event with its invitees, RSVPs and invites.
func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.with(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Event{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		for _, related := range []interface{}{&model.EventInvitee{}, &model.EventRSVP{}, &model.Invite{}} {
			if err := tx.Where("event_id = ?", id).Delete(related).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddInvitees adds each invite's recipient to the invited-set and stores an
// invite record for every recipient this call actually inserted. It returns
// the newly invited usernames.
func (r *eventRepository) AddInvitees(ctx context.Context, eventID uuid.UUID, invites []model.Invite) ([]string, error) {
	if len(invites) == 0 {
		return nil, nil
	}
	db, cancel := r.with(ctx)
	defer cancel()

	var added []string
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := eventExists(tx, eventID); err != nil {
			return err
		}

		var records []model.Invite
		for _, inv := range invites {
			// Zero rows affected means the recipient is already invited,
			// possibly by a concurrent request that committed first.
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.EventInvitee{EventID: eventID, Username: inv.Recipient})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			inv.EventID = eventID
			records = append(records, inv)
			added = append(added, inv.Recipient)
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// SetRSVP moves username into the bucket named by response. The single upsert
// replaces any previous bucket, so concurrent submissions cannot leave a user
// in two buckets.
func (r *eventRepository) SetRSVP(ctx context.Context, eventID uuid.UUID, username string, response model.RSVPResponse) error {
	db, cancel := r.with(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		if err := eventExists(tx, eventID); err != nil {
			return err
		}
		row := model.EventRSVP{
			EventID:   eventID,
			Username:  username,
			Response:  response,
			UpdatedAt: time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"response", "updated_at"}),
		}).Create(&row).Error
	})
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Invitees").Preload("RSVPs")
}

func eventExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&model.Event{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
