package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eventplanner/internal/db/dbtest"
	"eventplanner/internal/model"
)

func newEvent(t *testing.T, repo EventRepository, title, date, organizer string) *model.Event {
	t.Helper()
	event := &model.Event{
		Slug:              uuid.NewString(),
		Title:             title,
		Date:              date,
		OrganizerUsername: organizer,
		OrganizerID:       uuid.New(),
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func TestEventRepository_CreateAndFind(t *testing.T) {
	repo := NewEventRepository(dbtest.New(t), time.Second)
	ctx := context.Background()

	created := newEvent(t, repo, "Launch", "2024-05-01", "alice")

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", found.Title)
	assert.Equal(t, "alice", found.OrganizerUsername)
	assert.Empty(t, found.InvitedUsernames())
	for _, bucket := range found.Buckets() {
		assert.Empty(t, bucket)
	}

	bySlug, err := repo.FindBySlug(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEventRepository_SetRSVPIsMutuallyExclusive(t *testing.T) {
	repo := NewEventRepository(dbtest.New(t), time.Second)
	ctx := context.Background()
	event := newEvent(t, repo, "Launch", "2024-05-01", "alice")

	require.NoError(t, repo.SetRSVP(ctx, event.ID, "bob", model.RSVPGoing))
	require.NoError(t, repo.SetRSVP(ctx, event.ID, "bob", model.RSVPMaybe))

	found, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	buckets := found.Buckets()
	assert.Equal(t, []string{"bob"}, buckets[model.RSVPMaybe])
	assert.Empty(t, buckets[model.RSVPGoing])
	assert.Empty(t, buckets[model.RSVPPass])
	assert.Len(t, found.RSVPs, 1)
}

func TestEventRepository_SetRSVPMissingEvent(t *testing.T) {
	repo := NewEventRepository(dbtest.New(t), time.Second)

	err := repo.SetRSVP(context.Background(), uuid.New(), "bob", model.RSVPGoing)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEventRepository_AddInviteesIsIdempotent(t *testing.T) {
	gdb := dbtest.New(t)
	repo := NewEventRepository(gdb, time.Second)
	ctx := context.Background()
	event := newEvent(t, repo, "Launch", "2024-05-01", "alice")

	added, err := repo.AddInvitees(ctx, event.ID, []model.Invite{{Sender: "alice", Recipient: "bob", Message: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, added)

	added, err = repo.AddInvitees(ctx, event.ID, []model.Invite{
		{Sender: "alice", Recipient: "bob"},
		{Sender: "alice", Recipient: "carol"},
		{Sender: "alice", Recipient: "carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, added)

	found, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, found.InvitedUsernames())

	var invites []model.Invite
	require.NoError(t, gdb.Where("event_id = ?", event.ID).Order("recipient").Find(&invites).Error)
	require.Len(t, invites, 2)
	assert.Equal(t, "hi", invites[0].Message)
	assert.Equal(t, "alice", invites[0].Sender)
}

func TestEventRepository_AddInviteesSkipsRowsInsertedElsewhere(t *testing.T) {
	gdb := dbtest.New(t)
	repo := NewEventRepository(gdb, time.Second)
	ctx := context.Background()
	event := newEvent(t, repo, "Launch", "2024-05-01", "alice")

	// Another request already committed bob's invitee row.
	require.NoError(t, gdb.Create(&model.EventInvitee{EventID: event.ID, Username: "bob"}).Error)

	added, err := repo.AddInvitees(ctx, event.ID, []model.Invite{
		{Sender: "alice", Recipient: "bob"},
		{Sender: "alice", Recipient: "carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, added)

	var recipients []string
	require.NoError(t, gdb.Model(&model.Invite{}).Where("event_id = ?", event.ID).Pluck("recipient", &recipients).Error)
	assert.Equal(t, []string{"carol"}, recipients)
}

func TestEventRepository_AddInviteesMissingEvent(t *testing.T) {
	repo := NewEventRepository(dbtest.New(t), time.Second)

	_, err := repo.AddInvitees(context.Background(), uuid.New(), []model.Invite{{Sender: "alice", Recipient: "bob"}})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEventRepository_ListFilters(t *testing.T) {
	gdb := dbtest.New(t)
	repo := NewEventRepository(gdb, time.Second)
	ctx := context.Background()

	launch := newEvent(t, repo, "Product LAUNCH party", "2024-05-01", "alice")
	newEvent(t, repo, "Board meeting", "2024-06-01", "alice")
	retro := newEvent(t, repo, "Retro", "2024-04-01", "dave")
	require.NoError(t, gdb.Model(&model.Event{}).Where("id = ?", retro.ID).
		Update("description", "after the launch").Error)
	newEvent(t, repo, "100% fun", "2024-03-01", "dave")

	all, err := repo.List(ctx, model.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"2024-06-01", "2024-05-01", "2024-04-01", "2024-03-01"},
		[]string{all[0].Date, all[1].Date, all[2].Date, all[3].Date})

	byKeyword, err := repo.List(ctx, model.EventFilter{Keyword: "Launch"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{launch.ID, retro.ID}, ids(byKeyword))

	intersection, err := repo.List(ctx, model.EventFilter{Keyword: "launch", OrganizerUsername: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{launch.ID}, ids(intersection))

	byDate, err := repo.List(ctx, model.EventFilter{Date: "2024-04-01"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{retro.ID}, ids(byDate))

	wildcard, err := repo.List(ctx, model.EventFilter{Keyword: "%"})
	require.NoError(t, err)
	assert.Len(t, wildcard, 1)
	assert.Equal(t, "100% fun", wildcard[0].Title)
}

func TestEventRepository_ListInvited(t *testing.T) {
	repo := NewEventRepository(dbtest.New(t), time.Second)
	ctx := context.Background()

	invitedTo := newEvent(t, repo, "Launch", "2024-05-01", "alice")
	newEvent(t, repo, "Other", "2024-05-02", "alice")
	_, err := repo.AddInvitees(ctx, invitedTo.ID, []model.Invite{{Sender: "alice", Recipient: "bob"}})
	require.NoError(t, err)

	events, err := repo.List(ctx, model.EventFilter{InvitedUsername: "bob"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{invitedTo.ID}, ids(events))
	assert.Equal(t, []string{"bob"}, events[0].InvitedUsernames())
}

func TestEventRepository_DeleteCascades(t *testing.T) {
	gdb := dbtest.New(t)
	repo := NewEventRepository(gdb, time.Second)
	ctx := context.Background()
	event := newEvent(t, repo, "Launch", "2024-05-01", "alice")

	_, err := repo.AddInvitees(ctx, event.ID, []model.Invite{{Sender: "alice", Recipient: "bob"}})
	require.NoError(t, err)
	require.NoError(t, repo.SetRSVP(ctx, event.ID, "bob", model.RSVPGoing))

	require.NoError(t, repo.Delete(ctx, event.ID))

	_, err = repo.FindByID(ctx, event.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	for _, related := range []interface{}{&model.EventInvitee{}, &model.EventRSVP{}, &model.Invite{}} {
		var count int64
		require.NoError(t, gdb.Model(related).Where("event_id = ?", event.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	assert.ErrorIs(t, repo.Delete(ctx, event.ID), gorm.ErrRecordNotFound)
}

func ids(events []model.Event) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}
