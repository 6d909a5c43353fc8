package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eventplanner/internal/auth"
	"eventplanner/internal/email"
	apperrors "eventplanner/internal/errors"
	"eventplanner/internal/model"
)

var (
	alice = auth.Identity{UserID: uuid.New(), Username: "alice", Role: model.RoleOrganizer}
	bob   = auth.Identity{UserID: uuid.New(), Username: "bob", Role: model.RoleUser}
)

type eventFixture struct {
	events   *MockEventRepository
	users    *MockUserRepository
	notifier *MockNotifier
	service  EventService
}

func newEventFixture() *eventFixture {
	f := &eventFixture{
		events:   new(MockEventRepository),
		users:    new(MockUserRepository),
		notifier: new(MockNotifier),
	}
	f.service = NewEventService(f.events, f.users, f.notifier, "https://events.example.com")
	return f
}

func launchEvent() *model.Event {
	return &model.Event{
		ID:                uuid.New(),
		Slug:              "launch-abc1234",
		Title:             "Launch",
		Date:              "2024-05-01",
		OrganizerUsername: alice.Username,
		OrganizerID:       alice.UserID,
	}
}

func TestEventService_Create(t *testing.T) {
	f := newEventFixture()
	f.events.On("Create", mock.Anything, mock.AnythingOfType("*model.Event")).Return(nil)

	event, err := f.service.Create(context.Background(), alice, CreateEventInput{
		Title:       "  Launch <script>alert(1)</script> ",
		Date:        "2024-05-01",
		Time:        "18:30",
		Description: "<b>Q&A</b> night",
	})

	require.NoError(t, err)
	assert.Equal(t, "Launch", event.Title)
	assert.Equal(t, "Q&A night", event.Description)
	assert.Equal(t, "alice", event.OrganizerUsername)
	assert.Equal(t, alice.UserID, event.OrganizerID)
	assert.True(t, strings.HasPrefix(event.Slug, "launch-"), event.Slug)
	assert.Len(t, event.Slug, len("launch-")+slugSuffixLength)
	assert.Empty(t, event.InvitedUsernames())
	f.events.AssertExpectations(t)
}

func TestNewSlug_FitsColumn(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{"longest title", strings.Repeat("word ", 51)[:255]},
		{"single long word", strings.Repeat("a", 255)},
		{"cut lands on separator", strings.Repeat("a", model.SlugMaxLength-slugSuffixLength-2) + " bb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newSlug(tt.title)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), model.SlugMaxLength)
			assert.NotContains(t, got, "--")
			assert.Len(t, got[strings.LastIndex(got, "-")+1:], slugSuffixLength)
		})
	}
}

func TestEventService_CreateRetriesSlugCollision(t *testing.T) {
	f := newEventFixture()
	f.events.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey).Once()
	f.events.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.service.Create(context.Background(), alice, CreateEventInput{Title: "Launch", Date: "2024-05-01"})

	require.NoError(t, err)
	f.events.AssertNumberOfCalls(t, "Create", 2)
}

func TestEventService_CreateRejects(t *testing.T) {
	tests := []struct {
		name   string
		caller auth.Identity
		input  CreateEventInput
		want   error
	}{
		{"non organizer", bob, CreateEventInput{Title: "Launch", Date: "2024-05-01"}, apperrors.ErrRoleRequired},
		{"empty title", alice, CreateEventInput{Title: "<p></p>", Date: "2024-05-01"}, apperrors.ErrValidation},
		{"bad date", alice, CreateEventInput{Title: "Launch", Date: "May 1st"}, apperrors.ErrValidation},
		{"bad time", alice, CreateEventInput{Title: "Launch", Date: "2024-05-01", Time: "7pm"}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEventFixture()
			_, err := f.service.Create(context.Background(), tt.caller, tt.input)
			assert.ErrorIs(t, err, tt.want)
			f.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestEventService_GetByIDOrSlug(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	f.events.On("FindBySlug", mock.Anything, event.Slug).Return(event, nil)
	f.events.On("FindBySlug", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	got, err := f.service.Get(context.Background(), event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	got, err = f.service.Get(context.Background(), event.Slug)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = f.service.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestEventService_Delete(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	f.events.On("Delete", mock.Anything, event.ID).Return(nil)

	assert.ErrorIs(t, f.service.Delete(context.Background(), bob, event.ID.String()), apperrors.ErrNotOrganizer)
	f.events.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	require.NoError(t, f.service.Delete(context.Background(), alice, event.ID.String()))
	f.events.AssertExpectations(t)
}

func TestEventService_Invite(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	f.users.On("FindByUsernames", mock.Anything, []string{"bob", "carol"}).Return([]model.User{
		{Username: "bob", Email: "bob@example.com"},
		{Username: "carol", Email: "carol@example.com"},
	}, nil)
	f.events.On("AddInvitees", mock.Anything, event.ID, mock.MatchedBy(func(invites []model.Invite) bool {
		return len(invites) == 2 &&
			invites[0].Recipient == "bob" && invites[1].Recipient == "carol" &&
			invites[0].Sender == "alice" && invites[0].Message == "see you there"
	})).Return([]string{"bob"}, nil)
	f.notifier.On("NotifyInvite", mock.Anything, mock.MatchedBy(func(n email.InviteNotice) bool {
		return n.To == "bob@example.com" && n.Sender == "alice" &&
			n.EventURL == "https://events.example.com/events/launch-abc1234"
	})).Return(nil).Once()

	result, err := f.service.Invite(context.Background(), alice, event.ID.String(),
		[]string{" bob ", "carol", "bob", "alice", ""}, "<i>see you there</i>")

	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, result.Invited)
	assert.Equal(t, []string{"carol"}, result.AlreadyInvited)
	f.events.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestEventService_InviteMatchesStoredUsernameCase(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	f.users.On("FindByUsernames", mock.Anything, []string{"BOB", "bob"}).
		Return([]model.User{{Username: "Bob", Email: "bob@example.com"}}, nil)
	f.events.On("AddInvitees", mock.Anything, event.ID, mock.MatchedBy(func(invites []model.Invite) bool {
		return len(invites) == 1 && invites[0].Recipient == "Bob"
	})).Return([]string{"Bob"}, nil)
	f.notifier.On("NotifyInvite", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := f.service.Invite(context.Background(), alice, event.ID.String(), []string{"BOB", "bob", "ALICE"}, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, result.Invited)
	assert.Empty(t, result.AlreadyInvited)
	f.events.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestEventService_InviteUnknownUserWritesNothing(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	f.users.On("FindByUsernames", mock.Anything, []string{"bob", "ghost", "phantom"}).
		Return([]model.User{{Username: "bob"}}, nil)

	_, err := f.service.Invite(context.Background(), alice, event.ID.String(), []string{"bob", "ghost", "phantom"}, "")

	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Contains(t, err.Error(), "ghost, phantom")
	f.events.AssertNotCalled(t, "AddInvitees", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventService_InviteRejects(t *testing.T) {
	event := launchEvent()

	t.Run("not organizer", func(t *testing.T) {
		f := newEventFixture()
		f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
		_, err := f.service.Invite(context.Background(), bob, event.ID.String(), []string{"carol"}, "")
		assert.ErrorIs(t, err, apperrors.ErrNotOrganizer)
	})

	t.Run("empty list", func(t *testing.T) {
		f := newEventFixture()
		f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
		_, err := f.service.Invite(context.Background(), alice, event.ID.String(), []string{" ", ""}, "")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("missing event", func(t *testing.T) {
		f := newEventFixture()
		id := uuid.New()
		f.events.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
		_, err := f.service.Invite(context.Background(), alice, id.String(), []string{"bob"}, "")
		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("only self", func(t *testing.T) {
		f := newEventFixture()
		f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
		result, err := f.service.Invite(context.Background(), alice, event.ID.String(), []string{"alice"}, "")
		require.NoError(t, err)
		assert.Empty(t, result.Invited)
		f.users.AssertNotCalled(t, "FindByUsernames", mock.Anything, mock.Anything)
	})
}

func TestEventService_InviteEmailFailureIsNotFatal(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	f.users.On("FindByUsernames", mock.Anything, []string{"bob"}).Return([]model.User{{Username: "bob", Email: "bob@example.com"}}, nil)
	f.events.On("AddInvitees", mock.Anything, event.ID, mock.Anything).Return([]string{"bob"}, nil)
	f.notifier.On("NotifyInvite", mock.Anything, mock.Anything).Return(errors.New("provider down"))

	result, err := f.service.Invite(context.Background(), alice, event.ID.String(), []string{"bob"}, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, result.Invited)
}

func TestEventService_SetRSVP(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	f.events.On("SetRSVP", mock.Anything, event.ID, "bob", model.RSVPMaybe).Return(nil)
	f.events.On("FindBySlug", mock.Anything, event.Slug).Return(event, nil)

	require.NoError(t, f.service.SetRSVP(context.Background(), bob, event.ID.String(), "Maybe"))
	require.NoError(t, f.service.SetRSVP(context.Background(), bob, event.Slug, "maybe"))
	f.events.AssertNumberOfCalls(t, "SetRSVP", 2)
}

func TestEventService_SetRSVPRejects(t *testing.T) {
	f := newEventFixture()
	missing := uuid.New()
	f.events.On("SetRSVP", mock.Anything, missing, "bob", model.RSVPGoing).Return(gorm.ErrRecordNotFound)

	assert.ErrorIs(t, f.service.SetRSVP(context.Background(), bob, missing.String(), "yes"), apperrors.ErrInvalidRSVP)
	assert.ErrorIs(t, f.service.SetRSVP(context.Background(), bob, missing.String(), "going"), apperrors.ErrEventNotFound)
}

func TestEventService_Attendees(t *testing.T) {
	f := newEventFixture()
	event := launchEvent()
	event.Invitees = []model.EventInvitee{{EventID: event.ID, Username: "bob"}}
	event.RSVPs = []model.EventRSVP{{EventID: event.ID, Username: "bob", Response: model.RSVPGoing}}
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)

	_, err := f.service.Attendees(context.Background(), bob, event.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrNotOrganizer)

	report, err := f.service.Attendees(context.Background(), alice, event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalInvited)
	assert.Equal(t, 1, report.TotalGoing)
	assert.Equal(t, model.StatusGoing, report.Attendees[0].Status)
}

func TestEventService_Search(t *testing.T) {
	tests := []struct {
		name   string
		input  SearchInput
		filter model.EventFilter
	}{
		{"keyword only", SearchInput{Keyword: " launch "}, model.EventFilter{Keyword: "launch"}},
		{"organized by me", SearchInput{Role: "organizer", Date: "2024-05-01"}, model.EventFilter{Date: "2024-05-01", OrganizerUsername: "bob"}},
		{"invited to", SearchInput{Role: "Attendee", Organizer: "alice"}, model.EventFilter{OrganizerUsername: "alice", InvitedUsername: "bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEventFixture()
			f.events.On("List", mock.Anything, tt.filter).Return([]model.Event{}, nil)

			_, err := f.service.Search(context.Background(), bob, tt.input)

			require.NoError(t, err)
			f.events.AssertExpectations(t)
		})
	}
}

func TestEventService_SearchRejectsUnknownRole(t *testing.T) {
	f := newEventFixture()

	_, err := f.service.Search(context.Background(), bob, SearchInput{Role: "admin"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestEventService_SearchConflictingOrganizer(t *testing.T) {
	f := newEventFixture()

	events, err := f.service.Search(context.Background(), bob, SearchInput{Role: "organizer", Organizer: "alice"})

	require.NoError(t, err)
	assert.Empty(t, events)
	f.events.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestEventService_MyLists(t *testing.T) {
	f := newEventFixture()
	f.events.On("List", mock.Anything, model.EventFilter{OrganizerUsername: "alice"}).Return([]model.Event{*launchEvent()}, nil)
	f.events.On("List", mock.Anything, model.EventFilter{InvitedUsername: "alice"}).Return([]model.Event{}, nil)

	organized, err := f.service.MyOrganized(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, organized, 1)

	invited, err := f.service.MyInvited(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, invited)
}
