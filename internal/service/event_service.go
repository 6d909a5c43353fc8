package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"eventplanner/internal/auth"
	"eventplanner/internal/email"
	apperrors "eventplanner/internal/errors"
	"eventplanner/internal/metrics"
	"eventplanner/internal/model"
	"eventplanner/internal/repository"
	"eventplanner/internal/sanitize"
)

const (
	slugAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	slugSuffixLength = 7
	slugAttempts     = 3
	notifyTimeout    = 10 * time.Second
	notifyParallel   = 4
	dateLayout       = "2006-01-02"
	timeLayout       = "15:04"

	searchRoleOrganizer = "organizer"
	searchRoleAttendee  = "attendee"
)

// CreateEventInput carries the fields of a new event.
type CreateEventInput struct {
	Title       string
	Date        string
	Time        string
	Location    string
	Description string
}

// SearchInput narrows a search from the caller's point of view.
// Role is "organizer", "attendee" or empty.
type SearchInput struct {
	Keyword   string
	Date      string
	Role      string
	Organizer string
}

// InviteResult splits the requested usernames by outcome.
type InviteResult struct {
	Invited        []string `json:"invited"`
	AlreadyInvited []string `json:"already_invited"`
}

// EventService handles events, invitations and RSVPs.
type EventService interface {
	Create(ctx context.Context, caller auth.Identity, input CreateEventInput) (*model.Event, error)
	Get(ctx context.Context, idOrSlug string) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]model.Event, error)
	Search(ctx context.Context, caller auth.Identity, input SearchInput) ([]model.Event, error)
	Delete(ctx context.Context, caller auth.Identity, idOrSlug string) error
	Invite(ctx context.Context, caller auth.Identity, idOrSlug string, usernames []string, message string) (*InviteResult, error)
	SetRSVP(ctx context.Context, caller auth.Identity, idOrSlug string, response string) error
	Attendees(ctx context.Context, caller auth.Identity, idOrSlug string) (*model.AttendeeReport, error)
	MyOrganized(ctx context.Context, caller auth.Identity) ([]model.Event, error)
	MyInvited(ctx context.Context, caller auth.Identity) ([]model.Event, error)
}

type eventService struct {
	events     repository.EventRepository
	users      repository.UserRepository
	notifier   email.Notifier
	appBaseURL string
}

// NewEventService creates a new event service. notifier may be nil.
func NewEventService(events repository.EventRepository, users repository.UserRepository, notifier email.Notifier, appBaseURL string) EventService {
	return &eventService{
		events:     events,
		users:      users,
		notifier:   notifier,
		appBaseURL: appBaseURL,
	}
}

// Create stores a new event organized by the caller.
func (s *eventService) Create(ctx context.Context, caller auth.Identity, input CreateEventInput) (*model.Event, error) {
	if !caller.Can(model.CapabilityCreateEvent) {
		return nil, apperrors.ErrRoleRequired.WithMessage("only organizers can create events")
	}

	event := &model.Event{
		Title:             sanitize.Text(input.Title),
		Date:              strings.TrimSpace(input.Date),
		Time:              strings.TrimSpace(input.Time),
		Location:          sanitize.Text(input.Location),
		Description:       sanitize.Text(input.Description),
		OrganizerUsername: caller.Username,
		OrganizerID:       caller.UserID,
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		event.ID = uuid.Nil
		if event.Slug, err = newSlug(event.Title); err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}
		err = s.events.Create(ctx, event)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	event.Invitees = []model.EventInvitee{}
	event.RSVPs = []model.EventRSVP{}
	metrics.EventsCreatedTotal.Inc()
	zerolog.Ctx(ctx).Info().
		Str("event_id", event.ID.String()).
		Str("organizer", caller.Username).
		Msg("event created")
	return event, nil
}

func validateEvent(e *model.Event) error {
	if e.Title == "" {
		return apperrors.ErrValidation.WithMessage("title is required")
	}
	if _, err := time.Parse(dateLayout, e.Date); err != nil {
		return apperrors.ErrValidation.WithMessage("date must be formatted YYYY-MM-DD")
	}
	if e.Time != "" {
		if _, err := time.Parse(timeLayout, e.Time); err != nil {
			return apperrors.ErrValidation.WithMessage("time must be formatted HH:MM")
		}
	}
	return nil
}

func newSlug(title string) (string, error) {
	suffix, err := gonanoid.Generate(slugAlphabet, slugSuffixLength)
	if err != nil {
		return "", err
	}
	base := slug.Make(title)
	if limit := model.SlugMaxLength - slugSuffixLength - 1; len(base) > limit {
		base = strings.TrimRight(base[:limit], "-")
	}
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

// Get loads an event by id or slug.
func (s *eventService) Get(ctx context.Context, idOrSlug string) (*model.Event, error) {
	var (
		event *model.Event
		err   error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		event, err = s.events.FindByID(ctx, id)
	} else {
		event, err = s.events.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, eventError(err)
	}
	return event, nil
}

// List returns events matching filter.
func (s *eventService) List(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Search lists events matching input, optionally limited to the caller's own
// organized or invited events.
func (s *eventService) Search(ctx context.Context, caller auth.Identity, input SearchInput) ([]model.Event, error) {
	filter := model.EventFilter{
		Keyword:           strings.TrimSpace(input.Keyword),
		Date:              strings.TrimSpace(input.Date),
		OrganizerUsername: strings.TrimSpace(input.Organizer),
	}

	switch strings.ToLower(strings.TrimSpace(input.Role)) {
	case "":
	case searchRoleOrganizer:
		if filter.OrganizerUsername != "" && filter.OrganizerUsername != caller.Username {
			return []model.Event{}, nil
		}
		filter.OrganizerUsername = caller.Username
	case searchRoleAttendee:
		filter.InvitedUsername = caller.Username
	default:
		return nil, apperrors.ErrValidation.WithMessage("role must be organizer or attendee")
	}
	return s.List(ctx, filter)
}

// Delete removes an event. Only its organizer may delete it.
func (s *eventService) Delete(ctx context.Context, caller auth.Identity, idOrSlug string) error {
	event, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return err
	}
	if !event.IsOrganizedBy(caller.UserID) {
		return apperrors.ErrNotOrganizer
	}
	if err := s.events.Delete(ctx, event.ID); err != nil {
		return eventError(err)
	}
	zerolog.Ctx(ctx).Info().Str("event_id", event.ID.String()).Msg("event deleted")
	return nil
}

// Invite adds usernames to the event's invited-set. Every target must be an
// existing user; nothing is written otherwise.
func (s *eventService) Invite(ctx context.Context, caller auth.Identity, idOrSlug string, usernames []string, message string) (*InviteResult, error) {
	event, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !event.IsOrganizedBy(caller.UserID) {
		return nil, apperrors.ErrNotOrganizer
	}

	targets := normalizeUsernames(usernames)
	if len(targets) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("at least one username is required")
	}
	targets = without(targets, caller.Username)
	result := &InviteResult{Invited: []string{}, AlreadyInvited: []string{}}
	if len(targets) == 0 {
		return result, nil
	}

	found, err := s.users.FindByUsernames(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("find invitees: %w", err)
	}
	// The store may match usernames case-insensitively; invite rows use the stored spelling.
	byKey := make(map[string]model.User, len(found))
	for _, u := range found {
		byKey[strings.ToLower(u.Username)] = u
	}
	byName := make(map[string]model.User, len(found))
	var missing, canonical []string
	for _, name := range targets {
		u, ok := byKey[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if _, dup := byName[u.Username]; dup || u.Username == caller.Username {
			continue
		}
		byName[u.Username] = u
		canonical = append(canonical, u.Username)
	}
	if len(missing) > 0 {
		return nil, apperrors.ErrUserNotFound.WithMessage("users not found: %s", strings.Join(missing, ", "))
	}
	targets = canonical
	if len(targets) == 0 {
		return result, nil
	}

	message = sanitize.Text(message)
	invites := make([]model.Invite, 0, len(targets))
	for _, name := range targets {
		invites = append(invites, model.Invite{
			Sender:    caller.Username,
			Recipient: name,
			Message:   message,
		})
	}
	added, err := s.events.AddInvitees(ctx, event.ID, invites)
	if err != nil {
		return nil, eventError(err)
	}

	addedSet := make(map[string]struct{}, len(added))
	for _, name := range added {
		addedSet[name] = struct{}{}
		result.Invited = append(result.Invited, name)
	}
	for _, name := range targets {
		if _, ok := addedSet[name]; !ok {
			result.AlreadyInvited = append(result.AlreadyInvited, name)
		}
	}
	sort.Strings(result.Invited)
	sort.Strings(result.AlreadyInvited)

	metrics.InvitesTotal.Add(float64(len(added)))
	zerolog.Ctx(ctx).Info().
		Str("event_id", event.ID.String()).
		Strs("invited", result.Invited).
		Int("already_invited", len(result.AlreadyInvited)).
		Msg("users invited")

	var g errgroup.Group
	g.SetLimit(notifyParallel)
	for _, name := range result.Invited {
		recipient := byName[name]
		g.Go(func() error {
			s.notifyInvite(ctx, event, recipient, caller.Username, message)
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

// notifyInvite emails a newly invited user. Delivery problems are logged only.
func (s *eventService) notifyInvite(ctx context.Context, event *model.Event, recipient model.User, sender, message string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	err := s.notifier.NotifyInvite(ctx, email.InviteNotice{
		To:         recipient.Email,
		Recipient:  recipient.Username,
		Sender:     sender,
		EventTitle: event.Title,
		EventDate:  event.Date,
		EventURL:   email.EventURL(s.appBaseURL, event.Slug),
		Message:    message,
	})
	switch {
	case errors.Is(err, email.ErrDisabled):
		metrics.InviteEmailsTotal.WithLabelValues("skipped").Inc()
	case err != nil:
		metrics.InviteEmailsTotal.WithLabelValues("failed").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event_id", event.ID.String()).
			Str("recipient", recipient.Username).
			Msg("invite email failed")
	default:
		metrics.InviteEmailsTotal.WithLabelValues("sent").Inc()
	}
}

// SetRSVP records the caller's response, replacing any earlier one.
func (s *eventService) SetRSVP(ctx context.Context, caller auth.Identity, idOrSlug string, response string) error {
	r := model.RSVPResponse(strings.ToLower(strings.TrimSpace(response)))
	if !r.Valid() {
		return apperrors.ErrInvalidRSVP
	}
	id, err := s.resolveID(ctx, idOrSlug)
	if err != nil {
		return err
	}
	if err := s.events.SetRSVP(ctx, id, caller.Username, r); err != nil {
		return eventError(err)
	}
	metrics.RSVPsTotal.WithLabelValues(string(r)).Inc()
	return nil
}

// Attendees reports every invited user's status. Only the organizer may see it.
func (s *eventService) Attendees(ctx context.Context, caller auth.Identity, idOrSlug string) (*model.AttendeeReport, error) {
	event, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !event.IsOrganizedBy(caller.UserID) {
		return nil, apperrors.ErrNotOrganizer
	}
	report := event.AttendeeReport()
	return &report, nil
}

// MyOrganized lists the events the caller organizes.
func (s *eventService) MyOrganized(ctx context.Context, caller auth.Identity) ([]model.Event, error) {
	return s.List(ctx, model.EventFilter{OrganizerUsername: caller.Username})
}

// MyInvited lists the events the caller is invited to.
func (s *eventService) MyInvited(ctx context.Context, caller auth.Identity) ([]model.Event, error) {
	return s.List(ctx, model.EventFilter{InvitedUsername: caller.Username})
}

func (s *eventService) resolveID(ctx context.Context, idOrSlug string) (uuid.UUID, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return id, nil
	}
	event, err := s.events.FindBySlug(ctx, idOrSlug)
	if err != nil {
		return uuid.Nil, eventError(err)
	}
	return event.ID, nil
}

// eventError maps a missing row to ErrEventNotFound and wraps anything else.
func eventError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrEventNotFound
	}
	return fmt.Errorf("event store: %w", err)
}

func normalizeUsernames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func without(names []string, drop string) []string {
	out := names[:0]
	for _, name := range names {
		if !strings.EqualFold(name, drop) {
			out = append(out, name)
		}
	}
	return out
}
