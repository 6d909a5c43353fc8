// Package seed loads demo users and events from a JSON fixture.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"eventplanner/internal/auth"
	apperrors "eventplanner/internal/errors"
	"eventplanner/internal/model"
	"eventplanner/internal/service"
)

const fetchTimeout = 30 * time.Second

// Fixture is the seed file layout.
type Fixture struct {
	Users  []UserData  `json:"users"`
	Events []EventData `json:"events"`
}

// UserData is one demo account.
type UserData struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// EventData is one demo event with its invitations and RSVPs.
type EventData struct {
	Organizer   string            `json:"organizer"`
	Title       string            `json:"title"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Location    string            `json:"location"`
	Description string            `json:"description"`
	Invite      []string          `json:"invite"`
	Message     string            `json:"message"`
	RSVPs       map[string]string `json:"rsvps"`
}

// Stats counts what a seed run did.
type Stats struct {
	UsersCreated  int
	UsersExisting int
	EventsCreated int
	EventsSkipped int
	Invited       int
	RSVPs         int
}

// Services are the operations the seeder drives.
type Services struct {
	Auth   service.AuthService
	Users  service.UserService
	Events service.EventService
}

// Load reads a fixture from a local path or an http(s) URL.
func Load(ctx context.Context, source string) (*Fixture, error) {
	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = fetch(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var fixture Fixture
	if err := json.Unmarshal(body, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fixture, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fixture source returned status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Run creates the fixture's users and events. Existing users are kept and
// an event already present for the same organizer, date and title is skipped,
// so running it twice is harmless.
func Run(ctx context.Context, svc Services, fixture *Fixture) (Stats, error) {
	var stats Stats
	logger := zerolog.Ctx(ctx)

	for _, u := range fixture.Users {
		_, err := svc.Auth.Signup(ctx, service.SignupInput{
			Username: u.Username,
			Email:    u.Email,
			Password: u.Password,
			Role:     u.Role,
		})
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			stats.UsersExisting++
		case err != nil:
			return stats, fmt.Errorf("seed user %s: %w", u.Username, err)
		default:
			stats.UsersCreated++
		}
	}

	for _, ev := range fixture.Events {
		organizer, err := identityFor(ctx, svc.Users, ev.Organizer)
		if err != nil {
			return stats, fmt.Errorf("seed event %q: %w", ev.Title, err)
		}

		event, err := findExisting(ctx, svc.Events, ev)
		if err != nil {
			return stats, fmt.Errorf("seed event %q: %w", ev.Title, err)
		}
		if event != nil {
			stats.EventsSkipped++
			logger.Debug().Str("title", ev.Title).Msg("event already seeded")
			continue
		}

		event, err = svc.Events.Create(ctx, organizer, service.CreateEventInput{
			Title:       ev.Title,
			Date:        ev.Date,
			Time:        ev.Time,
			Location:    ev.Location,
			Description: ev.Description,
		})
		if err != nil {
			return stats, fmt.Errorf("seed event %q: %w", ev.Title, err)
		}
		stats.EventsCreated++

		if len(ev.Invite) > 0 {
			result, err := svc.Events.Invite(ctx, organizer, event.ID.String(), ev.Invite, ev.Message)
			if err != nil {
				return stats, fmt.Errorf("seed invites for %q: %w", ev.Title, err)
			}
			stats.Invited += len(result.Invited)
		}

		for username, response := range ev.RSVPs {
			attendee, err := identityFor(ctx, svc.Users, username)
			if err != nil {
				return stats, fmt.Errorf("seed rsvp for %q: %w", ev.Title, err)
			}
			if err := svc.Events.SetRSVP(ctx, attendee, event.ID.String(), response); err != nil {
				return stats, fmt.Errorf("seed rsvp for %q: %w", ev.Title, err)
			}
			stats.RSVPs++
		}
	}
	return stats, nil
}

func identityFor(ctx context.Context, users service.UserService, username string) (auth.Identity, error) {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.IdentityFromUser(user, nil), nil
}

func findExisting(ctx context.Context, events service.EventService, ev EventData) (*model.Event, error) {
	existing, err := events.List(ctx, model.EventFilter{Date: ev.Date, OrganizerUsername: ev.Organizer})
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Title == ev.Title {
			return &existing[i], nil
		}
	}
	return nil, nil
}
