package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"eventplanner/internal/middleware"
	"eventplanner/internal/model"
	"eventplanner/internal/service"
)

// EventHandler handles event, invitation and RSVP endpoints.
type EventHandler struct {
	events service.EventService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// CreateEventRequest represents a new event.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=255" example:"Launch"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02" example:"2024-05-01"`
	Time        string `json:"time" validate:"omitempty,datetime=15:04" example:"18:30"`
	Location    string `json:"location" validate:"max=255"`
	Description string `json:"description" validate:"max=5000"`
}

// CreateEventResponse acknowledges a created event.
type CreateEventResponse struct {
	ID      uuid.UUID `json:"id"`
	Slug    string    `json:"slug"`
	Message string    `json:"message"`
}

// RSVPRequest carries an RSVP answer.
type RSVPRequest struct {
	Response string `json:"response" validate:"required" example:"going"`
}

// InviteRequest lists usernames to invite.
type InviteRequest struct {
	Usernames []string `json:"usernames" validate:"required,min=1,max=100"`
	Message   string   `json:"message" validate:"max=1000"`
}

// EventResponse is the public view of an event.
type EventResponse struct {
	ID          uuid.UUID           `json:"id"`
	Slug        string              `json:"slug"`
	Title       string              `json:"title"`
	Date        string              `json:"date"`
	Time        string              `json:"time,omitempty"`
	Location    string              `json:"location,omitempty"`
	Description string              `json:"description,omitempty"`
	Organizer   string              `json:"organizer"`
	OrganizerID uuid.UUID           `json:"organizer_id"`
	Attendees   []string            `json:"attendees"`
	RSVPs       map[string][]string `json:"rsvps"`
	CreatedAt   time.Time           `json:"created_at"`
}

func newEventResponse(e *model.Event) EventResponse {
	rsvps := make(map[string][]string, len(model.RSVPResponses))
	for bucket, names := range e.Buckets() {
		rsvps[string(bucket)] = names
	}
	return EventResponse{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		Date:        e.Date,
		Time:        e.Time,
		Location:    e.Location,
		Description: e.Description,
		Organizer:   e.OrganizerUsername,
		OrganizerID: e.OrganizerID,
		Attendees:   e.InvitedUsernames(),
		RSVPs:       rsvps,
		CreatedAt:   e.CreatedAt,
	}
}

func newEventList(events []model.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, newEventResponse(&events[i]))
	}
	return out
}

// List godoc
// @Summary List events
// @Description Newest date first. Optional filters combine with AND.
// @Tags events
// @Produce json
// @Param keyword query string false "Case-insensitive substring of title or description"
// @Param date query string false "Exact date (YYYY-MM-DD)"
// @Param organizer query string false "Organizer username"
// @Success 200 {array} EventResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.events.List(c.Request().Context(), model.EventFilter{
		Keyword:           c.QueryParam("keyword"),
		Date:              c.QueryParam("date"),
		OrganizerUsername: c.QueryParam("organizer"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newEventList(events))
}

// Create godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "Event data"
// @Success 201 {object} CreateEventResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	identity, _ := middleware.IdentityFrom(c)

	event, err := h.events.Create(c.Request().Context(), identity, service.CreateEventInput{
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, CreateEventResponse{
		ID:      event.ID,
		Slug:    event.Slug,
		Message: "event created successfully",
	})
}

// Get godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path string true "Event ID or slug"
// @Success 200 {object} EventResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	event, err := h.events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newEventResponse(event))
}

// Delete godoc
// @Summary Delete an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID or slug"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	identity, _ := middleware.IdentityFrom(c)
	if err := h.events.Delete(c.Request().Context(), identity, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "event deleted successfully"})
}

// RSVP godoc
// @Summary RSVP to an event
// @Description Moves the caller into the going, maybe or pass bucket, leaving any previous one.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID or slug"
// @Param request body RSVPRequest true "RSVP answer"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events/{id}/rsvp [post]
func (h *EventHandler) RSVP(c echo.Context) error {
	var req RSVPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	identity, _ := middleware.IdentityFrom(c)

	if err := h.events.SetRSVP(c.Request().Context(), identity, c.Param("id"), req.Response); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "RSVP recorded"})
}

// Invite godoc
// @Summary Invite users to an event
// @Description Organizer only. Every username must exist; already-invited users are reported, not duplicated.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID or slug"
// @Param request body InviteRequest true "Usernames to invite"
// @Success 200 {object} service.InviteResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events/{id}/invite [post]
func (h *EventHandler) Invite(c echo.Context) error {
	var req InviteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	identity, _ := middleware.IdentityFrom(c)

	result, err := h.events.Invite(c.Request().Context(), identity, c.Param("id"), req.Usernames, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Attendees godoc
// @Summary Attendee report
// @Description Organizer only. Status of every invited user with totals.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID or slug"
// @Success 200 {object} model.AttendeeReport
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events/{id}/attendees [get]
func (h *EventHandler) Attendees(c echo.Context) error {
	identity, _ := middleware.IdentityFrom(c)
	report, err := h.events.Attendees(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// MyOrganized godoc
// @Summary Events I organize
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {array} EventResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /events/my/organized [get]
func (h *EventHandler) MyOrganized(c echo.Context) error {
	identity, _ := middleware.IdentityFrom(c)
	events, err := h.events.MyOrganized(c.Request().Context(), identity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newEventList(events))
}

// MyInvited godoc
// @Summary Events I am invited to
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {array} EventResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /events/my/invited [get]
func (h *EventHandler) MyInvited(c echo.Context) error {
	identity, _ := middleware.IdentityFrom(c)
	events, err := h.events.MyInvited(c.Request().Context(), identity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newEventList(events))
}

// Search godoc
// @Summary Search events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param keyword query string false "Case-insensitive substring of title or description"
// @Param date query string false "Exact date (YYYY-MM-DD)"
// @Param role query string false "organizer: events I organize, attendee: events I am invited to" Enums(organizer, attendee)
// @Param organizer query string false "Organizer username"
// @Success 200 {array} EventResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /events/search [get]
func (h *EventHandler) Search(c echo.Context) error {
	identity, _ := middleware.IdentityFrom(c)
	events, err := h.events.Search(c.Request().Context(), identity, service.SearchInput{
		Keyword:   c.QueryParam("keyword"),
		Date:      c.QueryParam("date"),
		Role:      c.QueryParam("role"),
		Organizer: c.QueryParam("organizer"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newEventList(events))
}
