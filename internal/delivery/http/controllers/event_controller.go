package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/delivery/http/middleware"
	"eventregistration/internal/domain"
)

// EventSummary is the public listing view of an event.
type EventSummary struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Location       string             `json:"location"`
	EventDate      time.Time          `json:"event_date"`
	Capacity       int                `json:"capacity"`
	SeatsRemaining int                `json:"seats_remaining"`
	Status         domain.EventStatus `json:"status"`
}

func newEventSummary(e *domain.Event) EventSummary {
	return EventSummary{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		EventDate:      e.EventDate,
		Capacity:       e.Capacity,
		SeatsRemaining: e.SeatsRemaining(),
		Status:         e.Status,
	}
}

// ListEventsResponse is the data payload for GET /events.
type ListEventsResponse struct {
	Items      []EventSummary         `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// EventSuccessResponse is the success response envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// principal returns the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return p, ok
}

// pathID reads a required path value or writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	return id, true
}

// ListEvents godoc
// @Summary List published events
// @Description Returns published events ordered by event date with the number of seats remaining.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params, err := helpers.ParsePagination(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	events, total, err := c.Service.ListPublished(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	items := make([]EventSummary, 0, len(events))
	for _, e := range events {
		items = append(items, newEventSummary(e))
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Items:      items,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns one event. Draft events are only visible to their owner and admins.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Get(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if event.Status == domain.EventStatusDraft && caller.Role != domain.RoleAdmin && caller.UserID != event.OwnerID {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
