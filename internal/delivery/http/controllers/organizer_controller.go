package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

// CreateEventRequest is the request body for POST /organizer/events.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"event_date"`
	Capacity    int       `json:"capacity"`
}

// Validate implements helpers.Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.Capacity <= 0 {
		errs = append(errs, "capacity must be a positive integer")
	}
	return errs
}

// ListMyEventsSuccessResponse is the success response envelope for GET /organizer/events (200).
type ListMyEventsSuccessResponse struct {
	Data  []*domain.EventStats `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// EventStatsSuccessResponse is the success response envelope for GET /organizer/events/{eventID}/analytics (200).
type EventStatsSuccessResponse struct {
	Data  *domain.EventStats `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// OrganizerController serves event management for organizers and admins.
type OrganizerController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewOrganizerController(logger *slog.Logger, svc domain.EventService) *OrganizerController {
	return &OrganizerController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Creates a draft event owned by the caller. Capacity is fixed once created.
// @Tags organizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /organizer/events [post]
func (c *OrganizerController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Create(r.Context(), caller, domain.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		EventDate:   req.EventDate,
		Capacity:    req.Capacity,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListMyEvents godoc
// @Summary List the caller's events
// @Description Returns every event owned by the caller, newest first, with confirmed and waitlist counts.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMyEventsSuccessResponse "data contains event stats"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /organizer/events [get]
func (c *OrganizerController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.ListByOwner(r.Context(), caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if stats == nil {
		stats = []*domain.EventStats{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

type transitionFunc func(s domain.EventService, ctx context.Context, eventID string, caller domain.Principal) (*domain.Event, error)

func (c *OrganizerController) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	event, err := fn(c.Service, r.Context(), eventID, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// PublishEvent godoc
// @Summary Publish a draft event
// @Description Opens a draft event for registration. Only the owner or an admin may publish.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the published event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (invalid transition)"
// @Router /organizer/events/{eventID}/publish [post]
func (c *OrganizerController) PublishEvent(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, domain.EventService.Publish)
}

// CancelEvent godoc
// @Summary Cancel an event
// @Description Closes a draft or published event. Existing registrations are kept; no further registrations or promotions happen.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the cancelled event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (invalid transition)"
// @Router /organizer/events/{eventID}/cancel [post]
func (c *OrganizerController) CancelEvent(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, domain.EventService.Cancel)
}

// CompleteEvent godoc
// @Summary Mark an event completed
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the completed event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (invalid transition)"
// @Router /organizer/events/{eventID}/complete [post]
func (c *OrganizerController) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, domain.EventService.Complete)
}

// EventAnalytics godoc
// @Summary Registration analytics for an event
// @Description Returns confirmed and waitlist counts and the share of seats filled.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventStatsSuccessResponse "data contains event stats"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /organizer/events/{eventID}/analytics [get]
func (c *OrganizerController) EventAnalytics(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.Stats(r.Context(), eventID, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
