package controllers

import (
	"log/slog"
	"net/http"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

// RegisterResponse is the data payload for POST /events/{eventID}/register.
// Position is set only when the caller was waitlisted.
type RegisterResponse struct {
	Message      string               `json:"message"`
	Waitlist     bool                 `json:"waitlist"`
	Registration *domain.Registration `json:"registration"`
	Position     int                  `json:"position,omitempty"`
}

// RegisterSuccessResponse is the success response envelope for POST /events/{eventID}/register (201).
type RegisterSuccessResponse struct {
	Data  RegisterResponse  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CancelRegistrationSuccessResponse is the success response envelope for POST /registrations/{registrationID}/cancel (200).
type CancelRegistrationSuccessResponse struct {
	Data  *domain.CancelResult `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.ReservationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.ReservationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register the caller for an event
// @Description Confirms a seat when one is free, otherwise appends the caller to the event waitlist.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.RegisterSuccessResponse "confirmed or waitlisted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already registered) or event_not_available"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/register [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	result, err := c.Service.Register(r.Context(), eventID, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	resp := RegisterResponse{
		Message:      "Registration confirmed",
		Waitlist:     result.Waitlisted,
		Registration: result.Registration,
	}
	if result.Waitlisted {
		resp.Message = "Event is full, you have been added to the waitlist"
		resp.Position = result.Position
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, resp)
}

// CancelRegistration godoc
// @Summary Cancel a registration
// @Description Cancels the caller's registration. Freeing a confirmed seat promotes the head of the waitlist.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID"
// @Success 200 {object} controllers.CancelRegistrationSuccessResponse "data contains the cancelled and promoted registrations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/cancel [post]
func (c *RegistrationController) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := pathID(w, r, "registrationID")
	if !ok {
		return
	}
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	result, err := c.Service.Cancel(r.Context(), registrationID, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
