package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

// SimulationResponse is the data payload for POST /admin/events/{eventID}/simulate.
type SimulationResponse struct {
	SimulationResults *domain.SimulationResult `json:"simulation_results"`
}

// SimulationSuccessResponse is the response envelope for POST /admin/events/{eventID}/simulate.
// On 504 both data (partial results) and error are set.
type SimulationSuccessResponse struct {
	Data  SimulationResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type AdminController struct {
	Logger    *slog.Logger
	Simulator domain.Simulator
}

func NewAdminController(logger *slog.Logger, sim domain.Simulator) *AdminController {
	return &AdminController{
		Logger:    logger,
		Simulator: sim,
	}
}

// parseTimeout accepts a Go duration ("15s") or a whole number of seconds. Empty means zero,
// which lets the simulator apply its default.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 1 {
			return 0, fmt.Errorf("%w: timeout must be positive", domain.ErrInvalidInput)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: timeout must be a positive duration", domain.ErrInvalidInput)
	}
	return d, nil
}

// Simulate godoc
// @Summary Run a concurrent registration simulation
// @Description Fires the given number of simultaneous synthetic registrations at a published event through the production registration path and reports the outcome. Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param users query int true "Number of synthetic users"
// @Param timeout query string false "Overall timeout, e.g. 30s or 30"
// @Success 200 {object} controllers.SimulationSuccessResponse "data contains simulation_results"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_not_available"
// @Failure 504 {object} controllers.SimulationSuccessResponse "error.code: timeout, data holds partial results"
// @Router /admin/events/{eventID}/simulate [post]
func (c *AdminController) Simulate(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	users, err := strconv.Atoi(r.URL.Query().Get("users"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "users must be an integer")
		return
	}
	timeout, err := parseTimeout(r.URL.Query().Get("timeout"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}

	result, err := c.Simulator.Simulate(r.Context(), eventID, users, timeout, caller)
	switch {
	case err == nil:
		helpers.WriteJSONSuccess(w, http.StatusOK, SimulationResponse{SimulationResults: result})
	case errors.Is(err, domain.ErrTimeout) && result != nil:
		status, apiErr := helpers.StatusFor(err)
		helpers.WriteJSON(w, status, SimulationResponse{SimulationResults: result}, apiErr)
	default:
		helpers.WriteServiceError(w, r, c.Logger, err)
	}
}
