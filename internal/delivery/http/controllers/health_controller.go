package controllers

import (
	"net/http"

	"eventregistration/internal/delivery/http/helpers"
)

// HealthResponse is the data payload for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Router /health [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
}
