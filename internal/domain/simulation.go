package domain

import (
	"context"
	"time"
)

// SimulationResult is the outcome distribution of one simulation run.
// SuccessCount + WaitlistedCount + FailedCount always equals TotalAttempted.
// swagger:model SimulationResult
type SimulationResult struct {
	TotalAttempted      int   `json:"total_attempted"`
	SuccessCount        int   `json:"success_count"`
	WaitlistedCount     int   `json:"waitlisted_count"`
	FailedCount         int   `json:"failed_count"`
	FinalSeatsRemaining int   `json:"final_seats_remaining"`
	RequestedUsers      int   `json:"requested_users"`
	TimedOut            bool  `json:"timed_out"`
	InvariantHeld       bool  `json:"invariant_held"`
	DurationMs          int64 `json:"duration_ms"`
}

// Simulator runs synthetic concurrent registrations against an event.
type Simulator interface {
	Simulate(ctx context.Context, eventID string, userCount int, timeout time.Duration, caller Principal) (*SimulationResult, error)
}
