package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventregistration/internal/delivery/http/middleware"
	"eventregistration/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var (
	organizer = domain.Principal{UserID: "org-1", Email: "org@example.com", Role: domain.RoleOrganizer}
	attendee  = domain.Principal{UserID: "user-1", Email: "user@example.com", Role: domain.RoleAttendee}
	admin     = domain.Principal{UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event      *domain.Event
	events     []*domain.Event
	total      int
	stats      *domain.EventStats
	ownerStats []*domain.EventStats
	err        error

	lastInput  domain.CreateEventInput
	lastCaller domain.Principal
	lastPage   domain.PaginationParams
	lastID     string
	lastOp     string
}

func (f *fakeEventService) Create(_ context.Context, caller domain.Principal, in domain.CreateEventInput) (*domain.Event, error) {
	f.lastOp, f.lastCaller, f.lastInput = "create", caller, in
	return f.event, f.err
}

func (f *fakeEventService) transition(op, id string, caller domain.Principal) (*domain.Event, error) {
	f.lastOp, f.lastID, f.lastCaller = op, id, caller
	return f.event, f.err
}

func (f *fakeEventService) Publish(_ context.Context, id string, caller domain.Principal) (*domain.Event, error) {
	return f.transition("publish", id, caller)
}

func (f *fakeEventService) Cancel(_ context.Context, id string, caller domain.Principal) (*domain.Event, error) {
	return f.transition("cancel", id, caller)
}

func (f *fakeEventService) Complete(_ context.Context, id string, caller domain.Principal) (*domain.Event, error) {
	return f.transition("complete", id, caller)
}

func (f *fakeEventService) Get(_ context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEventService) ListPublished(_ context.Context, page domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastPage = page
	return f.events, f.total, f.err
}

func (f *fakeEventService) ListByOwner(_ context.Context, caller domain.Principal) ([]*domain.EventStats, error) {
	f.lastCaller = caller
	return f.ownerStats, f.err
}

func (f *fakeEventService) Stats(_ context.Context, id string, caller domain.Principal) (*domain.EventStats, error) {
	f.lastID, f.lastCaller = id, caller
	return f.stats, f.err
}

// fakeReservationService implements domain.ReservationService for handler tests.
type fakeReservationService struct {
	result     *domain.RegistrationResult
	cancel     *domain.CancelResult
	err        error
	lastID     string
	lastCaller domain.Principal
}

func (f *fakeReservationService) Register(_ context.Context, eventID string, caller domain.Principal) (*domain.RegistrationResult, error) {
	f.lastID, f.lastCaller = eventID, caller
	return f.result, f.err
}

func (f *fakeReservationService) Cancel(_ context.Context, registrationID string, caller domain.Principal) (*domain.CancelResult, error) {
	f.lastID, f.lastCaller = registrationID, caller
	return f.cancel, f.err
}

// fakeSimulator implements domain.Simulator for handler tests.
type fakeSimulator struct {
	result      *domain.SimulationResult
	err         error
	lastEventID string
	lastUsers   int
	lastTimeout time.Duration
}

func (f *fakeSimulator) Simulate(_ context.Context, eventID string, users int, timeout time.Duration, _ domain.Principal) (*domain.SimulationResult, error) {
	f.lastEventID, f.lastUsers, f.lastTimeout = eventID, users, timeout
	return f.result, f.err
}

// newRequest builds a request with optional body, path values and an authenticated caller.
func newRequest(method, target, body string, caller *domain.Principal, pathValues map[string]string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if caller != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), *caller))
	}
	return req
}

// envelope mirrors helpers.APIResponse with raw data for typed decoding in tests.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
