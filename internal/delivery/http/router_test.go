package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventregistration/internal/adapters/auth"
	"eventregistration/internal/domain"
	"eventregistration/internal/repository/memory"
	"eventregistration/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type apiEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	issuer  domain.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := services.NewEventRegistry(memory.NewStore(), services.NewEventLocks(), logger, time.Second)
	reservations := services.NewReservationService(registry, nil, logger)
	simulator := services.NewSimulator(reservations, registry, services.SimulationConfig{MaxUsers: 1000, MaxWorkers: 50, DefaultTimeout: 10 * time.Second}, logger)

	handler := NewRouter(RouterDeps{
		Logger:         logger,
		Verifier:       auth.NewJWTVerifier(testSecret),
		Events:         registry,
		Reservations:   reservations,
		Simulator:      simulator,
		AllowedOrigins: []string{"https://app.example.com"},
	})
	return &testServer{t: t, handler: handler, issuer: auth.NewJWTIssuer(testSecret)}
}

func (s *testServer) do(method, path string, p *domain.Principal, body string) (int, apiEnvelope) {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if p != nil {
		token, err := s.issuer.Issue(*p, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var env apiEnvelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestRouter_RegistrationFlow(t *testing.T) {
	srv := newTestServer(t)
	organizer := domain.Principal{UserID: "org-1", Email: "org@example.com", Role: domain.RoleOrganizer}
	alice := domain.Principal{UserID: "alice", Email: "alice@example.com", Role: domain.RoleAttendee}
	bob := domain.Principal{UserID: "bob", Email: "bob@example.com", Role: domain.RoleAttendee}

	date := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	status, env := srv.do(http.MethodPost, "/organizer/events", &organizer,
		`{"title":"Gophers","location":"Lisbon","event_date":"`+date+`","capacity":1}`)
	require.Equal(t, http.StatusCreated, status)
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, domain.EventStatusDraft, event.Status)

	status, _ = srv.do(http.MethodGet, "/events/"+event.ID, &alice, "")
	assert.Equal(t, http.StatusNotFound, status, "drafts are hidden from attendees")

	status, env = srv.do(http.MethodPost, "/events/"+event.ID+"/register", &alice, "")
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "event_not_available", env.Error.Code)

	status, _ = srv.do(http.MethodPost, "/organizer/events/"+event.ID+"/publish", &organizer, "")
	require.Equal(t, http.StatusOK, status)

	status, env = srv.do(http.MethodPost, "/events/"+event.ID+"/register", &alice, "")
	require.Equal(t, http.StatusCreated, status)
	var first struct {
		Waitlist     bool                `json:"waitlist"`
		Registration domain.Registration `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.False(t, first.Waitlist)

	status, env = srv.do(http.MethodPost, "/events/"+event.ID+"/register", &bob, "")
	require.Equal(t, http.StatusCreated, status)
	var second struct {
		Waitlist bool `json:"waitlist"`
		Position int  `json:"position"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.True(t, second.Waitlist)
	assert.Equal(t, 1, second.Position)

	status, env = srv.do(http.MethodPost, "/events/"+event.ID+"/register", &bob, "")
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", env.Error.Code)

	status, _ = srv.do(http.MethodPost, "/registrations/"+first.Registration.ID+"/cancel", &bob, "")
	assert.Equal(t, http.StatusForbidden, status, "only the registrant may cancel")

	status, env = srv.do(http.MethodPost, "/registrations/"+first.Registration.ID+"/cancel", &alice, "")
	require.Equal(t, http.StatusOK, status)
	var cancelled domain.CancelResult
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	require.NotNil(t, cancelled.Promoted)
	assert.Equal(t, bob.UserID, cancelled.Promoted.UserID)
	assert.Equal(t, domain.RegistrationStatusConfirmed, cancelled.Promoted.Status)

	status, env = srv.do(http.MethodGet, "/organizer/events/"+event.ID+"/analytics", &organizer, "")
	require.Equal(t, http.StatusOK, status)
	var stats domain.EventStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.ConfirmedCount)
	assert.Equal(t, 0, stats.WaitlistCount)

	status, env = srv.do(http.MethodGet, "/events", &alice, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"seats_remaining":0`)
}

func TestRouter_AccessControl(t *testing.T) {
	srv := newTestServer(t)
	attendee := domain.Principal{UserID: "u1", Role: domain.RoleAttendee}
	organizer := domain.Principal{UserID: "o1", Role: domain.RoleOrganizer}

	tests := []struct {
		name       string
		method     string
		path       string
		caller     *domain.Principal
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/health", nil, http.StatusOK},
		{"events need a token", http.MethodGet, "/events", nil, http.StatusUnauthorized},
		{"attendee cannot create events", http.MethodPost, "/organizer/events", &attendee, http.StatusForbidden},
		{"organizer cannot simulate", http.MethodPost, "/admin/events/e1/simulate?users=5", &organizer, http.StatusForbidden},
		{"unknown event", http.MethodGet, "/events/missing", &attendee, http.StatusNotFound},
		{"unknown registration", http.MethodPost, "/registrations/missing/cancel", &attendee, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := srv.do(tt.method, tt.path, tt.caller, "")
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestRouter_Simulate(t *testing.T) {
	srv := newTestServer(t)
	admin := domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}

	date := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	status, env := srv.do(http.MethodPost, "/organizer/events", &admin,
		`{"title":"Launch","event_date":"`+date+`","capacity":25}`)
	require.Equal(t, http.StatusCreated, status)
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	status, _ = srv.do(http.MethodPost, "/organizer/events/"+event.ID+"/publish", &admin, "")
	require.Equal(t, http.StatusOK, status)

	status, env = srv.do(http.MethodPost, "/admin/events/"+event.ID+"/simulate?users=200&timeout=10s", &admin, "")
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Results domain.SimulationResult `json:"simulation_results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 200, data.Results.TotalAttempted)
	assert.Equal(t, 25, data.Results.SuccessCount)
	assert.Equal(t, 175, data.Results.WaitlistedCount)
	assert.Equal(t, 0, data.Results.FinalSeatsRemaining)
	assert.True(t, data.Results.InvariantHeld)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
