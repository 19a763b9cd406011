package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventController_ListEvents(t *testing.T) {
	date := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	svc := &fakeEventService{
		events: []*domain.Event{
			{ID: "e1", Title: "Go meetup", EventDate: date, Capacity: 10, ConfirmedCount: 4, Status: domain.EventStatusPublished},
			{ID: "e2", Title: "Full house", EventDate: date, Capacity: 2, ConfirmedCount: 2, Status: domain.EventStatusPublished},
		},
		total: 7,
	}
	ctrl := NewEventController(testLogger, svc)

	w := httptest.NewRecorder()
	ctrl.ListEvents(w, newRequest(http.MethodGet, "/events?page=2&page_size=2", "", &attendee, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 2}, svc.lastPage)

	env := decodeEnvelope(t, w)
	require.Nil(t, env.Error)
	var data ListEventsResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Items, 2)
	assert.Equal(t, 6, data.Items[0].SeatsRemaining)
	assert.Equal(t, 0, data.Items[1].SeatsRemaining)
	assert.Equal(t, helpers.PaginationMeta{Page: 2, PageSize: 2, Total: 7, TotalPages: 4}, data.Pagination)
}

func TestEventController_ListEvents_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"malformed page", "/events?page=abc", nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"zero page size", "/events?page_size=0", nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"store failure", "/events", fmt.Errorf("list: %w", assert.AnError), http.StatusInternalServerError, helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, &fakeEventService{err: tt.svcErr})
			w := httptest.NewRecorder()
			ctrl.ListEvents(w, newRequest(http.MethodGet, tt.target, "", &attendee, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestEventController_GetEvent(t *testing.T) {
	published := &domain.Event{ID: "e1", OwnerID: organizer.UserID, Status: domain.EventStatusPublished, Capacity: 5}
	draft := &domain.Event{ID: "e2", OwnerID: organizer.UserID, Status: domain.EventStatusDraft, Capacity: 5}

	tests := []struct {
		name       string
		event      *domain.Event
		err        error
		caller     *domain.Principal
		wantStatus int
	}{
		{"published visible to attendee", published, nil, &attendee, http.StatusOK},
		{"draft visible to owner", draft, nil, &organizer, http.StatusOK},
		{"draft visible to admin", draft, nil, &admin, http.StatusOK},
		{"draft hidden from attendee", draft, nil, &attendee, http.StatusNotFound},
		{"unknown event", nil, fmt.Errorf("load: %w", domain.ErrNotFound), &attendee, http.StatusNotFound},
		{"unauthenticated", published, nil, nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, &fakeEventService{event: tt.event, err: tt.err})
			w := httptest.NewRecorder()
			req := newRequest(http.MethodGet, "/events/x", "", tt.caller, map[string]string{"eventID": "x"})
			ctrl.GetEvent(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				env := decodeEnvelope(t, w)
				var got domain.Event
				require.NoError(t, json.Unmarshal(env.Data, &got))
				assert.Equal(t, tt.event.ID, got.ID)
			}
		})
	}
}

func TestEventController_GetEvent_MissingID(t *testing.T) {
	ctrl := NewEventController(testLogger, &fakeEventService{})
	w := httptest.NewRecorder()
	ctrl.GetEvent(w, newRequest(http.MethodGet, "/events/", "", &attendee, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
