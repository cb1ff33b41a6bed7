package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourteentrees/flow-gateway/internal/loaders"
)

func TestVisitFlow(t *testing.T) {
	f := newFixture()
	f.visits.visits = []loaders.Visit{
		{ID: 7, Name: "Spring planting", Date: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), Type: "family", SiteName: "Chakan"},
	}
	ctx := context.Background()

	list, err := f.dispatcher.Route(ctx, &Request{Action: ActionDataExchange, Screen: ScreenVisitWelcome})
	require.NoError(t, err)
	assert.Equal(t, ScreenVisitSelect, list.Screen)
	assert.Equal(t, []map[string]any{
		{"id": "7", "title": "Spring planting", "description": "On 2026-04-02 at site: Chakan"},
	}, list.Data["upcoming_visits"])

	details, err := f.dispatcher.Route(ctx, &Request{
		Action: ActionDataExchange,
		Screen: ScreenVisitSelect,
		Data:   map[string]any{"selected_visit_id": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, ScreenVisitDetails, details.Screen)
	assert.Equal(t, map[string]any{
		"id":          "7",
		"title":       "Spring planting",
		"description": "Chakan, On 2026-04-02",
		"visit_date":  "2026-04-02",
		"site_name":   "Chakan",
		"type":        "family",
	}, details.Data["selected_visit"])

	confirm, err := f.dispatcher.Route(ctx, &Request{
		Action: ActionDataExchange,
		Screen: ScreenVisitDetails,
		Data:   map[string]any{"visit_id": "7", "visitor_name": "Asha", "visitor_email": "asha@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, ScreenVisitConfirm, confirm.Screen)

	done, err := f.dispatcher.Route(ctx, &Request{
		Action: ActionDataExchange,
		Screen: ScreenVisitConfirm,
		Data:   confirm.Data,
	})
	require.NoError(t, err)
	assert.Equal(t, ScreenVisitDone, done.Screen)
	assert.Equal(t, map[string]any{"response": "Thank you for the site visit registration.!"}, done.Data)
	assert.Equal(t, []string{"Asha|asha@example.com"}, f.visits.registered)
}

func TestVisitSelectValidation(t *testing.T) {
	h := NewVisitHandler(&fakeVisitStore{}, time.Second)

	_, _, err := h.Handle(context.Background(), &Request{Screen: ScreenVisitSelect, Data: map[string]any{"selected_visit_id": "abc"}})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, _, err = h.Handle(context.Background(), &Request{Screen: ScreenVisitConfirm, Data: map[string]any{"visit_id": "7"}})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestVisitStoreFailure(t *testing.T) {
	store := &fakeVisitStore{err: loaders.ErrNoDatabase}
	h := NewVisitHandler(store, time.Second)

	_, handled, err := h.Handle(context.Background(), &Request{Screen: ScreenVisitWelcome})
	assert.True(t, handled)
	assert.True(t, errors.Is(err, loaders.ErrNoDatabase))

	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "get_upcoming_visits", ce.Op)
}
