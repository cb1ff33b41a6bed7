package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourteentrees/flow-gateway/internal/messaging"
)

func TestMenuAddExpenseSendsFlow(t *testing.T) {
	f := newFixture()

	resp, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenMenu,
		Data:   map[string]any{"user_action_selection": "Add_Expense"},
	})
	require.NoError(t, err)
	assert.Equal(t, &Response{Data: map[string]any{}}, resp)

	require.Len(t, f.messenger.sent, 1)
	msg := f.messenger.sent[0]
	assert.Equal(t, "919800000000", msg.To)
	assert.Equal(t, "flow-1", msg.Interactive.Action.Parameters.FlowID)
	assert.Equal(t, "expense_token", msg.Interactive.Action.Parameters.FlowToken)
}

func TestMenuSelectionFromUnownedScreen(t *testing.T) {
	f := newFixture()

	resp, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: "WELCOME",
		Data:   map[string]any{"user_action_selection": "Register_for_Site_Visit"},
	})
	require.NoError(t, err)
	assert.Equal(t, ScreenExpenseSum, resp.Screen)
	assert.Empty(t, f.messenger.sent)
}

func TestMenuSendFailureIsSoft(t *testing.T) {
	messenger := &fakeMessenger{err: errors.New("rate limited")}
	h := NewMenuHandler(messenger, "919800000000", messaging.FlowRef{}, time.Second)

	p, handled, err := h.HandleSelection(context.Background(), &Request{Data: map[string]any{"user_action_selection": "Add_Expense"}})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, emptyPayload(), p)
}

func TestMenuWithoutMessenger(t *testing.T) {
	h := NewMenuHandler(nil, "", messaging.FlowRef{}, time.Second)

	_, handled, err := h.HandleSelection(context.Background(), &Request{Data: map[string]any{"user_action_selection": "Add_Expense"}})
	require.NoError(t, err)
	assert.True(t, handled)
}

func TestMenuIgnoresOtherSelections(t *testing.T) {
	h := NewMenuHandler(nil, "", messaging.FlowRef{}, time.Second)

	_, handled, err := h.HandleSelection(context.Background(), &Request{Data: map[string]any{"user_action_selection": "Something_Else"}})
	require.NoError(t, err)
	assert.False(t, handled)
}
