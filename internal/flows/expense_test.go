package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseFlowEndToEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	input := map[string]any{"amount": "500", "who_paid": "Alice", "paid_to": "Bob", "reason": "Fuel"}
	summary, err := f.dispatcher.Route(ctx, &Request{
		Action: ActionDataExchange,
		Screen: ScreenExpenseForm,
		Data:   input,
	})
	require.NoError(t, err)
	assert.Equal(t, ScreenExpenseSum, summary.Screen)
	assert.Equal(t, map[string]any{"amount": "500", "who_paid": "Alice", "paid_to": "Bob", "reason": "Fuel"}, summary.Data)
	assert.Empty(t, f.sheets.appends)

	done, err := f.dispatcher.Route(ctx, &Request{
		Action: ActionDataExchange,
		Screen: summary.Screen,
		Data:   summary.Data,
	})
	require.NoError(t, err)
	assert.Equal(t, ScreenExpenseDone, done.Screen)
	assert.Equal(t, map[string]any{"response": "Thank you for submitting the expense!"}, done.Data)

	require.Len(t, f.sheets.appends, 1)
	assert.Equal(t, appendCall{
		SpreadsheetID: "sheet-1",
		Tab:           "expenses",
		Values:        []any{"2026-03-14", "500", "Alice", "Bob", "Fuel"},
	}, f.sheets.appends[0])
}

func TestExpenseAppendFailureStillCompletes(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("quota exceeded")}
	h := NewExpenseHandler(sheets, "sheet-1", time.Second)

	p, handled, err := h.Handle(context.Background(), &Request{Screen: ScreenExpenseSum, Data: map[string]any{"amount": "1"}})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, ScreenExpenseDone, p.Screen)
	assert.Len(t, sheets.appends, 1)
}

func TestExpenseWithoutSpreadsheetSkipsAppend(t *testing.T) {
	sheets := &fakeSheets{}
	h := NewExpenseHandler(sheets, "", time.Second)

	p, _, err := h.Handle(context.Background(), &Request{Screen: ScreenExpenseSum, Data: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, ScreenExpenseDone, p.Screen)
	assert.Empty(t, sheets.appends)
}

func TestExpenseSubmittedEndsFlow(t *testing.T) {
	h := NewExpenseHandler(nil, "", time.Second)

	p, handled, err := h.Handle(context.Background(), &Request{Screen: ScreenExpenseDone, Data: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, emptyPayload(), p)
}
