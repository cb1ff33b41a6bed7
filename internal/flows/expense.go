package flows

import (
	"context"
	"time"

	"github.com/fourteentrees/flow-gateway/internal/utils"
	"go.uber.org/zap"
)

const (
	expenseTab      = "expenses"
	expenseResponse = "Thank you for submitting the expense!"
)

type ExpenseHandler struct {
	sheets        SheetAppender
	spreadsheetID string
	call          caller
	now           func() time.Time
}

func NewExpenseHandler(sheets SheetAppender, spreadsheetID string, timeout time.Duration) *ExpenseHandler {
	return &ExpenseHandler{
		sheets:        sheets,
		spreadsheetID: spreadsheetID,
		call:          caller{timeout: timeout},
		now:           time.Now,
	}
}

func (h *ExpenseHandler) Flow() FlowID { return FlowExpense }

func (h *ExpenseHandler) Screens() []Screen {
	return []Screen{ScreenExpenseForm, ScreenExpenseSum, ScreenExpenseDone}
}

func (h *ExpenseHandler) Handle(ctx context.Context, req *Request) (*Payload, bool, error) {
	switch req.Screen {
	case ScreenExpenseForm:
		return &Payload{Screen: ScreenExpenseSum, Data: req.Data}, true, nil

	case ScreenExpenseSum:
		h.record(ctx, req)
		return &Payload{
			Screen: ScreenExpenseDone,
			Data:   map[string]any{"response": expenseResponse},
		}, true, nil

	case ScreenExpenseDone:
		return emptyPayload(), true, nil
	}
	return nil, false, nil
}

// record appends the expense row. Failures never stop the conversation.
func (h *ExpenseHandler) record(ctx context.Context, req *Request) {
	if h.spreadsheetID == "" || h.sheets == nil {
		utils.Zlog.Warn("Expense spreadsheet not configured, skipping append",
			zap.String("screen", string(req.Screen)))
		return
	}

	row := []any{
		h.now().UTC().Format(time.DateOnly),
		req.String("amount"),
		req.String("who_paid"),
		req.String("paid_to"),
		req.String("reason"),
	}
	soft(req.Screen, h.call.do(ctx, "sheets", "append_row", func(ctx context.Context) error {
		return h.sheets.AppendRow(ctx, h.spreadsheetID, expenseTab, row)
	}))
}
