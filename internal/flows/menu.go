package flows

import (
	"context"
	"time"

	"github.com/fourteentrees/flow-gateway/internal/messaging"
)

const (
	selectionAddExpense    = "Add_Expense"
	selectionRegisterVisit = "Register_for_Site_Visit"
	selectionVisitFeedback = "Site_Visit_Feedback"
)

// MenuHandler reacts to user_action_selection. It owns MENU but is mostly reached
// through the dispatcher's selection fallback.
type MenuHandler struct {
	messenger     Messenger
	operatorPhone string
	expenseFlow   messaging.FlowRef
	call          caller
}

func NewMenuHandler(messenger Messenger, operatorPhone string, expenseFlow messaging.FlowRef, timeout time.Duration) *MenuHandler {
	return &MenuHandler{
		messenger:     messenger,
		operatorPhone: operatorPhone,
		expenseFlow:   expenseFlow,
		call:          caller{timeout: timeout},
	}
}

func (h *MenuHandler) Flow() FlowID { return FlowMenu }

func (h *MenuHandler) Screens() []Screen { return []Screen{ScreenMenu} }

func (h *MenuHandler) Handle(ctx context.Context, req *Request) (*Payload, bool, error) {
	return h.HandleSelection(ctx, req)
}

func (h *MenuHandler) HandleSelection(ctx context.Context, req *Request) (*Payload, bool, error) {
	switch req.String("user_action_selection") {
	case selectionAddExpense:
		h.sendExpenseForm(ctx, req)
		return emptyPayload(), true, nil

	case selectionRegisterVisit, selectionVisitFeedback:
		return &Payload{Screen: ScreenExpenseSum, Data: map[string]any{}}, true, nil
	}
	return nil, false, nil
}

func (h *MenuHandler) sendExpenseForm(ctx context.Context, req *Request) {
	if h.messenger == nil || h.operatorPhone == "" {
		soft(req.Screen, &CollaboratorError{Collaborator: "whatsapp", Op: "send", Err: messaging.ErrNotConfigured})
		return
	}
	msg := messaging.NewExpenseFlowMessage(h.operatorPhone, h.expenseFlow)
	soft(req.Screen, h.call.do(ctx, "whatsapp", "send", func(ctx context.Context) error {
		_, err := h.messenger.Send(ctx, msg)
		return err
	}))
}
