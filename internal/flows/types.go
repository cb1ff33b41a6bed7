package flows

import (
	"errors"
	"fmt"
	"strconv"
)

type Action string

const (
	ActionPing         Action = "ping"
	ActionInit         Action = "INIT"
	ActionDataExchange Action = "data_exchange"
	ActionBack         Action = "BACK"
)

// FlowID names the conversation a screen belongs to.
type FlowID string

const (
	FlowGifting FlowID = "gifting"
	FlowExpense FlowID = "expense"
	FlowVisit   FlowID = "visit"
	FlowMenu    FlowID = "menu"
)

type Screen string

const (
	ScreenGiftingTrees Screen = "GIFTING_TREES"
	ScreenRecipientsA  Screen = "RECIPIENTS_A"
	ScreenDashboard    Screen = "DASHBOARD"
	ScreenAIMessages   Screen = "AI_MESSAGES"
	ScreenGiftMessages Screen = "GIFT_MESSAGES"
	ScreenCardPreview  Screen = "CARD_PREVIEW"
	ScreenExpenseForm  Screen = "EXPENSE_FORM"
	ScreenExpenseSum   Screen = "EXPENSE_SUMMARY"
	ScreenExpenseDone  Screen = "EXPENSE_SUBMITTED"
	ScreenVisitWelcome Screen = "SITE_VISIT_WELCOME"
	ScreenVisitSelect  Screen = "SITE_VISIT_SELECT"
	ScreenVisitDetails Screen = "SITE_VISIT_REGISTRANT_DETAILS"
	ScreenVisitConfirm Screen = "SITE_VISIT_CONFIRM"
	ScreenVisitDone    Screen = "SITE_VISIT_SUBMITTED"
	ScreenMenu         Screen = "MENU"
)

var (
	ErrUnknownScreen  = errors.New("flows: no handler owns screen")
	ErrInvalidRequest = errors.New("flows: invalid request")
	ErrScreenConflict = errors.New("flows: screen claimed by more than one handler")
	ErrNotConfigured  = errors.New("flows: collaborator not configured")
)

// CollaboratorError wraps a failed call to an external service.
type CollaboratorError struct {
	Collaborator string
	Op           string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Request is the decrypted body of a flow data exchange.
type Request struct {
	Version   string         `json:"version"`
	Action    Action         `json:"action"`
	FlowToken string         `json:"flow_token,omitempty"`
	Screen    Screen         `json:"screen,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Validate enforces the per-action required fields and normalizes a missing data bag.
func (r *Request) Validate() error {
	switch r.Action {
	case ActionInit:
		if r.FlowToken == "" {
			return fmt.Errorf("%w: INIT requires flow_token", ErrInvalidRequest)
		}
	case ActionDataExchange, ActionBack:
		if r.Screen == "" {
			return fmt.Errorf("%w: %s requires screen", ErrInvalidRequest, r.Action)
		}
	case "":
		return fmt.Errorf("%w: missing action", ErrInvalidRequest)
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	return nil
}

// String returns data[key] as a string. Flow clients send numbers and booleans
// for some fields, so those are formatted rather than rejected.
func (r *Request) String(key string) string {
	switch v := r.Data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Payload is the next screen and its data. An empty Screen ends the flow.
type Payload struct {
	Screen Screen         `json:"screen,omitempty"`
	Data   map[string]any `json:"data"`
}

func emptyPayload() *Payload {
	return &Payload{Data: map[string]any{}}
}

// Response is the plaintext body encrypted back to the client.
type Response struct {
	Version string         `json:"version,omitempty"`
	Screen  Screen         `json:"screen,omitempty"`
	Data    map[string]any `json:"data"`
}
