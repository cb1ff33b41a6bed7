package flows

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fourteentrees/flow-gateway/internal/utils"
	"go.uber.org/zap"
)

// Flow token prefixes. Edit tokens carry the gift request id as their last
// "_" separated segment, e.g. edit_recipients_382.
const (
	TokenGiftForm       = "gift_form"
	TokenEditRecipients = "edit_recipients"
	TokenEditGiftMsg    = "edit_gift_msg"
)

// InitResolver seeds the first screen of a flow from its token.
type InitResolver struct {
	store GiftRequestStore
	call  caller
	now   func() time.Time
}

func NewInitResolver(store GiftRequestStore, timeout time.Duration) *InitResolver {
	return &InitResolver{
		store: store,
		call:  caller{timeout: timeout},
		now:   time.Now,
	}
}

// initScreenFor maps a flow token to its entry screen by prefix.
func initScreenFor(token string) (Screen, bool) {
	switch {
	case strings.HasPrefix(token, TokenGiftForm):
		return ScreenGiftingTrees, true
	case strings.HasPrefix(token, TokenEditRecipients):
		return ScreenRecipientsA, true
	case strings.HasPrefix(token, TokenEditGiftMsg):
		return ScreenDashboard, true
	}
	return "", false
}

func requestIDFromToken(token string) (int64, error) {
	idx := strings.LastIndex(token, "_")
	id, err := strconv.ParseInt(token[idx+1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: flow token %q carries no gift request id", ErrInvalidRequest, token)
	}
	return id, nil
}

func (r *InitResolver) Resolve(ctx context.Context, token string) (*Payload, error) {
	screen, ok := initScreenFor(token)
	if !ok {
		utils.Zlog.Warn("Unknown flow token prefix", zap.String("flow_token", token))
		return emptyPayload(), nil
	}

	switch screen {
	case ScreenGiftingTrees:
		return &Payload{
			Screen: screen,
			Data:   map[string]any{"gifted_on": r.now().UTC().Format(time.DateOnly)},
		}, nil
	case ScreenRecipientsA:
		return r.recipients(ctx, token)
	default:
		return r.giftMessage(ctx, token)
	}
}

func (r *InitResolver) recipients(ctx context.Context, token string) (*Payload, error) {
	requestID, err := requestIDFromToken(token)
	if err != nil {
		return nil, err
	}

	data := map[string]any{}
	err = r.call.do(ctx, "db", "get_gift_request_users", func(ctx context.Context) error {
		users, err := r.store.GetGiftRequestUsers(ctx, requestID)
		if err != nil {
			return err
		}
		data["recipients_count"] = len(users)
		for i, u := range users {
			n := i + 1
			data[fmt.Sprintf("id_%d", n)] = u.ID
			data[fmt.Sprintf("recipient_%d", n)] = u.Recipient
			data[fmt.Sprintf("recipient_name_%d", n)] = u.RecipientName
			data[fmt.Sprintf("recipient_email_%d", n)] = u.RecipientEmail
			data[fmt.Sprintf("recipient_phone_%d", n)] = u.RecipientPhone
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Payload{Screen: ScreenRecipientsA, Data: data}, nil
}

func (r *InitResolver) giftMessage(ctx context.Context, token string) (*Payload, error) {
	requestID, err := requestIDFromToken(token)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	err = r.call.do(ctx, "db", "get_gift_card_request", func(ctx context.Context) error {
		gr, err := r.store.GetGiftCardRequest(ctx, requestID)
		if err != nil {
			return err
		}
		data = map[string]any{
			"request_id":    gr.ID,
			"gifted_on":     gr.GiftedOn,
			"gifted_by":     gr.PlantedBy,
			"occasion_name": gr.EventName,
			"occasion_type": gr.EventType,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Payload{Screen: ScreenDashboard, Data: data}, nil
}
