package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fourteentrees/flow-gateway/internal/flows"
	"github.com/fourteentrees/flow-gateway/internal/messaging"
	"github.com/fourteentrees/flow-gateway/internal/utils"
)

// Menu option and reply button ids.
const (
	optionGiftTrees       = "gift_trees"
	optionGiftTreesLegacy = "1"
	optionSubmitExpense   = "submit_expense"
	optionVisitRegister   = "site_visit_register"
	optionVisitFeedback   = "site_visit_feedback"
	optionTrackGift       = "track_gift_status"

	visitTokenPrefix = "site_visit"

	followUpText = "Thank you! Someone from the 14 Trees team will get in touch with you shortly."
)

// Messenger is the part of the Cloud API client the webhook needs.
type Messenger interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
	MarkRead(ctx context.Context, messageID string) error
}

// FlowLinks names the published flows the webhook opens from menu replies.
type FlowLinks struct {
	GiftFlowID           string
	EditRecipientsFlowID string
	VisitFlowID          string
	Expense              messaging.FlowRef
}

// Service reacts to inbound messages: every text gets the main menu, menu and
// button replies open the matching flow, completed flows are logged.
type Service struct {
	messenger Messenger
	links     FlowLinks
	now       func() time.Time
}

func NewService(messenger Messenger, links FlowLinks) *Service {
	return &Service{messenger: messenger, links: links, now: time.Now}
}

func (s *Service) HandleMessages(ctx context.Context, value Value) error {
	if len(value.Messages) == 0 {
		for _, st := range value.Statuses {
			utils.Zlog.Debug("Message status update",
				zap.String("message_id", st.ID),
				zap.String("status", st.Status))
		}
		return nil
	}

	message := value.Messages[0]
	var userName string
	if len(value.Contacts) > 0 {
		userName = value.Contacts[0].Profile.Name
	}

	utils.Zlog.Info("Received WhatsApp message",
		zap.String("phone_number_id", value.Metadata.PhoneNumberID),
		zap.String("from", message.From),
		zap.String("user_name", userName),
		zap.String("message_type", message.Type),
		zap.String("message_id", message.ID))

	if err := s.messenger.MarkRead(ctx, message.ID); err != nil {
		utils.Zlog.Warn("Failed to mark message as read",
			zap.String("message_id", message.ID),
			zap.Error(err))
	}

	switch message.Type {
	case "text":
		if _, err := s.messenger.Send(ctx, messaging.NewMainMenu(message.From)); err != nil {
			return fmt.Errorf("failed to send main menu: %w", err)
		}
	case "interactive":
		return s.handleInteractive(ctx, message)
	default:
		utils.Zlog.Debug("Ignoring unsupported message type",
			zap.String("message_type", message.Type))
	}
	return nil
}

func (s *Service) handleInteractive(ctx context.Context, message Message) error {
	in := message.Interactive
	if in == nil {
		return nil
	}

	switch {
	case in.NfmReply != nil:
		var submitted map[string]any
		if err := json.Unmarshal([]byte(in.NfmReply.ResponseJSON), &submitted); err != nil {
			utils.Zlog.Warn("Unparseable flow submission",
				zap.String("from", message.From),
				zap.Error(err))
			return nil
		}
		utils.Zlog.Info("Flow submitted",
			zap.String("from", message.From),
			zap.Any("flow_token", submitted["flow_token"]),
			zap.Int("fields", len(submitted)))
		return nil
	case in.ListReply != nil:
		return s.reply(ctx, message.From, in.ListReply.ID)
	case in.ButtonReply != nil:
		return s.reply(ctx, message.From, in.ButtonReply.ID)
	}
	return nil
}

// reply answers a menu option or reply button with the message it stands for.
func (s *Service) reply(ctx context.Context, to, option string) error {
	msg, flowID := s.replyFor(to, option)
	if msg == nil {
		utils.Zlog.Info("Ignoring unknown menu option",
			zap.String("from", to),
			zap.String("option", option))
		return nil
	}
	if msg.Type == "interactive" && flowID == "" {
		utils.Zlog.Warn("Flow for menu option is not configured",
			zap.String("from", to),
			zap.String("option", option))
		return nil
	}

	if _, err := s.messenger.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to answer %s: %w", option, err)
	}
	utils.Zlog.Info("Menu option answered",
		zap.String("from", to),
		zap.String("option", option))
	return nil
}

// replyFor returns the message for option and, for flow messages, the flow id it opens.
func (s *Service) replyFor(to, option string) (*messaging.Message, string) {
	switch option {
	case optionGiftTrees, optionGiftTreesLegacy:
		flow := messaging.FlowRef{ID: s.links.GiftFlowID, Token: flows.TokenGiftForm + "_" + to}
		return messaging.NewGiftTreesFlowMessage(to, flow, s.now().UTC().Format(time.DateOnly)), flow.ID
	case optionSubmitExpense:
		return messaging.NewExpenseFlowMessage(to, s.links.Expense), s.links.Expense.ID
	case optionVisitRegister:
		flow := messaging.FlowRef{ID: s.links.VisitFlowID, Token: visitTokenPrefix + "_" + to}
		return messaging.NewSiteVisitFlowMessage(to, flow), flow.ID
	case optionVisitFeedback, optionTrackGift:
		return messaging.NewTextMessage(to, followUpText), ""
	}

	if strings.HasPrefix(option, flows.TokenEditRecipients+"_") {
		id, err := strconv.ParseInt(strings.TrimPrefix(option, flows.TokenEditRecipients+"_"), 10, 64)
		if err != nil || id <= 0 {
			return nil, ""
		}
		flow := messaging.FlowRef{ID: s.links.EditRecipientsFlowID, Token: fmt.Sprintf("%s_%d", flows.TokenEditRecipients, id)}
		return messaging.NewEditRecipientsFlowMessage(to, flow), flow.ID
	}
	return nil, ""
}
