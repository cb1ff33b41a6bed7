package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/fourteentrees/flow-gateway/internal/config"
	"github.com/fourteentrees/flow-gateway/internal/flows"
	"github.com/fourteentrees/flow-gateway/internal/utils"
)

const (
	giftMessageSets     = 3
	maxPrimaryRunes     = 270
	maxSecondaryRunes   = 125
	giftMessageSystem   = "You are an AI assistant generating messages for tree recipients. The message should inform the recipient that a tree has been planted in their honor at the 14Trees Foundation."
	giftMessageTemplate = `## Context:
- Occasion Name: {{.occasion_name}}
- Occasion Type: {{.occasion_type}}
- Sample Primary Message: "{{.sample_primary}}"
- Sample Secondary Message: "{{.sample_secondary}}"

## Task:
Generate **three unique sets** of messages. Each set should contain:
1. **Primary Message** (Max: 270 characters) - A warm, meaningful message informing the recipient about the tree planting.
2. **Secondary Message** (Max: 125 characters) - A short follow-up message that complements the primary message.

Ensure the messages are **concise, heartfelt, and appropriate** for the given occasion.

Respond with JSON only, no prose, in this shape:
{"messages": [{"primary_message": "...", "secondary_message": "..."}]}`
)

// GiftMessageGenerator asks the chat model for three primary/secondary message pairs.
type GiftMessageGenerator struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
}

// NewGiftMessageGenerator accepts a nil model; calls then fail with a MissingError.
func NewGiftMessageGenerator(m model.BaseChatModel) *GiftMessageGenerator {
	return &GiftMessageGenerator{
		model: m,
		template: prompt.FromMessages(schema.GoTemplate,
			schema.SystemMessage(giftMessageSystem),
			schema.UserMessage(giftMessageTemplate),
		),
	}
}

type giftMessageOutput struct {
	Messages []flows.GiftMessage `json:"messages"`
}

func (g *GiftMessageGenerator) GenerateGiftMessages(ctx context.Context, req flows.GiftMessageRequest) ([]flows.GiftMessage, error) {
	if g == nil || g.model == nil {
		return nil, &config.MissingError{Key: "GEMINI_API_KEYS"}
	}

	messages, err := g.template.Format(ctx, map[string]any{
		"occasion_name":    req.OccasionName,
		"occasion_type":    req.OccasionType,
		"sample_primary":   req.SamplePrimaryMessage,
		"sample_secondary": req.SampleSecondaryMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt: %w", err)
	}

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("model generate failed: %w", err)
	}

	out, err := parseGiftMessages(resp.Content)
	if err != nil {
		utils.Zlog.Warn("Unparseable gift message response",
			zap.String("occasion_type", req.OccasionType),
			zap.Error(err))
		return nil, err
	}
	return out, nil
}

// parseGiftMessages reads the model's JSON answer, tolerating a markdown code fence.
func parseGiftMessages(content string) ([]flows.GiftMessage, error) {
	content = stripCodeFence(content)

	var out giftMessageOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to decode gift messages: %w", err)
	}

	if len(out.Messages) < giftMessageSets {
		return nil, fmt.Errorf("expected %d gift message sets, got %d", giftMessageSets, len(out.Messages))
	}
	out.Messages = out.Messages[:giftMessageSets]

	for i := range out.Messages {
		m := &out.Messages[i]
		if strings.TrimSpace(m.PrimaryMessage) == "" || strings.TrimSpace(m.SecondaryMessage) == "" {
			return nil, fmt.Errorf("gift message set %d is empty", i+1)
		}
		m.PrimaryMessage = truncateRunes(m.PrimaryMessage, maxPrimaryRunes)
		m.SecondaryMessage = truncateRunes(m.SecondaryMessage, maxSecondaryRunes)
	}
	return out.Messages, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
