package messaging

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flowParams(t *testing.T, msg *Message) map[string]any {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	interactive := decoded["interactive"].(map[string]any)
	assert.Equal(t, "flow", interactive["type"])
	action := interactive["action"].(map[string]any)
	assert.Equal(t, "flow", action["name"])
	return action["parameters"].(map[string]any)
}

func TestGiftTreesFlowMessage(t *testing.T) {
	params := flowParams(t, NewGiftTreesFlowMessage("919800000000", FlowRef{ID: "g1", Token: "gift_form_919800000000"}, "2026-03-14"))

	assert.Equal(t, "3", params["flow_message_version"])
	assert.Equal(t, "g1", params["flow_id"])
	assert.Equal(t, "gift_form_919800000000", params["flow_token"])
	assert.Equal(t, "navigate", params["flow_action"])
	assert.Equal(t, map[string]any{
		"screen": "GIFTING_TREES",
		"data":   map[string]any{"gifted_on": "2026-03-14"},
	}, params["flow_action_payload"])
}

func TestEditRecipientsFlowMessageAsksEndpoint(t *testing.T) {
	params := flowParams(t, NewEditRecipientsFlowMessage("919800000000", FlowRef{ID: "e1", Token: "edit_recipients_382"}))

	assert.Equal(t, "edit_recipients_382", params["flow_token"])
	assert.Equal(t, "data_exchange", params["flow_action"])
	assert.Equal(t, "Edit Recipients", params["flow_cta"])
	assert.NotContains(t, params, "flow_action_payload")
}

func TestSiteVisitFlowMessage(t *testing.T) {
	params := flowParams(t, NewSiteVisitFlowMessage("919800000000", FlowRef{ID: "v1", Token: "site_visit_919800000000"}))

	assert.Equal(t, "v1", params["flow_id"])
	assert.Equal(t, "SITE_VISIT_WELCOME", params["flow_action_payload"].(map[string]any)["screen"])
}
