package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fourteentrees/flow-gateway/internal/config"
	"github.com/fourteentrees/flow-gateway/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultGraphAPIBaseURL = "https://graph.facebook.com"
	defaultClientTimeout   = 30 * time.Second
)

var ErrNotConfigured = errors.New("messaging: access token or phone number id not set")

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	accessToken   string
	client        *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func NewClient(cfg config.WhatsAppConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultGraphAPIBaseURL,
		apiVersion:    cfg.APIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		client:        &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
}

// Send posts msg and returns the id Meta assigned to it.
func (c *Client) Send(ctx context.Context, msg *Message) (string, error) {
	var resp SendResponse
	if err := c.post(ctx, msg, &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", fmt.Errorf("no message ID returned from Meta API")
	}

	utils.Zlog.Debug("WhatsApp message sent",
		zap.String("to", msg.To),
		zap.String("type", msg.Type),
		zap.String("message_id", resp.Messages[0].ID))
	return resp.Messages[0].ID, nil
}

// MarkRead flags an inbound message as read.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	var resp SendResponse
	return c.post(ctx, NewReadReceipt(messageID), &resp)
}

func (c *Client) post(ctx context.Context, body any, out any) error {
	if c.accessToken == "" || c.phoneNumberID == "" {
		return ErrNotConfigured
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("meta API error (status %d): %v", resp.StatusCode, errBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
