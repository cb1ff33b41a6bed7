package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fourteentrees/flow-gateway/internal/flowcrypto"
	"github.com/fourteentrees/flow-gateway/internal/flows"
	"github.com/fourteentrees/flow-gateway/internal/middleware"
	"github.com/fourteentrees/flow-gateway/internal/utils"
)

const webhookProcessTimeout = 30 * time.Second

// FlowRouter turns a decrypted flow request into the next screen.
type FlowRouter interface {
	Route(ctx context.Context, req *flows.Request) (*flows.Response, error)
}

// Controller handles the flow data endpoint and the Cloud API webhook
type Controller struct {
	codec       *flowcrypto.Codec
	router      FlowRouter
	service     *Service
	verifyToken string
	limiter     *middleware.KeyLimiter
}

func NewController(codec *flowcrypto.Codec, router FlowRouter, service *Service, verifyToken string) *Controller {
	return &Controller{
		codec:       codec,
		router:      router,
		service:     service,
		verifyToken: verifyToken,
	}
}

// WithRateLimit budgets data exchanges per flow token. Every exchange reaches
// the endpoint from Meta's servers, so the client address does not identify a user.
func (c *Controller) WithRateLimit(l *middleware.KeyLimiter) *Controller {
	c.limiter = l
	return c
}

// FlowExchange handles one encrypted data exchange
// POST /whatsapp/flows
func (c *Controller) FlowExchange(ctx *gin.Context) {
	var env flowcrypto.Envelope
	if err := ctx.ShouldBindJSON(&env); err != nil {
		utils.Zlog.Warn("Invalid flow envelope", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	var req flows.Request
	session, err := c.codec.Decrypt(env, &req)
	if err != nil {
		status := exchangeStatus(err)
		utils.Zlog.Warn("Failed to decrypt flow request",
			zap.Int("status", status),
			zap.Error(err))
		ctx.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	if !middleware.AllowRequest(ctx, c.limiter, req.FlowToken) {
		return
	}

	resp, err := c.router.Route(ctx.Request.Context(), &req)
	if err != nil {
		status := exchangeStatus(err)
		fields := []zap.Field{
			zap.String("action", string(req.Action)),
			zap.String("screen", string(req.Screen)),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			utils.Zlog.Error("Flow exchange failed", fields...)
		} else {
			utils.Zlog.Warn("Flow exchange rejected", fields...)
		}
		ctx.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	encoded, err := session.Encrypt(resp)
	if err != nil {
		utils.Zlog.Error("Failed to encrypt flow response", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
		return
	}

	utils.Zlog.Debug("Flow exchange completed",
		zap.String("action", string(req.Action)),
		zap.String("screen", string(req.Screen)),
		zap.String("next_screen", string(resp.Screen)))
	ctx.String(http.StatusOK, encoded)
}

// exchangeStatus maps an exchange failure to its HTTP status. 421 tells the
// client to refresh the business public key and retry.
func exchangeStatus(err error) int {
	switch {
	case errors.Is(err, flowcrypto.ErrDecryption):
		return http.StatusMisdirectedRequest
	case errors.Is(err, flowcrypto.ErrMalformedEnvelope),
		errors.Is(err, flowcrypto.ErrAuthentication),
		errors.Is(err, flows.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// VerifyWebhook handles Meta's webhook verification
// GET /whatsapp/webhook
func (c *Controller) VerifyWebhook(ctx *gin.Context) {
	mode := ctx.Query("hub.mode")
	token := ctx.Query("hub.verify_token")
	challenge := ctx.Query("hub.challenge")

	if mode == "subscribe" && c.verifyToken != "" && token == c.verifyToken {
		utils.Zlog.Info("Webhook verified")
		ctx.String(http.StatusOK, challenge)
		return
	}

	utils.Zlog.Warn("Webhook verification failed", zap.String("mode", mode))
	ctx.JSON(http.StatusForbidden, gin.H{
		"error": "verification_failed",
	})
}

// Webhook handles incoming WhatsApp webhook messages
// POST /whatsapp/webhook
func (c *Controller) Webhook(ctx *gin.Context) {
	var payload WebhookPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		utils.Zlog.Error("Failed to parse WhatsApp webhook payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_payload",
		})
		return
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		utils.Zlog.Warn("Empty WhatsApp webhook payload")
		ctx.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	change := payload.Entry[0].Changes[0]
	if change.Field != "messages" {
		utils.Zlog.Warn("Unsupported webhook field", zap.String("field", change.Field))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_field"})
		return
	}

	// Meta retries unless it gets a fast 200, so processing happens after the reply.
	ctx.JSON(http.StatusOK, gin.H{"status": "received"})

	value := change.Value
	go func() {
		processCtx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
		defer cancel()

		if err := c.service.HandleMessages(processCtx, value); err != nil {
			utils.Zlog.Error("Failed to process WhatsApp message",
				zap.String("phone_number_id", value.Metadata.PhoneNumberID),
				zap.Error(err))
		}
	}()
}
