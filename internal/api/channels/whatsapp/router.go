package whatsapp

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fourteentrees/flow-gateway/internal/config"
	"github.com/fourteentrees/flow-gateway/internal/flowcrypto"
	"github.com/fourteentrees/flow-gateway/internal/flows"
	"github.com/fourteentrees/flow-gateway/internal/google"
	"github.com/fourteentrees/flow-gateway/internal/llm"
	"github.com/fourteentrees/flow-gateway/internal/loaders"
	"github.com/fourteentrees/flow-gateway/internal/messaging"
	"github.com/fourteentrees/flow-gateway/internal/middleware"
	"github.com/fourteentrees/flow-gateway/internal/utils"
)

const (
	giftMessageTemperature = float32(0.7)
	giftMessageMaxTokens   = 1024
)

// RegisterRoutes registers the flow endpoint and the WhatsApp webhook endpoints
func RegisterRoutes(router *gin.Engine, db *loaders.PostgresClient, cfg *config.Config, key *rsa.PrivateKey) error {
	codec, err := flowcrypto.NewCodec(key)
	if err != nil {
		return fmt.Errorf("failed to create flow codec: %w", err)
	}

	messenger := messaging.NewClient(cfg.WhatsApp)
	dispatcher, err := NewDispatcher(context.Background(), db, cfg, messenger)
	if err != nil {
		return err
	}

	service := NewService(messenger, FlowLinks{
		GiftFlowID:           cfg.WhatsApp.GiftFlowID,
		EditRecipientsFlowID: cfg.WhatsApp.EditRecipientsFlowID,
		VisitFlowID:          cfg.WhatsApp.VisitFlowID,
		Expense:              expenseFlowRef(cfg.WhatsApp),
	})
	ctrl := NewController(codec, dispatcher, service, cfg.WhatsApp.WebhookVerifyToken).
		WithRateLimit(middleware.NewKeyLimiter(cfg.FlowRateLimitRPS, cfg.FlowRateLimitBurst))

	whatsapp := router.Group("/whatsapp")
	// Meta sends GET for verification, POST for messages
	whatsapp.GET("/webhook", ctrl.VerifyWebhook)

	signed := whatsapp.Group("")
	if cfg.WhatsApp.VerifySignature {
		signed.Use(RequireSignature(cfg.WhatsApp.AppSecret))
	}
	{
		signed.POST("/flows", ctrl.FlowExchange)
		signed.POST("/webhook", ctrl.Webhook)
	}

	utils.Zlog.Info("WhatsApp routes registered",
		zap.String("flow_endpoint", "/whatsapp/flows [POST]"),
		zap.String("verify_endpoint", "/whatsapp/webhook [GET]"),
		zap.String("webhook_endpoint", "/whatsapp/webhook [POST]"),
		zap.Bool("verify_signature", cfg.WhatsApp.VerifySignature))
	return nil
}

// NewDispatcher wires every flow handler to its collaborators. Integrations that
// are not configured are left empty; the steps that need them then fail or are
// skipped at request time instead of blocking startup.
func NewDispatcher(ctx context.Context, db *loaders.PostgresClient, cfg *config.Config, messenger flows.Messenger) (*flows.Dispatcher, error) {
	googleClient := googleHTTPClient(cfg.Google)
	slides, err := google.NewSlidesClient(ctx, googleClient, cfg.Google)
	if err != nil {
		return nil, err
	}
	sheets, err := google.NewSheetsClient(ctx, googleClient)
	if err != nil {
		return nil, err
	}

	var chat model.BaseChatModel
	if len(cfg.GeminiAPIKeys) > 0 {
		temperature, maxTokens := giftMessageTemperature, giftMessageMaxTokens
		m, err := llm.NewMultiKeyChatModel(ctx, cfg.GeminiAPIKeys, cfg.GeminiModel, &temperature, &maxTokens)
		if err != nil {
			utils.Zlog.Error("Failed to create gift message model", zap.Error(err))
		} else {
			chat = m
		}
	} else {
		utils.Zlog.Warn("GEMINI_API_KEYS not set, AI gift messages disabled")
	}

	timeout := cfg.CollaboratorTimeout
	expenseFlow := expenseFlowRef(cfg.WhatsApp)

	return flows.NewDispatcher(
		flows.NewInitResolver(db, timeout),
		flows.NewGiftingHandler(llm.NewGiftMessageGenerator(chat), slides, utils.NewFileDownloader(), cfg.Google.PresentationID, timeout),
		flows.NewExpenseHandler(sheets, cfg.ExpenseSpreadsheetID, timeout),
		flows.NewVisitHandler(db, timeout),
		flows.NewMenuHandler(messenger, cfg.WhatsApp.OperatorPhone, expenseFlow, timeout),
	)
}

func expenseFlowRef(cfg config.WhatsAppConfig) messaging.FlowRef {
	return messaging.FlowRef{ID: cfg.ExpenseFlowID, Token: cfg.ExpenseFlowToken}
}

// googleHTTPClient returns nil when the service account is missing or unusable;
// Slides and Sheets calls then fail at request time.
func googleHTTPClient(cfg config.GoogleConfig) *http.Client {
	if cfg.CredentialsFile == "" {
		utils.Zlog.Warn("GOOGLE_APP_CREDENTIALS not set, Slides and Sheets disabled")
		return nil
	}
	account, err := google.LoadServiceAccountFile(cfg.CredentialsFile)
	if err != nil {
		utils.Zlog.Error("Failed to load Google service account", zap.Error(err))
		return nil
	}
	ts, err := google.NewTokenSource(account, cfg.ImpersonateSubject,
		[]string{google.ScopePresentations, google.ScopeSpreadsheets})
	if err != nil {
		utils.Zlog.Error("Failed to create Google token source", zap.Error(err))
		return nil
	}
	client, err := ts.HTTPClient()
	if err != nil {
		utils.Zlog.Error("Failed to create Google HTTP client", zap.Error(err))
		return nil
	}
	return client
}
