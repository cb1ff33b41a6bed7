package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MissingError reports a configuration value that is absent from the environment.
// Optional integrations treat it as a soft failure; required ones abort startup.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("configuration %s is not set", e.Key)
}

type Config struct {
	LogLevel       string
	Debug          bool
	ServiceName    string
	Environment    string
	Hostname       string
	ServerPort     string
	AllowedOrigins []string

	DatabaseURL string
	WorkerCount int

	WhatsApp WhatsAppConfig
	Google   GoogleConfig

	GeminiAPIKeys []string
	GeminiModel   string

	ExpenseSpreadsheetID string

	CollaboratorTimeout time.Duration
	FlowRateLimitRPS    float64
	FlowRateLimitBurst  int
}

// WhatsAppConfig holds the Cloud API and Flow endpoint settings.
type WhatsAppConfig struct {
	PrivateKeyPath     string
	PEMPassphrase      string
	AppSecret          string
	VerifySignature    bool
	WebhookVerifyToken string

	AccessToken   string
	PhoneNumberID string
	APIVersion    string

	ExpenseFlowID        string
	ExpenseFlowToken     string
	GiftFlowID           string
	EditRecipientsFlowID string
	VisitFlowID          string
	OperatorPhone        string
}

// GoogleConfig holds the service account and gift card template settings.
type GoogleConfig struct {
	CredentialsFile    string
	ImpersonateSubject string
	PresentationID     string
	TemplateSlideID    string
}

func LoadConfig() (*Config, error) {
	privateKeyPath := os.Getenv("WA_PRIVATE_PEM")
	if privateKeyPath == "" {
		return nil, &MissingError{Key: "WA_PRIVATE_PEM"}
	}

	appSecret := os.Getenv("WA_APP_SECRET")
	verifySignature := appSecret != ""
	if v := os.Getenv("WA_VERIFY_SIGNATURE"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WA_VERIFY_SIGNATURE: %w", err)
		}
		verifySignature = parsed
	}
	if verifySignature && appSecret == "" {
		return nil, &MissingError{Key: "WA_APP_SECRET"}
	}

	allowedOrigins := []string{"*"}
	if ao := os.Getenv("ALLOWED_ORIGINS"); ao != "" {
		allowedOrigins = splitList(ao)
	}

	collaboratorTimeout := 20 * time.Second
	if v := os.Getenv("COLLABORATOR_TIMEOUT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid COLLABORATOR_TIMEOUT: %w", err)
		}
		collaboratorTimeout = parsed
	}

	rps := 20.0
	if v := os.Getenv("FLOW_RATE_LIMIT_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			rps = parsed
		}
	}

	return &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Debug:          getEnv("DEBUG", "false") == "true",
		ServiceName:    getEnv("SERVICE_NAME", "flow-gateway"),
		Hostname:       getEnv("HOSTNAME", "flow-gateway"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		AllowedOrigins: allowedOrigins,

		DatabaseURL: os.Getenv("DATABASE_URL"),
		WorkerCount: getEnvInt("WORKER_COUNT", 10),

		WhatsApp: WhatsAppConfig{
			PrivateKeyPath:     privateKeyPath,
			PEMPassphrase:      os.Getenv("WA_PEM_PASSPHRASE"),
			AppSecret:          appSecret,
			VerifySignature:    verifySignature,
			WebhookVerifyToken: os.Getenv("WA_WEBHOOK_VERIFICATION_TOKEN"),
			AccessToken:        os.Getenv("WA_ACCESS_TOKEN"),
			PhoneNumberID:      os.Getenv("WA_PHONE_NUMBER_ID"),
			APIVersion:         getEnv("WA_API_VERSION", "v21.0"),
			ExpenseFlowID:      os.Getenv("WA_EXPENSE_FLOW_ID"),
			ExpenseFlowToken:   os.Getenv("WA_EXPENSE_FLOW_TOKEN"),
			OperatorPhone:      os.Getenv("WA_OPERATOR_PHONE"),

			// The edit form is the gift flow opened on its recipients screen
			// unless a separate flow is published for it.
			GiftFlowID:           os.Getenv("WA_FLOW_ID"),
			EditRecipientsFlowID: getEnv("WA_EDIT_RECIPIENTS_FLOW_ID", os.Getenv("WA_FLOW_ID")),
			VisitFlowID:          os.Getenv("WA_VISIT_FLOW_ID"),
		},
		Google: GoogleConfig{
			CredentialsFile:    os.Getenv("GOOGLE_APP_CREDENTIALS"),
			ImpersonateSubject: os.Getenv("GOOGLE_IMPERSONATE_SUBJECT"),
			PresentationID:     os.Getenv("LIVE_GIFT_CARD_PRESENTATION_ID"),
			TemplateSlideID:    os.Getenv("GIFT_CARD_TEMPLATE_SLIDE_ID"),
		},

		// Load comma-separated Gemini API keys
		GeminiAPIKeys: splitList(os.Getenv("GEMINI_API_KEYS")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		ExpenseSpreadsheetID: os.Getenv("EXPENSE_SPREADSHEET"),

		CollaboratorTimeout: collaboratorTimeout,
		FlowRateLimitRPS:    rps,
		FlowRateLimitBurst:  getEnvInt("FLOW_RATE_LIMIT_BURST", 40),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// splitList splits a comma-separated value and drops blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
