package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fourteentrees/flow-gateway/internal/config"
)

// Version is set at build time with -ldflags "-X .../controllers.Version=...".
var Version = "dev"

type SystemController struct {
	cfg     *config.Config
	started time.Time
}

func NewSystemController(cfg *config.Config) *SystemController {
	return &SystemController{cfg: cfg, started: time.Now()}
}

// integrations reports which optional collaborators are configured.
func (s *SystemController) integrations() gin.H {
	return gin.H{
		"database":       s.cfg.DatabaseURL != "",
		"whatsapp_api":   s.cfg.WhatsApp.AccessToken != "" && s.cfg.WhatsApp.PhoneNumberID != "",
		"google":         s.cfg.Google.CredentialsFile != "",
		"gift_cards":     s.cfg.Google.PresentationID != "" && s.cfg.Google.TemplateSlideID != "",
		"expense_sheet":  s.cfg.ExpenseSpreadsheetID != "",
		"ai_messages":    len(s.cfg.GeminiAPIKeys) > 0,
		"signature_auth": s.cfg.WhatsApp.VerifySignature,
	}
}

// Status godoc
// @Summary Get system status
// @Description Get current system status information
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/status [get]
func (s *SystemController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":      s.cfg.ServiceName,
		"version":      Version,
		"environment":  s.cfg.Environment,
		"hostname":     s.cfg.Hostname,
		"uptime":       time.Since(s.started).Round(time.Second).String(),
		"integrations": s.integrations(),
		"timestamp":    time.Now().UTC(),
	})
}
