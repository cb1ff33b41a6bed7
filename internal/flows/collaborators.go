package flows

import (
	"context"
	"errors"
	"time"

	"github.com/fourteentrees/flow-gateway/internal/loaders"
	"github.com/fourteentrees/flow-gateway/internal/messaging"
	"github.com/fourteentrees/flow-gateway/internal/metrics"
	"github.com/fourteentrees/flow-gateway/internal/utils"
	"go.uber.org/zap"
)

// GiftMessageRequest is the occasion context handed to the AI generator.
type GiftMessageRequest struct {
	OccasionName           string
	OccasionType           string
	SamplePrimaryMessage   string
	SampleSecondaryMessage string
}

type GiftMessage struct {
	PrimaryMessage   string `json:"primary_message"`
	SecondaryMessage string `json:"secondary_message"`
}

type MessageGenerator interface {
	GenerateGiftMessages(ctx context.Context, req GiftMessageRequest) ([]GiftMessage, error)
}

// TemplateService edits gift card slides in the live presentation.
type TemplateService interface {
	CreateFromTemplate(ctx context.Context) (string, error)
	UpdateText(ctx context.Context, slideID string, fields map[string]string) error
	UpdateImage(ctx context.Context, slideID, field, imageURL string) error
	Thumbnail(ctx context.Context, slideID string) (string, error)
	Delete(ctx context.Context, slideID string) error
}

type SheetAppender interface {
	AppendRow(ctx context.Context, spreadsheetID, tab string, values []any) error
}

type Messenger interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type ImageDownloader interface {
	DownloadFile(ctx context.Context, url, expectedContentType string) (*utils.DownloadedFile, error)
}

type GiftRequestStore interface {
	GetGiftRequestUsers(ctx context.Context, giftRequestID int64) ([]loaders.GiftRequestUser, error)
	GetGiftCardRequest(ctx context.Context, giftRequestID int64) (*loaders.GiftCardRequest, error)
}

type VisitStore interface {
	GetUpcomingVisits(ctx context.Context, after time.Time, limit int) ([]loaders.Visit, error)
	GetVisit(ctx context.Context, visitID int64) (*loaders.Visit, error)
	RegisterVisitor(ctx context.Context, visitID int64, name, email string) error
}

// caller applies the per-call timeout and turns failures into CollaboratorErrors.
type caller struct {
	timeout time.Duration
}

func (c caller) do(ctx context.Context, collaborator, op string, fn func(ctx context.Context) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.Prom.ObserveCollaborator(collaborator, op, start, err)
	if err == nil {
		return nil
	}

	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Collaborator: collaborator, Op: op, Err: err}
}

// soft logs a best-effort failure and lets the flow continue.
func soft(screen Screen, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.String("screen", string(screen)), zap.Error(err)}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		fields = append(fields, zap.String("collaborator", ce.Collaborator), zap.String("op", ce.Op))
	}
	utils.Zlog.Warn("Best-effort step failed, continuing", fields...)
}
