package flows

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fourteentrees/flow-gateway/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultPrimaryMessage   = "We are immensely delighted to share that a tree has been planted in your name at the 14 Trees Foundation, Pune. This tree will be nurtured in your honour, rejuvenating ecosystems, supporting biodiversity, and helping offset the harmful effects of climate change."
	DefaultBirthdayMessage  = "We are immensely delighted to share that a tree has been planted in your name on the occasion of your birthday at the 14 Trees Foundation, Pune. This tree will be nurtured in your honour, helping offset the harmful effects of climate change."
	DefaultMemorialMessage  = "A tree has been planted in the memory of <name here> at the 14 Trees Foundation reforestation site. For many years, this tree will help rejuvenate local ecosystems, support local biodiversity and offset the harmful effects of climate change and global warming."
	DefaultSecondaryMessage = "We invite you to visit 14 Trees and firsthand experience the growth and contribution of your tree towards a greener future."

	occasionBirthday = "1"
	occasionMemorial = "2"

	giftMessageCount = 3
	placeholderTree  = "Tree ID: 00000"

	// Slides thumbnail URLs end in a size such as "=s1600".
	thumbnailSizeTokenLen = 4
	largeThumbnailSize    = "600"
)

// Alt-text descriptions tagging the editable elements of a card slide.
const (
	FieldMessage   = "MESSAGE"
	FieldSaplingID = "SAPLING_ID"
	FieldLogoText  = "LOGO_TEXT"
)

// DefaultMessages returns the fallback message pair for an occasion type.
func DefaultMessages(occasionType string) (primary, secondary string) {
	switch occasionType {
	case occasionBirthday:
		return DefaultBirthdayMessage, DefaultSecondaryMessage
	case occasionMemorial:
		return DefaultMemorialMessage, DefaultSecondaryMessage
	default:
		return DefaultPrimaryMessage, DefaultSecondaryMessage
	}
}

// LargeThumbnailURL swaps the size token at the end of a thumbnail URL for the
// larger preview size.
func LargeThumbnailURL(url string) string {
	if len(url) < thumbnailSizeTokenLen {
		return url + largeThumbnailSize
	}
	return url[:len(url)-thumbnailSizeTokenLen] + largeThumbnailSize
}

type GiftingHandler struct {
	generator      MessageGenerator
	templates      TemplateService
	downloader     ImageDownloader
	presentationID string
	call           caller
}

func NewGiftingHandler(generator MessageGenerator, templates TemplateService, downloader ImageDownloader, presentationID string, timeout time.Duration) *GiftingHandler {
	return &GiftingHandler{
		generator:      generator,
		templates:      templates,
		downloader:     downloader,
		presentationID: presentationID,
		call:           caller{timeout: timeout},
	}
}

func (h *GiftingHandler) Flow() FlowID { return FlowGifting }

func (h *GiftingHandler) Screens() []Screen {
	return []Screen{
		ScreenGiftingTrees,
		ScreenRecipientsA,
		ScreenDashboard,
		ScreenAIMessages,
		ScreenGiftMessages,
		ScreenCardPreview,
	}
}

func (h *GiftingHandler) Handle(ctx context.Context, req *Request) (*Payload, bool, error) {
	switch req.Screen {
	case ScreenDashboard:
		p, err := h.suggestMessages(ctx, req)
		return p, true, err
	case ScreenAIMessages:
		p, err := h.chooseMessages(ctx, req)
		return p, true, err
	case ScreenGiftMessages:
		p, err := h.previewCard(ctx, req)
		return p, true, err
	case ScreenCardPreview:
		return emptyPayload(), true, nil
	default:
		// Entry screens complete on the client and come back through the webhook.
		return nil, false, nil
	}
}

func (h *GiftingHandler) suggestMessages(ctx context.Context, req *Request) (*Payload, error) {
	occasionType := req.String("occasion_type")
	primary, secondary := DefaultMessages(occasionType)

	var messages []GiftMessage
	err := h.call.do(ctx, "ai", "generate_gift_messages", func(ctx context.Context) error {
		if h.generator == nil {
			return ErrNotConfigured
		}
		var err error
		messages, err = h.generator.GenerateGiftMessages(ctx, GiftMessageRequest{
			OccasionName:           req.String("occasion_name"),
			OccasionType:           occasionType,
			SamplePrimaryMessage:   primary,
			SampleSecondaryMessage: secondary,
		})
		if err != nil {
			return err
		}
		if len(messages) != giftMessageCount {
			return fmt.Errorf("expected %d message pairs, got %d", giftMessageCount, len(messages))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, 2*giftMessageCount)
	for i, m := range messages {
		data[fmt.Sprintf("primary_%d", i+1)] = m.PrimaryMessage
		data[fmt.Sprintf("secondary_%d", i+1)] = m.SecondaryMessage
	}
	return &Payload{Screen: ScreenAIMessages, Data: data}, nil
}

func (h *GiftingHandler) chooseMessages(ctx context.Context, req *Request) (*Payload, error) {
	primary, secondary := DefaultMessages(req.String("occasion_type"))
	switch choice := req.String("choice"); choice {
	case "1", "2", "3":
		primary = req.String("primary_" + choice)
		secondary = req.String("secondary_" + choice)
	}

	slideID := req.String("slide_id")
	if slideID == "" {
		err := h.call.do(ctx, "slides", "create_from_template", func(ctx context.Context) error {
			if h.templates == nil {
				return ErrNotConfigured
			}
			var err error
			slideID, err = h.templates.CreateFromTemplate(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	return &Payload{
		Screen: ScreenGiftMessages,
		Data: map[string]any{
			"slide_id":          slideID,
			"primary_message":   primary,
			"secondary_message": secondary,
		},
	}, nil
}

func (h *GiftingHandler) previewCard(ctx context.Context, req *Request) (*Payload, error) {
	slideID := req.String("slide_id")
	if slideID == "" {
		return nil, fmt.Errorf("%w: slide_id is required on %s", ErrInvalidRequest, ScreenGiftMessages)
	}

	if h.templates == nil {
		return nil, &CollaboratorError{Collaborator: "slides", Op: "thumbnail", Err: ErrNotConfigured}
	}
	// Cards made from WhatsApp carry no sponsor logo, so its caption is cleared.
	if h.presentationID != "" {
		soft(ScreenGiftMessages, h.call.do(ctx, "slides", "update_text", func(ctx context.Context) error {
			return h.templates.UpdateText(ctx, slideID, map[string]string{
				FieldMessage:   req.String("primary_message"),
				FieldSaplingID: placeholderTree,
				FieldLogoText:  "",
			})
		}))
	}

	var thumbnail string
	err := h.call.do(ctx, "slides", "thumbnail", func(ctx context.Context) error {
		var err error
		thumbnail, err = h.templates.Thumbnail(ctx, slideID)
		return err
	})
	if err != nil {
		return nil, err
	}

	var image []byte
	err = h.call.do(ctx, "http", "download_thumbnail", func(ctx context.Context) error {
		if h.downloader == nil {
			return ErrNotConfigured
		}
		file, err := h.downloader.DownloadFile(ctx, LargeThumbnailURL(thumbnail), "image/")
		if err != nil {
			return err
		}
		image = file.Content
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.Zlog.Debug("Card preview rendered",
		zap.String("slide_id", slideID),
		zap.Int("bytes", len(image)))

	return &Payload{
		Screen: ScreenCardPreview,
		Data:   map[string]any{"card_image": base64.StdEncoding.EncodeToString(image)},
	}, nil
}
