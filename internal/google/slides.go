package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"

	"github.com/fourteentrees/flow-gateway/internal/config"
)

// SlidesClient edits gift card slides. New cards are duplicates of a template
// slide; editable elements are found by their alt-text description.
type SlidesClient struct {
	svc             *slides.Service
	presentationID  string
	templateSlideID string
}

// NewSlidesClient returns a client for the live gift card presentation. A nil
// httpClient yields a client whose calls fail with a missing credentials error.
func NewSlidesClient(ctx context.Context, httpClient *http.Client, cfg config.GoogleConfig, opts ...option.ClientOption) (*SlidesClient, error) {
	c := &SlidesClient{
		presentationID:  cfg.PresentationID,
		templateSlideID: cfg.TemplateSlideID,
	}
	if httpClient == nil {
		return c, nil
	}
	svc, err := slides.NewService(ctx, serviceOptions(httpClient, opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create slides service: %w", err)
	}
	c.svc = svc
	return c, nil
}

func (s *SlidesClient) ready() error {
	if s.presentationID == "" {
		return &config.MissingError{Key: "LIVE_GIFT_CARD_PRESENTATION_ID"}
	}
	if s.svc == nil {
		return errNoCredentials()
	}
	return nil
}

func (s *SlidesClient) batchUpdate(ctx context.Context, requests ...*slides.Request) (*slides.BatchUpdatePresentationResponse, error) {
	return s.svc.Presentations.
		BatchUpdate(s.presentationID, &slides.BatchUpdatePresentationRequest{Requests: requests}).
		Context(ctx).
		Do()
}

// CreateFromTemplate duplicates the template slide and returns the new slide id.
func (s *SlidesClient) CreateFromTemplate(ctx context.Context) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if s.templateSlideID == "" {
		return "", &config.MissingError{Key: "GIFT_CARD_TEMPLATE_SLIDE_ID"}
	}

	resp, err := s.batchUpdate(ctx, &slides.Request{
		DuplicateObject: &slides.DuplicateObjectRequest{ObjectId: s.templateSlideID},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].DuplicateObject == nil || resp.Replies[0].DuplicateObject.ObjectId == "" {
		return "", fmt.Errorf("duplicateObject returned no object id")
	}
	return resp.Replies[0].DuplicateObject.ObjectId, nil
}

func (s *SlidesClient) page(ctx context.Context, slideID string) (*slides.Page, error) {
	return s.svc.Presentations.Pages.Get(s.presentationID, slideID).Context(ctx).Do()
}

// UpdateText replaces the text of every shape whose description is a key of fields.
// An empty value clears the shape.
func (s *SlidesClient) UpdateText(ctx context.Context, slideID string, fields map[string]string) error {
	if err := s.ready(); err != nil {
		return err
	}
	p, err := s.page(ctx, slideID)
	if err != nil {
		return err
	}

	var requests []*slides.Request
	for _, el := range p.PageElements {
		text, ok := fields[el.Description]
		if !ok || el.Shape == nil {
			continue
		}
		if el.Shape.Text != nil && len(el.Shape.Text.TextElements) > 0 {
			requests = append(requests, &slides.Request{
				DeleteText: &slides.DeleteTextRequest{
					ObjectId:  el.ObjectId,
					TextRange: &slides.Range{Type: "ALL"},
				},
			})
		}
		if text != "" {
			requests = append(requests, &slides.Request{
				InsertText: &slides.InsertTextRequest{
					ObjectId:       el.ObjectId,
					InsertionIndex: 0,
					Text:           text,
				},
			})
		}
	}
	if len(requests) == 0 {
		return nil
	}
	_, err = s.batchUpdate(ctx, requests...)
	return err
}

// UpdateImage swaps the image tagged field for imageURL, keeping its size and position.
func (s *SlidesClient) UpdateImage(ctx context.Context, slideID, field, imageURL string) error {
	if err := s.ready(); err != nil {
		return err
	}
	p, err := s.page(ctx, slideID)
	if err != nil {
		return err
	}

	var target *slides.PageElement
	for _, el := range p.PageElements {
		if el.Description == field {
			target = el
			break
		}
	}
	if target == nil {
		return fmt.Errorf("slide %s has no element tagged %s", slideID, field)
	}

	newID := "img_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = s.batchUpdate(ctx,
		&slides.Request{CreateImage: &slides.CreateImageRequest{
			ObjectId: newID,
			Url:      imageURL,
			ElementProperties: &slides.PageElementProperties{
				PageObjectId: slideID,
				Size:         target.Size,
				Transform:    target.Transform,
			},
		}},
		&slides.Request{DeleteObject: &slides.DeleteObjectRequest{ObjectId: target.ObjectId}},
		&slides.Request{UpdatePageElementAltText: &slides.UpdatePageElementAltTextRequest{
			ObjectId:    newID,
			Description: field,
		}},
	)
	return err
}

// Thumbnail returns the content URL of a rendered slide thumbnail.
func (s *SlidesClient) Thumbnail(ctx context.Context, slideID string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	thumb, err := s.svc.Presentations.Pages.GetThumbnail(s.presentationID, slideID).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if thumb.ContentUrl == "" {
		return "", fmt.Errorf("thumbnail response has no contentUrl")
	}
	return thumb.ContentUrl, nil
}

func (s *SlidesClient) Delete(ctx context.Context, slideID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.batchUpdate(ctx, &slides.Request{
		DeleteObject: &slides.DeleteObjectRequest{ObjectId: slideID},
	})
	return err
}
