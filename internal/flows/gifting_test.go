package flows

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeMessages() []GiftMessage {
	return []GiftMessage{
		{PrimaryMessage: "p1", SecondaryMessage: "s1"},
		{PrimaryMessage: "p2", SecondaryMessage: "s2"},
		{PrimaryMessage: "p3", SecondaryMessage: "s3"},
	}
}

func TestDashboardSuggestsMessages(t *testing.T) {
	f := newFixture()
	f.generator.messages = threeMessages()

	resp, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenDashboard,
		Data:   map[string]any{"occasion_name": "Asha's birthday", "occasion_type": "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, ScreenAIMessages, resp.Screen)
	assert.Equal(t, map[string]any{
		"primary_1": "p1", "secondary_1": "s1",
		"primary_2": "p2", "secondary_2": "s2",
		"primary_3": "p3", "secondary_3": "s3",
	}, resp.Data)

	require.Len(t, f.generator.got, 1)
	assert.Equal(t, GiftMessageRequest{
		OccasionName:           "Asha's birthday",
		OccasionType:           "1",
		SamplePrimaryMessage:   DefaultBirthdayMessage,
		SampleSecondaryMessage: DefaultSecondaryMessage,
	}, f.generator.got[0])
}

func TestDashboardRejectsWrongMessageCount(t *testing.T) {
	f := newFixture()
	f.generator.messages = threeMessages()[:2]

	_, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenDashboard,
		Data:   map[string]any{},
	})
	require.Error(t, err)
	assert.True(t, IsCollaboratorFailure(err))
	assert.ErrorContains(t, err, "expected 3 message pairs, got 2")
}

func TestDashboardWithoutGenerator(t *testing.T) {
	h := NewGiftingHandler(nil, nil, nil, "", time.Second)

	_, _, err := h.Handle(context.Background(), &Request{Screen: ScreenDashboard, Data: map[string]any{}})
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.True(t, IsCollaboratorFailure(err))
}

func TestAIMessagesChoiceIsDeterministic(t *testing.T) {
	f := newFixture()
	req := func() *Request {
		return &Request{
			Action: ActionDataExchange,
			Screen: ScreenAIMessages,
			Data: map[string]any{
				"occasion_type": "2",
				"slide_id":      "slide_9",
				"choice":        "2",
				"primary_1":     "first",
				"secondary_1":   "first s",
				"primary_2":     "second",
				"secondary_2":   "second s",
				"primary_3":     "third",
				"secondary_3":   "third s",
			},
		}
	}

	for i := 0; i < 5; i++ {
		resp, err := f.dispatcher.Route(context.Background(), req())
		require.NoError(t, err)
		assert.Equal(t, ScreenGiftMessages, resp.Screen)
		assert.Equal(t, map[string]any{
			"slide_id":          "slide_9",
			"primary_message":   "second",
			"secondary_message": "second s",
		}, resp.Data)
	}
	// An existing slide is reused.
	assert.Empty(t, f.templates.calls)
}

func TestAIMessagesFallsBackToDefaults(t *testing.T) {
	f := newFixture()

	resp, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenAIMessages,
		Data:   map[string]any{"occasion_type": "2", "choice": "4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "slide_1", resp.Data["slide_id"])
	assert.Equal(t, DefaultMemorialMessage, resp.Data["primary_message"])
	assert.Equal(t, DefaultSecondaryMessage, resp.Data["secondary_message"])
	assert.Equal(t, []string{"create"}, f.templates.calls)
}

func TestGiftMessagesRendersPreview(t *testing.T) {
	f := newFixture()

	resp, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenGiftMessages,
		Data:   map[string]any{"slide_id": "slide_1", "primary_message": "Happy birthday"},
	})
	require.NoError(t, err)

	assert.Equal(t, ScreenCardPreview, resp.Screen)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png")), resp.Data["card_image"])
	assert.Equal(t, []string{"update_text", "thumbnail"}, f.templates.calls)
	assert.Equal(t, map[string]string{
		FieldMessage:   "Happy birthday",
		FieldSaplingID: "Tree ID: 00000",
		FieldLogoText:  "",
	}, f.templates.texts)
	assert.Equal(t, []string{"https://lh3.googleusercontent.com/card=s600"}, f.downloader.urls)
}

func TestGiftMessagesUpdateFailureIsSoft(t *testing.T) {
	f := newFixture()
	f.templates.updateErr = errors.New("slides unavailable")

	resp, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenGiftMessages,
		Data:   map[string]any{"slide_id": "slide_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, ScreenCardPreview, resp.Screen)
}

func TestGiftMessagesThumbnailFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.templates.thumbErr = errors.New("not found")

	_, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenGiftMessages,
		Data:   map[string]any{"slide_id": "slide_1"},
	})
	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "slides", ce.Collaborator)
	assert.Equal(t, "thumbnail", ce.Op)
	assert.Empty(t, f.downloader.urls)
}

func TestGiftMessagesRequiresSlide(t *testing.T) {
	f := newFixture()

	_, err := f.dispatcher.Route(context.Background(), &Request{
		Action: ActionDataExchange,
		Screen: ScreenGiftMessages,
		Data:   map[string]any{},
	})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestGiftingEntryScreensAreNotHandled(t *testing.T) {
	h := NewGiftingHandler(nil, nil, nil, "", time.Second)

	for _, s := range []Screen{ScreenGiftingTrees, ScreenRecipientsA} {
		_, handled, err := h.Handle(context.Background(), &Request{Screen: s})
		require.NoError(t, err)
		assert.False(t, handled, s)
	}
}

func TestLargeThumbnailURL(t *testing.T) {
	assert.Equal(t, "https://lh3.googleusercontent.com/abc=s600", LargeThumbnailURL("https://lh3.googleusercontent.com/abc=s1600"))
	assert.Equal(t, "ab600", LargeThumbnailURL("ab"))
}

func TestDefaultMessages(t *testing.T) {
	p, s := DefaultMessages("1")
	assert.Equal(t, DefaultBirthdayMessage, p)
	assert.Equal(t, DefaultSecondaryMessage, s)

	p, _ = DefaultMessages("2")
	assert.Equal(t, DefaultMemorialMessage, p)

	p, _ = DefaultMessages("")
	assert.Equal(t, DefaultPrimaryMessage, p)
}
