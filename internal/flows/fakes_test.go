package flows

import (
	"context"
	"sync"
	"time"

	"github.com/fourteentrees/flow-gateway/internal/loaders"
	"github.com/fourteentrees/flow-gateway/internal/messaging"
	"github.com/fourteentrees/flow-gateway/internal/utils"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fakeGenerator struct {
	messages []GiftMessage
	err      error
	got      []GiftMessageRequest
}

func (f *fakeGenerator) GenerateGiftMessages(ctx context.Context, req GiftMessageRequest) ([]GiftMessage, error) {
	f.got = append(f.got, req)
	return f.messages, f.err
}

type fakeTemplates struct {
	mu        sync.Mutex
	created   string
	thumbnail string
	updateErr error
	thumbErr  error
	calls     []string
	texts     map[string]string
}

func (f *fakeTemplates) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeTemplates) CreateFromTemplate(ctx context.Context) (string, error) {
	f.record("create")
	return f.created, nil
}

func (f *fakeTemplates) UpdateText(ctx context.Context, slideID string, fields map[string]string) error {
	f.record("update_text")
	f.texts = fields
	return f.updateErr
}

func (f *fakeTemplates) UpdateImage(ctx context.Context, slideID, field, imageURL string) error {
	f.record("update_image")
	return nil
}

func (f *fakeTemplates) Thumbnail(ctx context.Context, slideID string) (string, error) {
	f.record("thumbnail")
	return f.thumbnail, f.thumbErr
}

func (f *fakeTemplates) Delete(ctx context.Context, slideID string) error {
	f.record("delete")
	return nil
}

type fakeDownloader struct {
	content []byte
	err     error
	urls    []string
}

func (f *fakeDownloader) DownloadFile(ctx context.Context, url, expectedContentType string) (*utils.DownloadedFile, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return &utils.DownloadedFile{Content: f.content, ContentType: "image/png", Size: int64(len(f.content))}, nil
}

type appendCall struct {
	SpreadsheetID string
	Tab           string
	Values        []any
}

type fakeSheets struct {
	appends []appendCall
	err     error
}

func (f *fakeSheets) AppendRow(ctx context.Context, spreadsheetID, tab string, values []any) error {
	f.appends = append(f.appends, appendCall{spreadsheetID, tab, values})
	return f.err
}

type fakeMessenger struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeMessenger) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	f.sent = append(f.sent, msg)
	return "wamid.1", f.err
}

type fakeVisitStore struct {
	visits     []loaders.Visit
	err        error
	registered []string
	calls      int
}

func (f *fakeVisitStore) GetUpcomingVisits(ctx context.Context, after time.Time, limit int) ([]loaders.Visit, error) {
	f.calls++
	return f.visits, f.err
}

func (f *fakeVisitStore) GetVisit(ctx context.Context, visitID int64) (*loaders.Visit, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.visits {
		if v.ID == visitID {
			return &v, nil
		}
	}
	return nil, loaders.ErrNotFound
}

func (f *fakeVisitStore) RegisterVisitor(ctx context.Context, visitID int64, name, email string) error {
	f.calls++
	f.registered = append(f.registered, name+"|"+email)
	return f.err
}

type fakeGiftStore struct {
	users   []loaders.GiftRequestUser
	request *loaders.GiftCardRequest
	err     error
	ids     []int64
}

func (f *fakeGiftStore) GetGiftRequestUsers(ctx context.Context, id int64) ([]loaders.GiftRequestUser, error) {
	f.ids = append(f.ids, id)
	return f.users, f.err
}

func (f *fakeGiftStore) GetGiftCardRequest(ctx context.Context, id int64) (*loaders.GiftCardRequest, error) {
	f.ids = append(f.ids, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.request, nil
}

// fixture wires every handler to fakes.
type fixture struct {
	generator  *fakeGenerator
	templates  *fakeTemplates
	downloader *fakeDownloader
	sheets     *fakeSheets
	messenger  *fakeMessenger
	visits     *fakeVisitStore
	gifts      *fakeGiftStore
	expense    *ExpenseHandler
	dispatcher *Dispatcher
}

func (f *fixture) externalCalls() int {
	return len(f.generator.got) + len(f.templates.calls) + len(f.downloader.urls) +
		len(f.sheets.appends) + len(f.messenger.sent) + f.visits.calls + len(f.gifts.ids)
}

func newFixture() *fixture {
	f := &fixture{
		generator:  &fakeGenerator{},
		templates:  &fakeTemplates{created: "slide_1", thumbnail: "https://lh3.googleusercontent.com/card=s1600"},
		downloader: &fakeDownloader{content: []byte("png")},
		sheets:     &fakeSheets{},
		messenger:  &fakeMessenger{},
		visits:     &fakeVisitStore{},
		gifts:      &fakeGiftStore{},
	}

	f.expense = NewExpenseHandler(f.sheets, "sheet-1", time.Second)
	f.expense.now = fixedClock

	visit := NewVisitHandler(f.visits, time.Second)
	visit.now = fixedClock

	resolver := NewInitResolver(f.gifts, time.Second)
	resolver.now = fixedClock

	d, err := NewDispatcher(resolver,
		NewGiftingHandler(f.generator, f.templates, f.downloader, "pres-1", time.Second),
		f.expense,
		visit,
		NewMenuHandler(f.messenger, "919800000000", messaging.FlowRef{ID: "flow-1", Token: "expense_token"}, time.Second),
	)
	if err != nil {
		panic(err)
	}
	f.dispatcher = d
	return f
}
