package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/httptransport"
	"golang.org/x/sync/singleflight"
)

const (
	ScopePresentations = "https://www.googleapis.com/auth/presentations"
	ScopeSpreadsheets  = "https://www.googleapis.com/auth/spreadsheets"

	// Tokens are refreshed this long before Google says they expire.
	expirySkew = time.Minute
)

// TokenSource mints access tokens for a service account with the OAuth
// JWT-bearer grant. Tokens are cached until shortly before expiry and
// concurrent callers that find the cache empty share one fetch.
type TokenSource struct {
	email  string
	cached auth.TokenProvider
	group  singleflight.Group
}

type TokenOption func(*auth.Options2LO)

func WithTokenURL(u string) TokenOption {
	return func(o *auth.Options2LO) { o.TokenURL = u }
}

func WithTokenHTTPClient(c *http.Client) TokenOption {
	return func(o *auth.Options2LO) { o.Client = c }
}

// NewTokenSource builds a token source; subject, when set, is the user to impersonate.
func NewTokenSource(account *ServiceAccount, subject string, scopes []string, opts ...TokenOption) (*TokenSource, error) {
	o := &auth.Options2LO{
		Email:        account.ClientEmail,
		PrivateKey:   []byte(account.PrivateKey),
		PrivateKeyID: account.PrivateKeyID,
		Subject:      subject,
		Scopes:       scopes,
		TokenURL:     account.TokenURI,
		Client:       &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}

	tp, err := auth.New2LOTokenProvider(o)
	if err != nil {
		return nil, fmt.Errorf("failed to create token provider: %w", err)
	}
	return &TokenSource{
		email: account.ClientEmail,
		cached: auth.NewCachedTokenProvider(tp, &auth.CachedTokenProviderOptions{
			ExpireEarly: expirySkew,
		}),
	}, nil
}

// Token implements auth.TokenProvider.
func (ts *TokenSource) Token(ctx context.Context) (*auth.Token, error) {
	v, err, _ := ts.group.Do("token", func() (any, error) {
		return ts.cached.Token(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get access token for %s: %w", ts.email, err)
	}
	return v.(*auth.Token), nil
}

// HTTPClient returns a client that authorizes every request with a token from ts.
func (ts *TokenSource) HTTPClient() (*http.Client, error) {
	return httptransport.NewClient(&httptransport.Options{
		Credentials: auth.NewCredentials(&auth.CredentialsOptions{TokenProvider: ts}),
	})
}
