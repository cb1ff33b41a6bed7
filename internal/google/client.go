package google

import (
	"net/http"

	"google.golang.org/api/option"

	"github.com/fourteentrees/flow-gateway/internal/config"
)

// errNoCredentials is returned by every call of a client built without an
// authorized HTTP client.
func errNoCredentials() error {
	return &config.MissingError{Key: "GOOGLE_APP_CREDENTIALS"}
}

func serviceOptions(httpClient *http.Client, opts []option.ClientOption) []option.ClientOption {
	return append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
}
