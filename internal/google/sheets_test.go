package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/fourteentrees/flow-gateway/internal/config"
)

func TestAppendRow(t *testing.T) {
	var (
		path string
		body map[string]any
	)
	query := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		for _, k := range []string{"valueInputOption", "insertDataOption"} {
			query[k] = r.URL.Query().Get(k)
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updates":{"updatedRows":1}}`))
	}))
	defer srv.Close()

	c, err := NewSheetsClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	err = c.AppendRow(context.Background(), "sheet-1", "expenses", []any{"2026-03-01", "500", "Alice", "Bob", "Fuel"})
	require.NoError(t, err)

	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/expenses:append", path)
	assert.Equal(t, "USER_ENTERED", query["valueInputOption"])
	assert.Equal(t, "INSERT_ROWS", query["insertDataOption"])
	assert.Equal(t, []any{[]any{"2026-03-01", "500", "Alice", "Bob", "Fuel"}}, body["values"])
}

func TestAppendRowWithoutCredentials(t *testing.T) {
	c, err := NewSheetsClient(context.Background(), nil)
	require.NoError(t, err)

	err = c.AppendRow(context.Background(), "sheet-1", "expenses", []any{"x"})
	var missing *config.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "GOOGLE_APP_CREDENTIALS", missing.Key)
}
