package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	file, err := NewFileDownloader().DownloadFile(context.Background(), srv.URL+"/thumbs/card.png", "image/")
	require.NoError(t, err)

	assert.Equal(t, []byte("png-bytes"), file.Content)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, "card.png", file.Filename)
	assert.EqualValues(t, 9, file.Size)
}

func TestDownloadFileRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		// Flush first so the server falls back to chunked encoding with no Content-Length.
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := NewFileDownloader(WithMaxDownloadSize(16)).DownloadFile(context.Background(), srv.URL, "")
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestDownloadFileErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	d := NewFileDownloader()

	_, err := d.DownloadFile(context.Background(), srv.URL+"/missing", "")
	assert.ErrorContains(t, err, "status code 404")

	_, err = d.DownloadFile(context.Background(), srv.URL+"/page", "image/")
	assert.ErrorContains(t, err, "unexpected content type")
}

func TestExtractFilenameFromURL(t *testing.T) {
	assert.Equal(t, "thumb", extractFilenameFromURL("https://lh3.googleusercontent.com/a/b/thumb"))
	assert.Equal(t, "downloaded_file", extractFilenameFromURL("https://example.com"))
	assert.Equal(t, "downloaded_file", extractFilenameFromURL("https://example.com/"))
}
