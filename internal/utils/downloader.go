package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultDownloadTimeout = 30 * time.Second
	MaxDownloadSize        = 10 * 1024 * 1024 // 10MB, card previews are a few hundred KB
)

var ErrFileTooLarge = errors.New("file exceeds maximum download size")

// DownloadedFile represents a downloaded file with its metadata
type DownloadedFile struct {
	Content     []byte
	ContentType string
	Filename    string
	Size        int64
}

// FileDownloader fetches remote files (rendered card thumbnails) into memory.
type FileDownloader struct {
	client  *http.Client
	maxSize int64
}

type DownloaderOption func(*FileDownloader)

func WithDownloadTimeout(d time.Duration) DownloaderOption {
	return func(f *FileDownloader) { f.client.Timeout = d }
}

func WithMaxDownloadSize(n int64) DownloaderOption {
	return func(f *FileDownloader) { f.maxSize = n }
}

func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(f *FileDownloader) { f.client = c }
}

func NewFileDownloader(opts ...DownloaderOption) *FileDownloader {
	d := &FileDownloader{
		client:  &http.Client{Timeout: DefaultDownloadTimeout},
		maxSize: MaxDownloadSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadFile downloads a file from the given URL. expectedContentType is matched
// as a prefix ("image/" accepts any image type); a mismatch is rejected.
func (d *FileDownloader) DownloadFile(ctx context.Context, rawURL string, expectedContentType string) (*DownloadedFile, error) {
	Zlog.Debug("Starting file download",
		zap.String("url", rawURL),
		zap.String("expectedContentType", expectedContentType))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status code %d", resp.StatusCode)
	}

	actualContentType := resp.Header.Get("Content-Type")
	if expectedContentType != "" && !strings.HasPrefix(actualContentType, expectedContentType) {
		return nil, fmt.Errorf("unexpected content type %q, want %q", actualContentType, expectedContentType)
	}

	if resp.ContentLength > d.maxSize {
		return nil, ErrFileTooLarge
	}

	// Read one byte past the limit so an oversized body without Content-Length is caught.
	content, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if int64(len(content)) > d.maxSize {
		return nil, ErrFileTooLarge
	}

	Zlog.Debug("File downloaded",
		zap.String("url", rawURL),
		zap.Int("size", len(content)))

	return &DownloadedFile{
		Content:     content,
		ContentType: actualContentType,
		Filename:    extractFilenameFromURL(rawURL),
		Size:        int64(len(content)),
	}, nil
}

func extractFilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "downloaded_file"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "downloaded_file"
	}
	return name
}
