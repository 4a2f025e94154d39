package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"BPOrganizer.api/internal/models"
	"github.com/go-resty/resty/v2"
)

// ErrProcessingFailed is returned by WaitForResult when the run ends in error.
var ErrProcessingFailed = errors.New("processing failed")

// Client talks to the upload API.
type Client struct {
	http *resty.Client
}

// New creates a Client for baseURL. A non-empty token is sent as a bearer token.
func New(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetError(&models.APIError{})
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

// Upload submits data as an image named fileName.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, data io.Reader) (models.StatusView, error) {
	var view models.StatusView
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", fileName, contentType, data).
		SetResult(&view).
		Post("/api/uploads")
	if err := check(resp, err); err != nil {
		return models.StatusView{}, err
	}
	return view, nil
}

// UploadFile reads path and uploads it, taking the content type from the
// extension or, failing that, from the file contents.
func (c *Client) UploadFile(ctx context.Context, path string) (models.StatusView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.StatusView{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	return c.Upload(ctx, filepath.Base(path), ContentTypeFor(path, data), bytes.NewReader(data))
}

// ContentTypeFor guesses the MIME type of a file.
func ContentTypeFor(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// Status returns the current upload status.
func (c *Client) Status(ctx context.Context) (models.StatusView, error) {
	var view models.StatusView
	resp, err := c.http.R().SetContext(ctx).SetResult(&view).Get("/api/status")
	if err := check(resp, err); err != nil {
		return models.StatusView{}, err
	}
	return view, nil
}

// Summary returns the summary of the last successful upload.
func (c *Client) Summary(ctx context.Context) (models.SummaryView, error) {
	var view models.SummaryView
	resp, err := c.http.R().SetContext(ctx).SetResult(&view).Get("/api/summary")
	if err := check(resp, err); err != nil {
		return models.SummaryView{}, err
	}
	return view, nil
}

// ExportCSV copies the CSV export to w.
func (c *Client) ExportCSV(ctx context.Context, w io.Writer) error {
	resp, err := c.http.R().SetContext(ctx).Get("/api/summary/export.csv")
	if err := check(resp, err); err != nil {
		return err
	}
	_, err = w.Write(resp.Body())
	return err
}

// WaitForResult polls the status every interval until the run finishes.
func (c *Client) WaitForResult(ctx context.Context, interval time.Duration) (models.StatusView, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		view, err := c.Status(ctx)
		if err != nil {
			return models.StatusView{}, err
		}
		switch view.Status {
		case models.StatusSuccess:
			return view, nil
		case models.StatusError:
			return view, fmt.Errorf("%w: %s", ErrProcessingFailed, view.Message)
		}

		select {
		case <-ctx.Done():
			return view, ctx.Err()
		case <-ticker.C:
		}
	}
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*models.APIError); ok && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode()
		return *apiErr
	}
	return fmt.Errorf("unexpected response %s", resp.Status())
}
