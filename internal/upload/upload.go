// Package upload pushes menu images to the image host.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// ErrUploadRejected is returned when the host answers without a URL.
var ErrUploadRejected = errors.New("image upload rejected")

// ErrDisabled is returned when no upload key is configured.
var ErrDisabled = errors.New("image uploads are not configured")

// ErrImageTooLarge is returned when the image exceeds MaxImageBytes.
var ErrImageTooLarge = errors.New("image exceeds 8 MiB")

// MaxImageBytes caps the size of an uploaded image.
const MaxImageBytes = 8 << 20

type hostResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client posts multipart images to an imgbb-compatible endpoint.
type Client struct {
	endpoint string
	key      string
	http     *http.Client
}

// NewClient returns a client for endpoint. An empty key disables uploads.
func NewClient(endpoint, key string) *Client {
	return &Client{endpoint: endpoint, key: key, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != "" && c.key != ""
}

// Upload sends body as the "image" field and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, filename string, body io.Reader) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	data, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse upload url: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", c.key)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	var out hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: status %d", ErrUploadRejected, resp.StatusCode)
	}
	if !out.Success || out.Data.URL == "" {
		msg := out.Error.Message
		if msg == "" {
			msg = out.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%w: %s", ErrUploadRejected, msg)
	}
	return out.Data.URL, nil
}
