package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/article39/artist-platform-backend/pkg/config"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
)

const (
	defaultCompressionLevel       = "50"
	responseBodyReadLimit   int64 = 1024
)

var (
	errURLRequired = errors.New("transfer url is required")

	compressibleExt = map[string]struct{}{
		".jpg":  {},
		".jpeg": {},
		".png":  {},
	}
)

// Uploader forwards files to the transfer host.
type Uploader interface {
	Upload(ctx context.Context, file File) (map[string]any, error)
}

// File is a single upload. Size is the client-declared size in bytes.
type File struct {
	Name string
	Size int64
	Body io.Reader
}

// Client talks to the transfer host's multipart upload endpoint.
type Client struct {
	httpClient        *http.Client
	endpoint          string
	apiKey            string
	path              string
	compressThreshold int64
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg config.TransferConfig, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client := &Client{
		httpClient:        &http.Client{Timeout: timeout},
		endpoint:          endpoint,
		apiKey:            cfg.APIKey,
		path:              cfg.Path,
		compressThreshold: cfg.CompressThresholdBytes(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ShouldCompress reports whether the host is asked to recompress the image.
func (c *Client) ShouldCompress(name string, size int64) bool {
	if c.compressThreshold <= 0 || size <= c.compressThreshold {
		return false
	}
	_, ok := compressibleExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Upload streams file to the host and returns its decoded JSON response.
func (c *Client) Upload(ctx context.Context, file File) (map[string]any, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transfer client not configured")
	}

	target, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse transfer url")
	}
	q := target.Query()
	q.Set("key", c.apiKey)
	q.Set("path", c.path)
	if c.ShouldCompress(file.Name, file.Size) {
		q.Set("compression_level", defaultCompressionLevel)
	}
	target.RawQuery = q.Encode()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(file.Name))
		if err == nil {
			_, err = io.Copy(part, file.Body)
		}
		if err == nil {
			err = form.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), pr)
	if err != nil {
		_ = pr.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upload request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upload request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "upload request failed")
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upload response")
	}
	return out, nil
}
