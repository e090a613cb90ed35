package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const (
	// WatchURLPrefix is the short link prefix stored on published songs.
	WatchURLPrefix = "https://youtu.be/"

	uploadScope      = "https://www.googleapis.com/auth/youtube.upload"
	maxIDsPerRequest = 50
	// below the worker's default task timeout
	defaultMaxRetryWait = 20 * time.Minute
)

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

var retriableStatusCodes = map[int]struct{}{
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// ErrNotConfigured is returned when publishing is attempted without OAuth credentials.
var ErrNotConfigured = errors.New("youtube credentials not configured")

// Video is a rendered file and its metadata.
type Video struct {
	Path        string
	Title       string
	Description string
	Tags        []string
}

// Stats are the engagement counters of one video.
type Stats struct {
	Views    int64
	Likes    int64
	Comments int64
}

// Publisher uploads videos.
type Publisher interface {
	Publish(ctx context.Context, v Video) (string, error)
}

// StatsFetcher reads engagement counters for a set of video ids.
type StatsFetcher interface {
	Statistics(ctx context.Context, videoIDs []string) (map[string]Stats, error)
}

type insertFunc func(ctx context.Context, video *yt.Video, media io.Reader) (string, error)

type Client struct {
	upload     *yt.Service
	stats      *yt.Service
	cfg        config.YouTubeConfig
	limiter    *rate.Limiter
	logg       *logger.Logger
	insert     insertFunc
	sleep      func(ctx context.Context, d time.Duration) error
	jitter     func(maxSeconds float64) time.Duration
	maxRetries int
	maxWait    time.Duration
}

type Option func(*Client)

// WithServices injects prebuilt API services.
func WithServices(upload, stats *yt.Service) Option {
	return func(c *Client) {
		if upload != nil {
			c.upload = upload
		}
		if stats != nil {
			c.stats = stats
		}
	}
}

// NewClient builds the upload service from the OAuth refresh token and the
// statistics service from the API key. Either may be absent; the matching
// method then returns ErrNotConfigured.
func NewClient(ctx context.Context, cfg config.YouTubeConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	rps := cfg.StatsRequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logg:       logg,
		sleep:      sleepCtx,
		jitter:     randomBackoff,
		maxRetries: cfg.MaxRetries,
		maxWait:    cfg.MaxRetryWait,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 10
	}
	if c.maxWait <= 0 {
		c.maxWait = defaultMaxRetryWait
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.upload == nil && cfg.ClientID != "" && cfg.RefreshToken != "" {
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     googleEndpoint,
			Scopes:       []string{uploadScope},
		}
		ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		svc, err := yt.NewService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return nil, fmt.Errorf("creating youtube upload service: %w", err)
		}
		c.upload = svc
	}
	if c.stats == nil {
		switch {
		case cfg.APIKey != "":
			svc, err := yt.NewService(ctx, option.WithAPIKey(cfg.APIKey))
			if err != nil {
				return nil, fmt.Errorf("creating youtube stats service: %w", err)
			}
			c.stats = svc
		case c.upload != nil:
			c.stats = c.upload
		}
	}
	if c.insert == nil {
		c.insert = c.serviceInsert
	}
	return c, nil
}

// WatchURL returns the short link for a video id.
func WatchURL(videoID string) string {
	return WatchURLPrefix + videoID
}

// Publish uploads v as a public music video and returns its id. Transport
// failures and 5xx answers are retried up to the configured limit, sleeping a
// random duration in [1, 2^n] seconds after the n-th failure. It gives up
// early once the summed sleeps would pass maxWait or the ctx deadline.
func (c *Client) Publish(ctx context.Context, v Video) (string, error) {
	f, err := os.Open(v.Path)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer func() { _ = f.Close() }()

	body := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       v.Title,
			Description: v.Description,
			Tags:        v.Tags,
			CategoryId:  c.cfg.CategoryID,
		},
		Status: &yt.VideoStatus{PrivacyStatus: c.cfg.Privacy},
	}
	if body.Snippet.CategoryId == "" {
		body.Snippet.CategoryId = "10"
	}
	if body.Status.PrivacyStatus == "" {
		body.Status.PrivacyStatus = "public"
	}

	var waited time.Duration
	for retry := 0; ; {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		id, err := c.insert(ctx, body, f)
		if err == nil {
			if id == "" {
				return "", errors.New("upload response carried no video id")
			}
			return id, nil
		}
		if !Retriable(err) {
			return "", err
		}
		retry++
		if retry > c.maxRetries {
			return "", fmt.Errorf("upload failed after %d retries: %w", c.maxRetries, err)
		}
		wait := c.jitter(math.Pow(2, float64(retry)))
		if waited+wait > c.maxWait || pastDeadline(ctx, wait) {
			return "", fmt.Errorf("upload retry budget exhausted after %d attempts: %w", retry, err)
		}
		waited += wait
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{"retry": retry, "wait": wait.String()})
			c.logg.Warn(logCtx, "retriable youtube upload error: "+err.Error())
		}
		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

func (c *Client) serviceInsert(ctx context.Context, video *yt.Video, media io.Reader) (string, error) {
	if c.upload == nil {
		return "", ErrNotConfigured
	}
	resp, err := c.upload.Videos.Insert([]string{"snippet", "status"}, video).
		Media(media).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

// Statistics fetches counters in batches of 50 ids, paced by the limiter.
// Ids YouTube does not return are absent from the result.
func (c *Client) Statistics(ctx context.Context, videoIDs []string) (map[string]Stats, error) {
	if c.stats == nil {
		return nil, ErrNotConfigured
	}
	out := make(map[string]Stats, len(videoIDs))
	for start := 0; start < len(videoIDs); start += maxIDsPerRequest {
		end := min(start+maxIDsPerRequest, len(videoIDs))
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.stats.Videos.List([]string{"statistics"}).
			Id(videoIDs[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			if item.Statistics == nil {
				continue
			}
			out[item.Id] = Stats{
				Views:    int64(item.Statistics.ViewCount),
				Likes:    int64(item.Statistics.LikeCount),
				Comments: int64(item.Statistics.CommentCount),
			}
		}
	}
	return out, nil
}

// Retriable reports whether an upload error is worth another attempt.
func Retriable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		_, ok := retriableStatusCodes[apiErr.Code]
		return ok
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		strings.Contains(err.Error(), "connection reset")
}

func pastDeadline(ctx context.Context, wait time.Duration) bool {
	deadline, ok := ctx.Deadline()
	return ok && time.Until(deadline) < wait
}

func randomBackoff(maxSeconds float64) time.Duration {
	if maxSeconds < 1 {
		maxSeconds = 1
	}
	secs := 1 + rand.Float64()*(maxSeconds-1)
	return time.Duration(secs * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
