// Package render turns a song's cover image and audio track into a still-frame
// mp4 suitable for upload.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/article39/artist-platform-backend/pkg/config"
)

const downloadLimit int64 = 200 << 20

// SourceError reports a source URL that answered with a client error. Retrying
// the download will not help.
type SourceError struct {
	URL    string
	Status int
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s returned status %d", e.URL, e.Status)
}

// IsSourceError reports whether err is a non-retriable download failure.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

type commandRunner func(ctx context.Context, name string, args ...string) error

func defaultRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		tail := strings.TrimSpace(string(out))
		if len(tail) > 512 {
			tail = tail[len(tail)-512:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, tail)
	}
	return nil
}

// Input names the two sources of a video.
type Input struct {
	AudioURL     string
	ThumbnailURL string
}

// Video is a rendered file on local disk. Callers must call Cleanup.
type Video struct {
	Path string
	dir  string
}

func (v *Video) Cleanup() {
	if v != nil && v.dir != "" {
		_ = os.RemoveAll(v.dir)
	}
}

type Renderer struct {
	cfg        config.RenderConfig
	httpClient *http.Client
	run        commandRunner
}

type Option func(*Renderer)

func WithHTTPClient(client *http.Client) Option {
	return func(r *Renderer) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithCommandRunner replaces the ffmpeg invocation.
func WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) Option {
	return func(r *Renderer) {
		if run != nil {
			r.run = run
		}
	}
}

func New(cfg config.RenderConfig, opts ...Option) *Renderer {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.Preset == "" {
		cfg.Preset = "ultrafast"
	}
	r := &Renderer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		run:        defaultRunner,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Render downloads both sources, normalizes the frame and encodes the video.
func (r *Renderer) Render(ctx context.Context, in Input) (*Video, error) {
	if strings.TrimSpace(in.AudioURL) == "" || strings.TrimSpace(in.ThumbnailURL) == "" {
		return nil, errors.New("audio and thumbnail urls are required")
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(r.cfg.WorkDir, "render-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	video := &Video{dir: dir, Path: filepath.Join(dir, "video.mp4")}

	framePath := filepath.Join(dir, "frame.png")
	if err := r.prepareFrame(ctx, in.ThumbnailURL, framePath); err != nil {
		video.Cleanup()
		return nil, err
	}

	audioPath := filepath.Join(dir, "audio"+audioExt(in.AudioURL))
	if err := r.download(ctx, in.AudioURL, audioPath); err != nil {
		video.Cleanup()
		return nil, err
	}

	if err := r.run(ctx, r.cfg.FFmpegPath, FFmpegArgs(framePath, audioPath, video.Path, r.cfg.Preset)...); err != nil {
		video.Cleanup()
		return nil, fmt.Errorf("encode video: %w", err)
	}
	return video, nil
}

// FFmpegArgs loops the still frame for the length of the audio track.
func FFmpegArgs(framePath, audioPath, outPath, preset string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-framerate", "1",
		"-i", framePath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-preset", preset,
		"-shortest",
		outPath,
	}
}

func (r *Renderer) prepareFrame(ctx context.Context, url, dst string) error {
	body, err := r.open(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	img, err := imaging.Decode(io.LimitReader(body, downloadLimit), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode thumbnail: %w", err)
	}
	frame := NormalizeFrame(img, r.cfg.MaxFrameWidth)
	if err := imaging.Save(frame, dst); err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	return nil
}

// NormalizeFrame downscales img to maxWidth when wider and crops one pixel
// from odd edges; libx264 with yuv420p needs even dimensions.
func NormalizeFrame(img image.Image, maxWidth int) image.Image {
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	w := img.Bounds().Dx() &^ 1
	h := img.Bounds().Dy() &^ 1
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	if w == img.Bounds().Dx() && h == img.Bounds().Dy() {
		return img
	}
	if w > img.Bounds().Dx() || h > img.Bounds().Dy() {
		return imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}
	return imaging.CropAnchor(img, w, h, imaging.TopLeft)
}

func (r *Renderer) download(ctx context.Context, url, dst string) error {
	body, err := r.open(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, io.LimitReader(body, downloadLimit)); err != nil {
		_ = f.Close()
		return fmt.Errorf("download %s: %w", url, err)
	}
	return f.Close()
}

func (r *Renderer) open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &SourceError{URL: url, Status: http.StatusBadRequest}
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		_ = resp.Body.Close()
		return nil, &SourceError{URL: url, Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

func audioExt(url string) string {
	clean := url
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	ext := strings.ToLower(filepath.Ext(clean))
	switch ext {
	case ".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac":
		return ext
	}
	return ".mp3"
}
