package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/article39/artist-platform-backend/pkg/config"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeFrameEvenDimensions(t *testing.T) {
	out := NormalizeFrame(imaging.New(641, 361, color.Black), 0)
	assert.Equal(t, image.Rect(0, 0, 640, 360), out.Bounds())

	even := imaging.New(640, 360, color.Black)
	assert.Equal(t, even.Bounds(), NormalizeFrame(even, 0).Bounds())

	wide := NormalizeFrame(imaging.New(4000, 2001, color.Black), 1920)
	assert.Equal(t, 1920, wide.Bounds().Dx())
	assert.Zero(t, wide.Bounds().Dy()%2)

	tiny := NormalizeFrame(imaging.New(1, 1, color.Black), 0)
	assert.Equal(t, image.Rect(0, 0, 2, 2), tiny.Bounds())
}

func TestRenderRunsFFmpeg(t *testing.T) {
	cover := pngBytes(t, 301, 201)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.png":
			_, _ = w.Write(cover)
		case "/song.mp3":
			_, _ = w.Write([]byte("ID3-audio"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var gotName string
	var gotArgs []string
	renderer := New(config.RenderConfig{WorkDir: t.TempDir()},
		WithHTTPClient(srv.Client()),
		WithCommandRunner(func(_ context.Context, name string, args ...string) error {
			gotName, gotArgs = name, args
			return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o600)
		}),
	)

	video, err := renderer.Render(context.Background(), Input{
		AudioURL:     srv.URL + "/song.mp3",
		ThumbnailURL: srv.URL + "/cover.png",
	})
	require.NoError(t, err)
	defer video.Cleanup()

	assert.Equal(t, "ffmpeg", gotName)
	assert.Contains(t, gotArgs, "libx264")
	assert.Contains(t, gotArgs, "-shortest")
	assert.Contains(t, gotArgs, "ultrafast")

	frame, err := imaging.Open(gotArgs[6])
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 200), frame.Bounds())

	_, err = os.Stat(video.Path)
	require.NoError(t, err)
	video.Cleanup()
	_, err = os.Stat(video.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderMissingSourceIsSourceError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	renderer := New(config.RenderConfig{WorkDir: t.TempDir()}, WithHTTPClient(srv.Client()))
	_, err := renderer.Render(context.Background(), Input{
		AudioURL:     srv.URL + "/song.mp3",
		ThumbnailURL: srv.URL + "/cover.png",
	})
	require.Error(t, err)
	assert.True(t, IsSourceError(err))
}

func TestAudioExt(t *testing.T) {
	assert.Equal(t, ".wav", audioExt("https://x/a.WAV?sig=1"))
	assert.Equal(t, ".mp3", audioExt("https://x/stream"))
}
