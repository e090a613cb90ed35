package transfer

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/article39/artist-platform-backend/pkg/config"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.TransferConfig {
	return config.TransferConfig{
		URL:            "http://transfer.test/upload/",
		APIKey:         "k3y",
		Path:           "article39",
		MaxUploadMB:    20,
		CompressOverMB: 2,
	}
}

func TestUploadSendsMultipartWithParams(t *testing.T) {
	var gotQuery map[string][]string
	var gotFile, gotName string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotQuery = req.URL.Query()
		require.NoError(t, req.ParseMultipartForm(1<<20))
		f, header, err := req.FormFile("file")
		require.NoError(t, err)
		body, _ := io.ReadAll(f)
		gotFile = string(body)
		gotName = header.Filename
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"url":"https://transfer.test/uploads/article39/a.png"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	out, err := client.Upload(context.Background(), File{Name: "cover.png", Size: 3 << 20, Body: strings.NewReader("png-bytes")})
	require.NoError(t, err)

	assert.Equal(t, "https://transfer.test/uploads/article39/a.png", out["url"])
	assert.Equal(t, []string{"k3y"}, gotQuery["key"])
	assert.Equal(t, []string{"article39"}, gotQuery["path"])
	assert.Equal(t, []string{"50"}, gotQuery["compression_level"])
	assert.Equal(t, "png-bytes", gotFile)
	assert.Equal(t, "cover.png", gotName)
}

func TestShouldCompress(t *testing.T) {
	client, err := NewClient(testConfig())
	require.NoError(t, err)

	assert.True(t, client.ShouldCompress("a.JPG", 3<<20))
	assert.True(t, client.ShouldCompress("a.jpeg", 2<<20+1))
	assert.False(t, client.ShouldCompress("a.png", 2<<20))
	assert.False(t, client.ShouldCompress("a.mp3", 10<<20))
}

func TestUploadUpstreamFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		_, _ = io.Copy(io.Discard, req.Body)
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader("boom")),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), File{Name: "a.mp3", Size: 10, Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(config.TransferConfig{})
	assert.Error(t, err)
}
