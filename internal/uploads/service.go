package uploads

import (
	"context"
	"fmt"
	"io"
	"strings"

	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/transfer"
)

const (
	msgNoFile       = "No file provided"
	msgUploadFailed = "File upload failed."
)

// Upload is a file received from a client.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// Service forwards client files to the transfer host.
type Service interface {
	Upload(ctx context.Context, upload *Upload) (map[string]any, error)
	MaxBytes() int64
}

type service struct {
	uploader transfer.Uploader
	maxBytes int64
	logg     *logger.Logger
}

func NewService(uploader transfer.Uploader, maxBytes int64, logg *logger.Logger) (Service, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{uploader: uploader, maxBytes: maxBytes, logg: logg}, nil
}

func (s *service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload returns the transfer host's JSON response as-is so callers can merge
// it into their envelope.
func (s *service) Upload(ctx context.Context, upload *Upload) (map[string]any, error) {
	if upload == nil || upload.Body == nil || strings.TrimSpace(upload.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNoFile)
	}
	if upload.Size > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("File size exceeds %dMB", s.maxBytes>>20))
	}

	out, err := s.uploader.Upload(ctx, transfer.File{Name: upload.Name, Size: upload.Size, Body: upload.Body})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "file_name", upload.Name), "transfer upload failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgUploadFailed)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
