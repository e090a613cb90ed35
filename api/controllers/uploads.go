package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/internal/uploads"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

// multipart headers and the other form fields ride on top of the file.
const multipartOverhead = 1 << 20

// FileUpload proxies a multipart "file" to the transfer host and merges the
// host's JSON reply into the response body.
func FileUpload(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxBytes()+multipartOverhead)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("File size exceeds %dMB", svc.MaxBytes()>>20)))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "No file provided"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "No file provided"))
			return
		}
		defer file.Close()

		upstream, err := svc.Upload(r.Context(), &uploads.Upload{
			Name: header.Filename,
			Size: header.Size,
			Body: file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := make(map[string]any, len(upstream)+1)
		for k, v := range upstream {
			body[k] = v
		}
		body["success"] = true
		responses.WriteJSON(w, http.StatusCreated, body)
	}
}
