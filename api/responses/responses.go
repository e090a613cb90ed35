package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/types"
)

// fallbackBody is sent when a payload cannot be encoded at all.
var fallbackBody = []byte(`{"success":false,"message":"internal server error"}` + "\n")

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteEnvelope(w, http.StatusOK, "", data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	WriteEnvelope(w, status, "", data)
}

// WriteMessage writes a successful envelope carrying only a message.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteEnvelope(w, status, msg, nil)
}

func WriteEnvelope(w http.ResponseWriter, status int, msg string, data any) {
	WriteJSON(w, status, types.Envelope{Success: true, Message: msg, Data: data})
}

// WriteError maps err onto its code's status and public message and logs it.
// 5xx responses log at error level, everything else as a rejected request.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := typedError(err)
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.LogFields(typed))
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", typed)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	WriteJSON(w, meta.HTTPStatus, types.Envelope{Success: false, Message: publicMessage(typed, meta)})
}

func typedError(err error) *pkgerrors.Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
}

// publicMessage hides internal messages. Dependency messages are authored by
// the calling service and never carry the upstream cause.
func publicMessage(typed *pkgerrors.Error, meta pkgerrors.Metadata) string {
	if typed.Code() == pkgerrors.CodeInternal || typed.Message() == "" {
		return meta.PublicMessage
	}
	return typed.Message()
}

// WriteJSON writes payload as-is. Most handlers go through the envelope
// helpers; login answers with a flat body. The payload is encoded before the
// header is sent so an encoding failure still yields a clean 500.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.Write(fallbackBody)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
