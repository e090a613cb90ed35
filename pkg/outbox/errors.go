package outbox

import (
	"errors"

	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
)

// PermanentError tells the worker that retrying a task cannot succeed.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent task error"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks err as non-retryable. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent or carries a
// typed error whose code is not retryable, such as NOT_FOUND.
func IsPermanent(err error) bool {
	var perm PermanentError
	if errors.As(err, &perm) {
		return true
	}
	if typed := pkgerrors.As(err); typed != nil {
		return !pkgerrors.MetadataFor(typed.Code()).Retryable
	}
	return false
}
