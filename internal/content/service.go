package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/repo"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

// Resource describes one kind of public website content.
type Resource[T any] struct {
	// Path is the route segment under /web-api.
	Path string
	// ListKey names the array in paginated list payloads.
	ListKey string
	// Label is the singular noun used in messages, e.g. "Story".
	Label string
	// PublicCreate lets anonymous visitors POST (bookings).
	PublicCreate bool
	// PrivateRead restricts GET to admins (rows hold visitor contact details).
	PrivateRead bool
	// ID exposes the primary key of a row.
	ID func(*T) *uuid.UUID
	// PublicScope narrows listings served to non-admins.
	PublicScope repo.Scope
	// Prepare normalizes and checks a row before it is written.
	Prepare func(ctx context.Context, row *T) error
}

func (r Resource[T]) NotFoundMessage() string {
	return r.Label + " not found"
}

func (r Resource[T]) MissingIDMessage() string {
	return fmt.Sprintf("No %s ID provided", strings.ToLower(r.Label))
}

func (r Resource[T]) DeletedMessage() string {
	return r.Label + " deleted"
}

// Service is the CRUD surface shared by every content resource.
type Service[T any] struct {
	res   Resource[T]
	table repo.Table[T]
}

func NewService[T any](res Resource[T], db *gorm.DB) (*Service[T], error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if res.Path == "" || res.ListKey == "" || res.Label == "" {
		return nil, fmt.Errorf("resource path, list key and label required")
	}
	if res.ID == nil {
		return nil, fmt.Errorf("resource %s: id accessor required", res.Path)
	}
	return &Service[T]{res: res, table: repo.NewTable[T](db)}, nil
}

func (s *Service[T]) Resource() Resource[T] {
	return s.res
}

// Get loads one row. Malformed ids are reported as not found.
func (s *Service[T]) Get(ctx context.Context, rawID string) (*T, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, s.res.NotFoundMessage())
	}
	row, err := s.table.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, s.res.NotFoundMessage())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+s.res.Path)
	}
	return row, nil
}

// List pages rows newest first. Pages past the end are empty.
func (s *Service[T]) List(ctx context.Context, params pagination.Params, admin bool) ([]T, int64, error) {
	params = params.Normalize()
	var scopes []repo.Scope
	if !admin && s.res.PublicScope != nil {
		scopes = append(scopes, s.res.PublicScope)
	}
	rows, total, err := s.table.Page(ctx, params.Offset(), params.Limit, scopes...)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list "+s.res.Path)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, total, nil
}

func (s *Service[T]) Create(ctx context.Context, row *T) (*T, error) {
	*s.res.ID(row) = uuid.Nil
	if err := s.prepare(ctx, row); err != nil {
		return nil, err
	}
	if err := s.table.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create "+s.res.Path)
	}
	return row, nil
}

// Update loads the row, lets apply merge the request into it, and saves the
// result. Fields apply leaves untouched keep their stored values.
func (s *Service[T]) Update(ctx context.Context, rawID string, apply func(row *T) error) (*T, error) {
	if strings.TrimSpace(rawID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, s.res.MissingIDMessage())
	}
	row, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	id := *s.res.ID(row)
	if err := apply(row); err != nil {
		return nil, err
	}
	*s.res.ID(row) = id
	if err := s.prepare(ctx, row); err != nil {
		return nil, err
	}
	if err := s.table.Save(ctx, row, "created_at"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update "+s.res.Path)
	}
	return s.Get(ctx, id.String())
}

func (s *Service[T]) Delete(ctx context.Context, rawID string) error {
	if strings.TrimSpace(rawID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, s.res.MissingIDMessage())
	}
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, s.res.NotFoundMessage())
	}
	deleted, err := s.table.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete "+s.res.Path)
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, s.res.NotFoundMessage())
	}
	return nil
}

func (s *Service[T]) prepare(ctx context.Context, row *T) error {
	if s.res.Prepare == nil {
		return nil
	}
	return s.res.Prepare(ctx, row)
}
