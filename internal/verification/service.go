package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/submissions"
	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
)

const (
	MsgActivated   = "Artist account activated successfully."
	MsgDeactivated = "Artist account deactivated successfully."
	MsgCreated     = "Artist account verified and created successfully. Artists login credentials have been sent to the email."
)

// Result tells the caller which branch ran.
type Result struct {
	Created bool
	Message string
}

// Service turns an onboarding submission into a verified artist account.
type Service interface {
	Verify(ctx context.Context, actor uuid.UUID, submissionID uuid.UUID, verified bool) (*Result, error)
}

type resolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*submissions.Submission, error)
}

type profileStore interface {
	FindBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.ArtistProfile, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool, verifiedBy uuid.UUID) error
	CreateTx(tx *gorm.DB, profile *models.ArtistProfile) error
}

type accountStore interface {
	Create(ctx context.Context, tx *gorm.DB, account *models.Account) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	TempPassword() (string, error)
}

type enqueuer interface {
	Enqueue(ctx context.Context, tx *gorm.DB, job outbox.Job) (uuid.UUID, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies of the verification service.
type ServiceParams struct {
	Submissions resolver
	Profiles    profileStore
	Accounts    accountStore
	Hasher      passwordHasher
	Tasks       enqueuer
	TxRunner    txRunner
}

type service struct {
	submissions resolver
	profiles    profileStore
	accounts    accountStore
	hasher      passwordHasher
	tasks       enqueuer
	tx          txRunner
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Submissions == nil:
		return nil, fmt.Errorf("submission resolver required")
	case p.Profiles == nil:
		return nil, fmt.Errorf("profile repository required")
	case p.Accounts == nil:
		return nil, fmt.Errorf("account repository required")
	case p.Hasher == nil:
		return nil, fmt.Errorf("password hasher required")
	case p.Tasks == nil:
		return nil, fmt.Errorf("task enqueuer required")
	case p.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		submissions: p.Submissions,
		profiles:    p.Profiles,
		accounts:    p.Accounts,
		hasher:      p.Hasher,
		tasks:       p.Tasks,
		tx:          p.TxRunner,
	}, nil
}

func (s *service) Verify(ctx context.Context, actor uuid.UUID, submissionID uuid.UUID, verified bool) (*Result, error) {
	sub, err := s.submissions.Resolve(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindBySubmissionID(ctx, submissionID)
	switch {
	case err == nil:
		if err := s.profiles.SetVerified(ctx, profile.ID, verified, actor); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update artist profile")
		}
		msg := MsgDeactivated
		if verified {
			msg = MsgActivated
		}
		return &Result{Message: msg}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load artist profile")
	}

	if !verified {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Artist account does not exist.")
	}
	if err := s.provision(ctx, actor, sub); err != nil {
		return nil, err
	}
	return &Result{Created: true, Message: MsgCreated}, nil
}

func (s *service) provision(ctx context.Context, actor uuid.UUID, sub *submissions.Submission) error {
	email := strings.ToLower(strings.TrimSpace(sub.ContactEmail()))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Submission has no contact email.")
	}
	// Placeholder credential; the credentials task issues the real one.
	placeholder, err := s.hasher.TempPassword()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := s.hasher.Hash(placeholder)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	fullName := strings.TrimSpace(sub.FullName())
	first, last := SplitName(fullName)
	account := &models.Account{
		Username:     email,
		Email:        email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
		Role:         enums.RoleArtist,
		IsActive:     true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.accounts.Create(ctx, tx, account); err != nil {
			return err
		}
		verifier := actor
		profile := &models.ArtistProfile{
			AccountID:    account.ID,
			SubmissionID: sub.ID(),
			Kind:         sub.Kind,
			DisplayName:  fullName,
			IsVerified:   true,
			VerifiedBy:   &verifier,
		}
		if err := s.profiles.CreateTx(tx, profile); err != nil {
			return err
		}
		_, err := s.tasks.Enqueue(ctx, tx, outbox.Job{
			Type:          enums.TaskEmailCredentials,
			AggregateType: enums.AggregateArtist,
			AggregateID:   profile.ID,
			Actor:         &outbox.ActorRef{AccountID: actor, Role: string(enums.RoleAdmin)},
			Data: payloads.CredentialsEmail{
				AccountID: account.ID,
				Email:     email,
				Username:  email,
				FullName:  fullName,
			},
		})
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "An account for this artist already exists.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision artist account")
	}
	return nil
}

// SplitName puts the first word in first and the remainder in last.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
