package tasks

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/mailer"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
)

type credentialsEmailHandler struct {
	mail      Mailer
	accounts  credentialStore
	passwords PasswordIssuer
}

// Handle issues a fresh one-time password on every attempt so the plaintext
// only ever exists in the outgoing email. The last delivered email always
// matches the stored hash.
func (h *credentialsEmailHandler) Handle(ctx context.Context, task models.Task, payload any) error {
	p, err := payloadAs[payloads.CredentialsEmail](task, payload)
	if err != nil {
		return err
	}
	if p.Email == "" {
		return outbox.Permanent(fmt.Errorf("credentials email for account %s has no recipient", p.AccountID))
	}
	if _, err := h.accounts.FindByID(ctx, p.AccountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outbox.Permanent(fmt.Errorf("account %s not found", p.AccountID))
		}
		return err
	}

	password, err := h.passwords.TempPassword()
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := h.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := h.accounts.UpdatePasswordHash(ctx, p.AccountID, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return h.mail.SendCredentials(ctx, mailer.Credentials{
		To:       p.Email,
		Name:     p.FullName,
		Username: p.Username,
		Password: password,
	})
}

type songStatusEmailHandler struct {
	mail     Mailer
	songs    songRepository
	contacts contactFinder
}

func (h *songStatusEmailHandler) Handle(ctx context.Context, task models.Task, payload any) error {
	p, err := payloadAs[payloads.SongStatusEmail](task, payload)
	if err != nil {
		return err
	}
	song, err := h.songs.FindByID(ctx, p.SongID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outbox.Permanent(fmt.Errorf("song %s not found", p.SongID))
		}
		return err
	}
	contact, err := h.contacts.ContactByProfileID(ctx, song.ArtistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outbox.Permanent(fmt.Errorf("artist %s not found", song.ArtistID))
		}
		return err
	}
	return h.mail.SendSongStatus(ctx, mailer.SongStatus{
		To:         contact.Email,
		Name:       contact.DisplayName,
		SongTitle:  song.Title,
		Status:     string(p.Status),
		Note:       p.Note,
		YouTubeURL: p.YouTubeURL,
	})
}
