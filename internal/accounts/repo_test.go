package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/dbtest"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

func seedAccount(t *testing.T, repo *Repository, username string) *models.Account {
	t.Helper()
	account := &models.Account{
		Username:     username,
		Email:        username,
		FirstName:    "Rahim",
		PasswordHash: "hash",
		Role:         enums.RoleArtist,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), nil, account))
	return account
}

func TestAccountRepository(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	account := seedAccount(t, repo, "Rahim@Example.com")
	require.NotEqual(t, uuid.Nil, account.ID)

	found, err := repo.FindByUsername(ctx, "rahim@example.com ")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
	assert.True(t, found.IsActive)

	dup := &models.Account{Username: "RAHIM@example.com", Email: "x", PasswordHash: "h", Role: enums.RoleArtist}
	err = repo.Create(ctx, nil, dup)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	require.NoError(t, repo.UpdatePasswordHash(ctx, account.ID, "new-hash"))
	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, account.ID, at))

	found, err = repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, at.Equal(found.LastLoginAt.UTC()))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProfileRepository(t *testing.T) {
	conn := dbtest.Open(t)
	accounts := NewRepository(conn)
	profiles := NewProfileRepository(conn)
	ctx := context.Background()

	account := seedAccount(t, accounts, "artist@example.com")
	submissionID := uuid.New()
	profile := &models.ArtistProfile{
		AccountID:    account.ID,
		SubmissionID: submissionID,
		Kind:         enums.SubmissionMusician,
		DisplayName:  "Rahim Uddin",
		IsVerified:   true,
	}
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return profiles.CreateTx(tx, profile)
	}))

	second := &models.ArtistProfile{AccountID: uuid.New(), SubmissionID: submissionID, Kind: enums.SubmissionMusician, DisplayName: "x"}
	err := conn.Transaction(func(tx *gorm.DB) error { return profiles.CreateTx(tx, second) })
	assert.True(t, db.IsUniqueViolation(err, ""), "one profile per submission")

	bySubmission, err := profiles.FindBySubmissionID(ctx, submissionID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, bySubmission.ID)

	admin := uuid.New()
	require.NoError(t, profiles.SetVerified(ctx, profile.ID, false, admin))
	byAccount, err := profiles.FindByAccountID(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, byAccount.IsVerified)
	require.NotNil(t, byAccount.VerifiedBy)
	assert.Equal(t, admin, *byAccount.VerifiedBy)

	contact, err := profiles.ContactByProfileID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "artist@example.com", contact.Email)
	assert.Equal(t, "Rahim Uddin", contact.DisplayName)
	assert.Equal(t, account.ID, contact.AccountID)
}

func TestFindByLoginFallsBackToEmail(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	admin := &models.Account{
		Username:     "curator",
		Email:        "Curator@Article39.art",
		PasswordHash: "hash",
		Role:         enums.RoleAdmin,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(ctx, nil, admin))

	byUsername, err := repo.FindByLogin(ctx, "CURATOR")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byUsername.ID)

	byEmail, err := repo.FindByLogin(ctx, "curator@article39.art")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byEmail.ID)

	_, err = repo.FindByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
