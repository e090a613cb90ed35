package verification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/accounts"
	"github.com/article39/artist-platform-backend/internal/submissions"
	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/dbtest"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
)

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (stubHasher) TempPassword() (string, error)        { return "Ab3xYz", nil }

type fixture struct {
	conn     *gorm.DB
	svc      Service
	subs     submissions.Service
	accounts *accounts.Repository
	profiles *accounts.ProfileRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromGorm(conn)

	subs, err := submissions.NewService(submissions.NewRepository(conn), client)
	require.NoError(t, err)

	f := fixture{
		conn:     conn,
		subs:     subs,
		accounts: accounts.NewRepository(conn),
		profiles: accounts.NewProfileRepository(conn),
	}
	f.svc, err = NewService(ServiceParams{
		Submissions: subs,
		Profiles:    f.profiles,
		Accounts:    f.accounts,
		Hasher:      stubHasher{},
		Tasks:       outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		TxRunner:    client,
	})
	require.NoError(t, err)
	return f
}

func (f fixture) musician(t *testing.T, email string) uuid.UUID {
	t.Helper()
	view, err := f.subs.CreateMusician(context.Background(), submissions.MusicianInput{
		FullNameEnglish: "Rahim Uddin Khan",
		PrimaryGenre:    "Folk",
		Email:           email,
		MobileNumber:    "+8801700000000",
		AgreeTerms:      true,
	})
	require.NoError(t, err)
	return view.ID
}

func TestVerifyProvisionsAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	subID := f.musician(t, "rahim@example.com")

	res, err := f.svc.Verify(ctx, admin, subID, true)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, MsgCreated, res.Message)

	account, err := f.accounts.FindByUsername(ctx, "rahim@example.com")
	require.NoError(t, err)
	assert.Equal(t, enums.RoleArtist, account.Role)
	assert.Equal(t, "Rahim", account.FirstName)
	assert.Equal(t, "Uddin Khan", account.LastName)
	assert.Equal(t, "hashed:Ab3xYz", account.PasswordHash)

	profile, err := f.profiles.FindBySubmissionID(ctx, subID)
	require.NoError(t, err)
	assert.True(t, profile.IsVerified)
	assert.Equal(t, account.ID, profile.AccountID)
	assert.Equal(t, enums.SubmissionMusician, profile.Kind)

	var tasks []models.Task
	require.NoError(t, f.conn.Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, enums.TaskEmailCredentials, tasks[0].TaskType)
	assert.Equal(t, profile.ID, tasks[0].AggregateID)

	var env outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &env))
	var payload payloads.CredentialsEmail
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, account.ID, payload.AccountID)
	assert.Equal(t, "rahim@example.com", payload.Username)
	assert.NotContains(t, string(tasks[0].Payload), "Ab3xYz")
	assert.NotContains(t, string(tasks[0].Payload), "password")
}

func TestVerifyExistingProfileTogglesFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	subID := f.musician(t, "toggle@example.com")

	_, err := f.svc.Verify(ctx, uuid.New(), subID, true)
	require.NoError(t, err)

	res, err := f.svc.Verify(ctx, uuid.New(), subID, false)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, MsgDeactivated, res.Message)

	profile, err := f.profiles.FindBySubmissionID(ctx, subID)
	require.NoError(t, err)
	assert.False(t, profile.IsVerified)

	res, err = f.svc.Verify(ctx, uuid.New(), subID, true)
	require.NoError(t, err)
	assert.Equal(t, MsgActivated, res.Message)

	var count int64
	require.NoError(t, f.conn.Model(&models.Account{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestVerifyUnknownSubmission(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), uuid.New(), uuid.New(), true)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "Artist not found.", typed.Message())
}

func TestVerifyFalseWithoutProfile(t *testing.T) {
	f := newFixture(t)
	subID := f.musician(t, "nobody@example.com")

	_, err := f.svc.Verify(context.Background(), uuid.New(), subID, false)
	require.Error(t, err)
	assert.Equal(t, "Artist account does not exist.", pkgerrors.As(err).Message())
}

func TestVerifyUsernameTakenRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	subID := f.musician(t, "taken@example.com")

	require.NoError(t, f.accounts.Create(ctx, nil, &models.Account{
		Username:     "taken@example.com",
		Email:        "taken@example.com",
		PasswordHash: "x",
		Role:         enums.RoleAdmin,
		IsActive:     true,
	}))

	_, err := f.svc.Verify(ctx, uuid.New(), subID, true)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var profiles, tasks int64
	require.NoError(t, f.conn.Model(&models.ArtistProfile{}).Count(&profiles).Error)
	require.NoError(t, f.conn.Model(&models.Task{}).Count(&tasks).Error)
	assert.Zero(t, profiles)
	assert.Zero(t, tasks)
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("  Ayesha  ")
	assert.Equal(t, "Ayesha", first)
	assert.Empty(t, last)
}
