package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
)

// ProfileRepository persists the bridge between submissions and accounts.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateTx(tx *gorm.DB, profile *models.ArtistProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return tx.Create(profile).Error
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.WithContext(ctx).First(&profile, "account_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.WithContext(ctx).First(&profile, "submission_id = ?", submissionID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetVerified flips the verification flag. verifiedBy records the admin.
func (r *ProfileRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool, verifiedBy uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ArtistProfile{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_verified": verified, "verified_by": verifiedBy}).Error
}

// Contact is what outbound mail needs to know about an artist.
type Contact struct {
	ProfileID   uuid.UUID
	AccountID   uuid.UUID
	Email       string
	DisplayName string
}

// ContactByProfileID joins the profile to its account.
func (r *ProfileRepository) ContactByProfileID(ctx context.Context, profileID uuid.UUID) (*Contact, error) {
	var row struct {
		ProfileID   uuid.UUID
		AccountID   uuid.UUID
		Email       string
		DisplayName string
	}
	err := r.db.WithContext(ctx).
		Table("artist_profiles AS p").
		Select("p.id AS profile_id, a.id AS account_id, a.email AS email, p.display_name AS display_name").
		Joins("JOIN accounts a ON a.id = p.account_id").
		Where("p.id = ?", profileID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	c := Contact(row)
	return &c, nil
}
