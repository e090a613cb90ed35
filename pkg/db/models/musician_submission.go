package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/article39/artist-platform-backend/pkg/db/types"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/types"
)

// MusicianSubmission is the onboarding form of a singer or musician.
type MusicianSubmission struct {
	ID                     uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullNameEnglish        string               `gorm:"column:full_name_english;not null"`
	FullNameBengali        string               `gorm:"column:full_name_bengali;not null;default:''"`
	StageName              string               `gorm:"column:stage_name;not null;default:''"`
	DateOfBirth            *dbtypes.Date        `gorm:"column:date_of_birth;type:date"`
	PrimaryGenre           enums.Genre          `gorm:"column:primary_genre;type:text;not null"`
	SecondaryGenre         *enums.Genre         `gorm:"column:secondary_genre;type:text"`
	PerformanceLanguages   []string             `gorm:"column:performance_languages;type:jsonb;serializer:json"`
	Email                  *string              `gorm:"column:email;uniqueIndex"`
	MobileNumber           string               `gorm:"column:mobile_number;not null"`
	City                   string               `gorm:"column:city;not null;default:''"`
	Country                string               `gorm:"column:country;not null;default:''"`
	Website                string               `gorm:"column:website;not null;default:''"`
	SocialLinks            []string             `gorm:"column:social_links;type:jsonb;serializer:json"`
	Bio                    string               `gorm:"column:bio;not null;default:''"`
	PortfolioDescription   string               `gorm:"column:portfolio_description;not null;default:''"`
	Credits                string               `gorm:"column:credits;not null;default:''"`
	ContentLinks           []string             `gorm:"column:content_links;type:jsonb;serializer:json"`
	ContentUploads         []string             `gorm:"column:content_uploads;type:jsonb;serializer:json"`
	Instruments            []string             `gorm:"column:instruments;type:jsonb;serializer:json"`
	TechnicalPreferences   string               `gorm:"column:technical_preferences;not null;default:''"`
	AvailableTimelines     []types.Availability `gorm:"column:available_timelines;type:jsonb;serializer:json"`
	GovernmentIDUpload     string               `gorm:"column:government_id_upload;not null;default:''"`
	ConsentPromotion       bool                 `gorm:"column:consent_promotion;not null;default:false"`
	AgreeTerms             bool                 `gorm:"column:agree_terms;not null;default:false"`
	PreferredPaymentMethod *enums.PaymentMethod `gorm:"column:preferred_payment_method;type:text"`
	CreatedAt              time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (MusicianSubmission) TableName() string { return "musician_submissions" }
