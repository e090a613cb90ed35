package submissions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	dbtypes "github.com/article39/artist-platform-backend/pkg/db/types"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/types"
)

// MusicianInput is the musician onboarding form as posted by the website.
type MusicianInput struct {
	FullNameEnglish        string               `json:"full_name_english" validate:"required,max=255"`
	FullNameBengali        string               `json:"full_name_bengali" validate:"max=255"`
	StageName              string               `json:"stage_name" validate:"max=255"`
	DateOfBirth            *dbtypes.Date        `json:"date_of_birth"`
	PrimaryGenre           string               `json:"primary_genre" validate:"required"`
	SecondaryGenre         string               `json:"secondary_genre"`
	PerformanceLanguages   []string             `json:"performance_languages" validate:"omitempty,min=1,dive,required"`
	Email                  string               `json:"email" validate:"required,email"`
	MobileNumber           string               `json:"mobile_number" validate:"required,phone"`
	City                   string               `json:"city" validate:"max=255"`
	Country                string               `json:"country" validate:"max=255"`
	Website                string               `json:"website" validate:"omitempty,url"`
	SocialLinks            []string             `json:"social_links" validate:"omitempty,dive,url"`
	Bio                    string               `json:"bio" validate:"max=1000"`
	PortfolioDescription   string               `json:"portfolio_description"`
	Credits                string               `json:"credits"`
	ContentLinks           []string             `json:"content_links" validate:"omitempty,dive,url"`
	ContentUploads         []string             `json:"content_uploads" validate:"omitempty,dive,url"`
	Instruments            []string             `json:"instruments"`
	TechnicalPreferences   string               `json:"technical_preferences"`
	AvailableTimelines     []types.Availability `json:"available_timelines" validate:"omitempty,dive"`
	GovernmentIDUpload     string               `json:"government_id_upload" validate:"omitempty,url"`
	ConsentPromotion       bool                 `json:"consent_promotion"`
	AgreeTerms             bool                 `json:"agree_terms"`
	PreferredPaymentMethod string               `json:"preferred_payment_method"`
	Documents              []types.DocumentItem `json:"documents" validate:"omitempty,dive"`
}

// Submission is a resolved onboarding form of either kind. Exactly one of
// Musician and Filmmaker is set, matching Kind.
type Submission struct {
	Kind      enums.SubmissionKind
	Musician  *models.MusicianSubmission
	Filmmaker *models.FilmmakerSubmission
}

func (s *Submission) ID() uuid.UUID {
	switch s.Kind {
	case enums.SubmissionMusician:
		return s.Musician.ID
	case enums.SubmissionFilmmaker:
		return s.Filmmaker.ID
	}
	return uuid.Nil
}

// ContactEmail is the address that becomes the artist's login.
func (s *Submission) ContactEmail() string {
	switch s.Kind {
	case enums.SubmissionMusician:
		if s.Musician.Email != nil {
			return *s.Musician.Email
		}
	case enums.SubmissionFilmmaker:
		return s.Filmmaker.Email
	}
	return ""
}

func (s *Submission) FullName() string {
	switch s.Kind {
	case enums.SubmissionMusician:
		return s.Musician.FullNameEnglish
	case enums.SubmissionFilmmaker:
		return s.Filmmaker.FullName
	}
	return ""
}

// MusicianView is the API shape of a musician submission.
type MusicianView struct {
	ID                     uuid.UUID            `json:"id"`
	FullNameEnglish        string               `json:"full_name_english"`
	FullNameBengali        string               `json:"full_name_bengali"`
	StageName              string               `json:"stage_name"`
	DateOfBirth            *dbtypes.Date        `json:"date_of_birth"`
	PrimaryGenre           enums.Genre          `json:"primary_genre"`
	SecondaryGenre         *enums.Genre         `json:"secondary_genre"`
	PerformanceLanguages   []string             `json:"performance_languages"`
	Email                  *string              `json:"email"`
	MobileNumber           string               `json:"mobile_number"`
	City                   string               `json:"city"`
	Country                string               `json:"country"`
	Website                string               `json:"website"`
	SocialLinks            []string             `json:"social_links"`
	Bio                    string               `json:"bio"`
	PortfolioDescription   string               `json:"portfolio_description"`
	Credits                string               `json:"credits"`
	ContentLinks           []string             `json:"content_links"`
	ContentUploads         []string             `json:"content_uploads"`
	Instruments            []string             `json:"instruments"`
	TechnicalPreferences   string               `json:"technical_preferences"`
	AvailableTimelines     []types.Availability `json:"available_timelines"`
	GovernmentIDUpload     string               `json:"government_id_upload"`
	ConsentPromotion       bool                 `json:"consent_promotion"`
	AgreeTerms             bool                 `json:"agree_terms"`
	PreferredPaymentMethod *enums.PaymentMethod `json:"preferred_payment_method"`
	Documents              []types.DocumentItem `json:"documents"`
	CreatedAt              time.Time            `json:"created_at"`
}

func musicianView(m *models.MusicianSubmission, docs []types.DocumentItem) *MusicianView {
	if docs == nil {
		docs = []types.DocumentItem{}
	}
	return &MusicianView{
		ID:                     m.ID,
		FullNameEnglish:        m.FullNameEnglish,
		FullNameBengali:        m.FullNameBengali,
		StageName:              m.StageName,
		DateOfBirth:            m.DateOfBirth,
		PrimaryGenre:           m.PrimaryGenre,
		SecondaryGenre:         m.SecondaryGenre,
		PerformanceLanguages:   m.PerformanceLanguages,
		Email:                  m.Email,
		MobileNumber:           m.MobileNumber,
		City:                   m.City,
		Country:                m.Country,
		Website:                m.Website,
		SocialLinks:            m.SocialLinks,
		Bio:                    m.Bio,
		PortfolioDescription:   m.PortfolioDescription,
		Credits:                m.Credits,
		ContentLinks:           m.ContentLinks,
		ContentUploads:         m.ContentUploads,
		Instruments:            m.Instruments,
		TechnicalPreferences:   m.TechnicalPreferences,
		AvailableTimelines:     m.AvailableTimelines,
		GovernmentIDUpload:     m.GovernmentIDUpload,
		ConsentPromotion:       m.ConsentPromotion,
		AgreeTerms:             m.AgreeTerms,
		PreferredPaymentMethod: m.PreferredPaymentMethod,
		Documents:              docs,
		CreatedAt:              m.CreatedAt,
	}
}

// FilmmakerView is the API shape of a filmmaker submission.
type FilmmakerView struct {
	ID              uuid.UUID            `json:"id"`
	BasicInfo       json.RawMessage      `json:"basic_info"`
	ProjectInfo     json.RawMessage      `json:"project_info"`
	BudgetBreakdown json.RawMessage      `json:"budget_breakdown"`
	PaymentTerms    json.RawMessage      `json:"payment_terms"`
	BudgetTotal     string               `json:"budget_total"`
	Documents       []types.DocumentItem `json:"documents"`
	CreatedAt       time.Time            `json:"created_at"`
}
