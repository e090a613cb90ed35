package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/pagination"
	"github.com/article39/artist-platform-backend/pkg/schema"
	"github.com/article39/artist-platform-backend/pkg/types"
)

const (
	duplicateMusicianEmail  = "artist with this email already exists."
	duplicateFilmmakerEmail = "filmmaker with this email already exists."
)

// Service accepts onboarding forms and serves them back to administrators.
type Service interface {
	CreateMusician(ctx context.Context, in MusicianInput) (*MusicianView, error)
	CreateFilmmaker(ctx context.Context, doc any) (*FilmmakerView, error)
	GetMusician(ctx context.Context, id uuid.UUID) (*MusicianView, error)
	GetFilmmaker(ctx context.Context, id uuid.UUID) (*FilmmakerView, error)
	ListMusicians(ctx context.Context, params pagination.Params) ([]MusicianView, int64, error)
	ListFilmmakers(ctx context.Context, params pagination.Params) ([]FilmmakerView, int64, error)
	Resolve(ctx context.Context, id uuid.UUID) (*Submission, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type repository interface {
	CreateMusicianTx(tx *gorm.DB, sub *models.MusicianSubmission, docs []types.DocumentItem) error
	CreateFilmmakerTx(tx *gorm.DB, sub *models.FilmmakerSubmission, docs []types.DocumentItem) error
	FindMusician(ctx context.Context, id uuid.UUID) (*models.MusicianSubmission, error)
	FindFilmmaker(ctx context.Context, id uuid.UUID) (*models.FilmmakerSubmission, error)
	ListMusicians(ctx context.Context, offset, limit int) ([]models.MusicianSubmission, int64, error)
	ListFilmmakers(ctx context.Context, offset, limit int) ([]models.FilmmakerSubmission, int64, error)
	Documents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]types.DocumentItem, error)
	KindOf(ctx context.Context, id uuid.UUID) (enums.SubmissionKind, error)
}

type service struct {
	repo repository
	tx   txRunner
}

func NewService(repo repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("submissions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateMusician(ctx context.Context, in MusicianInput) (*MusicianView, error) {
	sub, err := musicianFromInput(in)
	if err != nil {
		return nil, err
	}
	docs := in.Documents
	if docs == nil {
		docs = []types.DocumentItem{}
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateMusicianTx(tx, sub, docs)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Field("email", duplicateMusicianEmail)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create musician submission")
	}
	return musicianView(sub, docs), nil
}

func musicianFromInput(in MusicianInput) (*models.MusicianSubmission, error) {
	var fields []pkgerrors.FieldError
	add := func(field, msg string) {
		fields = append(fields, pkgerrors.FieldError{Field: field, Message: msg})
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		add("email", schema.MsgRequired)
	}
	primary, err := enums.ParseGenre(in.PrimaryGenre)
	if err != nil {
		add("primary_genre", choiceMessage(in.PrimaryGenre))
	}
	var secondary *enums.Genre
	if strings.TrimSpace(in.SecondaryGenre) != "" {
		g, err := enums.ParseGenre(in.SecondaryGenre)
		if err != nil {
			add("secondary_genre", choiceMessage(in.SecondaryGenre))
		} else {
			secondary = &g
		}
	}
	var method *enums.PaymentMethod
	if strings.TrimSpace(in.PreferredPaymentMethod) != "" {
		m, err := enums.ParsePaymentMethod(in.PreferredPaymentMethod)
		if err != nil {
			add("preferred_payment_method", choiceMessage(in.PreferredPaymentMethod))
		} else {
			method = &m
		}
	}
	for i, tl := range in.AvailableTimelines {
		if tl.Time.From > tl.Time.To {
			add(fmt.Sprintf("available_timelines.%d.time", i), "from must not be after to")
		}
		if tl.Date.From > tl.Date.To {
			add(fmt.Sprintf("available_timelines.%d.date", i), "from must not be after to")
		}
	}
	if !in.AgreeTerms {
		add("agree_terms", "You must agree to the terms.")
	}
	if len(fields) > 0 {
		return nil, pkgerrors.Fields(fields...)
	}

	return &models.MusicianSubmission{
		FullNameEnglish:        strings.TrimSpace(in.FullNameEnglish),
		FullNameBengali:        strings.TrimSpace(in.FullNameBengali),
		StageName:              strings.TrimSpace(in.StageName),
		DateOfBirth:            in.DateOfBirth,
		PrimaryGenre:           primary,
		SecondaryGenre:         secondary,
		PerformanceLanguages:   in.PerformanceLanguages,
		Email:                  &email,
		MobileNumber:           strings.TrimSpace(in.MobileNumber),
		City:                   in.City,
		Country:                in.Country,
		Website:                in.Website,
		SocialLinks:            in.SocialLinks,
		Bio:                    in.Bio,
		PortfolioDescription:   in.PortfolioDescription,
		Credits:                in.Credits,
		ContentLinks:           in.ContentLinks,
		ContentUploads:         in.ContentUploads,
		Instruments:            in.Instruments,
		TechnicalPreferences:   in.TechnicalPreferences,
		AvailableTimelines:     in.AvailableTimelines,
		GovernmentIDUpload:     in.GovernmentIDUpload,
		ConsentPromotion:       in.ConsentPromotion,
		AgreeTerms:             in.AgreeTerms,
		PreferredPaymentMethod: method,
	}, nil
}

func choiceMessage(value string) string {
	return fmt.Sprintf("%q is not a valid choice.", value)
}

// CreateFilmmaker validates a decoded filmmaker document (see schema.Decode)
// and stores it.
func (s *service) CreateFilmmaker(ctx context.Context, doc any) (*FilmmakerView, error) {
	if err := schema.Validate(filmmakerRule, doc, ""); err != nil {
		return nil, err
	}
	obj := doc.(map[string]any)

	sub := &models.FilmmakerSubmission{
		BudgetTotal: BudgetTotal(obj["budget_breakdown"]),
	}
	sub.FullName, _ = lookupString(obj, "basic_info.full_name_en")
	email, _ := lookupString(obj, "basic_info.email")
	sub.Email = strings.ToLower(email)
	sub.ProjectTitle, _ = lookupString(obj, "project_info.title")

	var err error
	if sub.BasicInfo, err = json.Marshal(obj["basic_info"]); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode basic_info")
	}
	if sub.ProjectInfo, err = json.Marshal(obj["project_info"]); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode project_info")
	}
	if sub.BudgetBreakdown, err = json.Marshal(obj["budget_breakdown"]); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode budget_breakdown")
	}
	if sub.PaymentTerms, err = json.Marshal(obj["payment_terms"]); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment_terms")
	}
	docs := documentItems(obj["documents"])

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateFilmmakerTx(tx, sub, docs)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Field("basic_info.email", duplicateFilmmakerEmail)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create filmmaker submission")
	}
	return filmmakerView(sub, docs), nil
}

func lookupString(doc any, path string) (string, bool) {
	v, ok := schema.Lookup(doc, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return strings.TrimSpace(s), ok
}

func documentItems(raw any) []types.DocumentItem {
	list, _ := raw.([]any)
	out := make([]types.DocumentItem, 0, len(list))
	for _, item := range list {
		docType, _ := lookupString(item, "document_type")
		docURL, _ := lookupString(item, "document_url")
		out = append(out, types.DocumentItem{DocumentType: docType, DocumentURL: docURL})
	}
	return out
}

func filmmakerView(sub *models.FilmmakerSubmission, docs []types.DocumentItem) *FilmmakerView {
	if docs == nil {
		docs = []types.DocumentItem{}
	}
	return &FilmmakerView{
		ID:              sub.ID,
		BasicInfo:       sub.BasicInfo,
		ProjectInfo:     sub.ProjectInfo,
		BudgetBreakdown: sub.BudgetBreakdown,
		PaymentTerms:    sub.PaymentTerms,
		BudgetTotal:     sub.BudgetTotal.StringFixed(2),
		Documents:       docs,
		CreatedAt:       sub.CreatedAt,
	}
}

func (s *service) GetMusician(ctx context.Context, id uuid.UUID) (*MusicianView, error) {
	sub, err := s.repo.FindMusician(ctx, id)
	if err != nil {
		return nil, notFound(err, "Artist not found.")
	}
	docs, err := s.repo.Documents(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load documents")
	}
	return musicianView(sub, docs[id]), nil
}

func (s *service) GetFilmmaker(ctx context.Context, id uuid.UUID) (*FilmmakerView, error) {
	sub, err := s.repo.FindFilmmaker(ctx, id)
	if err != nil {
		return nil, notFound(err, "Filmmaker not found.")
	}
	docs, err := s.repo.Documents(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load documents")
	}
	return filmmakerView(sub, docs[id]), nil
}

func (s *service) ListMusicians(ctx context.Context, params pagination.Params) ([]MusicianView, int64, error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListMusicians(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list musician submissions")
	}
	if !params.InRange(total) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid page.")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	docs, err := s.repo.Documents(ctx, ids)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load documents")
	}
	out := make([]MusicianView, 0, len(rows))
	for i := range rows {
		out = append(out, *musicianView(&rows[i], docs[rows[i].ID]))
	}
	return out, total, nil
}

func (s *service) ListFilmmakers(ctx context.Context, params pagination.Params) ([]FilmmakerView, int64, error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListFilmmakers(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list filmmaker submissions")
	}
	if !params.InRange(total) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid page.")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	docs, err := s.repo.Documents(ctx, ids)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load documents")
	}
	out := make([]FilmmakerView, 0, len(rows))
	for i := range rows {
		out = append(out, *filmmakerView(&rows[i], docs[rows[i].ID]))
	}
	return out, total, nil
}

// Resolve finds id among both submission kinds.
func (s *service) Resolve(ctx context.Context, id uuid.UUID) (*Submission, error) {
	kind, err := s.repo.KindOf(ctx, id)
	if err != nil {
		return nil, notFound(err, "Artist not found.")
	}
	switch kind {
	case enums.SubmissionMusician:
		sub, err := s.repo.FindMusician(ctx, id)
		if err != nil {
			return nil, notFound(err, "Artist not found.")
		}
		return &Submission{Kind: kind, Musician: sub}, nil
	case enums.SubmissionFilmmaker:
		sub, err := s.repo.FindFilmmaker(ctx, id)
		if err != nil {
			return nil, notFound(err, "Artist not found.")
		}
		return &Submission{Kind: kind, Filmmaker: sub}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown submission kind %q", kind))
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load submission")
}
