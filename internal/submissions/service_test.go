package submissions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/dbtest"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/pagination"
	"github.com/article39/artist-platform-backend/pkg/schema"
	"github.com/article39/artist-platform-backend/pkg/types"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn))
	require.NoError(t, err)
	return svc
}

func validMusician(email string) MusicianInput {
	return MusicianInput{
		FullNameEnglish:        "Rahim Uddin",
		PrimaryGenre:           "rock",
		Email:                  email,
		MobileNumber:           "+8801700000000",
		PerformanceLanguages:   []string{"Bangla"},
		AgreeTerms:             true,
		PreferredPaymentMethod: "bank_transfer",
		AvailableTimelines: []types.Availability{{
			Time: types.TimeWindow{From: "18:00", To: "22:00"},
			Date: types.TimeWindow{From: "2025-01-01", To: "2025-01-31"},
		}},
		Documents: []types.DocumentItem{{DocumentType: "nid", DocumentURL: "https://files.example.com/nid.png"}},
	}
}

const filmmakerJSON = `{
  "basic_info": {"full_name_en": "Karim Ahmed", "email": "Karim@Example.com", "phone": "+8801800000000", "address": "Dhaka", "nationality": "Bangladeshi"},
  "project_info": {"title": "River", "logline": "l", "synopsis": "s", "genre": "Drama", "format": "Short", "duration_minutes": 20, "language": "Bangla", "shooting_location": "Sylhet"},
  "budget_breakdown": {
    "pre_production": {"script_writing": 100, "storyboarding_concept_art": 50, "location_scouting": 25, "administrative": 25},
    "equipment_and_technical": {"lighting_equipment": 10, "sound_recording_equipment": 10, "others": 0, "cameras": [{"name": "A", "type": "cinema", "rate": 30}], "camera_subtotal": 30},
    "talent_and_crews": {"artists": [], "crews": [{"name": "B", "phone": "+8801700000000", "photo": "https://files.example.com/b.png", "role": "gaffer", "rate": 5, "num_of_days": 2, "total_cost": 10}], "artist_subtotal_cost": 0, "crew_subtotal": 10, "overall_crew_subtotal": 10},
    "location_and_sets": {"location_rent": 1, "set_construct": 1, "production_design": 1},
    "transportation_and_logistics": {"vehicle_rent": 1, "fuel": 1, "driver_fee": 1},
    "wardrobe_and_costumes": {"costume_purchase": 1, "styling": 1},
    "catering": {"num_of_days": 2, "per_day": 5, "subtotal": 10},
    "snacks_craft_services": {"fee": 0.10},
    "post_production": {"editing": 1, "color_grading": 1, "sound_design": 1, "music": 1, "additional": 1},
    "contingency_misc": {"contingency_fund": 1, "insurance": 1}
  },
  "payment_terms": {"payment_method": "bank", "account_name": "Karim", "account_number": "123", "payment_schedule": "50/50"},
  "documents": [{"document_type": "nid", "document_url": "https://files.example.com/k.png"}]
}`

func TestCreateMusician(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	view, err := svc.CreateMusician(ctx, validMusician(" Rahim@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, enums.GenreRock, view.PrimaryGenre)
	require.NotNil(t, view.Email)
	assert.Equal(t, "rahim@example.com", *view.Email)
	require.NotNil(t, view.PreferredPaymentMethod)
	assert.Equal(t, enums.PaymentMethodBankTransfer, *view.PreferredPaymentMethod)

	got, err := svc.GetMusician(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", got.FullNameEnglish)
	assert.Equal(t, []string{"Bangla"}, got.PerformanceLanguages)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "nid", got.Documents[0].DocumentType)
}

func TestCreateMusician_DuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateMusician(ctx, validMusician("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.CreateMusician(ctx, validMusician("DUP@example.com"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "(email) artist with this email already exists.", typed.Message())
}

func TestCreateMusician_DomainValidation(t *testing.T) {
	svc := newTestService(t)

	in := validMusician("")
	in.PrimaryGenre = "Metal"
	in.AgreeTerms = false
	in.AvailableTimelines[0].Date = types.TimeWindow{From: "2025-02-01", To: "2025-01-01"}

	_, err := svc.CreateMusician(context.Background(), in)
	require.Error(t, err)
	msg := pkgerrors.As(err).Message()
	assert.Contains(t, msg, "(email) This field is required.")
	assert.Contains(t, msg, `(primary_genre) "Metal" is not a valid choice.`)
	assert.Contains(t, msg, "(agree_terms)")
	assert.Contains(t, msg, "(available_timelines.0.date)")
}

func TestCreateFilmmaker(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := schema.Decode([]byte(filmmakerJSON))
	require.NoError(t, err)

	view, err := svc.CreateFilmmaker(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "285.10", view.BudgetTotal)
	require.Len(t, view.Documents, 1)

	sub, err := svc.Resolve(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionFilmmaker, sub.Kind)
	assert.Equal(t, "karim@example.com", sub.ContactEmail())
	assert.Equal(t, "Karim Ahmed", sub.FullName())
	assert.Equal(t, "River", sub.Filmmaker.ProjectTitle)

	again, err := schema.Decode([]byte(filmmakerJSON))
	require.NoError(t, err)
	_, err = svc.CreateFilmmaker(ctx, again)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "basic_info.email")
}

func TestCreateFilmmaker_AggregatesBudgetErrors(t *testing.T) {
	svc := newTestService(t)

	doc, err := schema.Decode([]byte(filmmakerJSON))
	require.NoError(t, err)
	bb := doc.(map[string]any)["budget_breakdown"].(map[string]any)
	bb["catering"].(map[string]any)["per_day"] = "five"
	delete(bb["contingency_misc"].(map[string]any), "insurance")
	bb["equipment_and_technical"].(map[string]any)["cameras"].([]any)[0].(map[string]any)["rate"] = "x"

	_, err = svc.CreateFilmmaker(context.Background(), doc)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t,
		"(budget_breakdown.catering.per_day) must be a number\n"+
			"(budget_breakdown.contingency_misc.insurance) This field is required.\n"+
			"(budget_breakdown.equipment_and_technical.cameras.0.rate) must be a number",
		typed.Message())
}

func TestCreateFilmmaker_CastMemberNeedsPhoneAndPhoto(t *testing.T) {
	svc := newTestService(t)

	doc, err := schema.Decode([]byte(filmmakerJSON))
	require.NoError(t, err)
	crew := doc.(map[string]any)["budget_breakdown"].(map[string]any)["talent_and_crews"].(map[string]any)["crews"].([]any)[0].(map[string]any)
	delete(crew, "phone")
	delete(crew, "photo")

	_, err = svc.CreateFilmmaker(context.Background(), doc)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "(budget_breakdown.talent_and_crews.crews.0.phone) This field is required.")
	assert.Contains(t, typed.Message(), "(budget_breakdown.talent_and_crews.crews.0.photo) This field is required.")
}

func TestResolve(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	view, err := svc.CreateMusician(ctx, validMusician("m@example.com"))
	require.NoError(t, err)

	sub, err := svc.Resolve(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionMusician, sub.Kind)
	assert.Equal(t, view.ID, sub.ID())
	assert.Equal(t, "m@example.com", sub.ContactEmail())
	assert.Nil(t, sub.Filmmaker)

	_, err = svc.Resolve(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListMusicians(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.CreateMusician(ctx, validMusician(email))
		require.NoError(t, err)
	}

	rows, total, err := svc.ListMusicians(ctx, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 1)

	_, _, err = svc.ListMusicians(ctx, pagination.Params{Page: 3, Limit: 2})
	require.Error(t, err)
	assert.Equal(t, "Invalid page.", pkgerrors.As(err).Message())

	filmmakerRows, total, err := svc.ListFilmmakers(ctx, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, filmmakerRows)
}
