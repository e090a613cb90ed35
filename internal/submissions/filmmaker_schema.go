package submissions

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/article39/artist-platform-backend/pkg/schema"
)

var emailCheck = validator.New()

func email() schema.Rule {
	return schema.RuleFunc(func(path string, value any) error {
		s, ok := value.(string)
		if !ok || emailCheck.Var(strings.TrimSpace(s), "required,email") != nil {
			return &schema.Violation{Path: path, Message: "Enter a valid email address."}
		}
		return nil
	})
}

func text(names ...string) []schema.Field {
	out := make([]schema.Field, 0, len(names))
	for _, n := range names {
		out = append(out, schema.Required(n, schema.Text()))
	}
	return out
}

func optionalText(names ...string) []schema.Field {
	out := make([]schema.Field, 0, len(names))
	for _, n := range names {
		out = append(out, schema.Optional(n, schema.String()))
	}
	return out
}

var basicInfoRule = schema.Extend(
	text("full_name_en", "phone", "address", "nationality"),
	[]schema.Field{schema.Required("email", email())},
	optionalText("full_name_bn", "portfolio_link"),
)

var projectInfoRule = schema.Extend(
	text("title", "logline", "synopsis", "genre", "format", "language", "shooting_location"),
	schema.NumberFields("duration_minutes"),
	optionalText("target_audience"),
)

var castMemberRule = schema.Extend(
	text("name", "role"),
	[]schema.Field{
		schema.Required("phone", schema.String()),
		schema.Required("photo", schema.String()),
	},
	schema.NumberFields("rate", "num_of_days", "total_cost"),
)

var cameraRule = schema.Extend(
	text("name", "type"),
	schema.NumberFields("rate"),
)

var budgetBreakdownRule = schema.Object(
	schema.Required("pre_production", schema.Numbers("script_writing", "storyboarding_concept_art", "location_scouting", "administrative")),
	schema.Required("equipment_and_technical", schema.Extend(
		schema.NumberFields("lighting_equipment", "sound_recording_equipment", "others", "camera_subtotal"),
		[]schema.Field{schema.Required("cameras", schema.List(cameraRule))},
	)),
	schema.Required("talent_and_crews", schema.Extend(
		[]schema.Field{
			schema.Required("artists", schema.List(castMemberRule)),
			schema.Required("crews", schema.List(castMemberRule)),
		},
		schema.NumberFields("artist_subtotal_cost", "crew_subtotal", "overall_crew_subtotal"),
	)),
	schema.Required("location_and_sets", schema.Numbers("location_rent", "set_construct", "production_design")),
	schema.Required("transportation_and_logistics", schema.Numbers("vehicle_rent", "fuel", "driver_fee")),
	schema.Required("wardrobe_and_costumes", schema.Numbers("costume_purchase", "styling")),
	schema.Required("catering", schema.Numbers("num_of_days", "per_day", "subtotal")),
	schema.Required("snacks_craft_services", schema.Numbers("fee")),
	schema.Required("post_production", schema.Numbers("editing", "color_grading", "sound_design", "music", "additional")),
	schema.Required("contingency_misc", schema.Numbers("contingency_fund", "insurance")),
)

var paymentTermsRule = schema.Extend(
	text("payment_method", "account_name", "account_number", "payment_schedule"),
)

var documentItemRule = schema.Extend(text("document_type", "document_url"))

// filmmakerRule validates a whole filmmaker form document.
var filmmakerRule = schema.Object(
	schema.Required("basic_info", basicInfoRule),
	schema.Required("project_info", projectInfoRule),
	schema.Required("budget_breakdown", budgetBreakdownRule),
	schema.Required("payment_terms", paymentTermsRule),
	schema.Optional("documents", schema.List(documentItemRule)),
)

// leaf sections summed into the budget total
var budgetSections = map[string][]string{
	"pre_production":               {"script_writing", "storyboarding_concept_art", "location_scouting", "administrative"},
	"equipment_and_technical":      {"lighting_equipment", "sound_recording_equipment", "others", "camera_subtotal"},
	"location_and_sets":            {"location_rent", "set_construct", "production_design"},
	"transportation_and_logistics": {"vehicle_rent", "fuel", "driver_fee"},
	"wardrobe_and_costumes":        {"costume_purchase", "styling"},
	"post_production":              {"editing", "color_grading", "sound_design", "music", "additional"},
	"contingency_misc":             {"contingency_fund", "insurance"},
	"talent_and_crews":             {"overall_crew_subtotal"},
	"catering":                     {"subtotal"},
	"snacks_craft_services":        {"fee"},
}

// BudgetTotal sums the per-section figures of a validated budget breakdown.
func BudgetTotal(breakdown any) decimal.Decimal {
	total := decimal.Zero
	for section, keys := range budgetSections {
		for _, key := range keys {
			value, ok := schema.Lookup(breakdown, section+"."+key)
			if !ok {
				continue
			}
			if d, ok := schema.AsDecimal(value); ok {
				total = total.Add(d)
			}
		}
	}
	return total
}
