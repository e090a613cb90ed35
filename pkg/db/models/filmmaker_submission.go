package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FilmmakerSubmission stores the nested filmmaker form. Blocks are validated
// before insert and kept as JSON; FullName, Email and BudgetTotal are
// denormalized for listing and uniqueness.
type FilmmakerSubmission struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName        string          `gorm:"column:full_name;not null"`
	Email           string          `gorm:"column:email;not null;uniqueIndex"`
	ProjectTitle    string          `gorm:"column:project_title;not null;default:''"`
	BudgetTotal     decimal.Decimal `gorm:"column:budget_total;type:numeric(14,2);not null;default:0"`
	BasicInfo       json.RawMessage `gorm:"column:basic_info;type:jsonb;not null"`
	ProjectInfo     json.RawMessage `gorm:"column:project_info;type:jsonb;not null"`
	BudgetBreakdown json.RawMessage `gorm:"column:budget_breakdown;type:jsonb;not null"`
	PaymentTerms    json.RawMessage `gorm:"column:payment_terms;type:jsonb;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
