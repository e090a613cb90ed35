package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// CreateInput is an artist's payment request. Amount and status are set by
// admins and are not accepted here.
type CreateInput struct {
	GigID  string `json:"gig_id" validate:"required,uuid"`
	Method string `json:"method" validate:"required"`
	Note   string `json:"note" validate:"max=2000"`
}

type PaymentView struct {
	ID            uuid.UUID           `json:"id"`
	ArtistID      uuid.UUID           `json:"artist"`
	GigID         uuid.UUID           `json:"gig"`
	ApplicationID uuid.UUID           `json:"application"`
	Amount        decimal.Decimal     `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	Note          string              `json:"note"`
	CreatedAt     time.Time           `json:"created_at"`
}

func NewView(p *models.Payment) PaymentView {
	return PaymentView{
		ID:            p.ID,
		ArtistID:      p.ArtistID,
		GigID:         p.GigID,
		ApplicationID: p.ApplicationID,
		Amount:        p.Amount,
		Method:        p.Method,
		Status:        p.Status,
		Note:          p.Note,
		CreatedAt:     p.CreatedAt,
	}
}
