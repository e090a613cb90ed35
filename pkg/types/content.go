package types

import "time"

// DateRange is a booking window for a show; StartDate must precede EndDate.
type DateRange struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// Valid reports whether the range is ordered.
func (d DateRange) Valid() bool {
	return d.StartDate.Before(d.EndDate)
}
