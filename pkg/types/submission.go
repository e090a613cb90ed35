package types

// TimeWindow is a from/to pair of free-form clock or calendar values
// (e.g. "18:00" / "22:00" or "2025-01-01" / "2025-01-31").
type TimeWindow struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// Availability is one block of time a musician is free to perform.
type Availability struct {
	Time TimeWindow `json:"time" validate:"required"`
	Date TimeWindow `json:"date" validate:"required"`
}

// DocumentItem is a single uploaded verification document.
type DocumentItem struct {
	DocumentType string `json:"document_type" validate:"required"`
	DocumentURL  string `json:"document_url" validate:"required,url"`
}
