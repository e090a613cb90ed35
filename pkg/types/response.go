package types

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// PageMeta is embedded in paginated list payloads.
type PageMeta struct {
	Total      int64 `json:"total"`
	PerPage    int   `json:"perPage"`
	Page       int   `json:"page"`
	TotalPage  int   `json:"totalPage"`
	IsLastPage bool  `json:"isLastPage"`
}
