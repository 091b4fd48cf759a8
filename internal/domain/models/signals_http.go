package models

// Requests for HTTP endpoints. Defined in domain for consistency and reuse.

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=20"`
	Range  string `query:"range" json:"range" default:"1mo" validate:"oneof=1d 5d 1mo 3mo 6mo 1y ytd"`
}

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=20"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
