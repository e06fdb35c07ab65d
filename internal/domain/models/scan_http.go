package models

// Requests for scan HTTP endpoints. Defined in domain for consistency and reuse.

type ScanRequest struct {
	Universe []string `json:"universe" validate:"omitempty,max=10000"`
	TopN     int      `json:"top_n" default:"50" validate:"gte=1,lte=500"`
	At       string   `json:"at" validate:"omitempty"` // RFC3339 session time override, defaults to now
}

type ResultsRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
