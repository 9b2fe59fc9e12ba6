package models

// Requests for the prediction HTTP endpoints.

type PredictRequest struct {
	Symbol   string `param:"symbol" validate:"required,max=20"`
	Strategy string `query:"strategy" validate:"omitempty,oneof=rules model"`
}

// BarPredictRequest runs the pipeline with a caller-supplied newest bar.
type BarPredictRequest struct {
	Symbol   string  `json:"symbol" validate:"required,max=20"`
	Strategy string  `json:"strategy" validate:"omitempty,oneof=rules model"`
	Open     float64 `json:"open" validate:"gte=0"`
	High     float64 `json:"high" validate:"gte=0"`
	Low      float64 `json:"low" validate:"gte=0"`
	Close    float64 `json:"close" validate:"gt=0"`
	Volume   float64 `json:"volume" validate:"gte=0"`
}

type HistoryRequest struct {
	Symbol   string `param:"symbol" validate:"required,max=20"`
	Range    string `query:"range" default:"1mo" validate:"oneof=1d 5d 1mo 3mo 6mo 1y"`
	Interval string `query:"interval" default:"1h" validate:"oneof=5m 15m 30m 1h 1d"`
}

type SearchRequest struct {
	Query string `param:"query" validate:"required,max=64"`
}
