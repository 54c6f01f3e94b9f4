package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type PredictionRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required,uppercase"`
	Horizon string `query:"horizon" json:"horizon" validate:"omitempty,oneof=short mid long"`
}

type SeriesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,uppercase"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 3m 5m 15m 30m 1h 2h 4h 6h 12h 1d"`
}

type PatternsRequest struct {
	Category string `query:"category" json:"category" validate:"omitempty,oneof=structural harmonic elliott wyckoff volume fibonacci candlestick oscillator moving_average volatility combination"`
	Tier     string `query:"tier" json:"tier"`
	Limit    int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=1000"`
}
