package models

// StateRequest selects the symbol whose snapshot is returned.
type StateRequest struct {
	Symbol string `query:"symbol" validate:"required,symbol"`
}

// BarsRequest queries stored bars. From and To accept RFC3339 or unix time.
type BarsRequest struct {
	Symbol string `query:"symbol" validate:"required,symbol"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"500" validate:"gte=1,lte=10000"`
}

// Health is the body of the health endpoint.
type Health struct {
	Status        string `json:"status"`
	FeedConnected bool   `json:"feed_connected"`
	Journal       string `json:"journal"`
}
