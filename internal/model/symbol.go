package model

// SymbolInfo is one row of the exchange's equity listing.
type SymbolInfo struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Series      string `json:"series,omitempty"`
	ISIN        string `json:"isin,omitempty"`
}

// MarketStatus reports whether the exchange is currently trading.
type MarketStatus struct {
	IsOpen      bool   `json:"is_open"`
	IsWeekend   bool   `json:"is_weekend"`
	CurrentTime string `json:"current_time"`
	CurrentDay  string `json:"current_day"`
	Message     string `json:"message"`
}
