package models

// ProviderStatus reports which upstream providers are configured
type ProviderStatus struct {
	Gemini       bool   `json:"gemini"`
	AlphaVantage bool   `json:"alpha_vantage"`
	Finnhub      bool   `json:"finnhub"`
	ElevenLabs   bool   `json:"elevenlabs"`
	YahooFinance string `json:"yahoo_finance"`
	NSEIndia     string `json:"nse_india"`
	Storage      string `json:"storage"`
}
