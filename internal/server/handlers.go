package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/digest"
)

type sampleSymbols struct {
	US     []string `json:"us"`
	Indian []string `json:"indian"`
}

type featureFlags struct {
	ClarityAnalysis   bool `json:"clarity_analysis"`
	BiasDetection     bool `json:"bias_detection"`
	VoiceExplanations bool `json:"voice_explanations"`
	TruthBombs        bool `json:"truth_bombs"`
}

type healthResponse struct {
	Status           string                `json:"status"`
	Timestamp        time.Time             `json:"timestamp"`
	Version          string                `json:"version"`
	MarketsSupported []models.Market       `json:"markets_supported"`
	Services         models.ProviderStatus `json:"services"`
	SampleSymbols    sampleSymbols         `json:"sample_symbols"`
	Features         featureFlags          `json:"features"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{
		Status:           "healthy",
		Timestamp:        time.Now().UTC(),
		Version:          common.GetVersion(),
		MarketsSupported: []models.Market{models.MarketUS, models.MarketIndian},
		Services:         s.app.Providers,
		SampleSymbols: sampleSymbols{
			US:     []string{"AAPL", "GOOGL", "TSLA"},
			Indian: []string{"RELIANCE.NS", "TCS.NS", "INFY.NS"},
		},
		Features: featureFlags{
			ClarityAnalysis:   true,
			BiasDetection:     true,
			VoiceExplanations: s.app.Providers.ElevenLabs,
			TruthBombs:        true,
		},
	})
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// handleDigestRun handles POST /api/admin/digest/run
func (s *Server) handleDigestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.app.DigestService.Run(r.Context())
	if err != nil {
		if errors.Is(err, digest.ErrMailerNotConfigured) {
			WriteError(w, http.StatusServiceUnavailable, "Email delivery is not configured")
			return
		}
		s.logger.Error().Err(err).Msg("Digest run failed")
		WriteFailure(w, http.StatusInternalServerError, "Digest run failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"run":     run,
	})
}
