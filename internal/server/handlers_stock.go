package server

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/chart"
	"github.com/darshan15062002/stock-analysis/internal/services/story"
)

// noDataResponse is the 404 body for symbols no source could quote
type noDataResponse struct {
	Error      string        `json:"error"`
	Symbol     string        `json:"symbol"`
	Market     models.Market `json:"market"`
	Suggestion string        `json:"suggestion"`
}

// writeNoData writes the 404 envelope when err is a *models.NoDataError
func writeNoData(w http.ResponseWriter, err error) bool {
	var nd *models.NoDataError
	if !errors.As(err, &nd) {
		return false
	}
	suggestion := "Verify symbol format"
	if nd.Market == models.MarketIndian {
		suggestion = "Try with .NS suffix (e.g., RELIANCE.NS)"
	}
	WriteJSON(w, http.StatusNotFound, noDataResponse{
		Error:      "No data available for this symbol",
		Symbol:     nd.Symbol,
		Market:     nd.Market,
		Suggestion: suggestion,
	})
	return true
}

// handleStockAnalysis handles GET /api/stock/{symbol}/analysis
func (s *Server) handleStockAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	analysisType := r.URL.Query().Get("analysis_type")
	if analysisType == "" {
		analysisType = "comprehensive"
	}

	result, err := s.app.StockService.Analyze(r.Context(), symbol, analysisType)
	if err != nil {
		if writeNoData(w, err) {
			return
		}
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Stock analysis failed")
		WriteFailure(w, http.StatusInternalServerError, "Analysis failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleSentiment handles GET /api/market/sentiment/{symbol}
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	result, err := s.app.SentimentService.Analyze(r.Context(), symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Sentiment analysis failed")
		WriteFailure(w, http.StatusInternalServerError, "Sentiment analysis failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleBiasCheck handles GET /api/bias-check/{symbol}.
// format=png renders the per-source prices instead of the JSON report.
func (s *Server) handleBiasCheck(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	asPNG := strings.EqualFold(r.URL.Query().Get("format"), "png")

	report, err := s.app.StockService.BiasCheck(r.Context(), symbol, !asPNG)
	if err != nil {
		if writeNoData(w, err) {
			return
		}
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Bias check failed")
		WriteFailure(w, http.StatusInternalServerError, "Bias analysis failed", err)
		return
	}
	if !asPNG {
		WriteJSON(w, http.StatusOK, report)
		return
	}

	png, err := s.app.ChartService.BiasChart(report)
	if err != nil {
		if errors.Is(err, chart.ErrNoPrices) {
			WriteError(w, http.StatusNotFound, "No data available for this symbol")
			return
		}
		WriteFailure(w, http.StatusInternalServerError, "Chart rendering failed", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleCompare handles GET /api/compare/{usSymbol}/{indianSymbol}
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	usSymbol := r.PathValue("usSymbol")
	indianSymbol := r.PathValue("indianSymbol")

	result, err := s.app.StockService.Compare(r.Context(), usSymbol, indianSymbol)
	if err != nil {
		s.logger.Error().Err(err).Str("us", usSymbol).Str("indian", indianSymbol).Msg("Comparison failed")
		WriteFailure(w, http.StatusInternalServerError, "Comparison failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type storyRequest struct {
	Symbol string `json:"symbol"`
	Style  string `json:"style"`
}

// handleStockStory handles POST /api/stock-story
func (s *Server) handleStockStory(w http.ResponseWriter, r *http.Request) {
	var req storyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.StoryService.Tell(r.Context(), req.Symbol, req.Style)
	if err != nil {
		var nd *models.NoDataError
		switch {
		case errors.Is(err, story.ErrSymbolRequired):
			WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   "Stock symbol required",
				"example": storyRequest{Symbol: "AAPL", Style: "movie"},
			})
		case errors.As(err, &nd):
			WriteJSON(w, http.StatusNotFound, map[string]string{
				"error":  "Stock not found",
				"symbol": nd.Symbol,
			})
		default:
			s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("Story generation failed")
			WriteFailure(w, http.StatusInternalServerError, "Story generation failed", err)
		}
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// audioHandler serves generated story audio from the configured directory.
// Directory listings are refused.
func (s *Server) audioHandler() http.Handler {
	dir := s.app.Config.Server.AudioDir
	files := http.StripPrefix("/api/audio/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/audio/" || strings.HasSuffix(r.URL.Path, "/") {
			WriteError(w, http.StatusNotFound, "Audio file not found")
			return
		}
		if _, err := os.Stat(dir); err != nil {
			WriteError(w, http.StatusNotFound, "Audio file not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}
