package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/extraction"
)

type portfolioRequest struct {
	Holdings     json.RawMessage `json:"holdings"`
	AnalysisType string          `json:"analysis_type"`
}

type exampleHolding struct {
	Symbol   string  `json:"symbol"`
	Weight   float64 `json:"weight"`
	Invested float64 `json:"invested,omitempty"`
}

var portfolioExample = map[string][]exampleHolding{
	"holdings": {
		{Symbol: "AAPL", Weight: 0.3},
		{Symbol: "RELIANCE.NS", Weight: 0.4},
		{Symbol: "TCS.NS", Weight: 0.3},
	},
}

var clarityExample = map[string][]exampleHolding{
	"holdings": {
		{Symbol: "RELIANCE.NS", Weight: 0.25, Invested: 100000},
		{Symbol: "TCS.NS", Weight: 0.25, Invested: 100000},
	},
}

// decodeHoldings reads the holdings array of a portfolio request.
// It returns false when the field is missing, not an array, or malformed.
func decodeHoldings(req portfolioRequest) ([]models.Holding, bool) {
	if !isJSONArray(req.Holdings) {
		return nil, false
	}
	var holdings []models.Holding
	if err := json.Unmarshal(req.Holdings, &holdings); err != nil {
		return nil, false
	}
	return holdings, true
}

// handlePortfolioAnalysis handles POST /api/portfolio/analysis
func (s *Server) handlePortfolioAnalysis(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	holdings, ok := decodeHoldings(req)
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Holdings array required",
			"example": portfolioExample,
		})
		return
	}

	result, err := s.app.PortfolioService.Analyze(r.Context(), holdings, req.AnalysisType)
	if err != nil {
		s.logger.Error().Err(err).Int("holdings", len(holdings)).Msg("Portfolio analysis failed")
		WriteFailure(w, http.StatusInternalServerError, "Portfolio analysis failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleClarityAnalysis handles POST /api/portfolio/clarity-analysis
func (s *Server) handleClarityAnalysis(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	holdings, ok := decodeHoldings(req)
	if !ok || len(holdings) == 0 {
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Holdings array required",
			"message": "Upload an image first or provide holdings data",
			"example": clarityExample,
		})
		return
	}

	result, err := s.app.PortfolioService.Clarity(r.Context(), holdings)
	if err != nil {
		s.logger.Error().Err(err).Int("holdings", len(holdings)).Msg("Clarity analysis failed")
		WriteFailure(w, http.StatusInternalServerError, "Clarity analysis failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type extractionResponse struct {
	Success           bool                       `json:"success"`
	Message           string                     `json:"message"`
	PortfolioData     *models.ExtractedPortfolio `json:"portfolioData"`
	ExtractedHoldings int                        `json:"extractedHoldings"`
}

// readUpload reads one multipart file field of at most maxUploadBody bytes.
// It writes the error response itself and returns ok=false on any failure.
func readUpload(w http.ResponseWriter, r *http.Request, field string, accept func(string) bool) (data []byte, mimeType string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "File too large (max 10MB)")
			return nil, "", false
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			WriteFailure(w, http.StatusBadRequest, "Invalid upload", err)
			return nil, "", false
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "No image uploaded",
			"message": "Please upload a portfolio screenshot or statement",
		})
		return nil, "", false
	}
	defer file.Close()

	mimeType, _, _ = mime.ParseMediaType(header.Header.Get("Content-Type"))
	if !accept(mimeType) {
		WriteError(w, http.StatusBadRequest, "Unsupported file type: "+mimeType)
		return nil, "", false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		WriteFailure(w, http.StatusBadRequest, "Failed to read upload", err)
		return nil, "", false
	}
	return data, mimeType, true
}

// writeExtraction maps an extraction outcome onto the shared response shape
func (s *Server) writeExtraction(w http.ResponseWriter, portfolio *models.ExtractedPortfolio, raw, message string, err error) {
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, extractionResponse{
			Success:           true,
			Message:           message,
			PortfolioData:     portfolio,
			ExtractedHoldings: len(portfolio.Holdings),
		})
	case errors.Is(err, extraction.ErrUnparseable):
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":         "Failed to parse portfolio data from image",
			"details":       "OCR extraction was unclear. Please try a clearer image.",
			"rawExtraction": raw,
		})
	case errors.Is(err, extraction.ErrNoStatementText):
		WriteError(w, http.StatusBadRequest, "Statement contains no readable text")
	default:
		s.logger.Error().Err(err).Msg("Portfolio extraction failed")
		WriteFailure(w, http.StatusInternalServerError, "Image processing failed", err)
	}
}

// handleExtractFromImage handles POST /api/portfolio/extract-from-image
func (s *Server) handleExtractFromImage(w http.ResponseWriter, r *http.Request) {
	data, mimeType, ok := readUpload(w, r, "portfolio_image", func(m string) bool {
		return strings.HasPrefix(m, "image/")
	})
	if !ok {
		return
	}
	portfolio, raw, err := s.app.ExtractionService.FromImage(r.Context(), mimeType, data)
	s.writeExtraction(w, portfolio, raw, "Portfolio extracted from image", err)
}

// handleExtractFromStatement handles POST /api/portfolio/extract-from-statement
func (s *Server) handleExtractFromStatement(w http.ResponseWriter, r *http.Request) {
	data, _, ok := readUpload(w, r, "portfolio_pdf", func(m string) bool {
		return m == "application/pdf"
	})
	if !ok {
		return
	}
	portfolio, raw, err := s.app.ExtractionService.FromStatement(r.Context(), data)
	s.writeExtraction(w, portfolio, raw, "Portfolio extracted from statement", err)
}
