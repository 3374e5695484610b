package server

import (
	"errors"
	"net/http"

	"github.com/darshan15062002/stock-analysis/internal/services/content"
)

type contentRequest struct {
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}

// handleContentBiasCheck handles POST /api/content/bias-check
func (s *Server) handleContentBiasCheck(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.ContentService.Check(r.Context(), req.Content, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrContentRequired):
			WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   "Content required",
				"example": contentRequest{Content: "RELIANCE TO THE MOON! 🚀 Buy now or regret forever!"},
			})
		case errors.Is(err, content.ErrPageUnavailable):
			WriteFailure(w, http.StatusBadRequest, "Could not fetch content from URL", err)
		default:
			s.logger.Error().Err(err).Msg("Content bias check failed")
			WriteFailure(w, http.StatusInternalServerError, "Bias analysis failed", err)
		}
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
