package server

import (
	"errors"
	"net/http"

	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/subscription"
)

type subscribeRequest struct {
	Email           string                       `json:"email"`
	Frequency       string                       `json:"frequency"`
	Name            string                       `json:"name"`
	Portfolio       models.SubscriptionPortfolio `json:"portfolio"`
	UserPreferences map[string]interface{}       `json:"user_preferences"`
}

type subscribeResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	SubscriptionID string `json:"subscription_id"`
	Action         string `json:"action"`
}

// handleSubscribe handles POST /api/user/subscribe
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	id, created, err := s.app.SubscriptionService.Subscribe(r.Context(), &models.Subscription{
		Email:           req.Email,
		Frequency:       req.Frequency,
		Name:            req.Name,
		Portfolio:       req.Portfolio,
		UserPreferences: req.UserPreferences,
	})
	if err != nil {
		if subscription.IsValidationError(err) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Subscription failed")
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"message": "Failed to process subscription",
		})
		return
	}

	resp := subscribeResponse{Success: true, SubscriptionID: id}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		resp.Message = "Subscription created successfully"
		resp.Action = "created"
	} else {
		resp.Message = "Subscription updated successfully"
		resp.Action = "updated"
	}
	WriteJSON(w, status, resp)
}

// handleGetSubscription handles GET /api/user/subscription/{email}
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.app.SubscriptionService.Get(r.Context(), r.PathValue("email"))
	if err != nil {
		if errors.Is(err, models.ErrSubscriptionNotFound) {
			WriteError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		s.logger.Error().Err(err).Msg("Subscription lookup failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"subscription": sub.View(),
	})
}

// handleDailySubscribers handles GET /api/subscribers/daily
func (s *Server) handleDailySubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := s.app.SubscriptionService.ListDaily(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Daily subscriber listing failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if subs == nil {
		subs = []*models.Subscription{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"count":       len(subs),
		"subscribers": subs,
	})
}

// handleUnsubscribe handles GET /api/user/unsubscribe?token=
func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusBadRequest, "Unsubscribe token required")
		return
	}

	email, err := s.app.SubscriptionService.Unsubscribe(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidToken), errors.Is(err, subscription.ErrTokensDisabled):
			WriteError(w, http.StatusBadRequest, "Invalid or expired unsubscribe link")
		case errors.Is(err, models.ErrSubscriptionNotFound):
			WriteError(w, http.StatusNotFound, "Subscription not found")
		default:
			s.logger.Error().Err(err).Msg("Unsubscribe failed")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "You have been unsubscribed",
		"email":   email,
	})
}
