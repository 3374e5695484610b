package server

import (
	"net"
	"net/http"
	"net/netip"
	"time"
)

// handleShutdown handles POST /api/shutdown. It is only registered when
// server.enable_shutdown is set, never in production, and only answers loopback callers.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}
	if !isLoopback(r.RemoteAddr) {
		s.logger.Warn().Str("remote", r.RemoteAddr).Msg("Rejected non-local shutdown request")
		WriteError(w, http.StatusForbidden, "Shutdown is only accepted from localhost")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && addr.Unmap().IsLoopback()
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	if s.app.Config.Server.EnableShutdown {
		mux.HandleFunc("POST /api/shutdown", s.handleShutdown)
	}

	// Stocks
	mux.HandleFunc("GET /api/stock/{symbol}/analysis", s.handleStockAnalysis)
	mux.HandleFunc("GET /api/market/sentiment/{symbol}", s.handleSentiment)
	mux.HandleFunc("GET /api/bias-check/{symbol}", s.handleBiasCheck)
	mux.HandleFunc("GET /api/compare/{usSymbol}/{indianSymbol}", s.handleCompare)
	mux.HandleFunc("POST /api/stock-story", s.handleStockStory)
	mux.Handle("GET /api/audio/", s.audioHandler())

	// Portfolios
	mux.HandleFunc("POST /api/portfolio/analysis", s.handlePortfolioAnalysis)
	mux.HandleFunc("POST /api/portfolio/clarity-analysis", s.handleClarityAnalysis)
	mux.HandleFunc("POST /api/portfolio/extract-from-image", s.handleExtractFromImage)
	mux.HandleFunc("POST /api/portfolio/extract-from-statement", s.handleExtractFromStatement)

	// Content
	mux.HandleFunc("POST /api/content/bias-check", s.handleContentBiasCheck)

	// Subscriptions
	mux.HandleFunc("POST /api/user/subscribe", s.handleSubscribe)
	mux.HandleFunc("GET /api/user/subscription/{email}", s.handleGetSubscription)
	mux.HandleFunc("GET /api/user/unsubscribe", s.handleUnsubscribe)
	mux.HandleFunc("GET /api/subscribers/daily", s.handleDailySubscribers)

	if s.app.Config.Digest.AdminTrigger {
		mux.HandleFunc("POST /api/admin/digest/run", s.handleDigestRun)
	}
}
