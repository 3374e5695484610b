package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/darshan15062002/stock-analysis/internal/common"
)

const (
	DefaultHomeURL      = "https://www.nseindia.com"
	DefaultInitAttempts = 3
	DefaultInitDelay    = 2 * time.Second
	DefaultInitTimeout  = 5 * time.Second
)

// Session owns the cookie-carrying HTTP client NSE requires.
// The quote API rejects requests that did not first load the homepage,
// so Init must succeed before quotes are fetched.
type Session struct {
	mu          sync.Mutex
	homeURL     string
	attempts    int
	delay       time.Duration
	timeout     time.Duration
	client      *http.Client
	initialized bool
	logger      *common.Logger
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithHomeURL sets the page loaded to obtain cookies
func WithHomeURL(homeURL string) SessionOption {
	return func(s *Session) {
		s.homeURL = homeURL
	}
}

// WithInitRetry sets the bootstrap attempt count and the constant delay between attempts
func WithInitRetry(attempts int, delay time.Duration) SessionOption {
	return func(s *Session) {
		if attempts > 0 {
			s.attempts = attempts
		}
		s.delay = delay
	}
}

// WithSessionLogger sets the logger
func WithSessionLogger(logger *common.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an uninitialized session
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		homeURL:  DefaultHomeURL,
		attempts: DefaultInitAttempts,
		delay:    DefaultInitDelay,
		timeout:  DefaultInitTimeout,
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.client = newCookieClient()
	return s
}

func newCookieClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Jar: jar}
}

// Client returns the HTTP client carrying the session cookies
func (s *Session) Client() *http.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// Initialized reports whether the homepage bootstrap has succeeded
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Reset drops the cookies and marks the session uninitialized
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = newCookieClient()
	s.initialized = false
	s.logger.Info().Msg("NSE session reset")
}

// EnsureInitialized runs Init unless the session is already initialized
func (s *Session) EnsureInitialized(ctx context.Context) error {
	if s.Initialized() {
		return nil
	}
	return s.Init(ctx)
}

// Init loads the homepage to obtain session cookies, retrying with a constant delay.
// Concurrent callers are serialized and a caller that waited on a successful
// Init returns immediately.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	attempt := 0
	operation := func() error {
		attempt++
		s.logger.Debug().Int("attempt", attempt).Str("url", s.homeURL).Msg("Initializing NSE session")
		if err := s.loadHome(ctx); err != nil {
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("NSE session attempt failed")
			return err
		}
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.delay), uint64(s.attempts-1)),
		ctx,
	)
	start := time.Now()
	if err := backoff.Retry(operation, b); err != nil {
		s.logger.Error().Err(err).Int("attempts", attempt).Dur("elapsed", time.Since(start)).Msg("NSE session initialization failed")
		return fmt.Errorf("nse session init failed after %d attempts: %w", attempt, err)
	}

	s.initialized = true
	s.logger.Info().Int("attempts", attempt).Dur("elapsed", time.Since(start)).Msg("NSE session initialized")
	return nil
}

// loadHome must be called with mu held
func (s *Session) loadHome(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.homeURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	setBrowserHeaders(req)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("homepage returned status %d", resp.StatusCode)
	}
	return nil
}
