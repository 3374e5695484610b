// Package app wires configuration, clients, storage and services into one App
// shared by the HTTP server binary.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/clients/alphavantage"
	"github.com/darshan15062002/stock-analysis/internal/clients/claude"
	"github.com/darshan15062002/stock-analysis/internal/clients/elevenlabs"
	"github.com/darshan15062002/stock-analysis/internal/clients/finnhub"
	"github.com/darshan15062002/stock-analysis/internal/clients/gemini"
	"github.com/darshan15062002/stock-analysis/internal/clients/googlenews"
	"github.com/darshan15062002/stock-analysis/internal/clients/mailer"
	"github.com/darshan15062002/stock-analysis/internal/clients/nse"
	"github.com/darshan15062002/stock-analysis/internal/clients/webpage"
	"github.com/darshan15062002/stock-analysis/internal/clients/yahoo"
	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/aggregate"
	"github.com/darshan15062002/stock-analysis/internal/services/chart"
	"github.com/darshan15062002/stock-analysis/internal/services/content"
	"github.com/darshan15062002/stock-analysis/internal/services/digest"
	"github.com/darshan15062002/stock-analysis/internal/services/extraction"
	"github.com/darshan15062002/stock-analysis/internal/services/market"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
	"github.com/darshan15062002/stock-analysis/internal/services/portfolio"
	"github.com/darshan15062002/stock-analysis/internal/services/sentiment"
	"github.com/darshan15062002/stock-analysis/internal/services/stock"
	"github.com/darshan15062002/stock-analysis/internal/services/story"
	"github.com/darshan15062002/stock-analysis/internal/services/subscription"
	"github.com/darshan15062002/stock-analysis/internal/storage"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config              *common.Config
	Logger              *common.Logger
	Store               interfaces.SubscriptionStore
	Cache               interfaces.QuoteCache
	StockService        interfaces.StockService
	PortfolioService    interfaces.PortfolioService
	SentimentService    interfaces.SentimentService
	ContentService      interfaces.ContentService
	StoryService        interfaces.StoryService
	ExtractionService   interfaces.ExtractionService
	ChartService        interfaces.ChartService
	SubscriptionService interfaces.SubscriptionService
	DigestService       interfaces.DigestService
	Providers           models.ProviderStatus
	StartupTime         time.Time

	scheduler   *digest.Scheduler
	purgeCancel context.CancelFunc
	purgeDone   chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, CLEARSTOCK_CONFIG,
// clearstock.toml beside the binary, then config/clearstock.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("CLEARSTOCK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "clearstock.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/clearstock.toml"
		}
	}
	return configPath
}

// NewApp loads configuration from configPath and initializes everything.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(ctx, config)
}

// NewAppWithConfig initializes storage, clients and services from config.
func NewAppWithConfig(ctx context.Context, config *common.Config) (*App, error) {
	startupStart := time.Now()
	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := storage.NewSubscriptionStore(ctx, config.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize subscription storage: %w", err)
	}

	cache, err := storage.NewQuoteCache(config.Cache, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	narrator, err := newNarrator(ctx, config, logger)
	if err != nil {
		store.Close()
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}
	if !narrator.Configured() {
		logger.Warn().Msg("No narrative provider configured - AI analysis endpoints will fail")
	}

	detector := market.NewDetector(config.Market.DefaultMarket)
	aggregator := newAggregator(config, detector, cache, logger)

	var speech interfaces.SpeechSynthesizer
	if el := config.Clients.ElevenLabs; el.APIKey != "" {
		speech = elevenlabs.NewClient(el.APIKey,
			elevenlabs.WithBaseURL(el.BaseURL),
			elevenlabs.WithVoice(el.VoiceID, el.Stability, el.SimilarityBoost),
			elevenlabs.WithTimeout(el.GetTimeout()),
			elevenlabs.WithLogger(logger),
		)
	} else {
		logger.Warn().Msg("ElevenLabs API key not configured - stories will have no audio")
	}

	usNews := finnhub.NewClient(config.Clients.Finnhub.APIKey,
		finnhub.WithBaseURL(config.Clients.Finnhub.BaseURL),
		finnhub.WithRateLimit(config.Clients.Finnhub.RateLimit),
		finnhub.WithTimeout(config.Clients.Finnhub.GetTimeout()),
		finnhub.WithLogger(logger),
	)
	indianNews := googlenews.NewClient(
		googlenews.WithBaseURL(config.Clients.GoogleNews.BaseURL),
		googlenews.WithRateLimit(config.Clients.GoogleNews.RateLimit),
		googlenews.WithTimeout(config.Clients.GoogleNews.GetTimeout()),
		googlenews.WithLogger(logger),
	)
	pages := webpage.NewClient(webpage.WithLogger(logger))

	charts := chart.NewService()
	portfolioService := portfolio.NewService(detector, aggregator, narrator, config.Market.GetHoldingDelay(), logger)
	subscriptionService := subscription.NewService(store, config.Digest.TokenSecret, config.Digest.GetTokenExpiry(), logger)
	mail := mailer.NewClient(config.Digest.SMTP, logger)

	a := &App{
		Config:              config,
		Logger:              logger,
		Store:               store,
		Cache:               cache,
		StockService:        stock.NewService(detector, aggregator, narrator, logger),
		PortfolioService:    portfolioService,
		SentimentService:    sentiment.NewService(detector, usNews, indianNews, narrator, logger),
		ContentService:      content.NewService(aggregator, pages, narrator, logger),
		StoryService:        story.NewService(detector, aggregator, narrator, speech, config.Server.AudioDir, logger),
		ExtractionService:   extraction.NewService(narrator, logger),
		ChartService:        charts,
		SubscriptionService: subscriptionService,
		DigestService:       digest.NewService(subscriptionService, portfolioService, charts, mail, config.Digest.PublicURL, logger),
		Providers:           providerStatus(config),
		StartupTime:         startupStart,
	}

	if config.Digest.Enabled {
		if mail.IsConfigured() {
			a.scheduler = digest.NewScheduler(a.DigestService, config.Digest.Schedule, logger)
		} else {
			logger.Warn().Msg("Digest enabled but SMTP is not configured - scheduler disabled")
		}
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// newNarrator builds the narrative fallback chain with the configured provider first.
// Gemini handles image input whenever it is configured.
func newNarrator(ctx context.Context, config *common.Config, logger *common.Logger) (*narrative.Service, error) {
	var generators []interfaces.NarrativeGenerator
	var vision interfaces.NarrativeGenerator

	if g := config.Clients.Gemini; g.APIKey != "" {
		client, err := gemini.NewClient(ctx, g.APIKey,
			gemini.WithModel(g.Model),
			gemini.WithVisionModel(g.VisionModel),
			gemini.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		generators = append(generators, client)
		vision = client
	} else {
		logger.Warn().Msg("Gemini API key not configured")
	}

	if c := config.Clients.Claude; c.APIKey != "" {
		generators = append(generators, claude.NewClient(c.APIKey, nil,
			claude.WithModel(c.Model),
			claude.WithMaxTokens(c.MaxTokens),
			claude.WithLogger(logger),
		))
	}

	return narrative.NewService(logger, vision, narrative.Order(config.Clients.Narrative.Provider, generators...)...), nil
}

// newAggregator binds the quote sources of each market in declaration order
func newAggregator(config *common.Config, detector interfaces.MarketDetector, cache interfaces.QuoteCache, logger *common.Logger) *aggregate.Service {
	cc := config.Clients

	avOpts := []alphavantage.ClientOption{
		alphavantage.WithBaseURL(cc.AlphaVantage.BaseURL),
		alphavantage.WithRateLimit(cc.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(cc.AlphaVantage.GetTimeout()),
		alphavantage.WithLogger(logger),
	}

	us := []aggregate.Binding{
		{Source: alphavantage.NewClient(cc.AlphaVantage.APIKey, avOpts...)},
		{Source: finnhub.NewClient(cc.Finnhub.APIKey,
			finnhub.WithBaseURL(cc.Finnhub.BaseURL),
			finnhub.WithRateLimit(cc.Finnhub.RateLimit),
			finnhub.WithTimeout(cc.Finnhub.GetTimeout()),
			finnhub.WithLogger(logger),
		)},
	}

	session := nse.NewSession(
		nse.WithHomeURL(cc.NSE.HomeURL),
		nse.WithInitRetry(cc.NSE.InitAttempts, cc.NSE.GetInitDelay()),
		nse.WithSessionLogger(logger),
	)
	indian := []aggregate.Binding{
		{Source: yahoo.NewClient(
			yahoo.WithBaseURL(cc.Yahoo.BaseURL),
			yahoo.WithRateLimit(cc.Yahoo.RateLimit),
			yahoo.WithTimeout(cc.Yahoo.GetTimeout()),
			yahoo.WithLogger(logger),
		)},
		{Source: nse.NewClient(session,
			nse.WithBaseURL(cc.NSE.BaseURL),
			nse.WithTimeout(cc.NSE.GetTimeout()),
			nse.WithLogger(logger),
		), Base: true},
	}
	if config.Market.IndianTertiary && cc.AlphaVantage.APIKey != "" {
		indian = append(indian, aggregate.Binding{Source: alphavantage.NewIndiaClient(cc.AlphaVantage.APIKey, avOpts...)})
	}

	var opts []aggregate.Option
	if cache != nil {
		opts = append(opts, aggregate.WithCache(cache, config.Cache.GetTTL()))
	}
	return aggregate.NewService(detector, us, indian, logger, opts...)
}

func providerStatus(config *common.Config) models.ProviderStatus {
	return models.ProviderStatus{
		Gemini:       config.Clients.Gemini.APIKey != "",
		AlphaVantage: config.Clients.AlphaVantage.APIKey != "",
		Finnhub:      config.Clients.Finnhub.APIKey != "",
		ElevenLabs:   config.Clients.ElevenLabs.APIKey != "",
		YahooFinance: "Available (no key required)",
		NSEIndia:     "Available (public API)",
		Storage:      config.Storage.Backend,
	}
}

// StartScheduler starts the quote cache purge loop and, when configured, the digest scheduler.
func (a *App) StartScheduler() error {
	if a.Cache != nil && a.purgeCancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.purgeCancel = cancel
		a.purgeDone = make(chan struct{})
		go func() {
			defer close(a.purgeDone)
			startCachePurge(ctx, a.Cache, a.Logger, purgeInterval(a.Config.Cache.GetTTL()))
		}()
	}

	if a.scheduler == nil {
		return nil
	}
	return a.scheduler.Start()
}

// Close releases all resources held by the App.
// Shutdown order: stop schedulers, close cache, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.purgeCancel != nil {
		a.purgeCancel()
		<-a.purgeDone
		a.purgeCancel = nil
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close quote cache")
		}
		a.Cache = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close subscription store")
		}
		a.Store = nil
	}
}
