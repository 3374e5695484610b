// Package story narrates a stock as a five act story with an optional audio reading
package story

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
)

// AudioRoute is the URL prefix the generated audio files are served under
const AudioRoute = "/api/audio/"

const (
	ownership   = "We don't own this stock. We don't get paid by this company. We don't benefit if you buy or sell."
	methodology = "This story was generated by AI analyzing real-time financial data, market news, expert opinions, and historical performance. Our goal: Tell you the truth, not sell you the stock."
)

// ErrSymbolRequired is returned for an empty symbol
var ErrSymbolRequired = errors.New("stock symbol required")

// Service implements StoryService
type Service struct {
	detector   interfaces.MarketDetector
	aggregator interfaces.Aggregator
	narrator   interfaces.Narrator
	speech     interfaces.SpeechSynthesizer
	audioDir   string
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a story service. A nil speech synthesizer disables audio.
func NewService(detector interfaces.MarketDetector, aggregator interfaces.Aggregator, narrator interfaces.Narrator,
	speech interfaces.SpeechSynthesizer, audioDir string, logger *common.Logger) *Service {
	return &Service{
		detector:   detector,
		aggregator: aggregator,
		narrator:   narrator,
		speech:     speech,
		audioDir:   audioDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Tell builds the story of symbol in the given style
func (s *Service) Tell(ctx context.Context, symbol, style string) (*models.StoryReport, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrSymbolRequired
	}
	style = narrative.NormalizeStyle(style)
	market := s.detector.Detect(symbol)
	search := strings.ToUpper(s.detector.SearchSymbol(symbol, market))

	sources, err := s.aggregator.Aggregate(ctx, search)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, &models.NoDataError{Symbol: search, Market: market}
	}

	main := sources[0].Data
	price := models.Value(main.Price)
	change := models.Value(main.Change)
	changePct := models.Value(main.ChangePercent)

	var acts models.StoryActs
	if err := s.narrator.GenerateJSON(ctx, narrative.StoryPrompt(search, market, price, change, changePct, style), &acts); err != nil {
		return nil, fmt.Errorf("story generation: %w", err)
	}
	acts = withPlaceholders(acts)

	var decisions models.DecisionFramework
	if err := s.narrator.GenerateJSON(ctx, narrative.DecisionPrompt(search), &decisions); err != nil {
		return nil, fmt.Errorf("decision framework: %w", err)
	}
	decisions = nonNil(decisions)

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Source)
	}

	s.logger.Info().Str("symbol", search).Str("style", style).Msg("Story generated")

	return &models.StoryReport{
		Symbol:            search,
		CurrentPrice:      price,
		Change:            change,
		ChangePercent:     changePct,
		Market:            market,
		StoryStyle:        style,
		StoryContent:      acts,
		StoryAudio:        s.narrate(ctx, acts),
		DecisionFramework: decisions,
		BiasCheck: models.StoryBiasCheck{
			Ownership:   ownership,
			DataSources: names,
			Methodology: methodology,
		},
		Timestamp: s.now().UTC(),
	}, nil
}

// narrate synthesizes the acts into an mp3 under the audio dir.
// Any failure is logged and yields no audio.
func (s *Service) narrate(ctx context.Context, acts models.StoryActs) *string {
	if s.speech == nil || s.audioDir == "" {
		return nil
	}

	audio, err := s.speech.Synthesize(ctx, ActsText(acts))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Story audio synthesis failed")
		return nil
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		s.logger.Warn().Err(err).Str("dir", s.audioDir).Msg("Failed to create audio directory")
		return nil
	}
	name := fmt.Sprintf("story-%d.mp3", s.now().UnixMilli())
	if err := os.WriteFile(filepath.Join(s.audioDir, name), audio, 0o644); err != nil {
		s.logger.Warn().Err(err).Str("file", name).Msg("Failed to write story audio")
		return nil
	}

	url := AudioRoute + name
	return &url
}

// ActsText joins the acts into the script read aloud
func ActsText(acts models.StoryActs) string {
	return fmt.Sprintf("ACT 1: %s\n\nACT 2: %s\n\nACT 3: %s\n\nACT 4: %s\n\nACT 5: %s",
		acts.Setup, acts.CurrentSituation, acts.Conflict, acts.Strengths, acts.Verdict)
}

func withPlaceholders(acts models.StoryActs) models.StoryActs {
	fill := func(v *string, placeholder string) {
		*v = strings.TrimSpace(*v)
		if *v == "" {
			*v = placeholder
		}
	}
	fill(&acts.Setup, "Story generation in progress...")
	fill(&acts.CurrentSituation, "Analyzing current situation...")
	fill(&acts.Conflict, "Identifying risks...")
	fill(&acts.Strengths, "Evaluating strengths...")
	fill(&acts.Verdict, "Forming verdict...")
	return acts
}

func nonNil(d models.DecisionFramework) models.DecisionFramework {
	if d.BuyIf == nil {
		d.BuyIf = []string{}
	}
	if d.NoIf == nil {
		d.NoIf = []string{}
	}
	if d.MaybeIf == nil {
		d.MaybeIf = []string{}
	}
	return d
}

// Ensure Service implements StoryService
var _ interfaces.StoryService = (*Service)(nil)
