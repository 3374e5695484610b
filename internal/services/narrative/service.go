// Package narrative builds analyst prompts and runs them against the configured language models
package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// ErrNotConfigured is returned when no language model is available
var ErrNotConfigured = errors.New("no narrative provider configured")

// Service runs prompts against an ordered chain of generators.
// The first generator is the configured provider; later ones are tried when it fails.
type Service struct {
	generators []interfaces.NarrativeGenerator
	vision     interfaces.NarrativeGenerator
	logger     *common.Logger
}

// NewService creates a narrative service. Nil generators are skipped.
// vision handles image input; when nil the first text generator is used.
func NewService(logger *common.Logger, vision interfaces.NarrativeGenerator, generators ...interfaces.NarrativeGenerator) *Service {
	s := &Service{vision: vision, logger: logger}
	for _, g := range generators {
		if g != nil {
			s.generators = append(s.generators, g)
		}
	}
	if s.vision == nil && len(s.generators) > 0 {
		s.vision = s.generators[0]
	}
	return s
}

// Order returns generators with the one named preferred moved to the front
func Order(preferred string, generators ...interfaces.NarrativeGenerator) []interfaces.NarrativeGenerator {
	ordered := make([]interfaces.NarrativeGenerator, 0, len(generators))
	var rest []interfaces.NarrativeGenerator
	for _, g := range generators {
		if g == nil {
			continue
		}
		if g.Name() == preferred {
			ordered = append(ordered, g)
			continue
		}
		rest = append(rest, g)
	}
	return append(ordered, rest...)
}

// Configured reports whether any text generator is available
func (s *Service) Configured() bool {
	return len(s.generators) > 0
}

// Analyze runs request over data inside the market-aware analyst brief
func (s *Service) Analyze(ctx context.Context, market models.Market, request string, data any) (string, error) {
	return s.Generate(ctx, AnalysisPrompt(market, request, data))
}

// Generate runs prompt against the generator chain
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := s.each(ctx, "generate", func(g interfaces.NarrativeGenerator) error {
		var err error
		text, err = g.Generate(ctx, prompt)
		return err
	})
	return text, err
}

// GenerateJSON runs prompt and decodes the JSON answer into out
func (s *Service) GenerateJSON(ctx context.Context, prompt string, out any) error {
	return s.each(ctx, "generate_json", func(g interfaces.NarrativeGenerator) error {
		return g.GenerateJSON(ctx, prompt, out)
	})
}

// DescribeImage runs prompt with an inline image on the vision generator
func (s *Service) DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	if s.vision == nil {
		return "", ErrNotConfigured
	}
	return s.vision.DescribeImage(ctx, prompt, mimeType, data)
}

func (s *Service) each(ctx context.Context, op string, call func(interfaces.NarrativeGenerator) error) error {
	if len(s.generators) == 0 {
		return ErrNotConfigured
	}

	var errs []error
	for _, g := range s.generators {
		start := time.Now()
		err := call(g)
		if err == nil {
			s.logger.Debug().Str("provider", g.Name()).Str("op", op).Dur("elapsed", time.Since(start)).Msg("Narrative generated")
			return nil
		}
		s.logger.Warn().Err(err).Str("provider", g.Name()).Str("op", op).Msg("Narrative provider failed")
		errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("AI analysis unavailable: %w", errors.Join(errs...))
}

// Ensure Service implements Narrator
var _ interfaces.Narrator = (*Service)(nil)
