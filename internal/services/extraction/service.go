// Package extraction reads portfolio holdings out of screenshots and broker statements
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
)

// maxStatementText bounds the statement text sent to the model
const maxStatementText = 50000

var (
	// ErrUnparseable is returned when the model output holds no portfolio JSON
	ErrUnparseable = errors.New("failed to parse portfolio data")

	// ErrNoStatementText is returned for PDFs without extractable text
	ErrNoStatementText = errors.New("statement contains no readable text")
)

// Service implements ExtractionService
type Service struct {
	narrator interfaces.Narrator
	logger   *common.Logger
}

// NewService creates an extraction service
func NewService(narrator interfaces.Narrator, logger *common.Logger) *Service {
	return &Service{narrator: narrator, logger: logger}
}

// FromImage asks the vision model for the holdings visible in a screenshot
func (s *Service) FromImage(ctx context.Context, mimeType string, data []byte) (*models.ExtractedPortfolio, string, error) {
	raw, err := s.narrator.DescribeImage(ctx, narrative.ExtractionPrompt, mimeType, data)
	if err != nil {
		return nil, "", err
	}
	portfolio, err := Parse(raw)
	if err != nil {
		s.logger.Warn().Err(err).Int("raw_length", len(raw)).Msg("Image extraction unparseable")
		return nil, raw, err
	}
	s.logger.Info().Int("holdings", len(portfolio.Holdings)).Msg("Portfolio extracted from image")
	return portfolio, raw, nil
}

// FromStatement extracts the text of a PDF statement and asks the model for its holdings
func (s *Service) FromStatement(ctx context.Context, data []byte) (*models.ExtractedPortfolio, string, error) {
	text, err := StatementText(data)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", ErrNoStatementText
	}

	raw, err := s.narrator.Generate(ctx, narrative.StatementPrompt(text))
	if err != nil {
		return nil, "", err
	}
	portfolio, err := Parse(raw)
	if err != nil {
		s.logger.Warn().Err(err).Int("raw_length", len(raw)).Msg("Statement extraction unparseable")
		return nil, raw, err
	}
	s.logger.Info().Int("holdings", len(portfolio.Holdings)).Int("text_length", len(text)).Msg("Portfolio extracted from statement")
	return portfolio, raw, nil
}

// Parse decodes model output, accepting fenced or bare JSON
func Parse(raw string) (*models.ExtractedPortfolio, error) {
	var portfolio models.ExtractedPortfolio
	if err := json.Unmarshal([]byte(common.ExtractJSONBlock(raw)), &portfolio); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if portfolio.Holdings == nil {
		portfolio.Holdings = []models.ExtractedHolding{}
	}
	return &portfolio, nil
}

// StatementText returns the plain text of every page of a PDF
func StatementText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		if sb.Len() > maxStatementText {
			break
		}
	}

	result := sb.String()
	if len(result) > maxStatementText {
		result = result[:maxStatementText]
	}
	return result, nil
}

// Ensure Service implements ExtractionService
var _ interfaces.ExtractionService = (*Service)(nil)
