// Package digest builds and mails the daily portfolio report to subscribers
package digest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// ErrMailerNotConfigured is returned by Run when no SMTP server is configured
var ErrMailerNotConfigured = errors.New("SMTP not configured")

// AnalysisType is the analysis type requested for each report
const AnalysisType = "daily_report"

// AllocationCharter renders the holdings allocation chart embedded in the PDF
type AllocationCharter interface {
	AllocationChart(holdings []models.HoldingAnalysis) ([]byte, error)
}

// Service implements DigestService
type Service struct {
	subscriptions interfaces.SubscriptionService
	portfolio     interfaces.PortfolioService
	charts        AllocationCharter
	mailer        interfaces.Mailer
	publicURL     string
	logger        *common.Logger
	now           func() time.Time
}

// NewService creates a digest service. publicURL prefixes unsubscribe links.
func NewService(subscriptions interfaces.SubscriptionService, portfolio interfaces.PortfolioService, charts AllocationCharter, mailer interfaces.Mailer, publicURL string, logger *common.Logger) *Service {
	return &Service{
		subscriptions: subscriptions,
		portfolio:     portfolio,
		charts:        charts,
		mailer:        mailer,
		publicURL:     strings.TrimRight(publicURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

// Run mails a report to every active daily subscriber. A failed subscriber is
// counted and logged without stopping the run.
func (s *Service) Run(ctx context.Context) (*models.DigestRun, error) {
	if !s.mailer.IsConfigured() {
		return nil, ErrMailerNotConfigured
	}

	subs, err := s.subscriptions.ListDaily(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily subscriptions: %w", err)
	}

	run := &models.DigestRun{Subscribers: len(subs)}
	start := s.now()
	s.logger.Info().Int("subscribers", len(subs)).Msg("Digest run starting")

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		holdings := Weights(sub.Portfolio.Holdings)
		if len(holdings) == 0 {
			run.Skipped++
			s.logger.Debug().Str("email", sub.Email).Msg("Digest skipped, no valued holdings")
			continue
		}

		if err := s.send(ctx, sub, holdings); err != nil {
			run.Failed++
			run.Errors = append(run.Errors, fmt.Sprintf("%s: %v", sub.Email, err))
			s.logger.Warn().Err(err).Str("email", sub.Email).Msg("Digest failed for subscriber")
			continue
		}
		run.Sent++
	}

	s.logger.Info().
		Int("sent", run.Sent).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Digest run complete")
	return run, nil
}

func (s *Service) send(ctx context.Context, sub *models.Subscription, holdings []models.Holding) error {
	analysis, err := s.portfolio.Analyze(ctx, holdings, AnalysisType)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	date := s.now()
	link := s.unsubscribeURL(sub.Email)
	markdown := Markdown(sub, analysis, date, link)

	htmlBody, err := HTML(markdown)
	if err != nil {
		return err
	}

	var chartPNG []byte
	if s.charts != nil {
		if chartPNG, err = s.charts.AllocationChart(analysis.IndividualHoldings); err != nil {
			s.logger.Debug().Err(err).Str("email", sub.Email).Msg("Allocation chart unavailable")
			chartPNG = nil
		}
	}

	pdf, err := PDF(sub, analysis, date, chartPNG)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, &models.EmailMessage{
		To:       sub.Email,
		ToName:   sub.Name,
		Subject:  "Your ClearStock portfolio report for " + date.Format("2 Jan 2006"),
		HTMLBody: htmlBody,
		TextBody: markdown,
		Attachments: []models.Attachment{{
			Filename:    "clearstock-report-" + date.Format("2006-01-02") + ".pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
}

// unsubscribeURL returns an empty string when tokens are disabled
func (s *Service) unsubscribeURL(email string) string {
	token, err := s.subscriptions.IssueUnsubscribeToken(email)
	if err != nil {
		s.logger.Debug().Err(err).Str("email", email).Msg("No unsubscribe link")
		return ""
	}
	return s.publicURL + "/api/user/unsubscribe?token=" + url.QueryEscape(token)
}

// Ensure Service implements DigestService
var _ interfaces.DigestService = (*Service)(nil)
