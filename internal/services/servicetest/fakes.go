// Package servicetest provides in-memory collaborators for service tests
package servicetest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/market"
)

// Aggregator returns canned records keyed by upper-cased symbol and records every call
type Aggregator struct {
	mu      sync.Mutex
	Records map[string][]models.SourceRecord
	Results map[string][]models.FetchResult
	Err     error
	Calls   []string
}

// NewAggregator creates an aggregator with no data
func NewAggregator() *Aggregator {
	return &Aggregator{Records: map[string][]models.SourceRecord{}, Results: map[string][]models.FetchResult{}}
}

// Price registers a single-source record for symbol
func (a *Aggregator) Price(symbol, source string, price float64) *Aggregator {
	m := market.NewDetector("US").Detect(symbol)
	key := strings.ToUpper(symbol)
	a.Records[key] = append(a.Records[key], models.SourceRecord{
		Source:      source,
		Reliability: 0.9,
		Market:      m,
		Data:        models.Quote{Symbol: key, Price: models.Float(price)},
	})
	return a
}

func (a *Aggregator) Aggregate(_ context.Context, symbol string) ([]models.SourceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls = append(a.Calls, symbol)
	if a.Err != nil {
		return nil, a.Err
	}
	records := a.Records[strings.ToUpper(symbol)]
	if records == nil {
		records = []models.SourceRecord{}
	}
	return records, nil
}

func (a *Aggregator) Collect(ctx context.Context, symbol string) ([]models.SourceRecord, []models.FetchResult) {
	records, _ := a.Aggregate(ctx, symbol)
	a.mu.Lock()
	defer a.mu.Unlock()
	return records, a.Results[strings.ToUpper(symbol)]
}

// Narrator answers every prompt with Text, or JSON for GenerateJSON, and keeps the prompts
type Narrator struct {
	mu       sync.Mutex
	Text     string
	JSON     map[string]string // first prompt substring match wins
	Err      error
	Prompts  []string
	Requests []string
	Data     []any
}

func (n *Narrator) record(prompt string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Prompts = append(n.Prompts, prompt)
}

func (n *Narrator) Analyze(ctx context.Context, m models.Market, request string, data any) (string, error) {
	n.mu.Lock()
	n.Requests = append(n.Requests, request)
	n.Data = append(n.Data, data)
	n.mu.Unlock()
	return n.Generate(ctx, string(m)+": "+request)
}

func (n *Narrator) Generate(_ context.Context, prompt string) (string, error) {
	n.record(prompt)
	if n.Err != nil {
		return "", n.Err
	}
	return n.Text, nil
}

func (n *Narrator) GenerateJSON(_ context.Context, prompt string, out any) error {
	n.record(prompt)
	if n.Err != nil {
		return n.Err
	}
	for substr, body := range n.JSON {
		if strings.Contains(prompt, substr) {
			return json.Unmarshal([]byte(body), out)
		}
	}
	return json.Unmarshal([]byte("{}"), out)
}

func (n *Narrator) DescribeImage(_ context.Context, prompt, _ string, _ []byte) (string, error) {
	n.record(prompt)
	if n.Err != nil {
		return "", n.Err
	}
	return n.Text, nil
}

// Mailer records sent messages. FailFor makes Send fail for one recipient.
type Mailer struct {
	mu         sync.Mutex
	Configured bool
	FailFor    string
	Sent       []*models.EmailMessage
}

func (m *Mailer) IsConfigured() bool { return m.Configured }

func (m *Mailer) Send(_ context.Context, msg *models.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.To == m.FailFor {
		return errors.New("mailbox unavailable")
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

var (
	_ interfaces.Aggregator = (*Aggregator)(nil)
	_ interfaces.Narrator   = (*Narrator)(nil)
	_ interfaces.Mailer     = (*Mailer)(nil)
)
