package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/app"
	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/chart"
	"github.com/darshan15062002/stock-analysis/internal/services/content"
	"github.com/darshan15062002/stock-analysis/internal/services/extraction"
	"github.com/darshan15062002/stock-analysis/internal/services/story"
)

// --- mocks ---

type mockStockService struct {
	analyze   func(symbol, analysisType string) (*models.StockAnalysis, error)
	biasCheck func(symbol string, withNarrative bool) (*models.BiasCheckReport, error)
}

func (m *mockStockService) Analyze(_ context.Context, symbol, analysisType string) (*models.StockAnalysis, error) {
	return m.analyze(symbol, analysisType)
}

func (m *mockStockService) BiasCheck(_ context.Context, symbol string, withNarrative bool) (*models.BiasCheckReport, error) {
	return m.biasCheck(symbol, withNarrative)
}

func (m *mockStockService) Compare(_ context.Context, usSymbol, indianSymbol string) (*models.Comparison, error) {
	return &models.Comparison{}, nil
}

type mockPortfolioService struct {
	holdings []models.Holding
	err      error
}

func (m *mockPortfolioService) Analyze(_ context.Context, holdings []models.Holding, analysisType string) (*models.PortfolioAnalysis, error) {
	m.holdings = holdings
	if m.err != nil {
		return nil, m.err
	}
	return &models.PortfolioAnalysis{Analysis: analysisType}, nil
}

func (m *mockPortfolioService) Clarity(_ context.Context, holdings []models.Holding) (*models.ClarityReport, error) {
	m.holdings = holdings
	return &models.ClarityReport{HealthScore: 7.5}, nil
}

type mockContentService struct{ err error }

func (m *mockContentService) Check(_ context.Context, text, url string) (*models.ContentReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ContentReport{}, nil
}

type mockStoryService struct{ err error }

func (m *mockStoryService) Tell(_ context.Context, symbol, style string) (*models.StoryReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.StoryReport{}, nil
}

type mockExtractionService struct {
	portfolio *models.ExtractedPortfolio
	raw       string
	err       error
	mimeType  string
}

func (m *mockExtractionService) FromImage(_ context.Context, mimeType string, _ []byte) (*models.ExtractedPortfolio, string, error) {
	m.mimeType = mimeType
	return m.portfolio, m.raw, m.err
}

func (m *mockExtractionService) FromStatement(_ context.Context, _ []byte) (*models.ExtractedPortfolio, string, error) {
	return m.portfolio, m.raw, m.err
}

func newTestServer(t *testing.T, a *app.App) *Server {
	t.Helper()
	logger := common.NewLoggerFromConfig(common.LoggingConfig{Level: "disabled"})
	a.Logger = logger
	if a.Config == nil {
		a.Config = common.NewDefaultConfig()
	}
	return &Server{app: a, logger: logger}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

// --- system ---

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &app.App{Providers: models.ProviderStatus{Gemini: true, ElevenLabs: true, Storage: "badger"}})

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, []interface{}{"US", "INDIAN"}, body["markets_supported"])
	services := body["services"].(map[string]interface{})
	assert.Equal(t, true, services["gemini"])
	assert.Equal(t, false, services["finnhub"])
	assert.Equal(t, "badger", services["storage"])
	features := body["features"].(map[string]interface{})
	assert.Equal(t, true, features["voice_explanations"])
}

// --- stocks ---

func TestHandleStockAnalysis_NoData(t *testing.T) {
	srv := newTestServer(t, &app.App{StockService: &mockStockService{
		analyze: func(symbol, _ string) (*models.StockAnalysis, error) {
			return nil, &models.NoDataError{Symbol: "FAKE.NS", Market: models.MarketIndian}
		},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/stock/FAKE/analysis", nil)
	req.SetPathValue("symbol", "FAKE")
	rec := httptest.NewRecorder()
	srv.handleStockAnalysis(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "No data available for this symbol", body["error"])
	assert.Equal(t, "INDIAN", body["market"])
	assert.Equal(t, "Try with .NS suffix (e.g., RELIANCE.NS)", body["suggestion"])
}

func TestHandleStockAnalysis_DefaultsAnalysisType(t *testing.T) {
	var gotType string
	srv := newTestServer(t, &app.App{StockService: &mockStockService{
		analyze: func(symbol, analysisType string) (*models.StockAnalysis, error) {
			gotType = analysisType
			return &models.StockAnalysis{Symbol: symbol}, nil
		},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/stock/AAPL/analysis", nil)
	req.SetPathValue("symbol", "AAPL")
	rec := httptest.NewRecorder()
	srv.handleStockAnalysis(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "comprehensive", gotType)
}

func TestHandleStockAnalysis_Failure(t *testing.T) {
	srv := newTestServer(t, &app.App{StockService: &mockStockService{
		analyze: func(string, string) (*models.StockAnalysis, error) { return nil, errors.New("llm down") },
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/stock/AAPL/analysis", nil)
	req.SetPathValue("symbol", "AAPL")
	rec := httptest.NewRecorder()
	srv.handleStockAnalysis(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Analysis failed", body["error"])
	assert.Equal(t, "llm down", body["details"])
}

func TestHandleBiasCheck_PNG(t *testing.T) {
	var narrated bool
	srv := newTestServer(t, &app.App{
		ChartService: chart.NewService(),
		StockService: &mockStockService{
			biasCheck: func(symbol string, withNarrative bool) (*models.BiasCheckReport, error) {
				narrated = withNarrative
				return &models.BiasCheckReport{
					Symbol: symbol,
					Market: models.MarketUS,
					Sources: []models.SourceRecord{
						{Source: "AlphaVantage", Data: models.Quote{Price: models.Float(190.1)}},
						{Source: "Finnhub", Data: models.Quote{Price: models.Float(190.6)}},
					},
				}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/bias-check/AAPL?format=png", nil)
	req.SetPathValue("symbol", "AAPL")
	rec := httptest.NewRecorder()
	srv.handleBiasCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
	assert.False(t, narrated)
}

func TestHandleBiasCheck_PNGWithoutPrices(t *testing.T) {
	srv := newTestServer(t, &app.App{
		ChartService: chart.NewService(),
		StockService: &mockStockService{
			biasCheck: func(symbol string, _ bool) (*models.BiasCheckReport, error) {
				return &models.BiasCheckReport{Symbol: symbol}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/bias-check/AAPL?format=png", nil)
	req.SetPathValue("symbol", "AAPL")
	rec := httptest.NewRecorder()
	srv.handleBiasCheck(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStockStory(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"missing symbol", story.ErrSymbolRequired, http.StatusBadRequest, "Stock symbol required"},
		{"unknown symbol", &models.NoDataError{Symbol: "ZZZ", Market: models.MarketUS}, http.StatusNotFound, "Stock not found"},
		{"llm failure", errors.New("boom"), http.StatusInternalServerError, "Story generation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &app.App{StoryService: &mockStoryService{err: tt.err}})
			rec := httptest.NewRecorder()
			srv.handleStockStory(rec, httptest.NewRequest(http.MethodPost, "/api/stock-story", jsonBody(t, storyRequest{Symbol: "ZZZ"})))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
		})
	}
}

// --- portfolios ---

func TestHandlePortfolioAnalysis_RequiresArray(t *testing.T) {
	svc := &mockPortfolioService{}
	srv := newTestServer(t, &app.App{PortfolioService: svc})

	for _, body := range []string{`{}`, `{"holdings":"AAPL"}`, `{"holdings":{"symbol":"AAPL"}}`} {
		rec := httptest.NewRecorder()
		srv.handlePortfolioAnalysis(rec, httptest.NewRequest(http.MethodPost, "/api/portfolio/analysis", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		resp := decodeBody(t, rec)
		assert.Equal(t, "Holdings array required", resp["error"])
		assert.NotNil(t, resp["example"])
	}
	assert.Nil(t, svc.holdings)
}

func TestHandlePortfolioAnalysis_Success(t *testing.T) {
	svc := &mockPortfolioService{}
	srv := newTestServer(t, &app.App{PortfolioService: svc})

	body := `{"holdings":[{"symbol":"AAPL","weight":0.6},{"symbol":"TCS.NS","weight":0.4}]}`
	rec := httptest.NewRecorder()
	srv.handlePortfolioAnalysis(rec, httptest.NewRequest(http.MethodPost, "/api/portfolio/analysis", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.holdings, 2)
	assert.Equal(t, "TCS.NS", svc.holdings[1].Symbol)
	assert.InDelta(t, 0.4, svc.holdings[1].Weight, 1e-9)
}

func TestHandleClarityAnalysis_EmptyHoldings(t *testing.T) {
	srv := newTestServer(t, &app.App{PortfolioService: &mockPortfolioService{}})

	rec := httptest.NewRecorder()
	srv.handleClarityAnalysis(rec, httptest.NewRequest(http.MethodPost, "/api/portfolio/clarity-analysis", bytes.NewBufferString(`{"holdings":[]}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Upload an image first or provide holdings data", decodeBody(t, rec)["message"])
}

func TestHandleClarityAnalysis_OptionalFields(t *testing.T) {
	svc := &mockPortfolioService{}
	srv := newTestServer(t, &app.App{PortfolioService: svc})

	body := `{"holdings":[{"symbol":"RELIANCE.NS","weight":1,"invested":100000,"currentValue":0}]}`
	rec := httptest.NewRecorder()
	srv.handleClarityAnalysis(rec, httptest.NewRequest(http.MethodPost, "/api/portfolio/clarity-analysis", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.holdings, 1)
	require.NotNil(t, svc.holdings[0].CurrentValue)
	assert.Equal(t, 0.0, *svc.holdings[0].CurrentValue)
	assert.Nil(t, svc.holdings[0].PnL)
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/extract-from-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleExtractFromImage(t *testing.T) {
	svc := &mockExtractionService{portfolio: &models.ExtractedPortfolio{
		Holdings: []models.ExtractedHolding{{Symbol: "INFY", Quantity: 10}},
	}}
	srv := newTestServer(t, &app.App{ExtractionService: svc})

	rec := httptest.NewRecorder()
	srv.handleExtractFromImage(rec, multipartUpload(t, "portfolio_image", "shot.png", "image/png", []byte("png")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Portfolio extracted from image", body["message"])
	assert.Equal(t, float64(1), body["extractedHoldings"])
	assert.Equal(t, "image/png", svc.mimeType)
}

func TestHandleExtractFromImage_Rejections(t *testing.T) {
	srv := newTestServer(t, &app.App{ExtractionService: &mockExtractionService{}})

	rec := httptest.NewRecorder()
	srv.handleExtractFromImage(rec, multipartUpload(t, "portfolio_image", "notes.txt", "text/plain", []byte("hi")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleExtractFromImage(rec, multipartUpload(t, "other", "shot.png", "image/png", []byte("png")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No image uploaded", decodeBody(t, rec)["error"])

	rec = httptest.NewRecorder()
	big := bytes.Repeat([]byte("x"), maxUploadBody+1024)
	srv.handleExtractFromImage(rec, multipartUpload(t, "portfolio_image", "huge.png", "image/png", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleExtractFromImage_Unparseable(t *testing.T) {
	srv := newTestServer(t, &app.App{ExtractionService: &mockExtractionService{
		raw: "I see a chart of some kind",
		err: extraction.ErrUnparseable,
	}})

	rec := httptest.NewRecorder()
	srv.handleExtractFromImage(rec, multipartUpload(t, "portfolio_image", "shot.jpg", "image/jpeg", []byte("jpg")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to parse portfolio data from image", body["error"])
	assert.Equal(t, "I see a chart of some kind", body["rawExtraction"])
}

func TestHandleExtractFromStatement_RequiresPDF(t *testing.T) {
	srv := newTestServer(t, &app.App{ExtractionService: &mockExtractionService{err: extraction.ErrNoStatementText}})

	rec := httptest.NewRecorder()
	srv.handleExtractFromStatement(rec, multipartUpload(t, "portfolio_pdf", "s.png", "image/png", []byte("png")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleExtractFromStatement(rec, multipartUpload(t, "portfolio_pdf", "s.pdf", "application/pdf", []byte("%PDF-1.4")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Statement contains no readable text", decodeBody(t, rec)["error"])
}

// --- content ---

func TestHandleContentBiasCheck_Errors(t *testing.T) {
	srv := newTestServer(t, &app.App{ContentService: &mockContentService{err: content.ErrContentRequired}})
	rec := httptest.NewRecorder()
	srv.handleContentBiasCheck(rec, httptest.NewRequest(http.MethodPost, "/api/content/bias-check", bytes.NewBufferString(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Content required", body["error"])
	assert.Contains(t, body["example"].(map[string]interface{})["content"], "TO THE MOON")

	srv = newTestServer(t, &app.App{ContentService: &mockContentService{err: content.ErrPageUnavailable}})
	rec = httptest.NewRecorder()
	srv.handleContentBiasCheck(rec, httptest.NewRequest(http.MethodPost, "/api/content/bias-check", bytes.NewBufferString(`{"url":"http://x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleContentBiasCheck_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, &app.App{ContentService: &mockContentService{}})
	rec := httptest.NewRecorder()
	srv.handleContentBiasCheck(rec, httptest.NewRequest(http.MethodPost, "/api/content/bias-check", bytes.NewBufferString(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- routing ---

func TestRoutes_MethodAndAudio(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Server.AudioDir = t.TempDir()
	a := &app.App{Config: cfg, Logger: common.NewSilentLogger(), StartupTime: time.Now()}
	handler := NewServer(a).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/analysis", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audio/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/digest/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "admin trigger is off by default")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
