package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
)

// MCPProxy connects MCP tool calls to the REST API of the ClearStock server.
type MCPProxy struct {
	serverURL  string
	httpClient *http.Client
	logger     *common.Logger
}

// NewMCPProxy creates a new MCP proxy targeting the given server URL.
func NewMCPProxy(serverURL string, logger *common.Logger) *MCPProxy {
	return &MCPProxy{
		serverURL: serverURL,
		httpClient: &http.Client{
			Timeout: 300 * time.Second, // Match server WriteTimeout
		},
		logger: logger,
	}
}

// get performs a GET request and returns the response body.
func (p *MCPProxy) get(path string) ([]byte, error) {
	return p.do(http.MethodGet, path, nil)
}

// post performs a POST request with JSON body and returns the response body.
func (p *MCPProxy) post(path string, data interface{}) ([]byte, error) {
	return p.do(http.MethodPost, path, data)
}

// do performs an HTTP request with an optional JSON body.
// Error envelopes from the server surface as their error text.
func (p *MCPProxy) do(method, path string, data interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, p.serverURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	p.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("Proxied request")

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error      string `json:"error"`
			Details    string `json:"details"`
			Suggestion string `json:"suggestion"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg := errResp.Error
			if errResp.Details != "" {
				msg += ": " + errResp.Details
			}
			if errResp.Suggestion != "" {
				msg += " (" + errResp.Suggestion + ")"
			}
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
