package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// handleGetVersion implements the get_version tool
func handleGetVersion(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := "OK"
		body, err := proxy.get("/api/version")
		serverVersion := "unknown"
		if err != nil {
			status = fmt.Sprintf("server unreachable (%v)", err)
		} else {
			var info common.VersionInfo
			if json.Unmarshal(body, &info) == nil {
				serverVersion = info.Version
			}
		}
		result := fmt.Sprintf("ClearStock MCP\nVersion: %s\nBuild: %s\nCommit: %s\nServer: %s\nServer version: %s\nStatus: %s",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit(), proxy.serverURL, serverVersion, status)
		return textResult(result), nil
	}
}

// handleStockAnalysis implements the stock_analysis tool
func handleStockAnalysis(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		path := "/api/stock/" + url.PathEscape(symbol) + "/analysis"
		if analysisType := request.GetString("analysis_type", ""); analysisType != "" {
			path += "?analysis_type=" + url.QueryEscape(analysisType)
		}

		body, err := proxy.get(path)
		if err != nil {
			return errorResult(fmt.Sprintf("Analysis error: %v", err)), nil
		}
		var analysis models.StockAnalysis
		if err := json.Unmarshal(body, &analysis); err != nil {
			return errorResult(fmt.Sprintf("Failed to parse response: %v", err)), nil
		}
		return textResult(formatStockAnalysis(&analysis)), nil
	}
}

// handleBiasCheck implements the bias_check tool
func handleBiasCheck(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		body, err := proxy.get("/api/bias-check/" + url.PathEscape(symbol))
		if err != nil {
			return errorResult(fmt.Sprintf("Bias check error: %v", err)), nil
		}
		var report models.BiasCheckReport
		if err := json.Unmarshal(body, &report); err != nil {
			return errorResult(fmt.Sprintf("Failed to parse response: %v", err)), nil
		}
		return textResult(formatBiasCheck(&report)), nil
	}
}

// handleMarketSentiment implements the market_sentiment tool
func handleMarketSentiment(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		body, err := proxy.get("/api/market/sentiment/" + url.PathEscape(symbol))
		if err != nil {
			return errorResult(fmt.Sprintf("Sentiment error: %v", err)), nil
		}
		var report models.SentimentReport
		if err := json.Unmarshal(body, &report); err != nil {
			return errorResult(fmt.Sprintf("Failed to parse response: %v", err)), nil
		}
		return textResult(formatSentiment(&report)), nil
	}
}

// handleCompareMarkets implements the compare_markets tool
func handleCompareMarkets(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		usSymbol, err := request.RequireString("us_symbol")
		if err != nil || usSymbol == "" {
			return errorResult("Error: us_symbol parameter is required"), nil
		}
		indianSymbol, err := request.RequireString("indian_symbol")
		if err != nil || indianSymbol == "" {
			return errorResult("Error: indian_symbol parameter is required"), nil
		}

		body, err := proxy.get("/api/compare/" + url.PathEscape(usSymbol) + "/" + url.PathEscape(indianSymbol))
		if err != nil {
			return errorResult(fmt.Sprintf("Comparison error: %v", err)), nil
		}
		var cmp models.Comparison
		if err := json.Unmarshal(body, &cmp); err != nil {
			return errorResult(fmt.Sprintf("Failed to parse response: %v", err)), nil
		}
		return textResult(formatComparison(&cmp)), nil
	}
}

// handlePortfolioAnalysis implements the portfolio_analysis tool
func handlePortfolioAnalysis(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("holdings")
		if err != nil {
			return errorResult("Error: holdings parameter is required"), nil
		}
		holdings, err := parseHoldings(raw)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		body, err := proxy.post("/api/portfolio/analysis", map[string]interface{}{
			"holdings":      holdings,
			"analysis_type": request.GetString("analysis_type", ""),
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Portfolio analysis error: %v", err)), nil
		}
		var analysis models.PortfolioAnalysis
		if err := json.Unmarshal(body, &analysis); err != nil {
			return errorResult(fmt.Sprintf("Failed to parse response: %v", err)), nil
		}
		return textResult(formatPortfolioAnalysis(&analysis)), nil
	}
}

// handleContentBiasCheck implements the content_bias_check tool
func handleContentBiasCheck(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content := request.GetString("content", "")
		pageURL := request.GetString("url", "")
		if strings.TrimSpace(content) == "" && pageURL == "" {
			return errorResult("Error: content or url parameter is required"), nil
		}

		body, err := proxy.post("/api/content/bias-check", map[string]string{
			"content": content,
			"url":     pageURL,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Content check error: %v", err)), nil
		}
		var report models.ContentReport
		if err := json.Unmarshal(body, &report); err != nil {
			return errorResult(fmt.Sprintf("Failed to parse response: %v", err)), nil
		}
		return textResult(formatContentReport(&report)), nil
	}
}

// handleStockStory implements the stock_story tool
func handleStockStory(proxy *MCPProxy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		body, err := proxy.post("/api/stock-story", map[string]string{
			"symbol": symbol,
			"style":  request.GetString("style", "movie"),
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Story error: %v", err)), nil
		}
		var story models.StoryReport
		if err := json.Unmarshal(body, &story); err != nil {
			return errorResult(fmt.Sprintf("Failed to parse response: %v", err)), nil
		}
		return textResult(formatStory(&story)), nil
	}
}

// parseHoldings reads "SYM:weight,SYM:weight". Holdings without a weight share
// whatever weight the others leave unassigned.
func parseHoldings(raw string) ([]models.Holding, error) {
	var holdings []models.Holding
	var unweighted []int
	assigned := 0.0

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		symbol, weightStr, hasWeight := strings.Cut(part, ":")
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			return nil, fmt.Errorf("empty symbol in %q", part)
		}
		h := models.Holding{Symbol: symbol}
		if hasWeight {
			w, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
			if err != nil || w < 0 {
				return nil, fmt.Errorf("invalid weight for %s: %q", symbol, weightStr)
			}
			h.Weight = w
			assigned += w
		} else {
			unweighted = append(unweighted, len(holdings))
		}
		holdings = append(holdings, h)
	}
	if len(holdings) == 0 {
		return nil, fmt.Errorf("no holdings given")
	}

	if len(unweighted) > 0 {
		share := (1 - assigned) / float64(len(unweighted))
		if share < 0 {
			share = 0
		}
		for _, i := range unweighted {
			holdings[i].Weight = share
		}
	}
	return holdings, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
