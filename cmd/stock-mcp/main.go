// Command stock-mcp exposes the ClearStock analysis endpoints as MCP tools over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/darshan15062002/stock-analysis/internal/common"
)

func main() {
	_ = godotenv.Load()

	serverURL := os.Getenv("CLEARSTOCK_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:3000"
	}

	// stdout carries the protocol, so logs go to stderr
	logger := common.NewLoggerWithOutput(envOr("CLEARSTOCK_LOG_LEVEL", "warn"), os.Stderr)
	proxy := NewMCPProxy(serverURL, logger)

	if err := server.ServeStdio(newMCPServer(proxy)); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}

// newMCPServer registers every tool against proxy
func newMCPServer(proxy *MCPProxy) *server.MCPServer {
	s := server.NewMCPServer("clearstock", common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	s.AddTool(createGetVersionTool(), handleGetVersion(proxy))
	s.AddTool(createStockAnalysisTool(), handleStockAnalysis(proxy))
	s.AddTool(createBiasCheckTool(), handleBiasCheck(proxy))
	s.AddTool(createMarketSentimentTool(), handleMarketSentiment(proxy))
	s.AddTool(createCompareMarketsTool(), handleCompareMarkets(proxy))
	s.AddTool(createPortfolioAnalysisTool(), handlePortfolioAnalysis(proxy))
	s.AddTool(createContentBiasCheckTool(), handleContentBiasCheck(proxy))
	s.AddTool(createStockStoryTool(), handleStockStory(proxy))

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
