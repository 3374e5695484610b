package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the ClearStock server version and provider status. Use this to verify connectivity."),
	)
}

// createStockAnalysisTool returns the stock_analysis tool definition
func createStockAnalysisTool() mcp.Tool {
	return mcp.NewTool("stock_analysis",
		mcp.WithDescription("Analyze a US or Indian stock from multiple data providers. Returns the consensus price, a data bias score and an AI analysis. Indian symbols may be given with or without the .NS suffix."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol (e.g., 'AAPL', 'RELIANCE', 'TCS.NS')"),
		),
		mcp.WithString("analysis_type",
			mcp.Description("Analysis focus (default: comprehensive)"),
		),
	)
}

// createBiasCheckTool returns the bias_check tool definition
func createBiasCheckTool() mcp.Tool {
	return mcp.NewTool("bias_check",
		mcp.WithDescription("Check how consistent the data providers are for a symbol. Returns the bias score, confidence, price spread and failed sources."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol (e.g., 'MSFT', 'INFY.NS')"),
		),
	)
}

// createMarketSentimentTool returns the market_sentiment tool definition
func createMarketSentimentTool() mcp.Tool {
	return mcp.NewTool("market_sentiment",
		mcp.WithDescription("Summarize the last week of news coverage for a symbol. US symbols use Finnhub company news, Indian symbols use Google News."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol"),
		),
	)
}

// createCompareMarketsTool returns the compare_markets tool definition
func createCompareMarketsTool() mcp.Tool {
	return mcp.NewTool("compare_markets",
		mcp.WithDescription("Compare a US stock with an Indian stock, including currency, regulation and market hours."),
		mcp.WithString("us_symbol",
			mcp.Required(),
			mcp.Description("US ticker (e.g., 'AAPL')"),
		),
		mcp.WithString("indian_symbol",
			mcp.Required(),
			mcp.Description("Indian ticker (e.g., 'TCS')"),
		),
	)
}

// createPortfolioAnalysisTool returns the portfolio_analysis tool definition
func createPortfolioAnalysisTool() mcp.Tool {
	return mcp.NewTool("portfolio_analysis",
		mcp.WithDescription("Analyze a cross-market portfolio. Returns the market breakdown, per-holding data quality and an AI risk assessment."),
		mcp.WithString("holdings",
			mcp.Required(),
			mcp.Description("Comma separated symbol:weight pairs (e.g., 'AAPL:0.3,RELIANCE.NS:0.4,TCS.NS:0.3')"),
		),
		mcp.WithString("analysis_type",
			mcp.Description("Analysis focus (default: risk_assessment)"),
		),
	)
}

// createContentBiasCheckTool returns the content_bias_check tool definition
func createContentBiasCheckTool() mcp.Tool {
	return mcp.NewTool("content_bias_check",
		mcp.WithDescription("Score a piece of financial content (tip, post, article) for hype and manipulation. Mentioned symbols are checked against live market data."),
		mcp.WithString("content",
			mcp.Description("The text to check"),
		),
		mcp.WithString("url",
			mcp.Description("Page to fetch when content is empty"),
		),
	)
}

// createStockStoryTool returns the stock_story tool definition
func createStockStoryTool() mcp.Tool {
	return mcp.NewTool("stock_story",
		mcp.WithDescription("Explain a stock as a five act story with a buy / don't buy / maybe decision framework."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol"),
		),
		mcp.WithString("style",
			mcp.Description("bedtime, movie, teacher, eli5 or facts (default: movie)"),
		),
	)
}
