package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createIronGateTool returns the iron_gate tool definition
func createIronGateTool() mcp.Tool {
	return mcp.NewTool("iron_gate",
		mcp.WithDescription("Run the Iron Gate growth screen for a ticker and return its metrics as Markdown. Makes no LLM calls."),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Stock ticker, e.g. DUOL"),
		),
	)
}

// createGetLatestResultTool returns the get_latest_result tool definition
func createGetLatestResultTool() mcp.Tool {
	return mcp.NewTool("get_latest_result",
		mcp.WithDescription("Return the most recent stored analysis for a ticker"),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Stock ticker, e.g. DUOL"),
		),
	)
}
