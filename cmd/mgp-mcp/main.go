package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/mgp/internal/app"
	"github.com/ternarybob/mgp/internal/common"
)

func main() {
	var configFiles []string
	if path := os.Getenv("MGP_CONFIG"); path != "" {
		configFiles = append(configFiles, path)
	} else if _, err := os.Stat("mgp.toml"); err == nil {
		configFiles = append(configFiles, "mgp.toml")
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs only go to file
	config.Logging.Output = []string{"file"}
	if config.Logging.Level == "info" || config.Logging.Level == "" {
		config.Logging.Level = "warn"
	}
	logger := common.InitLogger(config)

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(config, logger, app.GateOnly())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"mgp",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createIronGateTool(), handleIronGate(application.Analyzer, logger))
	mcpServer.AddTool(createGetLatestResultTool(), handleGetLatestResult(application.RunStorage(), logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
	}
}
