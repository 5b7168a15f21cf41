package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
)

// defaultConfigFiles are tried in order when no --config is given
var defaultConfigFiles = []string{"mgp.toml", "deployments/local/mgp.toml"}

// cli carries the state resolved by the root command for its subcommands
type cli struct {
	configFiles []string
	logLevel    string
	quiet       bool

	config *common.Config
	logger arbor.ILogger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "mgp",
		Short: "Mahaney Growth Protocol screener",
		Long: `mgp screens growth stocks with the Iron Gate, a deterministic filter on
revenue growth, margins, operating leverage and valuation, and runs an LLM
deep dive on the tickers that pass.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.bootstrap()
		},
	}

	rootCmd.PersistentFlags().StringArrayVar(&c.configFiles, "config", nil, "Configuration file (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "Suppress the banner")

	rootCmd.AddCommand(
		newAnalyzeCmd(c),
		newGateCmd(c),
		newHistoryCmd(c),
		newWatchCmd(c),
		newVersionCmd(),
	)

	return rootCmd
}

// bootstrap follows the startup order:
// 1. load config (defaults -> files -> .env -> env)
// 2. apply CLI overrides
// 3. initialize logger
// 4. print banner
func (c *cli) bootstrap() error {
	if len(c.configFiles) == 0 {
		for _, path := range defaultConfigFiles {
			if _, err := os.Stat(path); err == nil {
				c.configFiles = append(c.configFiles, path)
				break
			}
		}
	}

	cfg, err := common.LoadFromFiles(c.configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}

	c.config = cfg
	c.logger = common.InitLogger(cfg)

	if !c.quiet {
		common.PrintBanner(common.GetVersion())
	}

	c.logger.Debug().
		Strs("config_files", c.configFiles).
		Str("gateway", cfg.Gateway.Provider).
		Str("llm", string(cfg.LLM.DefaultProvider)).
		Str("search", cfg.Search.Provider).
		Bool("storage", cfg.Storage.Enabled).
		Msg("Configuration loaded")

	return nil
}

// validate runs after command flags have been applied to the config
func (c *cli) validate() error {
	return c.config.Validate()
}
