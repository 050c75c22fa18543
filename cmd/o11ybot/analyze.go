package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/poulsbopete/o11ybot/pkg/analyze"
	"github.com/poulsbopete/o11ybot/pkg/elastic"
	"github.com/poulsbopete/o11ybot/pkg/heuristics"
)

// connectionFlags are shared by analyze and ping. The URL and API key
// fall back to the ELASTIC_URL and ELASTIC_API_KEY environment variables.
type connectionFlags struct {
	url     string
	apiKey  string
	timeout time.Duration
	verbose bool
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "Elastic endpoint URL (or ELASTIC_URL)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Elastic API key (or ELASTIC_API_KEY)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", elastic.DefaultTimeout, "per-request timeout")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

// config resolves flags and environment into an explicit client config.
func (f *connectionFlags) config(cmd *cobra.Command) (elastic.Config, error) {
	v := viper.New()
	_ = v.BindPFlag("url", cmd.Flags().Lookup("url"))
	_ = v.BindPFlag("api_key", cmd.Flags().Lookup("api-key"))
	_ = v.BindEnv("url", "ELASTIC_URL")
	_ = v.BindEnv("api_key", "ELASTIC_API_KEY")

	cfg := elastic.Config{
		BaseURL: v.GetString("url"),
		APIKey:  normalizeAPIKey(v.GetString("api_key")),
		Timeout: f.timeout,
	}
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return elastic.Config{}, fmt.Errorf("missing connection settings\n\n" +
			"Set --url and --api-key, or export ELASTIC_URL and ELASTIC_API_KEY")
	}
	return cfg, nil
}

// normalizeAPIKey accepts either a bare key or a full "ApiKey <key>"
// Authorization value.
func normalizeAPIKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "ApiKey ") {
		return key
	}
	return "ApiKey " + key
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Encoding = "console"
	}
	return cfg.Build()
}

func analyzeCmd() *cobra.Command {
	var (
		conn          connectionFlags
		heuristicsDir string
		runTimeout    time.Duration
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [index-pattern...]",
		Short: "Discover signal fields and print example ESQL queries",
		Long: "Discover signal fields and print example ESQL queries.\n\n" +
			"Without arguments, the standard APM patterns (apm-*, traces-*,\n" +
			"logs-*, metrics-*) are probed and every pattern holding documents\n" +
			"is analyzed. Explicit patterns skip discovery.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conn.config(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(conn.verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			client, err := elastic.NewClient(cfg, logger)
			if err != nil {
				return err
			}

			reg, err := loadHeuristics(heuristicsDir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			patterns := args
			if len(patterns) == 0 {
				patterns = analyze.DiscoverIndices(ctx, client, analyze.DefaultPatterns, logger)
				if len(patterns) == 0 {
					return fmt.Errorf("no APM indices found\n\n" +
						"Make sure your OTel data is being ingested, or name index patterns explicitly:\n" +
						"  o11ybot analyze traces-*")
				}
			}

			analyzer := &analyze.Analyzer{
				Sampler:    analyze.NewClusterSampler(client, logger),
				Classifier: analyze.NewClassifier(reg),
				Breakdown:  client,
				Logger:     logger,
				RunTimeout: runTimeout,
			}
			report := analyzer.Run(ctx, patterns)

			if jsonOut {
				return renderJSON(cmd.OutOrStdout(), report)
			}
			return renderReport(cmd.OutOrStdout(), report)
		},
	}

	conn.register(cmd)
	cmd.Flags().StringVar(&heuristicsDir, "heuristics", "", "directory of additional category rule YAML files")
	cmd.Flags().DurationVar(&runTimeout, "run-timeout", analyze.DefaultRunTimeout, "overall analysis deadline")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")

	return cmd
}

func pingCmd() *cobra.Command {
	var conn connectionFlags

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Verify connectivity and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conn.config(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(conn.verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			client, err := elastic.NewClient(cfg, logger)
			if err != nil {
				return err
			}
			if err := client.Ping(cmd.Context(), "logs-*"); err != nil {
				return fmt.Errorf("cannot reach %s: %w\n\n"+
					"Verify your ELASTIC_URL and ELASTIC_API_KEY are correct", cfg.BaseURL, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully connected to %s\n", cfg.BaseURL)
			return nil
		},
	}

	conn.register(cmd)
	return cmd
}

// loadHeuristics returns the built-in rule registry, merged with any
// user-supplied rule directory so custom keywords override the defaults.
func loadHeuristics(dir string) (*heuristics.Registry, error) {
	reg, err := heuristics.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("loading built-in heuristics: %w", err)
	}
	if dir == "" {
		return reg, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("--heuristics directory %q does not exist", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("--heuristics path %q is not a directory", dir)
	}
	userReg, err := heuristics.Load(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("loading heuristics from %s: %w", dir, err)
	}
	return reg.Merge(userReg), nil
}
