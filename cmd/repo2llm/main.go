package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/quantmind-br/repo2llm/internal/app"
	"github.com/quantmind-br/repo2llm/internal/config"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/manifest"
	"github.com/quantmind-br/repo2llm/internal/utils"
	"github.com/quantmind-br/repo2llm/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// cli holds the state of one command tree
type cli struct {
	v       *viper.Viper
	cfgFile string
	envFile string
	verbose bool
	quiet   bool
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "repo2llm <url>",
		Short: "Bundle a remote repository into one LLM-ready document",
		Long: `repo2llm walks a GitHub repository through the REST API (or a shallow
clone), skips binaries, lockfiles and oversized files, and emits the
remaining source as one artifact in text, markdown or JSON.

URLs may point at a branch and sub-directory:
  repo2llm https://github.com/owner/repo/tree/main/docs`,
		Version:           version.Short(),
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initConfig,
		RunE:              c.run,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ~/.repo2llm/config.yaml)")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.Flags().StringP("output", "o", "", "Output file or directory (default stdout)")
	rootCmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format: text, markdown or json")
	rootCmd.Flags().BoolP("clipboard", "c", false, "Copy the output to the clipboard")
	rootCmd.Flags().IntP("concurrency", "j", config.DefaultWorkers, "Number of concurrent fetches")
	rootCmd.Flags().Duration("timeout", config.DefaultTimeout, "Per-request timeout")
	rootCmd.Flags().String("max-file-size", config.DefaultMaxFileSize, "Skip files larger than this (e.g. 500KB, 1MB)")
	rootCmd.Flags().StringSlice("skip-dir", nil, "Additional directory names to skip")
	rootCmd.Flags().StringSlice("skip-file", nil, "Additional file names to skip")
	rootCmd.Flags().StringSlice("skip-ext", nil, "Additional extensions to skip")
	rootCmd.Flags().String("token", "", "API token (default $GITHUB_TOKEN)")
	rootCmd.Flags().String("mode", config.DefaultSourceMode, "Tree source: api or clone")
	rootCmd.Flags().String("api-url", "", "REST API base URL (default derived from the host)")
	rootCmd.Flags().Int("rpm", 0, "Client-side request budget per minute (0=unlimited)")
	rootCmd.Flags().Bool("no-cache", false, "Disable the response cache")
	rootCmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "Hide the progress bar")

	bindings := map[string]string{
		"output.file":                    "output",
		"output.format":                  "format",
		"output.clipboard":               "clipboard",
		"concurrency.workers":            "concurrency",
		"concurrency.timeout":            "timeout",
		"filter.max_file_size":           "max-file-size",
		"auth.token":                     "token",
		"source.mode":                    "mode",
		"source.api_base_url":            "api-url",
		"rate_limit.requests_per_minute": "rpm",
	}
	for key, flag := range bindings {
		_ = c.v.BindPFlag(key, rootCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(c))
	rootCmd.AddCommand(newBatchCmd(c))
	return rootCmd
}

// initConfig loads the dotenv file and selects the config file
func (c *cli) initConfig(cmd *cobra.Command, args []string) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", c.envFile, err)
		}
	}
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	}
	return nil
}

// loadConfig merges file, environment and flags
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFrom(c.v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Lookup("no-cache") != nil {
		if noCache, _ := flags.GetBool("no-cache"); noCache {
			cfg.Cache.Enabled = false
		}
	}
	for flag, target := range map[string]*[]string{
		"skip-dir":  &cfg.Filter.SkipDirs,
		"skip-file": &cfg.Filter.SkipFiles,
		"skip-ext":  &cfg.Filter.SkipExtensions,
	} {
		if flags.Lookup(flag) == nil {
			continue
		}
		extra, _ := flags.GetStringSlice(flag)
		*target = append(*target, extra...)
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	orchestrator, err := c.newOrchestrator(cmd, cfg)
	if err != nil {
		return err
	}

	url := args[0]
	if err := orchestrator.ValidateURL(url); err != nil {
		return err
	}

	start := time.Now()
	res, err := orchestrator.Run(cmd.Context(), url)
	if err != nil {
		var runErr *domain.RunError
		if errors.As(err, &runErr) {
			if hint := runErr.Guidance(); hint != "" {
				fmt.Fprintf(stderr, "hint: %s\n", hint)
			}
		}
		return err
	}

	if cfg.Output.File != "" || cfg.Output.Clipboard {
		printSummary(stderr, res, time.Since(start))
	}
	return nil
}

// newOrchestrator wires logging and progress output for cmd
func (c *cli) newOrchestrator(cmd *cobra.Command, cfg *config.Config) (*app.Orchestrator, error) {
	stderr := cmd.ErrOrStderr()
	log := utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  stderr,
		Verbose: c.verbose,
	})

	sinks := utils.MultiSink{utils.NewLogSink(log)}
	if !c.quiet && !c.verbose {
		sinks = append(sinks, utils.NewBarSink(stderr))
	}

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Config:  cfg,
		Verbose: c.verbose,
		Logger:  log,
		Sink:    sinks,
		Stdout:  cmd.OutOrStdout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return orchestrator, nil
}

func printSummary(w io.Writer, res *app.RunResult, elapsed time.Duration) {
	fmt.Fprintf(w, "%s: %d files, %s, ~%s tokens (%d skipped) in %s\n",
		res.Repository.FullName(),
		res.Stats.TotalFiles,
		humanize.Bytes(uint64(res.Stats.TotalBytes)),
		humanize.Comma(int64(res.Document.TotalTokens())),
		res.Stats.SkippedFiles,
		elapsed.Round(time.Millisecond))
}

func newBatchCmd(c *cli) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch <manifest>",
		Short: "Bundle every repository listed in a YAML or JSON manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.NewLoader().Load(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
			}
			if cmd.Flags().Changed("continue-on-error") {
				m.Options.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
			}

			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			c.quiet = true
			orchestrator, err := c.newOrchestrator(cmd, cfg)
			if err != nil {
				return err
			}

			results, err := orchestrator.RunManifest(cmd.Context(), m)
			out := cmd.OutOrStdout()
			for _, r := range results {
				switch {
				case r.Cancelled():
					fmt.Fprintf(out, "cancelled  %s\n", r.Source.URL)
				case r.Failed():
					fmt.Fprintf(out, "failed     %s: %v\n", r.Source.URL, r.Error)
				default:
					fmt.Fprintf(out, "ok         %s (%d files, %s)\n",
						r.Source.URL, r.Result.Stats.TotalFiles, r.Duration.Round(time.Millisecond))
				}
			}
			return err
		},
	}
	batchCmd.Flags().Bool("continue-on-error", false, "Keep going when a repository fails")
	return batchCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}

func newConfigCmd(c *cli) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.Token != "" {
				cfg.Auth.Token = "***"
			}
			if cfg.Auth.Password != "" {
				cfg.Auth.Password = "***"
			}
			return writeYAML(cmd.OutOrStdout(), cfg)
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to " + config.ConfigFilePath(),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFilePath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.EnsureConfigDir(); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := writeYAML(f, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigFilePath())
		},
	})
	return configCmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// exitCode maps a command error to the process status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrCancelled):
		return exitCancelled
	case errors.Is(err, domain.ErrInvalidInput):
		return exitUsage
	}
	return exitFailure
}
