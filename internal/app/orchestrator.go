package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantmind-br/repo2llm/internal/cache"
	"github.com/quantmind-br/repo2llm/internal/config"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/fetcher"
	"github.com/quantmind-br/repo2llm/internal/output"
	"github.com/quantmind-br/repo2llm/internal/resolve"
	"github.com/quantmind-br/repo2llm/internal/skip"
	"github.com/quantmind-br/repo2llm/internal/source"
	"github.com/quantmind-br/repo2llm/internal/utils"
	"github.com/quantmind-br/repo2llm/internal/walker"
)

// Orchestrator runs the resolve, walk, render and write pipeline for one
// repository at a time
type Orchestrator struct {
	config        *config.Config
	logger        *utils.Logger
	sink          domain.ProgressSink
	writer        domain.Writer
	stdout        io.Writer
	httpClient    *http.Client
	sourceFactory SourceFactory
	now           func() time.Time
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config  *config.Config
	Verbose bool

	// Logger overrides the logger built from Config.Logging
	Logger *utils.Logger
	// Sink observes progress events; nil discards them
	Sink domain.ProgressSink
	// Writer overrides the destination built from Config.Output
	Writer domain.Writer
	// Stdout is where the default writer sends the artifact
	Stdout io.Writer
	// HTTPClient is the transport seam, e.g. for a proxy
	HTTPClient    *http.Client
	SourceFactory SourceFactory
	Now           func() time.Time
}

// SourceDeps is what a SourceFactory builds a tree source from
type SourceDeps struct {
	Repository  domain.Repository
	Fetcher     domain.Fetcher
	Credentials resolve.Credentials
	APIBaseURL  string
	Logger      *utils.Logger
}

// SourceFactory returns the tree source for mode. The returned close
// function, when not nil, is called after the walk.
type SourceFactory func(ctx context.Context, mode domain.SourceMode, deps SourceDeps) (domain.TreeSource, func() error, error)

// RunResult is the outcome of a successful run
type RunResult struct {
	Repository domain.Repository
	Document   output.Document
	Artifact   string
	Stats      domain.Stats
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: opts.Verbose,
		})
	}

	sink := opts.Sink
	if sink == nil {
		sink = utils.DiscardSink
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	factory := opts.SourceFactory
	if factory == nil {
		factory = DefaultSourceFactory
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		config:        cfg,
		logger:        logger.WithComponent("app"),
		sink:          sink,
		writer:        opts.Writer,
		stdout:        stdout,
		httpClient:    opts.HTTPClient,
		sourceFactory: factory,
		now:           now,
	}, nil
}

// DefaultSourceFactory serves the REST contents API in api mode and a
// shallow clone in clone mode
func DefaultSourceFactory(ctx context.Context, mode domain.SourceMode, deps SourceDeps) (domain.TreeSource, func() error, error) {
	switch mode {
	case domain.SourceAPI, "":
		return source.NewGitHub(deps.Fetcher, deps.APIBaseURL, deps.Logger), nil, nil
	case domain.SourceClone:
		clone, err := source.NewClone(ctx, deps.Repository, source.CloneOptions{
			Credentials: deps.Credentials,
			Logger:      deps.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return clone, clone.Close, nil
	}
	return nil, nil, domain.NewValidationError("source.mode", fmt.Sprintf("unknown mode %q", mode))
}

// Run ingests the repository at rawURL and delivers the rendered artifact.
// Every failure is a *domain.RunError carrying the statistics gathered so
// far; a cancelled run ends with an aborted event instead of an error event.
func (o *Orchestrator) Run(ctx context.Context, rawURL string) (*RunResult, error) {
	startTime := o.now()
	stats := domain.Stats{Start: startTime}

	o.emit(domain.PhaseInitializing, "Resolving "+rawURL, stats)

	repo, err := resolve.ParseURL(rawURL)
	if err != nil {
		return nil, o.fail(rawURL, stats, err)
	}
	creds, err := resolve.ResolveCredentials(o.config.Auth)
	if err != nil {
		return nil, o.fail(repo.URL(), stats, err)
	}

	logger := o.logger.WithRepository(repo.FullName())
	logger.Info().
		Str("url", repo.URL()).
		Str("ref", repo.Ref).
		Str("mode", string(o.config.SourceMode())).
		Str("format", string(o.config.FormatValue())).
		Int("concurrency", o.config.Concurrency.Workers).
		Str("auth", string(creds.Kind())).
		Msg("Starting repository ingestion")

	var responses domain.Cache
	if o.config.Cache.Enabled {
		bc, err := cache.NewBadgerCache(cache.Options{Compress: o.config.Cache.Compress})
		if err != nil {
			logger.Warn().Err(err).Msg("Response cache unavailable; continuing without it")
		} else {
			responses = bc
			defer bc.Close()
		}
	}

	var w *walker.Walker
	snapshot := func() domain.Stats {
		if w == nil {
			return stats
		}
		return w.Snapshot()
	}

	client := fetcher.NewClient(fetcher.ClientOptions{
		HTTPClient:        o.httpClient,
		Timeout:           o.config.Concurrency.Timeout,
		Credentials:       creds,
		Cache:             responses,
		MaxRateLimitWait:  o.config.RateLimit.MaxWait,
		RateLimitRetries:  o.config.RateLimit.Retries,
		WarnThreshold:     o.config.RateLimit.WarnThreshold,
		RequestsPerMinute: o.config.RateLimit.RequestsPerMinute,
		Sink:              utils.StampStats(o.sink, snapshot),
		Logger:            o.logger,
	})
	defer client.Close()

	apiBase := o.config.Source.APIBaseURL
	if apiBase == "" {
		apiBase = source.APIBaseURL(repo.Host)
	}

	src, closeSource, err := o.sourceFactory(ctx, o.config.SourceMode(), SourceDeps{
		Repository:  repo,
		Fetcher:     client,
		Credentials: creds,
		APIBaseURL:  apiBase,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, o.fail(repo.URL(), stats, err)
	}
	if closeSource != nil {
		defer func() {
			if err := closeSource(); err != nil {
				logger.Warn().Err(err).Msg("Failed to release tree source")
			}
		}()
	}

	w, err = walker.New(walker.Options{
		Source: src,
		Policy: skip.New(skip.Options{
			SkipDirs:       o.config.Filter.SkipDirs,
			SkipFiles:      o.config.Filter.SkipFiles,
			SkipExtensions: o.config.Filter.SkipExtensions,
			MaxFileBytes:   o.config.MaxFileBytes(),
		}),
		Concurrency: o.config.Concurrency.Workers,
		Sink:        o.sink,
		Logger:      o.logger,
		Now:         o.now,
	})
	if err != nil {
		return nil, o.fail(repo.URL(), stats, err)
	}

	res, err := w.Walk(ctx, repo)
	if err != nil {
		if res != nil {
			stats = res.Stats
		}
		return nil, o.fail(repo.URL(), stats, err)
	}
	stats = res.Stats

	format := o.config.FormatValue()
	o.emit(domain.PhaseGenerating,
		fmt.Sprintf("Rendering %d files as %s", len(res.Files), format), stats)

	doc := output.NewDocument(res.Repository, res.Files, stats, o.now())
	artifact, err := output.Render(format, doc)
	if err != nil {
		return nil, o.fail(repo.URL(), stats, err)
	}

	if err := o.destination(repo, format).Write(ctx, artifact); err != nil {
		return nil, o.fail(repo.URL(), stats, err)
	}

	o.emit(domain.PhaseComplete,
		fmt.Sprintf("Collected %d files (%d skipped)", stats.TotalFiles, stats.SkippedFiles), stats)

	logger.Info().
		Int("files", stats.TotalFiles).
		Int("skipped", stats.SkippedFiles).
		Int("tokens", doc.TotalTokens()).
		Int64("round_trips", client.RoundTrips()).
		Dur("duration", o.now().Sub(startTime)).
		Msg("Repository ingestion completed")

	return &RunResult{
		Repository: res.Repository,
		Document:   doc,
		Artifact:   artifact,
		Stats:      stats,
	}, nil
}

// Config returns the effective configuration
func (o *Orchestrator) Config() *config.Config {
	return o.config
}

// ValidateURL checks if the URL can be processed
func (o *Orchestrator) ValidateURL(rawURL string) error {
	_, err := resolve.ParseURL(rawURL)
	return err
}

func (o *Orchestrator) destination(repo domain.Repository, format domain.Format) domain.Writer {
	if o.writer != nil {
		return o.writer
	}
	return output.NewWriter(output.WriterOptions{
		Path:      OutputPath(o.config.Output.File, repo, format),
		Clipboard: o.config.Output.Clipboard,
		Stdout:    o.stdout,
		Logger:    o.logger,
	})
}

// OutputPath resolves the configured output file. A directory (an existing
// one, or any path ending in a separator) receives a file named after the
// repository.
func OutputPath(file string, repo domain.Repository, format domain.Format) string {
	if file == "" {
		return ""
	}
	expanded := utils.ExpandPath(file)
	isDir := strings.HasSuffix(file, "/") || strings.HasSuffix(file, string(filepath.Separator))
	if !isDir {
		if info, err := os.Stat(expanded); err == nil && info.IsDir() {
			isDir = true
		}
	}
	if !isDir {
		return expanded
	}
	name := utils.OutputFilename(repo.Owner, repo.Name, repo.SubPath, format.Extension())
	return filepath.Join(expanded, name)
}

func (o *Orchestrator) fail(repository string, stats domain.Stats, err error) error {
	runErr := domain.NewRunError(repository, stats, err)
	if errors.Is(err, domain.ErrCancelled) {
		o.emit(domain.PhaseAborted, "Run cancelled", stats)
		o.logger.Warn().Str("repository", repository).Msg("Repository ingestion cancelled")
		return runErr
	}
	o.emit(domain.PhaseError, err.Error(), stats)
	o.logger.Error().
		Err(err).
		Str("repository", repository).
		Str("kind", string(runErr.Kind())).
		Msg("Repository ingestion failed")
	return runErr
}

func (o *Orchestrator) emit(phase domain.Phase, msg string, stats domain.Stats) {
	o.sink.Emit(domain.ProgressEvent{
		Phase:     phase,
		Message:   msg,
		Stats:     stats.Clone(),
		Timestamp: o.now(),
	})
}
