package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/manifest"
	"golang.org/x/sync/errgroup"
)

// ManifestResult represents the result of processing one manifest source
type ManifestResult struct {
	Source   manifest.Source
	Result   *RunResult
	Error    error
	Duration time.Duration
}

// RunManifest bundles every source of the manifest. Results are returned in
// manifest order. Without continue_on_error the first failure cancels the
// sources still running.
func (o *Orchestrator) RunManifest(ctx context.Context, m *manifest.Config) ([]ManifestResult, error) {
	startTime := o.now()
	total := len(m.Sources)

	o.logger.Info().
		Int("sources", total).
		Bool("continue_on_error", m.Options.ContinueOnError).
		Str("output", m.Options.Output).
		Msg("Starting manifest execution")

	results := make([]ManifestResult, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(m.Options.Concurrency, manifest.MaxConcurrency)))

	for i, src := range m.Sources {
		g.Go(func() error {
			sourceStart := o.now()
			res, err := o.forSource(src, m.Options).Run(gctx, src.URL)
			results[i] = ManifestResult{
				Source:   src,
				Result:   res,
				Error:    err,
				Duration: o.now().Sub(sourceStart),
			}

			if err != nil {
				o.logger.Error().
					Err(err).
					Int("source_idx", i).
					Str("source_url", src.URL).
					Msg("Source failed")
				if !m.Options.ContinueOnError {
					return fmt.Errorf("source %s failed: %w", src.URL, err)
				}
				return nil
			}

			o.logger.Info().
				Int("source_idx", i).
				Str("source_url", src.URL).
				Int("files", res.Stats.TotalFiles).
				Dur("duration", results[i].Duration).
				Msg("Source completed")
			return nil
		})
	}

	firstError := g.Wait()

	if err := ctx.Err(); err != nil {
		o.logger.Warn().Msg("Manifest execution cancelled")
		return results, fmt.Errorf("manifest: %w: %w", domain.ErrCancelled, err)
	}

	failed := 0
	for _, r := range results {
		if r.Error == nil {
			continue
		}
		failed++
		if firstError == nil {
			firstError = r.Error
		}
	}

	o.logger.Info().
		Dur("total_duration", o.now().Sub(startTime)).
		Int("total", total).
		Int("success", total-failed).
		Int("failed", failed).
		Msg("Manifest execution completed")

	if firstError != nil {
		if !m.Options.ContinueOnError {
			o.logger.Warn().Msg("Stopped execution (continue_on_error=false)")
			return results, firstError
		}
		return results, fmt.Errorf("manifest completed with %d/%d failures: %w", failed, total, firstError)
	}
	return results, nil
}

// Failed returns true when the source did not produce an artifact
func (r ManifestResult) Failed() bool {
	return r.Error != nil || r.Result == nil
}

// Cancelled returns true when the source was stopped before it finished
func (r ManifestResult) Cancelled() bool {
	return errors.Is(r.Error, domain.ErrCancelled)
}

// forSource returns an orchestrator whose configuration carries the source
// overrides. Sources never write to the clipboard.
func (o *Orchestrator) forSource(src manifest.Source, opts manifest.Options) *Orchestrator {
	cfg := *o.config
	cfg.Filter.SkipDirs = append(slices.Clone(o.config.Filter.SkipDirs), src.SkipDirs...)
	cfg.Filter.SkipFiles = append(slices.Clone(o.config.Filter.SkipFiles), src.SkipFiles...)
	cfg.Filter.SkipExtensions = append(slices.Clone(o.config.Filter.SkipExtensions), src.SkipExtensions...)
	if src.Format != "" {
		cfg.Output.Format = src.Format
	}
	cfg.Output.Clipboard = false
	cfg.Output.File = src.Output
	if cfg.Output.File == "" {
		dir := opts.Output
		if dir == "" {
			dir = manifest.DefaultOptions().Output
		}
		cfg.Output.File = dir + string(filepath.Separator)
	}

	derived := *o
	derived.config = &cfg
	return &derived
}
