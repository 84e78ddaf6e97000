// Package walker fans a repository tree out over a TreeSource with bounded
// parallelism and turns the accepted blobs into file records.
package walker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/quantmind-br/repo2llm/internal/converter"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/skip"
	"github.com/quantmind-br/repo2llm/internal/tokens"
	"github.com/quantmind-br/repo2llm/internal/utils"
)

// DefaultConcurrency is used when Options.Concurrency is below 1
const DefaultConcurrency = 5

// Options configures a Walker
type Options struct {
	Source      domain.TreeSource
	Policy      *skip.Policy
	Concurrency int
	Sink        domain.ProgressSink
	Logger      *utils.Logger
	Now         func() time.Time
}

// Result is what a walk collected. On failure or cancellation it holds the
// records gathered up to that point.
type Result struct {
	Repository domain.Repository
	Files      []domain.FileRecord
	Stats      domain.Stats
}

// Walker drives one TreeSource
type Walker struct {
	source      domain.TreeSource
	policy      *skip.Policy
	concurrency int
	sink        domain.ProgressSink
	logger      *utils.Logger
	now         func() time.Time
	latest      atomic.Pointer[domain.Stats]
}

// New creates a Walker
func New(opts Options) (*Walker, error) {
	if opts.Source == nil {
		return nil, errors.New("walker: source is required")
	}
	if opts.Policy == nil {
		opts.Policy = skip.New(skip.Options{})
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Sink == nil {
		opts.Sink = utils.DiscardSink
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Walker{
		source:      opts.Source,
		policy:      opts.Policy,
		concurrency: opts.Concurrency,
		sink:        opts.Sink,
		logger:      opts.Logger.OrNop().WithComponent("walker"),
		now:         opts.Now,
	}, nil
}

// Snapshot returns the statistics of the current or last walk. It is safe to
// call from any goroutine.
func (w *Walker) Snapshot() domain.Stats {
	if s := w.latest.Load(); s != nil {
		return s.Clone()
	}
	return domain.Stats{}
}

type taskKind int

const (
	listTask taskKind = iota
	fileTask
)

type task struct {
	kind  taskKind
	dir   string
	entry domain.TreeEntry
}

type outcome struct {
	task     task
	entries  []domain.TreeEntry
	record   *domain.FileRecord
	skip     domain.Decision
	skipSize int64
	err      error
}

// dirProgress counts finished file tasks of one listing
type dirProgress struct {
	done  int
	total int
}

// walk is the coordinator state of one Walk call. Only the coordinator
// goroutine touches it.
type walk struct {
	w       *Walker
	repo    domain.Repository
	stats   domain.Stats
	records []domain.FileRecord
	dirs    map[string]*dirProgress
}

// Walk lists repo from its root (or sub-path), fetches every accepted file
// and returns the records sorted by path. When repo names no ref the default
// branch is looked up first.
//
// Sub-directory listing failures and file fetch failures are absorbed.
// Rate-limit errors, authentication errors and failures at the root end the
// walk; the returned Result then holds the partial collection.
func (w *Walker) Walk(ctx context.Context, repo domain.Repository) (*Result, error) {
	run := &walk{
		w:     w,
		repo:  repo,
		stats: domain.Stats{Start: w.now()},
		dirs:  make(map[string]*dirProgress),
	}
	run.publish()

	logger := w.logger.WithRepository(repo.FullName())

	if repo.Ref == "" {
		branch, err := w.source.DefaultBranch(ctx, repo)
		if err != nil {
			return run.result(), run.wrap(ctx, fmt.Errorf("metadata for %s: %w", repo.FullName(), err))
		}
		run.repo.DefaultBranch = branch
		logger.Debug().Str("branch", branch).Msg("Resolved default branch")
	}

	root := strings.Trim(repo.SubPath, "/")
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome)
	queue := []task{{kind: listTask, dir: root}}
	inFlight := 0
	// done is nil for contexts that cannot be cancelled
	done := ctx.Done()
	stopped := false
	var fatal error

	for {
		for fatal == nil && !stopped && inFlight < w.concurrency && len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			inFlight++
			go func(t task) {
				results <- w.execute(workCtx, run.repo, t)
			}(next)
		}
		if inFlight == 0 {
			break
		}

		select {
		case <-done:
			done = nil
			stopped = true
			queue = nil
			cancel()
			logger.Debug().Int("in_flight", inFlight).Msg("Walk cancelled; draining")
		case out := <-results:
			inFlight--
			more, err := run.handle(out, root, stopped)
			if err != nil && fatal == nil {
				fatal = err
				queue = nil
				cancel()
				continue
			}
			queue = append(queue, more...)
		}
	}

	res := run.result()
	switch {
	case fatal != nil:
		return res, run.wrap(ctx, fatal)
	case ctx.Err() != nil:
		return res, run.wrap(ctx, ctx.Err())
	}

	logger.Debug().
		Int("files", res.Stats.TotalFiles).
		Int("skipped", res.Stats.SkippedFiles).
		Msg("Walk finished")
	return res, nil
}

// execute runs one task. It is the only code that runs off the coordinator.
func (w *Walker) execute(ctx context.Context, repo domain.Repository, t task) outcome {
	if t.kind == listTask {
		entries, err := w.source.ListDir(ctx, repo, t.dir)
		return outcome{task: t, entries: entries, err: err}
	}
	return w.processFile(ctx, repo, t)
}

func (w *Walker) processFile(ctx context.Context, repo domain.Repository, t task) outcome {
	entry := t.entry
	out := outcome{task: t}

	blob, err := w.source.FetchFile(ctx, repo, entry)
	if err != nil {
		out.err = err
		return out
	}

	size := entry.Size
	if size <= 0 {
		size = int64(len(blob.Content))
	}

	content, _ := converter.DecodeBOM(blob.Content)
	head := content
	if len(head) > skip.SniffLen {
		head = head[:skip.SniffLen]
	}
	if d := w.policy.CheckContent(head); d.Skipped() {
		out.skip = d
		out.skipSize = size
		return out
	}

	utf8Content, _, err := converter.ConvertToUTF8(content)
	if err != nil {
		out.skip = domain.SkipBinary
		out.skipSize = size
		return out
	}

	text := string(utf8Content)
	lastModified := blob.LastModified
	if lastModified == nil {
		lastModified = entry.LastModified
	}
	out.record = &domain.FileRecord{
		Path:            entry.Path,
		Content:         text,
		ByteSize:        int64(len(utf8Content)),
		LineCount:       tokens.Lines(text),
		EstimatedTokens: tokens.Estimate(text),
		LastModified:    lastModified,
	}
	return out
}

// handle folds one outcome into the walk state and returns follow-up tasks.
// A non-nil error ends the walk.
func (r *walk) handle(out outcome, root string, stopping bool) ([]task, error) {
	if out.task.kind == listTask {
		return r.handleListing(out, root, stopping)
	}
	return nil, r.handleFile(out, stopping)
}

func (r *walk) handleListing(out outcome, root string, stopping bool) ([]task, error) {
	dir := out.task.dir
	logger := r.w.logger

	if out.err != nil {
		switch {
		case errors.Is(out.err, domain.ErrCancelled) || stopping:
			return nil, nil
		case dir == root, domain.IsFatal(out.err):
			return nil, out.err
		}
		logger.Warn().Err(out.err).Str("dir", dir).Msg("Skipping subtree after listing failure")
		r.emit(domain.PhaseWarning, fmt.Sprintf("Skipped %s: %v", displayDir(dir), out.err), nil)
		return nil, nil
	}
	if stopping {
		return nil, nil
	}

	entries := append([]domain.TreeEntry(nil), out.entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	var next []task
	files := 0
	for _, entry := range entries {
		entryPath := entry.Path
		if entryPath == "" {
			entryPath = path.Join(dir, entry.Name)
			entry.Path = entryPath
		}

		if entry.IsDir() {
			if d := r.w.policy.CheckPath(entryPath, true); d.Skipped() {
				logger.Debug().Str("dir", entryPath).Str("reason", string(d)).Msg("Pruned directory")
				continue
			}
			next = append(next, task{kind: listTask, dir: entryPath})
			continue
		}

		d := r.w.policy.CheckPath(entryPath, false)
		if !d.Skipped() {
			d = r.w.policy.CheckSize(entry.Size)
		}
		if d.Skipped() {
			r.stats.AddSkip(d, entry.Size)
			logger.Debug().Str("path", entryPath).Str("reason", string(d)).Msg("Skipped file")
			continue
		}
		next = append(next, task{kind: fileTask, dir: dir, entry: entry})
		files++
	}

	if files > 0 {
		r.dirs[dir] = &dirProgress{total: files}
	}
	r.publish()
	r.emit(domain.PhaseFetching,
		fmt.Sprintf("Listed %s: %d files queued", displayDir(dir), files),
		nil)
	return next, nil
}

func (r *walk) handleFile(out outcome, stopping bool) error {
	entry := out.task.entry
	logger := r.w.logger

	switch {
	case out.err != nil:
		if errors.Is(out.err, domain.ErrCancelled) || stopping {
			return nil
		}
		if domain.IsFatal(out.err) {
			return out.err
		}
		r.stats.AddSkip(domain.SkipFetchFailed, entry.Size)
		logger.Warn().Err(out.err).Str("path", entry.Path).Msg("Failed to fetch file")
	case out.record != nil:
		r.records = append(r.records, *out.record)
		r.stats.AddRecord(*out.record)
	default:
		r.stats.AddSkip(out.skip, out.skipSize)
		logger.Debug().Str("path", entry.Path).Str("reason", string(out.skip)).Msg("Skipped file")
	}

	var progress *float64
	if p := r.dirs[out.task.dir]; p != nil {
		p.done++
		progress = domain.Fraction(p.done, p.total)
		if p.done >= p.total {
			delete(r.dirs, out.task.dir)
		}
	}
	r.publish()
	r.emit(domain.PhaseProcessing, "Processed "+entry.Path, progress)
	return nil
}

func (r *walk) publish() {
	snap := r.stats.Clone()
	r.w.latest.Store(&snap)
}

func (r *walk) emit(phase domain.Phase, msg string, progress *float64) {
	r.w.sink.Emit(domain.ProgressEvent{
		Phase:     phase,
		Message:   msg,
		Progress:  progress,
		Stats:     r.stats.Clone(),
		Timestamp: r.w.now(),
	})
}

// result sorts the records, reconciles the statistics and stamps the end.
func (r *walk) result() *Result {
	files := append([]domain.FileRecord(nil), r.records...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	stats := r.stats.Clone()
	stats.Finish(r.w.now(), files)
	r.w.latest.Store(&stats)

	return &Result{
		Repository: r.repo,
		Files:      files,
		Stats:      stats.Clone(),
	}
}

// wrap turns any error observed after the caller cancelled into a cancelled
// error so an aborted run is never reported as a failure.
func (r *walk) wrap(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, domain.ErrCancelled) {
		return fmt.Errorf("walk %s: %w: %w", r.repo.FullName(), domain.ErrCancelled, ctx.Err())
	}
	return err
}

func displayDir(dir string) string {
	if dir == "" {
		return "/"
	}
	return dir
}
