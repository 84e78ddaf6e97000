package utils

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/schollz/progressbar/v3"
)

// Standard progress bar descriptions
const (
	DescFetching   = "Fetching"
	DescProcessing = "Processing"
	DescWaiting    = "Waiting"
)

// NewProgressBar creates a consistently styled progress bar.
//
// Parameters:
//   - total: Total number of items. Use -1 for unknown totals (indeterminate/spinner mode).
//   - description: Text description to show before the progress bar.
//   - extra: additional options, e.g. progressbar.OptionSetWriter.
//
// Behavior:
//   - For unknown totals (total < 0): Uses spinner type 14 with blank state rendering.
//   - For known totals (total >= 0): Shows count and iterations/second (its).
//   - All progress bars show count.
func NewProgressBar(total int, description string, extra ...progressbar.Option) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, append(opts, extra...)...)
}

// SinkFunc adapts a function to domain.ProgressSink
type SinkFunc func(domain.ProgressEvent)

// Emit calls f(event)
func (f SinkFunc) Emit(event domain.ProgressEvent) {
	f(event)
}

// DiscardSink drops every event
var DiscardSink domain.ProgressSink = SinkFunc(func(domain.ProgressEvent) {})

// MultiSink fans events out to several sinks in order
type MultiSink []domain.ProgressSink

// Emit forwards event to every non-nil sink
func (m MultiSink) Emit(event domain.ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(event)
		}
	}
}

// StampStats returns a sink that fills in the timestamp and the current
// statistics snapshot of events that carry none before forwarding them.
func StampStats(next domain.ProgressSink, snapshot func() domain.Stats) domain.ProgressSink {
	if next == nil {
		return DiscardSink
	}
	return SinkFunc(func(event domain.ProgressEvent) {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}
		if event.Stats.Start.IsZero() && snapshot != nil {
			event.Stats = snapshot()
		}
		next.Emit(event)
	})
}

// ChannelSink buffers events on a channel. Emit never blocks: when the buffer
// is full, non-terminal events are dropped and terminal events evict the
// oldest queued event.
type ChannelSink struct {
	ch      chan domain.ProgressEvent
	dropped atomic.Int64
	mu      sync.Mutex
}

// NewChannelSink creates a ChannelSink with the given buffer size
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan domain.ProgressEvent, buffer)}
}

// Emit queues event
func (s *ChannelSink) Emit(event domain.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.ch <- event:
		return
	default:
	}

	if !event.Phase.Terminal() {
		s.dropped.Add(1)
		return
	}

	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}
	select {
	case s.ch <- event:
	default:
		s.dropped.Add(1)
	}
}

// Events returns the receive side of the buffer
func (s *ChannelSink) Events() <-chan domain.ProgressEvent {
	return s.ch
}

// Dropped returns how many events were discarded
func (s *ChannelSink) Dropped() int64 {
	return s.dropped.Load()
}

// LogSink writes events to a logger
type LogSink struct {
	logger *Logger
}

// NewLogSink creates a LogSink
func NewLogSink(logger *Logger) *LogSink {
	return &LogSink{logger: logger.OrNop()}
}

// Emit logs event at a level matching its phase
func (s *LogSink) Emit(event domain.ProgressEvent) {
	ev := s.logger.Debug()
	switch event.Phase {
	case domain.PhaseInitializing, domain.PhaseGenerating, domain.PhaseComplete:
		ev = s.logger.Info()
	case domain.PhaseWarning, domain.PhaseWaiting, domain.PhaseRetrying, domain.PhaseAborted:
		ev = s.logger.Warn()
	case domain.PhaseError:
		ev = s.logger.Error()
	}

	ev = ev.Str("phase", string(event.Phase)).
		Int("files", event.Stats.TotalFiles).
		Int("skipped", event.Stats.SkippedFiles)
	if event.Progress != nil {
		ev = ev.Float64("progress", *event.Progress)
	}
	ev.Msg(event.Message)
}

// BarSink renders events on a spinner-style progress bar
type BarSink struct {
	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	counted  int
	finished bool
}

// NewBarSink creates a BarSink drawing on w
func NewBarSink(w io.Writer) *BarSink {
	bar := NewProgressBar(-1, DescFetching,
		progressbar.OptionSetWriter(w),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
	return &BarSink{bar: bar}
}

// Emit advances the bar by the number of newly accepted files
func (s *BarSink) Emit(event domain.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return
	}

	s.bar.Describe(describePhase(event))
	if delta := event.Stats.TotalFiles - s.counted; delta > 0 {
		s.counted = event.Stats.TotalFiles
		_ = s.bar.Add(delta)
	} else {
		_ = s.bar.RenderBlank()
	}

	if event.Phase.Terminal() {
		s.finished = true
		_ = s.bar.Finish()
	}
}

func describePhase(event domain.ProgressEvent) string {
	switch event.Phase {
	case domain.PhaseWaiting:
		return fmt.Sprintf("%s: %s", DescWaiting, event.Message)
	case domain.PhaseProcessing:
		return DescProcessing
	case domain.PhaseFetching:
		if event.Progress != nil {
			return fmt.Sprintf("%s (%.0f%%)", DescFetching, *event.Progress*100)
		}
		return DescFetching
	}
	return event.Message
}
