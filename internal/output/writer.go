package output

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/utils"
)

// Writer delivers a rendered artifact to a file, the clipboard or stdout
type Writer struct {
	path      string
	clipboard bool
	stdout    io.Writer
	copy      func(string) error
	logger    *utils.Logger
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	// Path is the output file; parent directories are created
	Path string
	// Clipboard copies the artifact to the system clipboard
	Clipboard bool
	// Stdout receives the artifact when no other destination is set, and
	// when the clipboard is unavailable
	Stdout io.Writer
	Logger *utils.Logger
}

// NewWriter creates a new output writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Writer{
		path:      opts.Path,
		clipboard: opts.Clipboard,
		stdout:    opts.Stdout,
		copy:      clipboard.WriteAll,
		logger:    opts.Logger.OrNop().WithComponent("output"),
	}
}

// Write delivers content. A file and the clipboard can both be targets;
// with neither, content goes to stdout.
func (w *Writer) Write(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}

	if w.path != "" {
		if err := w.writeFile(content); err != nil {
			return err
		}
	}

	if w.clipboard {
		if err := w.copy(content); err != nil {
			w.logger.Warn().Err(err).Msg("Clipboard unavailable; writing to stdout")
			return w.writeStdout(content)
		}
		w.logger.Info().Int("bytes", len(content)).Msg("Output copied to clipboard")
		return nil
	}

	if w.path == "" {
		return w.writeStdout(content)
	}
	return nil
}

// Destination describes where Write sends content
func (w *Writer) Destination() string {
	switch {
	case w.path != "" && w.clipboard:
		return utils.ExpandPath(w.path) + " and clipboard"
	case w.path != "":
		return utils.ExpandPath(w.path)
	case w.clipboard:
		return "clipboard"
	}
	return "stdout"
}

func (w *Writer) writeFile(content string) error {
	path := utils.ExpandPath(w.path)
	if err := utils.EnsureDir(path); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWriteFailed, path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWriteFailed, path, err)
	}
	w.logger.Info().Str("path", path).Int("bytes", len(content)).Msg("Output written")
	return nil
}

func (w *Writer) writeStdout(content string) error {
	if _, err := io.WriteString(w.stdout, content); err != nil {
		return fmt.Errorf("%w: stdout: %w", domain.ErrWriteFailed, err)
	}
	return nil
}
