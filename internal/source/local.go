package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/utils"
)

// gitDir is the repository store, never part of the tree
const gitDir = ".git"

// Local serves a directory on disk as a repository tree. Rules from the
// root .gitignore are honoured and symbolic links are not followed.
type Local struct {
	root   string
	branch string
	ignore gitignore.IgnoreMatcher
	logger *utils.Logger
}

// NewLocal creates a Local source rooted at dir
func NewLocal(dir string, logger *utils.Logger) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	l := &Local{
		root:   abs,
		logger: logger.OrNop().WithComponent("source.local"),
	}
	if m, err := gitignore.NewGitIgnore(filepath.Join(abs, ".gitignore")); err == nil {
		l.ignore = m
	}
	return l, nil
}

// Root returns the absolute directory being served
func (l *Local) Root() string {
	return l.root
}

// DefaultBranch returns the checked-out branch when known
func (l *Local) DefaultBranch(ctx context.Context, repo domain.Repository) (string, error) {
	if l.branch != "" {
		return l.branch, nil
	}
	return domain.DefaultBranchFallback, nil
}

// ListDir reads one directory
func (l *Local) ListDir(ctx context.Context, repo domain.Repository, dir string) ([]domain.TreeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w: %w", dir, domain.ErrCancelled, err)
	}

	full := filepath.Join(l.root, filepath.FromSlash(dir))
	dirents, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("list %s: %w", dir, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]domain.TreeEntry, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		rel := path.Join(dir, name)
		abs := filepath.Join(full, name)

		if de.IsDir() && name == gitDir {
			continue
		}
		if de.Type()&fs.ModeSymlink != 0 {
			l.logger.Debug().Str("path", rel).Msg("Skipping symbolic link")
			continue
		}
		if !de.IsDir() && !de.Type().IsRegular() {
			continue
		}
		if l.ignore != nil && l.ignore.Match(abs, de.IsDir()) {
			l.logger.Debug().Str("path", rel).Msg("Ignored by .gitignore")
			continue
		}

		info, err := de.Info()
		if err != nil {
			l.logger.Debug().Err(err).Str("path", rel).Msg("Entry vanished while listing")
			continue
		}

		entry := domain.TreeEntry{Name: name, Path: rel}
		if de.IsDir() {
			entry.Type = domain.EntryDir
		} else {
			mod := info.ModTime().UTC()
			entry.Type = domain.EntryFile
			entry.Size = info.Size()
			entry.LastModified = &mod
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FetchFile reads a file
func (l *Local) FetchFile(ctx context.Context, repo domain.Repository, entry domain.TreeEntry) (domain.Blob, error) {
	if err := ctx.Err(); err != nil {
		return domain.Blob{}, fmt.Errorf("fetch %s: %w: %w", entry.Path, domain.ErrCancelled, err)
	}

	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(entry.Path)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Blob{}, fmt.Errorf("fetch %s: %w", entry.Path, domain.ErrNotFound)
		}
		return domain.Blob{}, fmt.Errorf("fetch %s: %w", entry.Path, err)
	}
	return domain.Blob{Content: data, LastModified: entry.LastModified}, nil
}
