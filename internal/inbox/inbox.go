// Package inbox imports outline files dropped into a directory. Each file
// becomes notes under a configured parent and is then moved aside.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/storage"
)

const (
	// ProcessedDir receives files that were imported.
	ProcessedDir = "processed"
	// FailedDir receives files that could not be parsed.
	FailedDir = "failed"

	DefaultDebounce = 500 * time.Millisecond
)

// Extensions lists the file types the inbox picks up.
var Extensions = []string{".txt", ".md", ".yaml", ".yml"}

// Importer creates notes from outline data.
type Importer interface {
	ImportOutline(ctx context.Context, parentID string, data []byte, format string) ([]string, error)
}

// Callback is called after a file has been imported.
type Callback func(file string, ids []string)

// Config configures an Inbox.
type Config struct {
	ParentID string
	Debounce time.Duration
	Logger   *slog.Logger
	OnImport Callback
}

// Inbox imports files from one directory.
type Inbox struct {
	files    storage.Provider
	imp      Importer
	parentID string
	debounce time.Duration
	logger   *slog.Logger
	onImport Callback
}

// New creates an inbox over files.
func New(files storage.Provider, imp Importer, cfg Config) *Inbox {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Inbox{
		files:    files,
		imp:      imp,
		parentID: cfg.ParentID,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		onImport: cfg.OnImport,
	}
}

// Sync imports every file currently waiting in the inbox and returns how
// many were imported. A file whose import fails on a store error stays in
// place for the next pass.
func (ib *Inbox) Sync(ctx context.Context) (int, error) {
	metas, err := ib.files.List("", Extensions...)
	if err != nil {
		return 0, fmt.Errorf("inbox: sync: %w", err)
	}
	n := 0
	for _, m := range metas {
		ok, err := ib.importFile(ctx, m.Path)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func formatFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "text"
}

// importFile imports one file. It reports false for files that were empty
// or unparseable; those are moved aside without creating notes.
func (ib *Inbox) importFile(ctx context.Context, name string) (bool, error) {
	data, err := ib.files.Read(name)
	if err != nil {
		return false, fmt.Errorf("inbox: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		ib.logger.Info("inbox: skipped empty file", slog.String("file", name))
		return false, ib.moveAside(name, ProcessedDir)
	}

	ids, err := ib.imp.ImportOutline(ctx, ib.parentID, data, formatFor(name))
	switch {
	case errors.Is(err, apperr.ErrRejected):
		ib.logger.Warn("inbox: unparseable file", slog.String("file", name), slog.String("error", err.Error()))
		return false, ib.moveAside(name, FailedDir)
	case err != nil:
		return false, fmt.Errorf("inbox: import %s: %w", name, err)
	}

	ib.logger.Info("inbox: imported", slog.String("file", name), slog.Int("notes", len(ids)))
	if err := ib.moveAside(name, ProcessedDir); err != nil {
		return true, err
	}
	if ib.onImport != nil {
		ib.onImport(name, ids)
	}
	return true, nil
}

func (ib *Inbox) moveAside(name, dir string) error {
	if err := ib.files.Move(name, path.Join(dir, path.Base(name))); err != nil {
		return fmt.Errorf("inbox: move %s: %w", name, err)
	}
	return nil
}
