package inbox

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch imports files as they appear in the inbox directory until ctx is
// cancelled. Writes are debounced so a file is read once its writer has
// gone quiet. Subdirectories are not watched.
func (ib *Inbox) Watch(ctx context.Context) error {
	root, err := ib.files.Abs("")
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(root); err != nil {
		return err
	}

	ib.logger.Info("inbox: watching", slog.String("dir", root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(ib.debounce)
			fire = timer.C
		} else {
			timer.Reset(ib.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			ib.logger.Info("inbox: stopped")
			return nil

		case <-fire:
			for name := range pending {
				delete(pending, name)
				if _, err := ib.files.Read(name); err != nil {
					continue // gone before we got to it
				}
				if _, err := ib.importFile(ctx, name); err != nil {
					ib.logger.Warn("inbox: import failed", slog.String("file", name), slog.String("error", err.Error()))
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, ok := ib.candidate(root, ev.Name)
			if !ok {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[name] = struct{}{}
				schedule()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ib.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// candidate maps an event path to an inbox-relative file name when it is
// a file directly in the inbox with an accepted extension.
func (ib *Inbox) candidate(root, abs string) (string, bool) {
	if filepath.Dir(abs) != root {
		return "", false
	}
	base := filepath.Base(abs)
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	if !slices.Contains(Extensions, strings.ToLower(filepath.Ext(base))) {
		return "", false
	}
	return base, true
}
