package usreport

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/siherrmann/usreport/helper"
)

// DefaultReloadDelay batches rapid saves into one reload
const DefaultReloadDelay = 500 * time.Millisecond

// WatchCorpus reloads the corpus whenever a markdown file below the corpus directory changes.
// It blocks until ctx is done. A failed reload is logged and the previous corpus stays active.
func (r *Reporter) WatchCorpus(ctx context.Context) error {
	return r.watchCorpus(ctx, DefaultReloadDelay, nil)
}

func (r *Reporter) watchCorpus(ctx context.Context, delay time.Duration, reloaded func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return helper.NewError("create watcher", err)
	}
	defer watcher.Close()

	// fsnotify is not recursive, so every directory is added
	err = filepath.WalkDir(r.Config.CorpusDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return helper.NewError("watch corpus", err)
	}

	r.log.Info("Watching corpus", slog.String("dir", r.Config.CorpusDir))

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if isDir(event.Name) {
					_ = watcher.Add(event.Name)
				}
			}
			if !isCorpusEvent(event) {
				continue
			}
			r.log.Debug("Corpus changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			if pending {
				timer.Stop()
			}
			timer.Reset(delay)
			pending = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("Corpus watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			pending = false
			err := r.LoadCorpus(ctx)
			if err != nil {
				r.log.Error("Corpus reload failed, keeping previous corpus", slog.String("error", err.Error()))
			}
			if reloaded != nil {
				reloaded(err)
			}
		}
	}
}

func isCorpusEvent(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
