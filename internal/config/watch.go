package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vacancybot/pkg/logx"
)

// WatchSearches watches the searches file and calls onChange with each
// successfully parsed search set. A file that fails to parse is logged and
// skipped; the previous set stays in effect.
//
// Editors often replace files via rename, so the parent directory is watched
// and events are debounced to avoid reacting to partial writes. The watcher
// is recreated with backoff when fsnotify gets into a bad state.
func WatchSearches(ctx context.Context, path string, log logx.Logger, onChange func(SearchSet)) error {
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	const (
		restartBackoffBase = 250 * time.Millisecond
		restartBackoffMax  = 5 * time.Second
	)
	backoff := restartBackoffBase

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			set, err := LoadSearchesFile(path)
			if err != nil {
				log.Warn("searches file reload rejected", logx.String("path", path), logx.Err(err))
				return
			}
			log.Info("searches reloaded",
				logx.Int("queries", len(set.Queries)),
				logx.Int("experience", len(set.Experience)))
			onChange(set)
		})
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		w, err := fsnotify.NewWatcher()
		if err != nil {
			log.Warn("searches watch init failed", logx.Err(err), logx.String("dir", dir))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > restartBackoffMax {
				backoff = restartBackoffMax
			}
			continue
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			log.Warn("searches watch add failed", logx.Err(err), logx.String("dir", dir))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > restartBackoffMax {
				backoff = restartBackoffMax
			}
			continue
		}
		backoff = restartBackoffBase

	events:
		for {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					break events
				}
				if filepath.Base(ev.Name) != file {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					break events
				}
				log.Warn("searches watch error", logx.Err(err))
			}
		}
		_ = w.Close()
	}
}
