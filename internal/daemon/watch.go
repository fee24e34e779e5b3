package daemon

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchProfiles raises the reload flag whenever the profile document at
// path is written, created or renamed into place. The directory is watched
// rather than the file so editors that replace the file are followed.
//
// The watcher goroutine only sets the flag; the loop does the reload.
func WatchProfiles(path string, flags *Flags, logger *slog.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Clean(path)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					flags.RequestReload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("profile watcher error", "error", err)
			}
		}
	}()

	logger.Info("watching profile config", "path", path)
	return watcher, nil
}
