package internal

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	pkgconfig "github.com/starford/jotgrid/pkg/config"
)

const reloadDebounce = 200 * time.Millisecond

// WatchConfig reloads the config file at path whenever it changes and applies
// its log level to level. Invalid files are logged and ignored. It blocks until
// ctx is cancelled.
//
// The parent directory is watched rather than the file, so editors that save
// by renaming a temp file over the original are still picked up.
func WatchConfig(ctx context.Context, path string, level *slog.LevelVar, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("configwatch: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("configwatch: stopped")
			return nil

		case <-reloadCh:
			reloadConfig(abs, level, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("configwatch: error", slog.String("error", watchErr.Error()))
		}
	}
}

func reloadConfig(path string, level *slog.LevelVar, logger *slog.Logger) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		logger.Warn("configwatch: reload failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if level.Level() == cfg.App.LogLevel {
		return
	}
	level.Set(cfg.App.LogLevel)
	logger.Info("configwatch: log level changed", slog.String("log_level", cfg.App.LogLevel.String()))
}
