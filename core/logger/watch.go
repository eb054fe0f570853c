package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	coreconfig "github.com/m3rciful/routeweather/core/config"
)

// LevelWatcher re-applies the log level whenever the config file or the
// dedicated level file changes on disk.
type LevelWatcher struct {
	watcher    *fsnotify.Watcher
	configPath string
	levelFile  string
	done       chan struct{}
	closeOnce  sync.Once
}

// WatchLevel starts watching configPath (logging.level) and levelFile (raw
// level name). Either may be empty; with both empty nil is returned.
func WatchLevel(configPath, levelFile string) (*LevelWatcher, error) {
	configPath = cleanPath(configPath)
	levelFile = cleanPath(levelFile)
	if configPath == "" && levelFile == "" {
		return nil, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("logger: watcher: %w", err)
	}
	// Directories are watched so that editors replacing the file by rename
	// keep triggering events.
	dirs := map[string]struct{}{}
	for _, p := range []string{configPath, levelFile} {
		if p != "" {
			dirs[filepath.Dir(p)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("logger: watch %s: %w", dir, err)
		}
	}

	lw := &LevelWatcher{
		watcher:    w,
		configPath: configPath,
		levelFile:  levelFile,
		done:       make(chan struct{}),
	}
	if levelFile != "" {
		lw.reload(levelFile)
	}
	go lw.loop()
	return lw, nil
}

// Close stops watching.
func (lw *LevelWatcher) Close() error {
	if lw == nil {
		return nil
	}
	var err error
	lw.closeOnce.Do(func() {
		err = lw.watcher.Close()
		<-lw.done
	})
	return err
}

func (lw *LevelWatcher) loop() {
	defer close(lw.done)
	for {
		select {
		case ev, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Clean(ev.Name)
			if name == lw.configPath || name == lw.levelFile {
				lw.reload(name)
			}
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			Warn(context.Background(), "app", "log_level.watch", slog.String("status", "fail"), slog.String("err", err.Error()))
		}
	}
}

func (lw *LevelWatcher) reload(path string) {
	ctx := context.Background()
	name, err := lw.read(path)
	if err != nil {
		Warn(ctx, "app", "log_level.reload",
			slog.String("status", "fail"),
			slog.String("file", filepath.Base(path)),
			slog.String("err", err.Error()),
		)
		return
	}
	if name == "" {
		return
	}
	prev := levelVar.Level()
	level, err := SetLevel(name)
	if err != nil {
		Warn(ctx, "app", "log_level.reload", slog.String("status", "fail"), slog.String("err", err.Error()))
		return
	}
	if level != prev {
		Info(ctx, "app", "log_level.changed",
			slog.String("from", prev.String()),
			slog.String("to", level.String()),
			slog.String("file", filepath.Base(path)),
		)
	}
}

func (lw *LevelWatcher) read(path string) (string, error) {
	if path == lw.levelFile {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", nil
			}
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	var cfg coreconfig.Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return "", err
	}
	return strings.TrimSpace(cfg.Logging.Level), nil
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}
