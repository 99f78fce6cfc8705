package world

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// defaultDebounce is how long a path must stay quiet before it is reloaded.
// Editors commonly emit several writes per save.
const defaultDebounce = 100 * time.Millisecond

// globalScriptDir is the scripts subdirectory loaded as the fallback scope.
const globalScriptDir = "global"

// Invalidator drops cached state derived from a room.
type Invalidator interface {
	Invalidate(roomID string)
}

// ScriptLoader (re)loads Lua scripts for a scope.
type ScriptLoader interface {
	LoadScope(scope, scriptDir string, instLimit int) error
	LoadGlobal(scriptDir string, instLimit int) error
}

// Watcher reloads room files and battle scripts when they change on disk.
type Watcher struct {
	fs       *fsnotify.Watcher
	rooms    *Manager
	cache    Invalidator
	scripts  ScriptLoader
	limit    int
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher watches roomsDir and every immediate subdirectory of
// scriptsDir. scripts may be nil, in which case script changes are ignored.
//
// Precondition: rooms, cache, and logger must be non-nil; roomsDir must exist.
// Postcondition: Returns a Watcher that must be closed, or a non-nil error.
func NewWatcher(rooms *Manager, cache Invalidator, scripts ScriptLoader, roomsDir, scriptsDir string, instLimit int, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	dirs := []string{roomsDir}
	if scripts != nil && scriptsDir != "" {
		sub, err := ScriptDirs(scriptsDir)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		dirs = append(dirs, sub...)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return &Watcher{
		fs:       fw,
		rooms:    rooms,
		cache:    cache,
		scripts:  scripts,
		limit:    instLimit,
		debounce: defaultDebounce,
		logger:   logger,
	}, nil
}

// Run dispatches file events until ctx is cancelled or the watcher is closed.
// A path is handled once it has been quiet for the debounce window, so a
// save that arrives as truncate-then-write is read only after the last write.
//
// Postcondition: Returns ctx.Err() on cancellation, or nil when the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]time.Time)
	flush := time.NewTicker(w.debounce / 2)
	defer flush.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[event.Name] = time.Now().Add(w.debounce)
		case now := <-flush.C:
			for path, due := range pending {
				if now.Before(due) {
					continue
				}
				delete(pending, path)
				w.Handle(path)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// Handle reloads whatever path belongs to. Room files replace the room and
// invalidate its grid; Lua files reload their directory's scope. Failures
// are logged and the previous content stays live.
func (w *Watcher) Handle(path string) {
	switch {
	case IsRoomFile(path):
		room, err := LoadRoomFromFile(path)
		if err != nil {
			w.logger.Warn("room reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		w.rooms.Replace(room)
		w.cache.Invalidate(room.ID)
		w.logger.Info("room reloaded", zap.String("room", room.ID), zap.String("path", path))
	case isScriptFile(path) && w.scripts != nil:
		dir := filepath.Dir(path)
		scope := filepath.Base(dir)
		var err error
		if scope == globalScriptDir {
			err = w.scripts.LoadGlobal(dir, w.limit)
		} else {
			err = w.scripts.LoadScope(scope, dir, w.limit)
		}
		if err != nil {
			w.logger.Warn("script reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		w.logger.Info("scripts reloaded", zap.String("scope", scope))
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// ScriptDirs lists the immediate subdirectories of root. Each names a scope:
// "global" or a room ID.
//
// Postcondition: Returns paths joined onto root in name order, or an error if root is unreadable.
func ScriptDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading script root %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs, nil
}

// LoadScripts loads every scope under root into loader: "global" via
// LoadGlobal and each other subdirectory as a room scope.
//
// Postcondition: Returns the number of scopes loaded, or the first error.
func LoadScripts(loader ScriptLoader, root string, instLimit int) (int, error) {
	dirs, err := ScriptDirs(root)
	if err != nil {
		return 0, err
	}
	for _, dir := range dirs {
		scope := filepath.Base(dir)
		if scope == globalScriptDir {
			err = loader.LoadGlobal(dir, instLimit)
		} else {
			err = loader.LoadScope(scope, dir, instLimit)
		}
		if err != nil {
			return 0, err
		}
	}
	return len(dirs), nil
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".lua"
}
