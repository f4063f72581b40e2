// Package watch implements C16: re-running a solve whenever the input
// file (or a sibling config file) changes on disk. It is grounded
// directly on the teacher's internal/runtime/vfs/watch_fsnotify.go
// watcher-goroutine-plus-channel shape; unlike the teacher's general
// virtual-filesystem watcher, this one is scoped to exactly the files
// a single solve run cares about and debounces bursts of writes (many
// editors save a file as several successive filesystem events) into one
// re-solve trigger.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a single debounced re-solve trigger.
type Event struct {
	Path string
	Err  error
}

// FileWatcher watches an input file and, if present, a sibling
// .synduce-config.json, emitting one debounced Event per burst of
// filesystem activity.
type FileWatcher struct {
	w        *fsnotify.Watcher
	evC      chan Event
	debounce time.Duration
}

// New starts watching inputPath (and its directory, since editors often
// replace a file by renaming a temp file over it, which fsnotify only
// observes from the containing directory) plus configPath if non-empty.
// debounce coalesces a burst of events within the given window into a
// single emitted Event.
func New(inputPath, configPath string, debounce time.Duration) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(inputPath)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	if configPath != "" {
		if cdir := filepath.Dir(configPath); cdir != dir {
			if err := w.Add(cdir); err != nil {
				_ = w.Close()
				return nil, err
			}
		}
	}

	fw := &FileWatcher{w: w, evC: make(chan Event, 8), debounce: debounce}

	go fw.loop(inputPath, configPath)

	return fw, nil
}

func (fw *FileWatcher) loop(inputPath, configPath string) {
	var timer *time.Timer

	fire := func() {
		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(fw.debounce, func() {
			fw.evC <- Event{Path: inputPath}
		})
	}

	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}

			if !relevant(ev.Name, inputPath, configPath) {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			fire()
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}

			fw.evC <- Event{Err: err}
		}
	}
}

func relevant(changed, inputPath, configPath string) bool {
	abs, err := filepath.Abs(changed)
	if err != nil {
		abs = changed
	}

	for _, watched := range []string{inputPath, configPath} {
		if watched == "" {
			continue
		}

		wabs, err := filepath.Abs(watched)
		if err != nil {
			wabs = watched
		}

		if abs == wabs {
			return true
		}
	}

	return false
}

// Events delivers one debounced Event per change.
func (fw *FileWatcher) Events() <-chan Event { return fw.evC }

// Close stops watching.
func (fw *FileWatcher) Close() error { return fw.w.Close() }
