package observer

import (
	"time"

	"github.com/bazelment/claude-sdk-go/pathenc"
	"github.com/fsnotify/fsnotify"
)

// projectWatcher gives SnapshotWithSession's poll loop a fast path: when
// fsnotify can watch the project directory, wait wakes on the first write
// event instead of always sleeping out the full poll interval. If the
// directory doesn't exist yet or the watcher can't be created, wait falls
// back to a plain sleep, same as before fsnotify was wired in.
type projectWatcher struct {
	w *fsnotify.Watcher
}

func newProjectWatcher(home, stateRoot, workspacePath string) *projectWatcher {
	dir := pathenc.ProjectDir(home, stateRoot, workspacePath)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return &projectWatcher{}
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return &projectWatcher{}
	}
	return &projectWatcher{w: w}
}

func (p *projectWatcher) wait(fallback time.Duration) {
	if p.w == nil {
		time.Sleep(fallback)
		return
	}
	select {
	case _, ok := <-p.w.Events:
		if !ok {
			time.Sleep(fallback)
		}
	case <-p.w.Errors:
	case <-time.After(fallback):
	}
}

func (p *projectWatcher) close() {
	if p.w != nil {
		p.w.Close()
	}
}
