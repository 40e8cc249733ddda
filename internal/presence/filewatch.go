package presence

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Notifier is anything that wants to hear about possible ledger changes.
type Notifier interface {
	Notify()
}

// WatchFile notifies n whenever the ledger file, or one of its SQLite
// sidecars (-wal, -journal, -shm), is written, created, removed or
// renamed.  It covers writes made by processes that do not call Notify
// themselves.  The directory is watched rather than the file so the
// watch survives the file being replaced.  WatchFile blocks until ctx is
// done.
func WatchFile(ctx context.Context, path string, n Notifier) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	clean := filepath.Clean(path)
	if err := w.Add(filepath.Dir(clean)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(clean), err)
	}
	base := filepath.Base(clean)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if relevantChange(ev, base) {
				n.Notify()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("presence: file watch error: %v", err)
		}
	}
}

func relevantChange(ev fsnotify.Event, base string) bool {
	name := filepath.Base(ev.Name)
	if name != base && !strings.HasPrefix(name, base+"-") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
