package prefs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebroadcasts preference changes written by other processes
// (a second TUI instance, or the CLI editing files directly) so every
// consumer converges without polling storage.
type Watcher struct {
	w   *fsnotify.Watcher
	app *Store[AppPreferences]
	ntf *Store[NotificationPreferences]
}

// NewWatcher watches the directory containing both preference files.
func NewWatcher(app *Store[AppPreferences], ntf *Store[NotificationPreferences]) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{w: fw, app: app, ntf: ntf}

	// Watch the directory (to catch creates as well as writes).
	dir := filepath.Dir(app.Path())
	if err := os.MkdirAll(dir, 0700); err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	go watcher.loop()
	return watcher, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.w.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			switch filepath.Base(event.Name) {
			case filepath.Base(w.app.Path()):
				w.app.Reload()
			case filepath.Base(w.ntf.Path()):
				w.ntf.Reload()
			}

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			log.Printf("prefs watcher error: %v", err)
		}
	}
}
