package theme

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a Registry when theme files in its directory change.
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	stopCh chan struct{}
	once   sync.Once
}

// Watch starts watching the registry's directory.
func (r *Registry) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(r.dir); err != nil {
		fsw.Close()
		return nil, err
	}

	debounce := r.debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		registry: r,
		watcher:  fsw,
		logger:   r.logger,
		debounce: debounce,
		stopCh:   make(chan struct{}),
	}

	go w.run()

	return w, nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isThemeFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Theme file change detected")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Theme watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.registry.Reload(); err != nil {
			w.logger.Warn().Err(err).Msg("Theme reload failed, keeping previous themes")
			return
		}
		w.logger.Info().Str("dir", w.registry.dir).Msg("Themes reloaded")
	})
}
