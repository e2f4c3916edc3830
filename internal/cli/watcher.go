package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/utils"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 200 * time.Millisecond

// Watcher reruns the generator whenever one of the model files changes
type Watcher struct {
	Debounce time.Duration

	cfg         *Config
	generator   *Generator
	diagnostics *utils.DiagnosticSystem
	watcher     *fsnotify.Watcher
	models      map[string]bool
}

// NewWatcher watches the directories of the configured model files. Directories
// are watched rather than files because editors often replace a file on save.
func NewWatcher(cfg *Config, generator *Generator, diagnostics *utils.DiagnosticSystem) (*Watcher, error) {
	if diagnostics == nil {
		diagnostics = utils.NewSilentDiagnostics()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapConfigurationError("watcher", "create", err)
	}

	w := &Watcher{
		Debounce:    DefaultDebounce,
		cfg:         cfg,
		generator:   generator,
		diagnostics: diagnostics,
		watcher:     fw,
		models:      make(map[string]bool),
	}

	dirs := make(map[string]bool)
	for _, path := range cfg.ModelFiles {
		abs, err := filepath.Abs(path)
		if err != nil {
			fw.Close()
			return nil, errors.WrapFileSystemError("resolve", path, err)
		}
		w.models[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.WrapFileSystemError("watch", dir, err)
		}
		diagnostics.Debug("Watching %s", dir)
	}
	return w, nil
}

// Run blocks until ctx is done. Generation failures are reported and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.diagnostics.Debug("%s: %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.regenerate()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.diagnostics.Warn("Watcher error: %v", err)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.models[abs]
}

func (w *Watcher) regenerate() {
	w.diagnostics.Info("Model changed, regenerating...")
	if err := w.generator.Run(w.cfg); err != nil {
		w.diagnostics.Error("Generation failed: %v", err)
		return
	}
	summary := w.generator.GetSummary()
	w.diagnostics.Success("Regenerated %d type(s) in %s", summary.TypesEmitted, summary.Duration.Round(time.Millisecond))
}
