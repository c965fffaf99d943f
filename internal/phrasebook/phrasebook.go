// Package phrasebook loads user phrase dictionaries from a YAML file and
// reloads them when the file changes on disk.
package phrasebook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Entry is one english→vietnamese pair. File order is preserved, which is
// what gives substring matching its deterministic precedence.
type Entry struct {
	English    string `yaml:"english"`
	Vietnamese string `yaml:"vietnamese"`
}

// Load reads a phrases file. A missing file is not an error: the built-in
// dictionary simply stands alone.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read phrasebook: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unable to parse phrasebook %s: %w", path, err)
	}
	return entries, nil
}

// Save writes the entries back to the file, preserving order.
func Save(path string, entries []Entry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("unable to encode phrasebook: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unable to create phrasebook directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write phrasebook: %w", err)
	}
	return nil
}

// Watcher reloads the phrasebook on every write and hands the fresh entries
// to the callback.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *log.Logger
	done    chan struct{}
}

// Watch starts watching path's directory (editors replace files rather than
// writing in place, so watching the file itself misses updates). The
// callback runs on the watcher goroutine.
func Watch(path string, logger *log.Logger, onReload func([]Entry)) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create phrasebook watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("unable to watch phrasebook directory: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		logger:  logger.WithPrefix("phrasebook"),
		done:    make(chan struct{}),
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if evAbs, err := filepath.Abs(event.Name); err != nil || evAbs != abs {
					continue
				}
				entries, err := Load(path)
				if err != nil {
					w.logger.Warn("reload failed", "error", err)
					continue
				}
				w.logger.Info("phrasebook reloaded", "entries", len(entries))
				onReload(entries)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Debug("watch error", "error", err)
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
