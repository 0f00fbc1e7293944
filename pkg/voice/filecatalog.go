package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/bloomwell/bloom/pkg/model"
)

// catalogFile is the on-disk shape:
//
//	voices:
//	  - name: Samantha
//	    lang: en-US
type catalogFile struct {
	Voices []model.VoiceDescriptor `yaml:"voices"`
}

// FileCatalog serves voices from a YAML file and reloads it when the file
// changes on disk.
type FileCatalog struct {
	*broadcast
	path     string
	debounce time.Duration
	retry    time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

var _ Catalog = (*FileCatalog)(nil)

// NewFileCatalog loads path once. A missing file yields an empty catalog
// that fills in once the file appears.
func NewFileCatalog(path string, logger *slog.Logger) (*FileCatalog, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	c := &FileCatalog{
		broadcast: newBroadcast(),
		path:      abs,
		debounce:  200 * time.Millisecond,
		retry:     5 * time.Second,
		logger:    logger,
	}
	voices, err := readCatalog(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("voice catalog not found yet", "path", abs)
	case err != nil:
		return nil, err
	default:
		c.voices = voices
	}
	return c, nil
}

func readCatalog(path string) ([]model.VoiceDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse voice catalog %s: %w", path, err)
	}
	return f.Voices, nil
}

// Reload rereads the file. A parse failure keeps the previous list.
func (c *FileCatalog) Reload() error {
	voices, err := readCatalog(c.path)
	if errors.Is(err, os.ErrNotExist) {
		voices, err = nil, nil
	}
	if err != nil {
		return err
	}
	c.set(voices)
	c.logger.Info("voice catalog reloaded", "path", c.path, "voices", len(voices))
	return nil
}

// Watch reloads the catalog on every change to the file until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
// A watcher that cannot be set up is logged and retried; the last loaded
// list keeps being served meanwhile.
func (c *FileCatalog) Watch(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("voice catalog already watched")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	w, err := c.watchDir(ctx)
	if err != nil {
		return nil
	}
	defer w.Close()
	c.logger.Info("watching voice catalog", "path", c.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != c.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(c.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("voice catalog watcher error", "err", err)
		case <-pending:
			pending = nil
			if err := c.Reload(); err != nil {
				c.logger.Warn("voice catalog reload failed", "path", c.path, "err", err)
			}
		}
	}
}

// watchDir retries until the parent directory can be watched or ctx is
// done. When the directory shows up late the file is read right away.
func (c *FileCatalog) watchDir(ctx context.Context) (*fsnotify.Watcher, error) {
	dir := filepath.Dir(c.path)
	ticker := time.NewTicker(c.retry)
	defer ticker.Stop()

	for attempt := 0; ; attempt++ {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			if err = w.Add(dir); err == nil {
				if attempt > 0 {
					if err := c.Reload(); err != nil {
						c.logger.Warn("voice catalog reload failed", "path", c.path, "err", err)
					}
				}
				return w, nil
			}
			w.Close()
		}
		if attempt == 0 {
			c.logger.Warn("voice catalog not watched, retrying", "dir", dir, "every", c.retry, "err", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
