package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrTemplateNotFound is returned for an unknown template key.
var ErrTemplateNotFound = errors.New("template not found")

// catalogFile is the on-disk template file layout:
//
//	[templates.follow_up]
//	name = "Follow-up"
//	questions = ["How are you feeling?"]
type catalogFile struct {
	Templates map[string]Template `toml:"templates"`
}

// Catalog is a concurrency-safe set of templates. Templates from the
// optional TOML file override built-ins with the same key.
type Catalog struct {
	path   string
	logger *zap.Logger

	mu        sync.RWMutex
	templates map[string]Template
}

// NewCatalog loads the built-in templates and, when path is set, the
// templates file. A missing file is not an error.
func NewCatalog(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{path: path, logger: logger.Named("templates"), templates: DefaultTemplates()}
	if path != "" {
		if err := c.Reload(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Reload re-reads the templates file and swaps the catalog contents. On
// error the previous contents are kept.
func (c *Catalog) Reload() error {
	merged := DefaultTemplates()
	if c.path != "" {
		loaded, err := loadFile(c.path)
		if err != nil {
			return err
		}
		for k, t := range loaded {
			merged[k] = t
		}
	}

	c.mu.Lock()
	c.templates = merged
	c.mu.Unlock()

	c.logger.Info("templates loaded", zap.String("path", c.path), zap.Int("count", len(merged)))
	return nil
}

func loadFile(path string) (map[string]Template, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking templates file: %w", err)
	}

	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("parsing templates file %s: %w", path, err)
	}
	for key, t := range file.Templates {
		if err := t.validate(key); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if t.VoiceID == "" {
			t.VoiceID = defaultVoice
		}
		if t.Language == "" {
			t.Language = "en"
		}
		file.Templates[key] = t
	}
	return file.Templates, nil
}

// Get returns a copy of the template with the given key.
func (c *Catalog) Get(key string) (Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[key]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}
	return t.clone(), nil
}

// All returns a copy of every template keyed by name.
func (c *Catalog) All() map[string]Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Template, len(c.templates))
	for k, t := range c.templates {
		out[k] = t.clone()
	}
	return out
}

// Keys returns the template keys in sorted order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Watch reloads the catalog whenever the templates file changes, until ctx
// is cancelled. The parent directory is watched so editor rename-and-replace
// saves are seen.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("no templates file configured")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(c.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := c.Reload(); err != nil {
				c.logger.Warn("template reload failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}
