package redact

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/domain/sanitize"
	"bugtriage/internal/errs"
)

// ConfigStore holds the page-type redaction policies and optionally watches
// the config file for changes.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	config sanitize.Config
}

// DefaultConfig is used when no config file is provided: sensitive pages
// blur everything relevant, content pages blur nothing.
func DefaultConfig() sanitize.Config {
	return sanitize.Config{
		sanitize.PageCheckout: {
			BlurPatterns: map[string]bool{
				sanitize.PatternEmailAddresses:    true,
				sanitize.PatternCreditCardNumbers: true,
				sanitize.PatternPhoneNumbers:      true,
			},
		},
		sanitize.PageDashboard: {
			BlurPatterns: map[string]bool{
				sanitize.PatternEmailAddresses: true,
			},
		},
		sanitize.PageSettings: {
			BlurPatterns: map[string]bool{
				sanitize.PatternEmailAddresses: true,
				sanitize.PatternPhoneNumbers:   true,
			},
		},
		sanitize.PageProduct:   {},
		sanitize.PageMarketing: {},
		sanitize.PageDefault:   {},
	}
}

func LoadConfig(path string) (sanitize.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read sanitize config %q", path)
	}

	var raw map[string]sanitize.Policy
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(err, "unmarshal sanitize config")
	}

	config := make(sanitize.Config, len(raw))
	for key, policy := range raw {
		config[sanitize.PageType(key)] = policy
	}
	return config, nil
}

// NewConfigStore loads the config file (or the built-in defaults when path
// is empty) and, when watch is set, hot-reloads on file changes.
func NewConfigStore(ctx context.Context, path string, watch bool) (*ConfigStore, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	store := &ConfigStore{path: path}

	if path == "" {
		store.config = DefaultConfig()
		return store, nil
	}

	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	store.config = config

	if watch {
		if err := store.startWatch(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (s *ConfigStore) Current() sanitize.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *ConfigStore) reload(ctx context.Context) {
	config, err := LoadConfig(s.path)
	if err != nil {
		logging.Warn(ctx, "sanitize config reload failed, keeping previous",
			slog.Any("err", errs.Loggable(err)),
		)
		return
	}

	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
	logging.Info(ctx, "sanitize config reloaded", slog.String("path", s.path))
}

func (s *ConfigStore) startWatch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create config watcher")
	}

	// Watch the directory: editors replace files on save and a file watch
	// would go stale after the first rename.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return errs.Wrapf(err, "watch config directory for %q", s.path)
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "redact.config"))

	go func() {
		defer func() {
			_ = watcher.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				s.reload(logCtx)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn(logCtx, "config watcher error", slog.Any("err", errs.Loggable(err)))
			}
		}
	}()
	return nil
}
