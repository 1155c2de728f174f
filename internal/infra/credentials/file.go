package credentials

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"xeromcp/internal/domain"
)

const defaultReloadDebounce = 200 * time.Millisecond

type fileDocument struct {
	AccessToken string `yaml:"accessToken" toml:"accessToken"`
	TenantID    string `yaml:"tenantId" toml:"tenantId"`
}

// LoadFile decodes a credentials file with accessToken and tenantId keys. Files
// ending in .toml are read as TOML, everything else as YAML. Missing keys are not an
// error here; they surface when a tool is dispatched.
func LoadFile(path string) (domain.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}
	var doc fileDocument
	if len(bytes.TrimSpace(data)) > 0 {
		if err := decodeFile(path, data, &doc); err != nil {
			return domain.Credentials{}, fmt.Errorf("parse credentials file %s: %w", path, err)
		}
	}
	return domain.Credentials{AccessToken: doc.AccessToken, TenantID: doc.TenantID}.Normalize(), nil
}

func decodeFile(path string, data []byte, doc *fileDocument) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, doc)
	}
	return yaml.Unmarshal(data, doc)
}

// FileWatcher reloads the credentials file when it changes on disk.
type FileWatcher struct {
	path     string
	logger   *zap.Logger
	debounce time.Duration
	onChange func(domain.Credentials)
}

func NewFileWatcher(path string, onChange func(domain.Credentials), logger *zap.Logger) *FileWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWatcher{
		path:     path,
		logger:   logger.Named("credentials_watcher"),
		debounce: defaultReloadDebounce,
		onChange: onChange,
	}
}

// Run blocks until ctx is done. The parent directory is watched so editors that
// replace the file atomically are still observed.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create credentials watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch credentials directory: %w", err)
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("credentials watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !samePath(event.Name, w.path) || event.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timerChan(timer):
			timer = nil
			w.reload()
		}
	}
}

func (w *FileWatcher) reload() {
	creds, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("credentials reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("credentials file reloaded", zap.String("path", w.path))
	if w.onChange != nil {
		w.onChange(creds)
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
