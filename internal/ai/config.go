package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/tabops/tabpilot/internal/logging"
)

// CloudProviderConfig holds one cloud provider's endpoint and auth.
type CloudProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// Limits configures the soft quota on cloud calls.
type Limits struct {
	MaxPerHour   int     `yaml:"max_per_hour"`
	MaxPerDay    int     `yaml:"max_per_day"`
	WarnFraction float64 `yaml:"warn_fraction"`
}

// Config is the providers.yaml structure. Values pass through
// os.ExpandEnv on load so keys can reference environment variables.
type Config struct {
	OnDevice struct {
		// PreferredModel is the user's Ollama model. Warm (server up,
		// model present) it takes top priority in the chain.
		PreferredModel string `yaml:"preferred_model"`
		OllamaURL      string `yaml:"ollama_url,omitempty"`
		// AllowColdStart opts in to pulling the preferred model when
		// it isn't present yet.
		AllowColdStart bool `yaml:"allow_cold_start"`
		// LocalRuntimeURL points at an OpenAI-compatible local server
		// (llama.cpp, LM Studio). Acts as the built-in on-device model.
		LocalRuntimeURL   string `yaml:"local_runtime_url,omitempty"`
		LocalRuntimeModel string `yaml:"local_runtime_model,omitempty"`
	} `yaml:"on_device"`

	Cloud struct {
		// Provider selects which cloud backend to use:
		// "anthropic", "openai", or "gemini". Empty disables cloud.
		Provider  string                         `yaml:"provider,omitempty"`
		Providers map[string]CloudProviderConfig `yaml:"providers,omitempty"`
	} `yaml:"cloud"`

	Limits Limits `yaml:"limits"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	var c Config
	c.OnDevice.OllamaURL = "http://localhost:11434"
	c.OnDevice.PreferredModel = "qwen3:4b"
	c.Limits = Limits{MaxPerHour: 30, MaxPerDay: 200, WarnFraction: 0.8}
	return c
}

// normalize fills zero-valued limits with defaults so a sparse yaml
// never disables the quota entirely.
func (c *Config) normalize() {
	d := DefaultConfig()
	if c.OnDevice.OllamaURL == "" {
		c.OnDevice.OllamaURL = d.OnDevice.OllamaURL
	}
	if c.Limits.MaxPerHour <= 0 {
		c.Limits.MaxPerHour = d.Limits.MaxPerHour
	}
	if c.Limits.MaxPerDay <= 0 {
		c.Limits.MaxPerDay = d.Limits.MaxPerDay
	}
	if c.Limits.WarnFraction <= 0 || c.Limits.WarnFraction > 1 {
		c.Limits.WarnFraction = d.Limits.WarnFraction
	}
}

// LoadConfig reads providers.yaml from path. A missing file yields the
// defaults, not an error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.normalize()
	return c, nil
}

// SaveConfig writes the config back to path.
func SaveConfig(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ConfigWatcher reloads providers.yaml when it changes on disk and
// notifies registered callbacks with the fresh config.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	callbacks []func(Config)
}

// WatchConfig starts watching path. Editors replace files rather than
// writing in place, so the parent directory is watched and events are
// filtered by name.
func WatchConfig(path string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	cw := &ConfigWatcher{watcher: w}

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					logging.Warnf("providers config reload failed: %v", err)
					continue
				}
				cw.mu.Lock()
				cbs := append([]func(Config){}, cw.callbacks...)
				cw.mu.Unlock()
				for _, cb := range cbs {
					cb(cfg)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Warnf("providers config watcher error: %v", err)
			}
		}
	}()

	return cw, nil
}

// OnReload registers a callback invoked with each successfully
// reloaded config.
func (cw *ConfigWatcher) OnReload(cb func(Config)) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, cb)
}

// Close stops watching.
func (cw *ConfigWatcher) Close() error {
	return cw.watcher.Close()
}
