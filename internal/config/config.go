package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the whitelist console.
type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	Backend BackendConfig `yaml:"backend"`
	Console ConsoleConfig `yaml:"console"`
}

// ListenConfig defines where the console API listens and how it is guarded.
type ListenConfig struct {
	APIPort int    `yaml:"api_port"`
	APIBind string `yaml:"api_bind"`
	APIKey  string `yaml:"api_key"`
	// APIKeyHash is a bcrypt hash of the API key. It takes precedence over APIKey.
	APIKeyHash string `yaml:"api_key_hash"`
}

// AuthEnabled returns true if a key or key hash is configured.
func (lc ListenConfig) AuthEnabled() bool {
	return lc.APIKey != "" || lc.APIKeyHash != ""
}

// BackendConfig points the console at the admin backend.
type BackendConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	SessionCookie string        `yaml:"session_cookie"`
}

// Redacted returns a copy of the BackendConfig with the session cookie masked.
func (b BackendConfig) Redacted() BackendConfig {
	c := b
	if c.SessionCookie != "" {
		c.SessionCookie = "***REDACTED***"
	}
	return c
}

// ConsoleConfig holds list view and dialog defaults.
type ConsoleConfig struct {
	PageSize              int           `yaml:"page_size"`
	StatsInterval         time.Duration `yaml:"stats_interval"`
	NotificationTTL       time.Duration `yaml:"notification_ttl"`
	PrefsPath             string        `yaml:"prefs_path"`
	DefaultExpirationDays int           `yaml:"default_expiration_days"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		if val, ok := os.LookupEnv(string(varName)); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file with env var substitution.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = substituteEnvVars(data)

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listen.APIPort == 0 {
		cfg.Listen.APIPort = 8080
	}
	if cfg.Listen.APIBind == "" {
		cfg.Listen.APIBind = "127.0.0.1"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Console.PageSize == 0 {
		cfg.Console.PageSize = 10
	}
	if cfg.Console.StatsInterval == 0 {
		cfg.Console.StatsInterval = 5 * time.Second
	}
	if cfg.Console.NotificationTTL == 0 {
		cfg.Console.NotificationTTL = 5 * time.Second
	}
	if cfg.Console.PrefsPath == "" {
		cfg.Console.PrefsPath = "wlconsole-prefs.yaml"
	}
	if cfg.Console.DefaultExpirationDays == 0 {
		cfg.Console.DefaultExpirationDays = 7
	}
}

func validate(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend: base_url is required")
	}
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend: invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend: base_url %q must use http or https", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout < 0 {
		return fmt.Errorf("backend: timeout must not be negative")
	}
	if cfg.Listen.APIPort < 0 || cfg.Listen.APIPort > 65535 {
		return fmt.Errorf("listen: api_port %d out of range", cfg.Listen.APIPort)
	}
	if cfg.Console.PageSize < 0 {
		return fmt.Errorf("console: page_size must not be negative")
	}
	if cfg.Console.StatsInterval < 0 || cfg.Console.NotificationTTL < 0 {
		return fmt.Errorf("console: intervals must not be negative")
	}
	if cfg.Console.DefaultExpirationDays < 0 {
		return fmt.Errorf("console: default_expiration_days must not be negative")
	}
	return nil
}

// Watcher watches a config file for changes and calls the callback with the new config.
type Watcher struct {
	path     string
	callback func(*Config)
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new config file watcher.
func NewWatcher(path string, callback func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching config file: %w", err)
	}

	cw := &Watcher{
		path:     path,
		callback: callback,
		watcher:  w,
		stopCh:   make(chan struct{}),
	}

	go cw.run()
	return cw, nil
}

func (cw *Watcher) run() {
	// Debounce timer to avoid rapid reloads
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					cw.reload()
				})
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[config] watcher error: %v", err)
		case <-cw.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

func (cw *Watcher) reload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cfg, err := Load(cw.path)
	if err != nil {
		log.Printf("[config] hot-reload failed: %v", err)
		return
	}

	log.Printf("[config] configuration reloaded from %s", cw.path)
	cw.callback(cfg)
}

// Stop stops the config watcher. Safe to call multiple times.
func (cw *Watcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.stopCh)
		err = cw.watcher.Close()
	})
	return err
}
