// Package config holds the root configuration for teralink, loaded through
// Viper from config.yaml and TERALINK_* environment variables.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Stealth    StealthConfig    `mapstructure:"stealth"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Recovery   RecoveryConfig   `mapstructure:"recovery"`
	Download   DownloadConfig   `mapstructure:"download"`
}

// ColorConfig defines the color settings for different log levels, used by
// the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug"`
	Info  string `mapstructure:"info"`
	Warn  string `mapstructure:"warn"`
	Error string `mapstructure:"error"`
	Fatal string `mapstructure:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level"`
	Format      string      `mapstructure:"format"`
	AddSource   bool        `mapstructure:"add_source"`
	ServiceName string      `mapstructure:"service_name"`
	LogFile     string      `mapstructure:"log_file"`
	MaxSize     int         `mapstructure:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups"`
	MaxAge      int         `mapstructure:"max_age"`
	Compress    bool        `mapstructure:"compress"`
	Colors      ColorConfig `mapstructure:"colors"`
}

// BrowserConfig holds settings for the headless browser and session pool.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	ChromePath        string        `mapstructure:"chrome_path"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors"`
	SessionCap        int64         `mapstructure:"session_cap"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ProxyAddress      string        `mapstructure:"proxy_address"`
}

// StealthConfig toggles the individual stealth patches. Each patch is
// best-effort: a patch that fails to apply is logged and skipped, never
// fatal to the session.
type StealthConfig struct {
	RemoveAutomationFlags bool `mapstructure:"remove_automation_flags"`
	SpoofChromeRuntime    bool `mapstructure:"spoof_chrome_runtime"`
	CanvasNoise           bool `mapstructure:"canvas_noise"`
	AudioNoise            bool `mapstructure:"audio_noise"`
	WebGLSpoof            bool `mapstructure:"webgl_spoof"`
	ClientHints           bool `mapstructure:"client_hints"`
	PermissionsSpoof      bool `mapstructure:"permissions_spoof"`
	BatterySpoof          bool `mapstructure:"battery_spoof"`
	TimingJitter          bool `mapstructure:"timing_jitter"`
}

// ExtractionConfig holds per-layer timeouts and the pattern sets used to
// recognize direct-link responses.
type ExtractionConfig struct {
	NetworkLayerTimeout time.Duration `mapstructure:"network_layer_timeout"`
	JSLayerTimeout      time.Duration `mapstructure:"js_layer_timeout"`
	DOMLayerTimeout     time.Duration `mapstructure:"dom_layer_timeout"`
	MinFileSize         int64         `mapstructure:"min_file_size"`
	CDNPatterns         []string      `mapstructure:"cdn_patterns"`
	SignatureParams     []string      `mapstructure:"signature_params"`
	SupportedDomains    []string      `mapstructure:"supported_domains"`
	ProbeLinks          bool          `mapstructure:"probe_links"`
	ProbeTimeout        time.Duration `mapstructure:"probe_timeout"`
}

// RecoveryConfig bounds the retry loop.
type RecoveryConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BackoffBase       time.Duration `mapstructure:"backoff_base"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	BackoffMax        time.Duration `mapstructure:"backoff_max"`
	BackoffJitter     bool          `mapstructure:"backoff_jitter"`
}

// DownloadConfig holds settings for the optional direct-link downloader.
type DownloadConfig struct {
	OutputDir string        `mapstructure:"output_dir"`
	ChunkSize int64         `mapstructure:"chunk_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers default values so the app can run with a minimal
// or absent config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "teralink")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.session_cap", 3)
	v.SetDefault("browser.navigation_timeout", 45*time.Second)

	v.SetDefault("stealth.remove_automation_flags", true)
	v.SetDefault("stealth.spoof_chrome_runtime", true)
	v.SetDefault("stealth.canvas_noise", true)
	v.SetDefault("stealth.audio_noise", true)
	v.SetDefault("stealth.webgl_spoof", true)
	v.SetDefault("stealth.client_hints", true)
	v.SetDefault("stealth.permissions_spoof", true)
	v.SetDefault("stealth.battery_spoof", true)
	v.SetDefault("stealth.timing_jitter", true)

	v.SetDefault("extraction.network_layer_timeout", 30*time.Second)
	v.SetDefault("extraction.js_layer_timeout", 10*time.Second)
	v.SetDefault("extraction.dom_layer_timeout", 45*time.Second)
	v.SetDefault("extraction.min_file_size", int64(512*1024))
	v.SetDefault("extraction.cdn_patterns", DefaultCDNPatterns)
	v.SetDefault("extraction.signature_params", DefaultSignatureParams)
	v.SetDefault("extraction.supported_domains", DefaultSupportedDomains)
	v.SetDefault("extraction.probe_links", false)
	v.SetDefault("extraction.probe_timeout", 10*time.Second)

	v.SetDefault("recovery.max_attempts", 3)
	v.SetDefault("recovery.backoff_base", 2*time.Second)
	v.SetDefault("recovery.backoff_multiplier", 2.0)
	v.SetDefault("recovery.backoff_max", 30*time.Second)
	v.SetDefault("recovery.backoff_jitter", true)

	v.SetDefault("download.output_dir", ".")
	v.SetDefault("download.chunk_size", int64(4*1024*1024))
	v.SetDefault("download.timeout", 30*time.Minute)
}

// Validate rejects configurations that would break the retry or pooling
// invariants.
func (c *Config) Validate() error {
	if c.Recovery.MaxAttempts < 1 {
		return fmt.Errorf("recovery.max_attempts must be >= 1, got %d", c.Recovery.MaxAttempts)
	}
	if c.Recovery.BackoffMultiplier < 1.0 {
		return fmt.Errorf("recovery.backoff_multiplier must be >= 1.0, got %g", c.Recovery.BackoffMultiplier)
	}
	if c.Browser.SessionCap < 1 {
		return fmt.Errorf("browser.session_cap must be >= 1, got %d", c.Browser.SessionCap)
	}
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"extraction.network_layer_timeout", c.Extraction.NetworkLayerTimeout},
		{"extraction.js_layer_timeout", c.Extraction.JSLayerTimeout},
		{"extraction.dom_layer_timeout", c.Extraction.DOMLayerTimeout},
		{"browser.navigation_timeout", c.Browser.NavigationTimeout},
	} {
		if d.val <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.val)
		}
	}
	if len(c.Extraction.SupportedDomains) == 0 {
		return fmt.Errorf("extraction.supported_domains must not be empty")
	}
	return nil
}

// Load unmarshals the configuration from Viper and stores it globally.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	Set(&cfg)
	return &cfg, nil
}

// Set stores the configuration globally.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get returns the loaded configuration instance, or the default
// configuration when Load was never called (convenient for tests).
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		v := viper.New()
		SetDefaults(v)
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			panic(fmt.Sprintf("default configuration is invalid: %v", err))
		}
		return &cfg
	}
	return instance
}
