// Package config loads ls-exoquest settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/scene"
)

// EnvPrefix is prepended to every environment override, e.g.
// EXOQUEST_API_BASE or EXOQUEST_TRACING_ENABLED.
const EnvPrefix = "EXOQUEST"

// DirName is the per-user config directory under $HOME.
const DirName = ".ls-exoquest"

// Keys understood by Load.
const (
	KeyAPIBase     = "api_base"
	KeyTimeout     = "timeout"
	KeyPage        = "page"
	KeySearch      = "search"
	KeyMission     = "mission"
	KeySpeed       = "speed"
	KeyShowOrbits  = "show_orbits"
	KeyShowLabels  = "show_labels"
	KeyFPS         = "fps"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
	KeyLogFile     = "log_file"
	KeyMetricsAddr = "metrics_addr"

	KeyTracingEnabled     = "tracing.enabled"
	KeyTracingExporter    = "tracing.exporter"
	KeyTracingEndpoint    = "tracing.endpoint"
	KeyTracingSampleRatio = "tracing.sample_ratio"
	KeyTracingService     = "tracing.service_name"
)

// Frame rate bounds for the scene animation.
const (
	DefaultFPS = 30
	MinFPS     = 1
	MaxFPS     = 60
)

// Config is the resolved application configuration.
type Config struct {
	APIBase     string        `mapstructure:"api_base"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Page        int           `mapstructure:"page"`
	Search      string        `mapstructure:"search"`
	Mission     string        `mapstructure:"mission"`
	Speed       float64       `mapstructure:"speed"`
	ShowOrbits  bool          `mapstructure:"show_orbits"`
	ShowLabels  bool          `mapstructure:"show_labels"`
	FPS         int           `mapstructure:"fps"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	LogFile     string        `mapstructure:"log_file"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Tracing     Tracing       `mapstructure:"tracing"`
}

// Span exporters understood by the tracing setup.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Tracing configures OpenTelemetry export.
type Tracing struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Exporter    string  `mapstructure:"exporter" yaml:"exporter"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBase:    catalog.DefaultBaseURL,
		Timeout:    catalog.DefaultTimeout,
		Page:       1,
		Mission:    catalog.MissionAll.String(),
		Speed:      scene.DefaultSpeed,
		ShowOrbits: true,
		ShowLabels: true,
		FPS:        DefaultFPS,
		LogLevel:   "info",
		LogFormat:  "text",
		Tracing: Tracing{
			Exporter:    ExporterStdout,
			SampleRatio: 1,
			ServiceName: "ls-exoquest",
		},
	}
}

// SetDefaults registers every key with its default so that environment
// variables are honoured by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyAPIBase, d.APIBase)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyPage, d.Page)
	v.SetDefault(KeySearch, d.Search)
	v.SetDefault(KeyMission, d.Mission)
	v.SetDefault(KeySpeed, d.Speed)
	v.SetDefault(KeyShowOrbits, d.ShowOrbits)
	v.SetDefault(KeyShowLabels, d.ShowLabels)
	v.SetDefault(KeyFPS, d.FPS)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyLogFile, d.LogFile)
	v.SetDefault(KeyMetricsAddr, d.MetricsAddr)
	v.SetDefault(KeyTracingEnabled, d.Tracing.Enabled)
	v.SetDefault(KeyTracingExporter, d.Tracing.Exporter)
	v.SetDefault(KeyTracingEndpoint, d.Tracing.Endpoint)
	v.SetDefault(KeyTracingSampleRatio, d.Tracing.SampleRatio)
	v.SetDefault(KeyTracingService, d.Tracing.ServiceName)
}

// Setup prepares v for Load: defaults, env prefix and config file search
// paths. An explicit file path wins over the search paths.
func Setup(v *viper.Viper, file string) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DirName))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile reads the configured file. A missing file in the search paths is
// not an error; a missing explicit file is.
func ReadFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate rejects unusable settings and clamps the rest into range.
func (c *Config) Validate() error {
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.APIBase == "" {
		return errors.New("api_base cannot be empty")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base %q is not an http(s) URL", c.APIBase)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.Page < 1 {
		c.Page = 1
	}
	c.Mission = catalog.ParseMission(c.Mission).String()
	c.Speed = scene.ClampSpeed(c.Speed)
	c.FPS = min(MaxFPS, max(MinFPS, c.FPS))

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
		c.LogFormat = strings.ToLower(c.LogFormat)
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}

	if c.Tracing.ExporterName() == "" {
		return fmt.Errorf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio)
	}
	return nil
}

// ExporterName resolves the configured exporter to ExporterStdout or
// ExporterOTLP. Unknown names resolve to "".
func (t Tracing) ExporterName() string {
	switch strings.ToLower(strings.TrimSpace(t.Exporter)) {
	case "", ExporterStdout:
		return ExporterStdout
	case ExporterOTLP, "otlpgrpc":
		return ExporterOTLP
	default:
		return ""
	}
}

// FrameInterval is the animation tick period.
func (c Config) FrameInterval() time.Duration {
	fps := c.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// fileConfig is the on-disk YAML layout.
type fileConfig struct {
	APIBase     string  `yaml:"api_base"`
	Timeout     string  `yaml:"timeout"`
	Page        int     `yaml:"page"`
	Mission     string  `yaml:"mission"`
	Speed       float64 `yaml:"speed"`
	ShowOrbits  bool    `yaml:"show_orbits"`
	ShowLabels  bool    `yaml:"show_labels"`
	FPS         int     `yaml:"fps"`
	LogLevel    string  `yaml:"log_level"`
	LogFormat   string  `yaml:"log_format"`
	LogFile     string  `yaml:"log_file,omitempty"`
	MetricsAddr string  `yaml:"metrics_addr,omitempty"`
	Tracing     Tracing `yaml:"tracing"`
}

// Marshal renders c as a YAML config file.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(fileConfig{
		APIBase:     c.APIBase,
		Timeout:     c.Timeout.String(),
		Page:        c.Page,
		Mission:     c.Mission,
		Speed:       c.Speed,
		ShowOrbits:  c.ShowOrbits,
		ShowLabels:  c.ShowLabels,
		FPS:         c.FPS,
		LogLevel:    c.LogLevel,
		LogFormat:   c.LogFormat,
		LogFile:     c.LogFile,
		MetricsAddr: c.MetricsAddr,
		Tracing:     c.Tracing,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// DefaultPath returns $HOME/.ls-exoquest/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Save writes c to path, creating parent directories. It refuses to
// overwrite an existing file unless force is set.
func Save(c Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
