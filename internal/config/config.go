// Package config loads the netscope configuration file and maps it onto
// engine settings. Files are YAML; every field has a usable default so
// running without a config file is fully supported.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full on-disk configuration.
type Config struct {
	Probes  ProbesConfig  `mapstructure:"probes" yaml:"probes"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
}

// ProbesConfig tunes individual probe executors.
type ProbesConfig struct {
	PingCount     int      `mapstructure:"ping_count" yaml:"ping_count"`
	LossCount     int      `mapstructure:"loss_count" yaml:"loss_count"`
	Nameservers   []string `mapstructure:"nameservers" yaml:"nameservers,omitempty"`
	Ports         []int    `mapstructure:"ports" yaml:"ports,omitempty"`
	PortTimeout   string   `mapstructure:"port_timeout" yaml:"port_timeout"`
	PortWorkers   int      `mapstructure:"port_workers" yaml:"port_workers"`
	MaxHops       int      `mapstructure:"max_hops" yaml:"max_hops"`
	MaxSilentHops int      `mapstructure:"max_silent_hops" yaml:"max_silent_hops"`
	LanSubnet     string   `mapstructure:"lan_subnet" yaml:"lan_subnet,omitempty"`
	DownloadURL   string   `mapstructure:"download_url" yaml:"download_url"`
	UploadURL     string   `mapstructure:"upload_url" yaml:"upload_url"`
}

// EngineConfig tunes the scheduler.
type EngineConfig struct {
	Concurrency    int    `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimit      int    `mapstructure:"rate_limit" yaml:"rate_limit"`
	ProbeTimeout   string `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	OverallTimeout string `mapstructure:"overall_timeout" yaml:"overall_timeout"`
}

// LoggingConfig selects log level and sink.
type LoggingConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	File    string `mapstructure:"file" yaml:"file"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// HistoryConfig locates the local run database.
type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ExportConfig controls report file generation.
type ExportConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Probes: ProbesConfig{
			PingCount:     4,
			LossCount:     50,
			PortTimeout:   "2s",
			PortWorkers:   10,
			MaxHops:       30,
			MaxSilentHops: 5,
		},
		Engine: EngineConfig{
			Concurrency:    4,
			RateLimit:      5,
			ProbeTimeout:   "10s",
			OverallTimeout: "2m",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  defaultPath("netscope.log"),
		},
		History: HistoryConfig{
			Path: defaultPath("history.db"),
		},
		Export: ExportConfig{
			Dir:    ".",
			Prefix: "netscope_report",
		},
	}
}

// Load reads the config file at path, or the default locations when path
// is empty. A missing file is not an error: defaults apply. Every key can
// also be set through the environment as NETSCOPE_<SECTION>_<KEY>, e.g.
// NETSCOPE_ENGINE_RATE_LIMIT=10.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("netscope")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".netscope"))
		}
	}

	v.SetEnvPrefix("NETSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so file values layer over the
// defaults and AutomaticEnv can see the key set.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("probes.ping_count", d.Probes.PingCount)
	v.SetDefault("probes.loss_count", d.Probes.LossCount)
	v.SetDefault("probes.nameservers", d.Probes.Nameservers)
	v.SetDefault("probes.ports", d.Probes.Ports)
	v.SetDefault("probes.port_timeout", d.Probes.PortTimeout)
	v.SetDefault("probes.port_workers", d.Probes.PortWorkers)
	v.SetDefault("probes.max_hops", d.Probes.MaxHops)
	v.SetDefault("probes.max_silent_hops", d.Probes.MaxSilentHops)
	v.SetDefault("probes.lan_subnet", d.Probes.LanSubnet)
	v.SetDefault("probes.download_url", d.Probes.DownloadURL)
	v.SetDefault("probes.upload_url", d.Probes.UploadURL)
	v.SetDefault("engine.concurrency", d.Engine.Concurrency)
	v.SetDefault("engine.rate_limit", d.Engine.RateLimit)
	v.SetDefault("engine.probe_timeout", d.Engine.ProbeTimeout)
	v.SetDefault("engine.overall_timeout", d.Engine.OverallTimeout)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.prefix", d.Export.Prefix)
}

// WriteDefault writes the built-in configuration to path, refusing to
// clobber an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ProbeTimeoutDuration parses the per-probe timeout, falling back to 10s.
func (c *Config) ProbeTimeoutDuration() time.Duration {
	return parseDuration(c.Engine.ProbeTimeout, 10*time.Second)
}

// OverallTimeoutDuration parses the invocation budget, falling back to 2m.
func (c *Config) OverallTimeoutDuration() time.Duration {
	return parseDuration(c.Engine.OverallTimeout, 2*time.Minute)
}

// PortTimeoutDuration parses the per-port connect timeout.
func (c *Config) PortTimeoutDuration() time.Duration {
	return parseDuration(c.Probes.PortTimeout, 2*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".netscope", name)
}
