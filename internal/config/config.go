package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Share    ShareConfig    `mapstructure:"share" yaml:"share"`
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	Port int `mapstructure:"port" yaml:"port"`
}

// ShareConfig controls the serving side.
type ShareConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	CacheTTL    int    `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Compression bool   `mapstructure:"compression" yaml:"compression"`
}

// TransferConfig controls the download engines. Timeouts are seconds.
type TransferConfig struct {
	OutDir         string `mapstructure:"out_dir" yaml:"out_dir"`
	Resume         bool   `mapstructure:"resume" yaml:"resume"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	BatchSize      int    `mapstructure:"batch_size" yaml:"batch_size"`
	MaxWorkers     int    `mapstructure:"max_workers" yaml:"max_workers"`
	ListTimeout    int    `mapstructure:"list_timeout" yaml:"list_timeout"`
	FileTimeout    int    `mapstructure:"file_timeout" yaml:"file_timeout"`
	ArchiveTimeout int    `mapstructure:"archive_timeout" yaml:"archive_timeout"`
}

type HistoryConfig struct {
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

func (t TransferConfig) ListTimeoutDuration() time.Duration {
	return time.Duration(t.ListTimeout) * time.Second
}

func (t TransferConfig) FileTimeoutDuration() time.Duration {
	return time.Duration(t.FileTimeout) * time.Second
}

func (t TransferConfig) ArchiveTimeoutDuration() time.Duration {
	return time.Duration(t.ArchiveTimeout) * time.Second
}

func (s ShareConfig) CacheTTLDuration() time.Duration {
	return time.Duration(s.CacheTTL) * time.Second
}

// Load reads the YAML config at path, applying defaults and LANSHARE_*
// environment overrides. A missing file is only an error when the caller
// asked for a specific path; the defaults are fully usable on their own.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("port", 8000)
	v.SetDefault("share.cache_ttl", 120)
	v.SetDefault("share.compression", true)
	v.SetDefault("transfer.out_dir", "./downloads")
	v.SetDefault("transfer.resume", true)
	v.SetDefault("transfer.max_retries", 3)
	v.SetDefault("transfer.batch_size", 50)
	v.SetDefault("transfer.max_workers", 8)
	v.SetDefault("transfer.list_timeout", 15)
	v.SetDefault("transfer.file_timeout", 60)
	v.SetDefault("transfer.archive_timeout", 180)
	v.SetDefault("history.sqlite_path", "lanshare.db")
	v.SetDefault("log.path", "lanshare.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Support Environment Variables
	v.SetEnvPrefix("LANSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}

	if c.Transfer.BatchSize <= 0 {
		c.Transfer.BatchSize = 50
	}

	if c.Transfer.MaxWorkers <= 0 {
		c.Transfer.MaxWorkers = 8
	}

	if c.Transfer.MaxRetries < 0 {
		c.Transfer.MaxRetries = 0
	}

	if c.Share.CacheTTL <= 0 {
		c.Share.CacheTTL = 120
	}

	if c.Transfer.OutDir == "" {
		c.Transfer.OutDir = "./downloads"
	}

	return nil
}
