// Package config loads benchmark settings from defaults, a YAML file, the
// environment (GITWALK_*) and command-line flags, in increasing precedence.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"gitwalk/internal/report"
	"gitwalk/internal/scheduler"
)

const EnvPrefix = "GITWALK"

const (
	BackendGoGit  = "gogit"
	BackendGitDB  = "gitdb"
	BackendMemory = "memory"
)

type Synthetic struct {
	Depth      int `mapstructure:"depth"`
	MergeEvery int `mapstructure:"merge_every"`
}

type Report struct {
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type Config struct {
	Repo    string `mapstructure:"repo"`
	Backend string `mapstructure:"backend"`
	// Commit is the starting revision; empty means HEAD.
	Commit string `mapstructure:"commit"`

	Rounds      int           `mapstructure:"rounds"`
	Concurrency int           `mapstructure:"concurrency"`
	Period      time.Duration `mapstructure:"period"`
	Overlap     bool          `mapstructure:"overlap"`

	SkipVisited bool          `mapstructure:"skip_visited"`
	GCEvery     int           `mapstructure:"gc_every"`
	CacheSize   int           `mapstructure:"cache_size"`
	MaxInFlight int           `mapstructure:"max_inflight"`
	Latency     time.Duration `mapstructure:"latency"`

	Synthetic   Synthetic `mapstructure:"synthetic"`
	Report      Report    `mapstructure:"report"`
	MetricsFile string    `mapstructure:"metrics_file"`
}

// SetDefaults registers every key so that environment overrides are seen by
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("repo", ".")
	v.SetDefault("backend", BackendGoGit)
	v.SetDefault("commit", "")
	v.SetDefault("rounds", 100)
	v.SetDefault("concurrency", 100)
	v.SetDefault("period", 50*time.Millisecond)
	v.SetDefault("overlap", false)
	v.SetDefault("skip_visited", true)
	v.SetDefault("gc_every", 0)
	v.SetDefault("cache_size", 0)
	v.SetDefault("max_inflight", 0)
	v.SetDefault("latency", time.Duration(0))
	v.SetDefault("synthetic.depth", 1000)
	v.SetDefault("synthetic.merge_every", 10)
	v.SetDefault("report.format", report.FormatText)
	v.SetDefault("report.output", "")
	v.SetDefault("metrics_file", "")
}

// Load reads path (if set) into v and decodes the merged settings.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGoGit, BackendGitDB, BackendMemory:
	default:
		return errors.Errorf("unknown backend %q, want %s, %s or %s", c.Backend, BackendGoGit, BackendGitDB, BackendMemory)
	}
	if err := c.Scheduler().Validate(); err != nil {
		return err
	}
	if c.GCEvery < 0 || c.CacheSize < 0 || c.MaxInFlight < 0 {
		return errors.New("gc_every, cache_size and max_inflight must not be negative")
	}
	if c.Latency < 0 {
		return errors.Errorf("latency must not be negative, got %s", c.Latency)
	}
	if c.Backend == BackendMemory && (c.Synthetic.Depth < 0 || c.Synthetic.MergeEvery < 0) {
		return errors.New("synthetic depth and merge_every must not be negative")
	}
	switch c.Report.Format {
	case report.FormatText, report.FormatJSON, report.FormatYAML:
	default:
		return errors.Errorf("unknown report format %q, want one of %v", c.Report.Format, report.Formats)
	}
	return nil
}

func (c *Config) Scheduler() scheduler.Config {
	return scheduler.Config{
		Rounds:      c.Rounds,
		Concurrency: c.Concurrency,
		Period:      c.Period,
		Overlap:     c.Overlap,
	}
}
