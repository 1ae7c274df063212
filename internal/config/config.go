package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log         LogConfig       `mapstructure:"log"`
	Environment string          `mapstructure:"environment"`
	Remote      RemoteConfig    `mapstructure:"remote"`
	Accounts    AccountsConfig  `mapstructure:"accounts"`
	Dates       DatesConfig     `mapstructure:"dates"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Kafka       KafkaConfig     `mapstructure:"kafka"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"` // json|console
	OutputPaths []string `mapstructure:"output_paths"`
}

type RemoteConfig struct {
	Site      string `mapstructure:"site"`
	Geo       string `mapstructure:"geo"`
	JWT       string `mapstructure:"jwt"`
	BasicAuth string `mapstructure:"basic_auth"` // base64 user:password for the usage report
	BaseURL   string `mapstructure:"base_url"`
	ReportURL string `mapstructure:"report_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type AccountsConfig struct {
	ExcludeProd []string `mapstructure:"exclude_prod"`
	ExcludeUAT  []string `mapstructure:"exclude_uat"`
	PageSize    int      `mapstructure:"page_size"`
}

// Excluded maps each environment to its hidden account prefixes.
func (a AccountsConfig) Excluded() map[model.Environment][]string {
	return map[model.Environment][]string{
		model.EnvProd: a.ExcludeProd,
		model.EnvUAT:  a.ExcludeUAT,
	}
}

type DatesConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type CacheConfig struct {
	Backend   string        `mapstructure:"backend"` // file|redis|none
	Dir       string        `mapstructure:"dir"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DashboardConfig struct {
	Addr        string          `mapstructure:"addr"`
	Open        bool            `mapstructure:"open"`
	OpenDelay   time.Duration   `mapstructure:"open_delay"`
	DefaultDays int             `mapstructure:"default_days"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

// Load reads embedded defaults, merges user YAML (if it exists), overlays the
// named profile from its "profiles" section, and applies env overrides
// (DMTOOL_*, e.g. DMTOOL_REMOTE_JWT).
func Load(path, profile string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if profile != "" {
		sub := v.Sub("profiles." + profile)
		if sub == nil {
			return Config{}, fmt.Errorf("unknown profile %q", profile)
		}
		if err := v.MergeConfigMap(sub.AllSettings()); err != nil {
			return Config{}, fmt.Errorf("apply profile %q: %w", profile, err)
		}
	}

	// env override (DMTOOL_*)
	v.SetEnvPrefix("DMTOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Env() model.Environment {
	env, _ := model.ParseEnvironment(c.Environment)
	return env
}

func (c Config) Validate() error {
	if _, ok := model.ParseEnvironment(c.Environment); !ok {
		return fmt.Errorf("environment must be prod or uat, got %q", c.Environment)
	}

	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.enabled requires kafka.brokers")
	}

	return nil
}
