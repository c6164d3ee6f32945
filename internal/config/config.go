// Package config loads the system's configuration from a YAML file,
// with environment-variable overrides for the handful of
// deployment-sensitive fields (listen addresses, Redis/NATS
// endpoints, secret-key source) that operators typically need to set
// per-environment without editing a checked-in file.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables for the intercept server, admin
// surface, and their supporting engines.
type Config struct {
	InterceptAddress string `yaml:"intercept_address"`
	AdminAddress     string `yaml:"admin_address"`

	AuditQueueCapacity int `yaml:"audit_queue_capacity"`
	FlushIntervalMs    int `yaml:"flush_interval_ms"`

	StripedMapStripes int `yaml:"striped_map_stripes"`

	HLLPrecision     int     `yaml:"hll_precision"`
	CountMinWidth    int     `yaml:"count_min_width"`
	CountMinDepth    int     `yaml:"count_min_depth"`
	BloomExpectedN   int     `yaml:"bloom_expected_n"`
	BloomFalsePosRate float64 `yaml:"bloom_false_positive_rate"`

	KeyedChain       bool   `yaml:"keyed_chain"`
	CheckpointKeyFile string `yaml:"checkpoint_key_file"`
	CatalogFile      string `yaml:"catalog_file"`

	Redis RedisConfig `yaml:"redis"`
	NATS  NATSConfig  `yaml:"nats"`

	CheckpointSchedule string `yaml:"checkpoint_schedule"`
	SnapshotSchedule   string `yaml:"snapshot_schedule"`
	SnapshotName       string `yaml:"snapshot_name"`
	SnapshotTTLSeconds int    `yaml:"snapshot_ttl_seconds"`

	AdminRateLimitRPS float64 `yaml:"admin_rate_limit_rps"`
	AdminRateLimitBurst int   `yaml:"admin_rate_limit_burst"`

	LogLevel string `yaml:"log_level"`
	LogPretty bool  `yaml:"log_pretty"`
}

// RedisConfig holds Redis connection settings, consumed by
// internal/cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NATSConfig holds the optional event-bus publisher settings.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// Default returns the configuration's out-of-the-box values, used as
// the base before a YAML file and environment overrides are applied.
func Default() Config {
	return Config{
		InterceptAddress: "0.0.0.0:9000",
		AdminAddress:     "0.0.0.0:9001",

		AuditQueueCapacity: 10_000,
		FlushIntervalMs:    1_000,

		StripedMapStripes: 16,

		HLLPrecision:      11,
		CountMinWidth:     2048,
		CountMinDepth:     5,
		BloomExpectedN:    1_000_000,
		BloomFalsePosRate: 0.01,

		KeyedChain: false,

		Redis: RedisConfig{Enabled: false, Host: "localhost", Port: "6379"},
		NATS:  NATSConfig{Enabled: false, URL: "nats://localhost:4222"},

		CheckpointSchedule: "0 * * * *",
		SnapshotSchedule:   "*/15 * * * *",
		SnapshotName:       "chronoguard-lite",
		SnapshotTTLSeconds: 86400,

		AdminRateLimitRPS:   10,
		AdminRateLimitBurst: 20,

		LogLevel:  "info",
		LogPretty: false,
	}
}

// Load reads a YAML file at path (if non-empty and present) over the
// defaults, then applies environment-variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides lets operators override deployment-sensitive
// fields without editing the YAML file, matching how the teacher's
// own bootstrap reads its environment for host/port/credential
// settings.
func applyEnvOverrides(cfg *Config) {
	cfg.InterceptAddress = getEnv("CHRONOGUARD_INTERCEPT_ADDRESS", cfg.InterceptAddress)
	cfg.AdminAddress = getEnv("CHRONOGUARD_ADMIN_ADDRESS", cfg.AdminAddress)

	cfg.Redis.Host = getEnv("CHRONOGUARD_REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnv("CHRONOGUARD_REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("CHRONOGUARD_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.Enabled = getEnvBool("CHRONOGUARD_REDIS_ENABLED", cfg.Redis.Enabled)

	cfg.NATS.URL = getEnv("CHRONOGUARD_NATS_URL", cfg.NATS.URL)
	cfg.NATS.Enabled = getEnvBool("CHRONOGUARD_NATS_ENABLED", cfg.NATS.Enabled)

	cfg.CheckpointKeyFile = getEnv("CHRONOGUARD_CHECKPOINT_KEY_FILE", cfg.CheckpointKeyFile)
	cfg.KeyedChain = getEnvBool("CHRONOGUARD_KEYED_CHAIN", cfg.KeyedChain)

	cfg.LogLevel = getEnv("CHRONOGUARD_LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
