package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on
// top and lets environment variables override any key.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads a single YAML file plus environment overrides.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"camunda.broker_address",
		"backend.base_url",
		"store.backend",
		"database.redis.address",
		"database.redis.password",
		"database.postgres.host",
		"database.postgres.user",
		"database.postgres.password",
		"database.elasticsearch.url",
		"observability.jaeger_endpoint",
		"logging.level",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in YAML string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		s, ok := v.Get(key).(string)
		if !ok || !strings.Contains(s, "$") {
			continue
		}
		if expanded := os.ExpandEnv(s); expanded != s {
			v.Set(key, expanded)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "studyabroad-workers"
	}
	if cfg.App.HTTPAddress == "" {
		cfg.App.HTTPAddress = ":8080"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendRedis
	}
	if cfg.Store.Table == "" {
		cfg.Store.Table = "user_records"
	}

	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30000
	}

	if cfg.Discovery.Source == "" {
		cfg.Discovery.Source = DiscoverySourceAPI
	}
	if cfg.Discovery.Index == "" {
		cfg.Discovery.Index = "universities"
	}
	if cfg.Discovery.MaxResults == 0 {
		cfg.Discovery.MaxResults = 50
	}
	if cfg.Discovery.DefaultBudget == 0 {
		cfg.Discovery.DefaultBudget = 60000
	}
	if cfg.Discovery.CatalogPath == "" {
		cfg.Discovery.CatalogPath = "configs/universities.yaml"
	}
	if len(cfg.Discovery.Regions) == 0 {
		cfg.Discovery.Regions = []string{"USA", "UK", "Canada", "Germany"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.SampleRatio == 0 {
		cfg.Observability.SampleRatio = 1
	}

	for name, w := range cfg.Workers {
		if w.MaxJobsActive == 0 {
			w.MaxJobsActive = 5
		}
		if w.Timeout == 0 {
			w.Timeout = 30000
		}
		cfg.Workers[name] = w
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}

	switch cfg.Store.Backend {
	case StoreBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis store")
		}
	case StoreBackendPostgres:
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" || cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres host, database and user are required for the postgres store")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("store.backend %q is not supported", cfg.Store.Backend)
	}

	switch cfg.Discovery.Source {
	case DiscoverySourceAPI, DiscoverySourceFile:
	case DiscoverySourceElasticsearch:
		if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for the elasticsearch source")
		}
	default:
		return fmt.Errorf("discovery.source %q is not supported", cfg.Discovery.Source)
	}

	if cfg.Discovery.DefaultBudget < 0 {
		return fmt.Errorf("discovery.default_budget must not be negative")
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the named worker config, or an enabled default.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if w, ok := cfg.Workers[workerName]; ok {
		return w
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	return GetWorkerConfig(cfg, workerName).Enabled
}
