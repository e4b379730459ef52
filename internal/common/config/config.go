package config

import (
	"fmt"
	"time"
)

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Store         StoreConfig             `mapstructure:"store"`
	Backend       BackendConfig           `mapstructure:"backend"`
	Discovery     DiscoveryConfig         `mapstructure:"discovery"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddress string `mapstructure:"http_address"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Store backends.
const (
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// StoreConfig selects where per-user records live.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TTL       int    `mapstructure:"ttl"` // seconds, 0 keeps records forever
	Table     string `mapstructure:"table"`
}

// BackendConfig points at the remote profile, recommendation and lock services.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// Discovery catalog sources.
const (
	DiscoverySourceAPI           = "api"
	DiscoverySourceElasticsearch = "elasticsearch"
	DiscoverySourceFile          = "file"
)

type DiscoveryConfig struct {
	Source        string   `mapstructure:"source"`
	Index         string   `mapstructure:"index"`
	MaxResults    int      `mapstructure:"max_results"`
	DefaultBudget float64  `mapstructure:"default_budget"`
	Regions       []string `mapstructure:"regions"`
	CatalogPath   string   `mapstructure:"catalog_path"`
	// Prefilter narrows Elasticsearch hits to the default budget and regions.
	// Only safe when every job filters within those defaults.
	Prefilter bool `mapstructure:"es_prefilter"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

func (s StoreConfig) TTLDuration() time.Duration {
	return time.Duration(s.TTL) * time.Second
}
