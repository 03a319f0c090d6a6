package config

import "time"

// Backend kinds.
const (
	BackendGRPC     = "grpc"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds runtime settings for the tripkeeper client.
type Config struct {
	Backend            string
	ServerEndpointAddr string
	DatabaseDSN        string
	S3Bucket           string
	S3Endpoint         string
	S3Region           string
	S3AccessKey        string
	S3SecretKey        string
	LoadTimeout        time.Duration
	MetricsAddr        string
	UserID             string
	Email              string
	Token              string
	DevSecret          string
	Report             bool
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendGRPC
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabaseDSN = "file:tripkeeper.db"
	c.S3Region = "us-east-1"
	c.LoadTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
