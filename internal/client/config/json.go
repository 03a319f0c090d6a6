package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tripkeeper/internal/flagx"
	"github.com/dmitrijs2005/tripkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of Config.
type JsonConfig struct {
	Backend            string         `json:"backend"`
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Endpoint         string         `json:"s3_endpoint"`
	S3Region           string         `json:"s3_region"`
	S3AccessKey        string         `json:"s3_access_key"`
	S3SecretKey        string         `json:"s3_secret_key"`
	LoadTimeout        timex.Duration `json:"load_timeout"`
	MetricsAddr        string         `json:"metrics_addr"`
	UserID             string         `json:"user_id"`
	Email              string         `json:"email"`
	Token              string         `json:"token"`
	DevSecret          string         `json:"dev_secret"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Keys
// missing from the file keep their current values. Read or decode errors
// panic.
func parseJson(cfg *Config) {
	loadJson(cfg, flagx.ConfigFileFlag())
}

func loadJson(cfg *Config, path string) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	jc := JsonConfig{
		Backend:            cfg.Backend,
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		DatabaseDSN:        cfg.DatabaseDSN,
		S3Bucket:           cfg.S3Bucket,
		S3Endpoint:         cfg.S3Endpoint,
		S3Region:           cfg.S3Region,
		S3AccessKey:        cfg.S3AccessKey,
		S3SecretKey:        cfg.S3SecretKey,
		LoadTimeout:        timex.Duration{Duration: cfg.LoadTimeout},
		MetricsAddr:        cfg.MetricsAddr,
		UserID:             cfg.UserID,
		Email:              cfg.Email,
		Token:              cfg.Token,
		DevSecret:          cfg.DevSecret,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.Backend = jc.Backend
	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.S3Bucket = jc.S3Bucket
	cfg.S3Endpoint = jc.S3Endpoint
	cfg.S3Region = jc.S3Region
	cfg.S3AccessKey = jc.S3AccessKey
	cfg.S3SecretKey = jc.S3SecretKey
	cfg.LoadTimeout = jc.LoadTimeout.Duration
	cfg.MetricsAddr = jc.MetricsAddr
	cfg.UserID = jc.UserID
	cfg.Email = jc.Email
	cfg.Token = jc.Token
	cfg.DevSecret = jc.DevSecret
}
