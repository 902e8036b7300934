package config

import (
	"os"

	"gopkg.in/ini.v1"
)

// Config holds the pgcli demo's configuration: how to reach the backend and
// where to expose the Prometheus scrape endpoint.
type Config struct {
	Connection ConnectionConfig
	Metrics    MetricsConfig
}

// ConnectionConfig mirrors the keyword arguments pgconn.Connect accepts.
type ConnectionConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Options  string
}

// MetricsConfig controls the optional Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled bool
	Listen  string
}

// Load reads configuration from an INI file, with environment variable
// overrides for the connection password (so it never needs to sit in a
// file on disk).
func Load(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	conn := cfg.Section("connection")
	metr := cfg.Section("metrics")

	c := &Config{
		Connection: ConnectionConfig{
			Host:     conn.Key("host").MustString("/tmp/.s.PGSQL.5432"),
			Port:     conn.Key("port").MustInt(5432),
			User:     conn.Key("user").MustString(os.Getenv("USER")),
			Password: conn.Key("password").String(),
			Database: conn.Key("dbname").MustString(""),
			Options:  conn.Key("options").String(),
		},
		Metrics: MetricsConfig{
			Enabled: metr.Key("enabled").MustBool(false),
			Listen:  metr.Key("listen").MustString(":9090"),
		},
	}

	if v := os.Getenv("PGWIRE_PASSWORD"); v != "" {
		c.Connection.Password = v
	}

	return c, nil
}
