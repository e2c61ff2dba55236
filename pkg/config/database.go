package config

import (
	"fmt"
)

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host      string `env:"ACCOUNT_PG_HOST" env-default:"localhost"`
	Port      uint16 `env:"ACCOUNT_PG_PORT" env-default:"5432"`
	Database  string `env:"ACCOUNT_PG_DATABASE" env-default:"account_db"`
	User      string `env:"ACCOUNT_PG_USER" env-default:"account"`
	Password  string `env:"ACCOUNT_PG_PASSWORD" env-default:"pwd"`
	Schema    string `env:"ACCOUNT_PG_SCHEMA" env-default:"public"`
	IgnoreSSL bool   `env:"ACCOUNT_PG_IGNORE_SSL" env-default:"true"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	sslMode := "require"
	if d.IgnoreSSL {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, sslMode, d.Schema)
}
