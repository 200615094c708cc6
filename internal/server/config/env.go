package config

import (
	"os"
	"time"
)

// parseEnv overlays recognized environment variables onto the config.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("AUTHKEEPER_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("AUTHKEEPER_DATA_DIR"); ok {
		config.DataDir = v
	}
	if v, ok := os.LookupEnv("AUTHKEEPER_DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("AUTHKEEPER_SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("AUTHKEEPER_ADMIN_PASSWORD"); ok {
		config.AdminPassword = v
	}
	if v, ok := os.LookupEnv("AUTHKEEPER_ALLOWED_ORIGIN"); ok {
		config.AllowedOrigin = v
	}
	if v, ok := os.LookupEnv("AUTHKEEPER_SWEEP_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.SweepInterval = d
		}
	}
}
