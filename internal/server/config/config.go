// Package config handles configuration for the server component, applying
// defaults, an optional JSON overlay, environment variables, and finally
// command-line flags.
package config

import "time"

// Config holds runtime settings for the authkeeper server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP endpoint.
//   - DataDir: directory for the credential files; empty means the per-user
//     config directory.
//   - DatabaseDSN: PostgreSQL DSN (pgx); empty selects the file backend.
//   - SecretKey: HMAC secret for signing JWTs (HS256); empty means a secret
//     is generated once and persisted next to the credential files.
//   - AdminPassword: bootstrap password for the initial admin account.
//   - AllowedOrigin: CORS origin allowed by the HTTP layer.
//   - SweepInterval: how often expired sessions are swept.
type Config struct {
	EndpointAddrHTTP string
	DataDir          string
	DatabaseDSN      string
	SecretKey        string
	AdminPassword    string
	AllowedOrigin    string
	SweepInterval    time.Duration
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8085"
	c.DataDir = ""
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.AdminPassword = ""
	c.AllowedOrigin = "*"
	c.SweepInterval = 15 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment, and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
