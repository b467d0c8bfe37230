package config

import (
	"log"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is everything the API reads from the environment at startup.
type Config struct {
	App struct {
		Env  string `env:"APP_ENV"`
		Port string `env:"PORT"`
	}

	Database struct {
		DSN string `env:"DB_DSN"`
	}

	Admin struct {
		Username string `env:"ADMIN_USERNAME"`
		Password string `env:"ADMIN_PASSWORD"`
		APIKey   string `env:"ADMIN_API_KEY"`
	}

	CORS struct {
		Origins string `env:"CORS_ORIGINS"`
	}

	HTTP struct {
		TrustedProxies string `env:"TRUSTED_PROXIES"`
	}

	Inventory struct {
		SeedPath string `env:"INVENTORY_SEED_PATH"`
	}
}

// Load reads an optional .env file and then the process environment.
// paths are passed to godotenv; none means "./.env".
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(paths...); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg := &Config{}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	cfg.applyDefaults()

	if cfg.Database.DSN == "" {
		return nil, errors.New("DB_DSN is required")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == "" {
		c.App.Port = "5174"
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if c.Admin.Password == "" {
		c.Admin.Password = "admin"
	}
	if c.Admin.APIKey == "" {
		c.Admin.APIKey = "admin"
	}
	if c.Inventory.SeedPath == "" {
		c.Inventory.SeedPath = "data/inventory.yaml"
	}
}

// IsProduction selects JSON logs and gin release mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// AllowedOrigins returns the CORS allow-list; empty means every origin.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORS.Origins)
}

// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For
// is believed. Empty means none: the client IP is the socket peer.
func (c *Config) TrustedProxies() []string {
	return splitList(c.HTTP.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
