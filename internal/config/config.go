package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config is the full application configuration
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Geo       GeoConfig
	Odoo      OdooConfig
	Sync      SyncConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds HTTP server options
type ServerConfig struct {
	Port       string
	CORSOrigin string
}

// DataConfig locates the local data files
type DataConfig struct {
	DBPath          string
	CatalogPath     string
	GeometryPath    string
	RawGeometryPath string // unmeasured registry, used when GeometryPath is missing
}

// GeoConfig selects the projected CRS lot geometries are stored in
type GeoConfig struct {
	UTMZone  int
	UTMSouth bool
}

// OdooConfig holds the ERP JSON-RPC credentials. An empty URL disables sync.
type OdooConfig struct {
	URL      string
	DB       string
	UserID   int
	Password string
}

// Enabled reports whether an ERP endpoint is configured
func (c OdooConfig) Enabled() bool {
	return c.URL != ""
}

// SyncConfig holds scheduler settings
type SyncConfig struct {
	CronSchedule string
}

// ReconcileConfig toggles optional merge behaviour
type ReconcileConfig struct {
	MatchSuffixVariants bool
	IncludeGeometryOnly bool
}

// Load reads environment variables (optionally from envFile) into a Config
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// a missing .env is fine when everything comes from the environment
		_ = godotenv.Load()
	}

	zone, err := getenvInt("UTM_ZONE", 18)
	if err != nil {
		return nil, err
	}
	userID, err := getenvInt("ODOO_USER_ID", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:       getenvWithDefault("APP_PORT", "8080"),
			CORSOrigin: getenvWithDefault("CORS_ORIGIN", "*"),
		},
		Data: DataConfig{
			DBPath:          getenvWithDefault("DB_PATH", "data/parcel-portal.db"),
			CatalogPath:     getenvWithDefault("CATALOG_PATH", "data/lots.yaml"),
			GeometryPath:    getenvWithDefault("GEOMETRY_PATH", "data/geometries-enriched.json"),
			RawGeometryPath: getenvWithDefault("GEOMETRY_RAW_PATH", "data/geometries.json"),
		},
		Geo: GeoConfig{
			UTMZone:  zone,
			UTMSouth: getenvBool("UTM_SOUTH", true),
		},
		Odoo: OdooConfig{
			URL:      strings.TrimSuffix(os.Getenv("ODOO_URL"), "/"),
			DB:       os.Getenv("ODOO_DB"),
			UserID:   userID,
			Password: os.Getenv("ODOO_PASSWORD"),
		},
		Sync: SyncConfig{
			CronSchedule: getenvWithDefault("SYNC_CRON", "*/10 * * * *"),
		},
		Reconcile: ReconcileConfig{
			MatchSuffixVariants: getenvBool("MATCH_SUFFIX_VARIANTS", false),
			IncludeGeometryOnly: getenvBool("INCLUDE_GEOMETRY_ONLY", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures required fields are populated and consistent
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.Server.Port == "":
		return errors.New("APP_PORT must be provided")
	case c.Data.DBPath == "":
		return errors.New("DB_PATH must be provided")
	case c.Data.CatalogPath == "":
		return errors.New("CATALOG_PATH must be provided")
	case c.Geo.UTMZone < 1 || c.Geo.UTMZone > 60:
		return fmt.Errorf("UTM_ZONE must be between 1 and 60, got %d", c.Geo.UTMZone)
	}

	if c.Odoo.Enabled() {
		switch {
		case c.Odoo.DB == "":
			return errors.New("ODOO_DB must be provided when ODOO_URL is set")
		case c.Odoo.UserID <= 0:
			return errors.New("ODOO_USER_ID must be provided when ODOO_URL is set")
		case c.Odoo.Password == "":
			return errors.New("ODOO_PASSWORD must be provided when ODOO_URL is set")
		}
		if _, err := cron.ParseStandard(c.Sync.CronSchedule); err != nil {
			return fmt.Errorf("SYNC_CRON is invalid: %w", err)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
