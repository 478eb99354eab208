package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Avoidance AvoidanceConfig `mapstructure:"avoidance"`
	Incidents IncidentsConfig `mapstructure:"incidents"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// RoutingConfig configures the openrouteservice client.
type RoutingConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ParallelWalk bool          `mapstructure:"parallel_walk"`
}

type GeocodingConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AvoidanceConfig controls how unsafe zones are buffered.
type AvoidanceConfig struct {
	RadiusMeters float64          `mapstructure:"radius_meters"`
	Segments     int              `mapstructure:"segments"`
	ZonesSource  string           `mapstructure:"zones_source"` // file | database
	ZonesFile    string           `mapstructure:"zones_file"`
	Projection   ProjectionConfig `mapstructure:"projection"`
}

// ProjectionConfig picks the planar frame used for buffering.
// mode "fixed" uses a single UTM zone; "auto" picks the zone per point.
type ProjectionConfig struct {
	Mode    string `mapstructure:"mode"`
	UTMZone int    `mapstructure:"utm_zone"`
	North   bool   `mapstructure:"north"`
}

type IncidentsConfig struct {
	Store   string `mapstructure:"store"` // postgres | csv
	CSVPath string `mapstructure:"csv_path"`
	// ArchivePath is the CSV file the worker mirrors published incidents
	// into. Empty disables the mirror.
	ArchivePath string `mapstructure:"archive_path"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file and
// environment variables, in increasing order of precedence.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "saferoute")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "saferoute")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("routing.base_url", "https://api.openrouteservice.org")
	v.SetDefault("routing.api_key", "")
	v.SetDefault("routing.timeout", 20*time.Second)
	v.SetDefault("routing.parallel_walk", false)
	v.SetDefault("geocoding.cache_ttl", 24*time.Hour)
	v.SetDefault("avoidance.radius_meters", 200.0)
	v.SetDefault("avoidance.segments", 64)
	v.SetDefault("avoidance.zones_source", "file")
	v.SetDefault("avoidance.zones_file", "configs/unsafe_zones.yaml")
	v.SetDefault("avoidance.projection.mode", "fixed")
	v.SetDefault("avoidance.projection.utm_zone", 11)
	v.SetDefault("avoidance.projection.north", true)
	v.SetDefault("incidents.store", "postgres")
	v.SetDefault("incidents.csv_path", "incidents.csv")
	v.SetDefault("incidents.archive_path", "")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "incident-queue")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SAFEROUTE_ROUTING_API_KEY → routing.api_key
	v.SetEnvPrefix("SAFEROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Routing.BaseURL == "" {
		errs = append(errs, "routing.base_url is required")
	}
	if c.Routing.Timeout <= 0 {
		errs = append(errs, "routing.timeout must be positive")
	}
	if c.Avoidance.RadiusMeters <= 0 {
		errs = append(errs, fmt.Sprintf("avoidance.radius_meters must be positive, got %v", c.Avoidance.RadiusMeters))
	}
	if c.Avoidance.Segments < 32 {
		errs = append(errs, fmt.Sprintf("avoidance.segments must be at least 32, got %d", c.Avoidance.Segments))
	}
	switch c.Avoidance.ZonesSource {
	case "file":
		if c.Avoidance.ZonesFile == "" {
			errs = append(errs, "avoidance.zones_file is required when zones_source is file")
		}
	case "database":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required when zones_source is database")
		}
	default:
		errs = append(errs, fmt.Sprintf("avoidance.zones_source must be file or database, got %q", c.Avoidance.ZonesSource))
	}
	switch c.Avoidance.Projection.Mode {
	case "fixed":
		if z := c.Avoidance.Projection.UTMZone; z < 1 || z > 60 {
			errs = append(errs, fmt.Sprintf("avoidance.projection.utm_zone must be 1-60, got %d", z))
		}
	case "auto":
	default:
		errs = append(errs, fmt.Sprintf("avoidance.projection.mode must be fixed or auto, got %q", c.Avoidance.Projection.Mode))
	}
	switch c.Incidents.Store {
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required when incidents.store is postgres")
		}
	case "csv":
		if c.Incidents.CSVPath == "" {
			errs = append(errs, "incidents.csv_path is required when incidents.store is csv")
		}
	default:
		errs = append(errs, fmt.Sprintf("incidents.store must be postgres or csv, got %q", c.Incidents.Store))
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required when temporal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
