package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// SweepConfig controls the crossing computation.
type SweepConfig struct {
	FetchRadiusMiles float64       `mapstructure:"fetch_radius_miles"`
	RingRadiiMiles   []float64     `mapstructure:"ring_radii_miles"`
	Parallel         bool          `mapstructure:"parallel"`
	Sampler          SamplerConfig `mapstructure:"sampler"`
}

// SamplerConfig selects how crossings are thinned per ring: "none", "cap"
// or "angular".
type SamplerConfig struct {
	Kind       string `mapstructure:"kind"`
	MaxPerRing int    `mapstructure:"max_per_ring"`
	Seed       int64  `mapstructure:"seed"`
	Sectors    int    `mapstructure:"sectors"`
	PerSector  int    `mapstructure:"per_sector"`
}

// ProviderConfig selects the road geometry source: "overpass", "postgis"
// or "roadindex".
type ProviderConfig struct {
	Kind            string `mapstructure:"kind"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
	SnapshotPath    string `mapstructure:"snapshot_path"`
}

type OverpassConfig struct {
	URL            string   `mapstructure:"url"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	HighwayClasses []string `mapstructure:"highway_classes"`
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

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("sweep.fetch_radius_miles", 1.0)
	v.SetDefault("sweep.ring_radii_miles", []float64{0.1, 0.25, 0.5, 0.75})
	v.SetDefault("sweep.parallel", false)
	v.SetDefault("sweep.sampler.kind", "none")
	v.SetDefault("sweep.sampler.max_per_ring", 20)
	v.SetDefault("sweep.sampler.seed", 1)
	v.SetDefault("sweep.sampler.sectors", 8)
	v.SetDefault("sweep.sampler.per_sector", 2)
	v.SetDefault("provider.kind", "overpass")
	v.SetDefault("provider.cache_ttl_seconds", 3600)
	v.SetDefault("provider.snapshot_path", "data/roads.json")
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_seconds", 25)
	v.SetDefault("overpass.highway_classes", []string{
		"primary", "secondary", "tertiary", "residential", "service", "unclassified",
	})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "curbside")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "curbside")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "road-cache-warmup")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CURBSIDE_SWEEP_FETCH_RADIUS_MILES → sweep.fetch_radius_miles
	v.SetEnvPrefix("CURBSIDE")
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

	if !(c.Sweep.FetchRadiusMiles > 0) || math.IsInf(c.Sweep.FetchRadiusMiles, 0) {
		errs = append(errs, fmt.Sprintf("sweep.fetch_radius_miles must be positive, got %v", c.Sweep.FetchRadiusMiles))
	}
	if len(c.Sweep.RingRadiiMiles) == 0 {
		errs = append(errs, "sweep.ring_radii_miles must not be empty")
	}
	for i, r := range c.Sweep.RingRadiiMiles {
		if !(r > 0) || math.IsInf(r, 0) {
			errs = append(errs, fmt.Sprintf("sweep.ring_radii_miles[%d] must be positive, got %v", i, r))
		}
	}
	switch c.Sweep.Sampler.Kind {
	case "none", "":
	case "cap":
		if c.Sweep.Sampler.MaxPerRing <= 0 {
			errs = append(errs, "sweep.sampler.max_per_ring must be positive")
		}
	case "angular":
		if c.Sweep.Sampler.Sectors <= 0 || c.Sweep.Sampler.PerSector <= 0 {
			errs = append(errs, "sweep.sampler.sectors and sweep.sampler.per_sector must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("sweep.sampler.kind must be none, cap or angular, got %q", c.Sweep.Sampler.Kind))
	}

	switch c.Provider.Kind {
	case "overpass":
		if c.Overpass.URL == "" {
			errs = append(errs, "overpass.url is required")
		}
		if c.Overpass.TimeoutSeconds <= 0 {
			errs = append(errs, "overpass.timeout_seconds must be positive")
		}
		if len(c.Overpass.HighwayClasses) == 0 {
			errs = append(errs, "overpass.highway_classes must not be empty")
		}
	case "postgis":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case "roadindex":
		if c.Provider.SnapshotPath == "" {
			errs = append(errs, "provider.snapshot_path is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("provider.kind must be overpass, postgis or roadindex, got %q", c.Provider.Kind))
	}
	if c.Provider.CacheTTLSeconds < 0 {
		errs = append(errs, "provider.cache_ttl_seconds must not be negative")
	}

	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
