// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	CDN        CDNConfig        `mapstructure:"cdn"`
	Optimize   OptimizeConfig   `mapstructure:"optimize"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	PublicURL   string `mapstructure:"public_url"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CacheConfig contains the TTLs of the delivery cache layers and the
// operation timeout applied to every cache store call
type CacheConfig struct {
	ContentTTL      time.Duration `mapstructure:"content_ttl"`
	WidgetConfigTTL time.Duration `mapstructure:"widget_config_ttl"`
	BrandConfigTTL  time.Duration `mapstructure:"brand_config_ttl"`
	CSSTTL          time.Duration `mapstructure:"css_ttl"`
	OpTimeout       time.Duration `mapstructure:"op_timeout"`
	KeyPrefix       string        `mapstructure:"key_prefix"`

	// Responses above this size are compressed before caching.
	CompressionThreshold int `mapstructure:"compression_threshold"`
}

// CDNConfig contains edge policy configuration
type CDNConfig struct {
	ImageBaseURL   string `mapstructure:"image_base_url"`
	DefaultQuality int    `mapstructure:"default_quality"`
	DefaultFormat  string `mapstructure:"default_format"`
	DefaultRegion  string `mapstructure:"default_region"`
}

// OptimizeConfig toggles the optimization passes applied to rendered output
type OptimizeConfig struct {
	MinifyHTML        bool `mapstructure:"minify_html"`
	MinifyCSS         bool `mapstructure:"minify_css"`
	OptimizeImages    bool `mapstructure:"optimize_images"`
	LazyLoading       bool `mapstructure:"lazy_loading"`
	ResponsiveImages  bool `mapstructure:"responsive_images"`
	InlineCriticalCSS bool `mapstructure:"inline_critical_css"`
	PreloadHeaders    bool `mapstructure:"preload_headers"`
}

// MonitoringConfig contains performance monitor configuration
type MonitoringConfig struct {
	RealTimeWindow  time.Duration `mapstructure:"realtime_window"`
	RealTimeTTL     time.Duration `mapstructure:"realtime_ttl"`
	SmoothingFactor float64       `mapstructure:"smoothing_factor"`
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
	MetricsPath     string        `mapstructure:"metrics_path"`
	HealthCheckPath string        `mapstructure:"health_check_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/embedora")
	}

	v.SetEnvPrefix("EMBEDORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Embedora")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.public_url", "https://widgets.embedora.io")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.query_timeout", "5s")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Cache defaults
	v.SetDefault("cache.content_ttl", "5m")
	v.SetDefault("cache.widget_config_ttl", "30m")
	v.SetDefault("cache.brand_config_ttl", "1h")
	v.SetDefault("cache.css_ttl", "1h")
	v.SetDefault("cache.op_timeout", "2s")
	v.SetDefault("cache.key_prefix", "embedora")
	v.SetDefault("cache.compression_threshold", 4096)

	// CDN defaults
	v.SetDefault("cdn.image_base_url", "https://cdn.embedora.io/img")
	v.SetDefault("cdn.default_quality", 80)
	v.SetDefault("cdn.default_format", "webp")
	v.SetDefault("cdn.default_region", "us-east")

	// Optimization defaults
	v.SetDefault("optimize.minify_html", true)
	v.SetDefault("optimize.minify_css", true)
	v.SetDefault("optimize.optimize_images", true)
	v.SetDefault("optimize.lazy_loading", true)
	v.SetDefault("optimize.responsive_images", true)
	v.SetDefault("optimize.inline_critical_css", false)
	v.SetDefault("optimize.preload_headers", true)

	// Monitoring defaults
	v.SetDefault("monitoring.realtime_window", "5m")
	v.SetDefault("monitoring.realtime_ttl", "10m")
	v.SetDefault("monitoring.smoothing_factor", 0.1)
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_check_path", "/health")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Monitoring.SmoothingFactor <= 0 || c.Monitoring.SmoothingFactor >= 1 {
		return fmt.Errorf("monitoring.smoothing_factor must be in (0, 1)")
	}

	if c.Cache.OpTimeout <= 0 {
		return fmt.Errorf("cache.op_timeout must be positive")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
