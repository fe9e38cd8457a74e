// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	FTP       FTPConfig       `mapstructure:"ftp"`
	Label     LabelConfig     `mapstructure:"label"`
	Imaging   ImagingConfig   `mapstructure:"imaging"`
	Transport TransportConfig `mapstructure:"transport"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// FTPConfig represents the printer FTP delivery configuration
type FTPConfig struct {
	Username       string        `mapstructure:"username"`
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
}

// LabelConfig represents label builder defaults
type LabelConfig struct {
	Unit       string `mapstructure:"unit"`
	DefaultDPI int    `mapstructure:"default_dpi"`
}

// ImagingConfig represents the image preparation configuration
type ImagingConfig struct {
	MaxWidth     int  `mapstructure:"max_width"`
	MaxHeight    int  `mapstructure:"max_height"`
	MaxBytes     int  `mapstructure:"max_bytes"`
	AllowUpscale bool `mapstructure:"allow_upscale"`
}

// TransportConfig represents per-transport connection defaults
type TransportConfig struct {
	TCPPort        int           `mapstructure:"tcp_port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	SerialBaudRate int           `mapstructure:"serial_baud_rate"`
}

// DiscoveryConfig represents printer discovery configuration
type DiscoveryConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	CIDR        string        `mapstructure:"cidr"`
	Ports       []int         `mapstructure:"ports"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// JobsConfig represents job tracking configuration
type JobsConfig struct {
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	ProbeInterval   time.Duration `mapstructure:"probe_interval"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables. A missing
// config file is not an error; the defaults describe a runnable service.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/label-service")

	// Environment variable support
	viper.SetEnvPrefix("LABEL_SERVICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8086")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// FTP defaults
	viper.SetDefault("ftp.username", "zebra")
	viper.SetDefault("ftp.port", 21)
	viper.SetDefault("ftp.connect_timeout", "5s")
	viper.SetDefault("ftp.keep_alive", "60s")

	// Label defaults
	viper.SetDefault("label.unit", "dots")
	viper.SetDefault("label.default_dpi", 203)

	// Imaging defaults
	viper.SetDefault("imaging.max_width", 832)
	viper.SetDefault("imaging.max_height", 1218)
	viper.SetDefault("imaging.max_bytes", 4194304)
	viper.SetDefault("imaging.allow_upscale", false)

	// Transport defaults
	viper.SetDefault("transport.tcp_port", 9100)
	viper.SetDefault("transport.connect_timeout", "10s")
	viper.SetDefault("transport.write_timeout", "30s")
	viper.SetDefault("transport.serial_baud_rate", 9600)

	// Discovery defaults
	viper.SetDefault("discovery.enabled", true)
	viper.SetDefault("discovery.cidr", "")
	viper.SetDefault("discovery.ports", []int{9100, 21})
	viper.SetDefault("discovery.dial_timeout", "500ms")
	viper.SetDefault("discovery.concurrency", 64)

	// Job defaults
	viper.SetDefault("jobs.retention", "24h")
	viper.SetDefault("jobs.cleanup_interval", "10m")
	viper.SetDefault("jobs.probe_interval", "60s")

	// Security defaults
	viper.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// App defaults
	viper.SetDefault("app.name", "label-service")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.FTP.Port <= 0 || config.FTP.Port > 65535 {
		return fmt.Errorf("ftp.port must be a valid port number")
	}
	if config.Transport.TCPPort <= 0 || config.Transport.TCPPort > 65535 {
		return fmt.Errorf("transport.tcp_port must be a valid port number")
	}

	// Validate the label unit
	switch config.Label.Unit {
	case "dots", "inches", "dip":
	default:
		return fmt.Errorf("label.unit must be one of: dots, inches, dip")
	}
	if config.Label.Unit != "dots" && config.Label.DefaultDPI <= 0 {
		return fmt.Errorf("label.default_dpi is required for unit %q", config.Label.Unit)
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
