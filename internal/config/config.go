// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"serial-monitor/pkg/framing"
)

// MaxReadTimeout bounds how long a stop request can wait on a blocked read
const MaxReadTimeout = 2 * time.Second

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Serial    SerialConfig    `mapstructure:"serial"`
	Recording RecordingConfig `mapstructure:"recording"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents the optional session journal database
type DatabaseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	DBName        string        `mapstructure:"dbname"`
	SSLMode       string        `mapstructure:"sslmode"`
	MaxOpenConns  int           `mapstructure:"max_open_conns"`
	MaxIdleConns  int           `mapstructure:"max_idle_conns"`
	MaxLifetime   time.Duration `mapstructure:"max_lifetime"`
	RunMigrations bool          `mapstructure:"run_migrations"`
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

// SerialConfig represents the device link defaults
type SerialConfig struct {
	DefaultPort      string        `mapstructure:"default_port"`
	DefaultBaudRate  int           `mapstructure:"default_baud_rate"`
	DataBits         int           `mapstructure:"data_bits"`
	StopBits         int           `mapstructure:"stop_bits"`
	Parity           string        `mapstructure:"parity"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	ReadBufferSize   int           `mapstructure:"read_buffer_size"`
	FrameMode        string        `mapstructure:"frame_mode"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	NetworkEndpoints []string      `mapstructure:"network_endpoints"`
}

// RecordingConfig represents raw traffic recording settings
type RecordingConfig struct {
	Folder                string        `mapstructure:"folder"`
	FilePrefix            string        `mapstructure:"file_prefix"`
	RotationInterval      time.Duration `mapstructure:"rotation_interval"`
	LegacyStopDisconnects bool          `mapstructure:"legacy_stop_disconnects"`
}

// PromptConfig controls how long the service waits on a connected client
type PromptConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables.
// An empty path searches the default locations; a missing file there
// falls back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/serial-monitor")
	}

	// Environment variable support
	v.SetEnvPrefix("SERIAL_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.tls.enabled", false)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "serial_monitor")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.run_migrations", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Serial defaults
	v.SetDefault("serial.default_port", "")
	v.SetDefault("serial.default_baud_rate", 9600)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.parity", "none")
	v.SetDefault("serial.read_timeout", "10ms")
	v.SetDefault("serial.read_buffer_size", 32)
	v.SetDefault("serial.frame_mode", string(framing.ModeFixed))
	v.SetDefault("serial.connect_timeout", "5s")
	v.SetDefault("serial.write_timeout", "1s")
	v.SetDefault("serial.network_endpoints", []string{})

	// Recording defaults
	v.SetDefault("recording.folder", "")
	v.SetDefault("recording.file_prefix", "DCubedISM")
	v.SetDefault("recording.rotation_interval", "600s")
	v.SetDefault("recording.legacy_stop_disconnects", false)

	v.SetDefault("prompt.timeout", "2m")

	// App defaults
	v.SetDefault("app.name", "serial-monitor")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required when database is enabled")
	}

	// Serial link
	if config.Serial.ReadTimeout <= 0 || config.Serial.ReadTimeout > MaxReadTimeout {
		return fmt.Errorf("serial.read_timeout must be in (0, %s]", MaxReadTimeout)
	}
	if config.Serial.ReadBufferSize <= 0 {
		return fmt.Errorf("serial.read_buffer_size must be positive")
	}
	if config.Serial.DefaultBaudRate <= 0 {
		return fmt.Errorf("serial.default_baud_rate must be positive")
	}
	if !framing.Mode(config.Serial.FrameMode).Valid() {
		return fmt.Errorf("serial.frame_mode must be one of: fixed, raw, text")
	}
	validParity := []string{"none", "odd", "even", "mark", "space"}
	if !slices.Contains(validParity, config.Serial.Parity) {
		return fmt.Errorf("serial.parity must be one of: %v", validParity)
	}

	// Recording
	// File names carry one-second resolution
	if config.Recording.RotationInterval < time.Second {
		return fmt.Errorf("recording.rotation_interval must be at least 1s")
	}
	if config.Prompt.Timeout <= 0 {
		return fmt.Errorf("prompt.timeout must be positive")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !slices.Contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
