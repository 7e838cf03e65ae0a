package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the greenhouse sensor client
type Config struct {
	Greenhouse GreenhouseConfig `yaml:"greenhouse"`
	Source     SourceConfig     `yaml:"source"`
	Server     ServerConfig     `yaml:"server"`
	Buffer     BufferConfig     `yaml:"buffer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GreenhouseConfig identifies the greenhouse this client reports for
type GreenhouseConfig struct {
	ID       string `yaml:"id"`
	Location string `yaml:"location"`
	Crop     string `yaml:"crop"`
}

// SourceConfig selects where readings come from: a CSV export replayed at
// the read interval, or the built-in simulator.
type SourceConfig struct {
	Mode         string        `yaml:"mode"` // "csv" or "simulate"
	CSVPath      string        `yaml:"csv_path"`
	ReadInterval time.Duration `yaml:"read_interval"`
	Seed         int64         `yaml:"seed"` // simulator only; 0 = time-based
}

// ServerConfig contains connection settings for the remote server
type ServerConfig struct {
	URL                  string        `yaml:"url"`
	AuthToken            string        `yaml:"auth_token"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	MaxReconnectInterval time.Duration `yaml:"max_reconnect_interval"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PongTimeout          time.Duration `yaml:"pong_timeout"`
}

// BufferConfig contains settings for the reading buffer
type BufferConfig struct {
	Size          int    `yaml:"size"`
	DropOldest    bool   `yaml:"drop_oldest"`
	PersistToDisk bool   `yaml:"persist_to_disk"`
	PersistPath   string `yaml:"persist_path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// LoadConfig loads client configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	yamlData, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("Error reading config file:", err)
		return nil, err
	}
	var config Config
	err = yaml.Unmarshal(yamlData, &config)
	if err != nil {
		fmt.Println("Error unmarshalling config file:", err)
		return nil, err
	}

	config.ApplyDefaults()
	config.OverrideFromEnv()
	if err := config.Validate(); err != nil {
		fmt.Println("Error validating config:", err)
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults sets default values for any unset fields
func (c *Config) ApplyDefaults() {
	if c.Greenhouse.Crop == "" {
		c.Greenhouse.Crop = "saffron"
	}
	if c.Source.Mode == "" {
		c.Source.Mode = "simulate"
	}
	if c.Source.ReadInterval == 0 {
		c.Source.ReadInterval = 30 * time.Second
	}
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = 10 * time.Second
	}
	if c.Server.ReconnectInterval == 0 {
		c.Server.ReconnectInterval = 1 * time.Second
	}
	if c.Server.MaxReconnectInterval == 0 {
		c.Server.MaxReconnectInterval = 5 * time.Minute
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = 30 * time.Second
	}
	if c.Server.PongTimeout == 0 {
		c.Server.PongTimeout = 10 * time.Second
	}
	if c.Buffer.Size == 0 {
		c.Buffer.Size = 1000
		c.Buffer.DropOldest = true
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 10
	}
}

// OverrideFromEnv overrides config values from environment variables
func (c *Config) OverrideFromEnv() {
	if v := os.Getenv("GREENHOUSE_ID"); v != "" {
		c.Greenhouse.ID = v
	}
	if v := os.Getenv("GREENHOUSE_LOCATION"); v != "" {
		c.Greenhouse.Location = v
	}
	if v := os.Getenv("SOURCE_CSV_PATH"); v != "" {
		c.Source.CSVPath = v
	}
	if v := os.Getenv("SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("SERVER_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Greenhouse.ID == "" {
		return fmt.Errorf("greenhouse ID is required")
	}
	switch c.Source.Mode {
	case "csv":
		if c.Source.CSVPath == "" {
			return fmt.Errorf("csv_path is required when source mode is csv")
		}
	case "simulate":
	default:
		return fmt.Errorf("source mode must be csv or simulate, got %q", c.Source.Mode)
	}
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server URL must start with ws:// or wss://")
	}
	if c.Server.AuthToken == "" {
		return fmt.Errorf("server auth token is required")
	}
	if c.Source.ReadInterval < 1*time.Second {
		return fmt.Errorf("read interval must be at least 1 second")
	}
	if c.Buffer.Size < 10 || c.Buffer.Size > 100000 {
		return fmt.Errorf("buffer size must be between 10 and 100000")
	}
	return nil
}

// String returns a safe string representation (hides auth token)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Greenhouse: %+v, Source: %+v, Server: [URL=%s, Token=%s], Buffer: %+v, Logging: %+v}",
		c.Greenhouse,
		c.Source,
		c.Server.URL,
		maskToken(c.Server.AuthToken),
		c.Buffer,
		c.Logging,
	)
}

// maskToken masks all but first 4 characters of a token
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
