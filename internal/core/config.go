package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to the roulette
// server components.
type Config struct {
	// Hostname or IP address on which the server will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Port on which the game server listens.
	Port int `mapstructure:"port"`
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`

	Lobby struct {
		// Name assigned to clients that answer the handshake with a blank line.
		DefaultNickname string `mapstructure:"default_nickname"`
		// Nicknames longer than this (in runes) are truncated.
		MaxNicknameLength int `mapstructure:"max_nickname_length"`
		// How long a client has to answer HELLO. Zero waits forever.
		HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
		// Maximum number of rooms in play at once. Zero means no limit.
		MaxRooms int `mapstructure:"max_rooms"`
		// How long a retired room remains visible on the debug endpoints.
		RetiredRoomTTL time.Duration `mapstructure:"retired_room_ttl"`
	} `mapstructure:"lobby"`

	Database struct {
		// One of sqlite, postgres or none (match history disabled).
		Engine string `mapstructure:"engine"`
		// SQLite database file, relative to the config directory.
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on host on which the Postgres instance is accepting connections.
		Port int    `mapstructure:"port"`
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to Name.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Debugging struct {
		// Serve the debug HTTP endpoints (metrics, rooms, health).
		Enabled bool `mapstructure:"enabled"`
		// Port for the debug HTTP server.
		HTTPPort int `mapstructure:"http_port"`
		// Register the pprof handlers on the debug HTTP server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Log every protocol line in and out at debug level.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`

	configDir string
}

const envVarPrefix = "ROULETTE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("hostname", "0.0.0.0")
	v.SetDefault("port", 5555)
	v.SetDefault("log_file_path", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("lobby.default_nickname", "Player")
	v.SetDefault("lobby.max_nickname_length", 16)
	v.SetDefault("lobby.handshake_timeout", 30*time.Second)
	v.SetDefault("lobby.max_rooms", 0)
	v.SetDefault("lobby.retired_room_ttl", 10*time.Minute)

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.filename", "roulette.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "roulette")
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("debugging.enabled", false)
	v.SetDefault("debugging.http_port", 8055)
	v.SetDefault("debugging.pprof_enabled", false)
	v.SetDefault("debugging.packet_logging_enabled", false)
	v.SetDefault("debugging.database_logging_enabled", false)
}

// LoadConfig reads config.yaml from configPath (if one exists), applies any
// ROULETTE_* environment overrides and returns the resulting Config.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" {
		configPath = "."
	}
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envVarPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: ROULETTE_DATABASE_HOST
	for _, k := range v.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := v.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			return nil, fmt.Errorf("error binding %s to %s: %w", k, envVarPrefix+"_"+envVar, err)
		}
	}

	config := &Config{configDir: configPath}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config object: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values that the servers cannot recover from at runtime.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Debugging.Enabled && (c.Debugging.HTTPPort <= 0 || c.Debugging.HTTPPort > 65535) {
		return fmt.Errorf("invalid debugging.http_port %d", c.Debugging.HTTPPort)
	}
	if c.Lobby.MaxNicknameLength <= 0 {
		return fmt.Errorf("lobby.max_nickname_length must be positive, got %d", c.Lobby.MaxNicknameLength)
	}
	if c.Lobby.MaxRooms < 0 {
		return fmt.Errorf("lobby.max_rooms must not be negative, got %d", c.Lobby.MaxRooms)
	}
	if c.Lobby.HandshakeTimeout < 0 {
		return fmt.Errorf("lobby.handshake_timeout must not be negative, got %s", c.Lobby.HandshakeTimeout)
	}
	switch strings.ToLower(c.Database.Engine) {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("unsupported database engine: %s", c.Database.Engine)
	}
	return nil
}

// Address returns the host:port on which the game server listens.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}

// DebugAddress returns the address of the debug HTTP server. It only binds
// to localhost since it exposes pprof.
func (c *Config) DebugAddress() string {
	return fmt.Sprintf("localhost:%d", c.Debugging.HTTPPort)
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a Postgres connection string generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// QualifiedPath resolves a path from the config file relative to the
// directory containing the config file.
func (c *Config) QualifiedPath(p string) string {
	if filepath.IsAbs(p) || c.configDir == "" {
		return p
	}
	return filepath.Join(c.configDir, p)
}
