package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "arena.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the sqlite backend.
// An empty Path opens an in-memory database.
// DumpPath and DumpInterval enable periodic VACUUM INTO snapshots.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds connection settings for the postgres backend.
// FallbackPath is where the in-memory SQLite fallback is dumped when
// Postgres is unreachable.
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`

	FallbackPath string `json:"fallbackPath" mapstructure:"fallbackPath"`
}

// StorageConfig selects and configures the replay archive backend.
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// EngineConfig tunes the battle engine.
type EngineConfig struct {
	MaxTurns int `json:"maxTurns" mapstructure:"maxTurns"`
}

// PlaybackConfig holds scheduler defaults.
type PlaybackConfig struct {
	Speed     int           `json:"speed" mapstructure:"speed"`
	MinDelay  time.Duration `json:"minDelay" mapstructure:"minDelay"`
	SkipDelay time.Duration `json:"skipDelay" mapstructure:"skipDelay"`
}

// InfluxConfig holds settings for battle summary telemetry.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./arenalogs")

	viper.SetDefault("engine.maxTurns", 30)

	viper.SetDefault("playback.speed", 1)
	viper.SetDefault("playback.minDelay", "120ms")
	viper.SetDefault("playback.skipDelay", "30ms")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./replays")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./arena.db")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "0s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "arena")
	viper.SetDefault("db.sslMode", "disable")
	viper.SetDefault("db.fallbackPath", "./arena-fallback.db")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "scanbots")
	viper.SetDefault("influx.bucket", "arena")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "scanbots-arena")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// LoadOptional is Load, but a missing config file leaves the defaults in place.
func LoadOptional(configDir string) error {
	err := Load(configDir)
	if err != nil && errors.As(err, new(viper.ConfigFileNotFoundError)) {
		return nil
	}
	return err
}

// BindFlags binds command line flags into viper under their config keys.
// Flag names map to keys via the keys map; unmapped flags bind by name.
func BindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			key = f.Name
		}
		if err := viper.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("binding flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage settings. Postgres connection
// settings come from the db.* keys.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
			SSLMode:  viper.GetString("db.sslMode"),

			FallbackPath: viper.GetString("db.fallbackPath"),
		},
	}
}

// GetEngineConfig returns the engine settings.
func GetEngineConfig() EngineConfig {
	return EngineConfig{MaxTurns: viper.GetInt("engine.maxTurns")}
}

// GetPlaybackConfig returns the playback scheduler settings.
func GetPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		Speed:     viper.GetInt("playback.speed"),
		MinDelay:  viper.GetDuration("playback.minDelay"),
		SkipDelay: viper.GetDuration("playback.skipDelay"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
