package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds configuration for every client plus the gateway.
type Config struct {
	Amplifier  AmplifierConfig  `yaml:"amplifier"`
	Sonos      SonosConfig      `yaml:"sonos"`
	AppleMusic AppleMusicConfig `yaml:"apple_music"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Log        LogConfig        `yaml:"log"`
}

type AmplifierConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	SonosSourceIndex   int    `yaml:"sonos_source_index"`
	AppleTVSourceIndex int    `yaml:"appletv_source_index"`
	// Mock swaps in the in-memory controller.
	Mock bool `yaml:"mock"`
}

type SonosConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	DefaultRoom string `yaml:"default_room"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}

// Timeout returns the bridge request timeout.
func (c SonosConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type AppleMusicConfig struct {
	TeamID         string `yaml:"team_id"`
	KeyID          string `yaml:"key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	TokenExpirySec int    `yaml:"token_expiry_seconds"` // max 15777000
	APIURL         string `yaml:"api_url"`
	Storefront     string `yaml:"storefront"`
	UserToken      string `yaml:"user_token"`
	// DeveloperToken skips signing when set.
	DeveloperToken string `yaml:"developer_token"`
}

// HasSigningKey reports whether enough is configured to sign developer tokens.
func (c AppleMusicConfig) HasSigningKey() bool {
	return c.TeamID != "" && c.KeyID != "" && c.PrivateKeyPath != ""
}

// TokenLifetime returns the developer token lifetime.
func (c AppleMusicConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenExpirySec) * time.Second
}

type GatewayConfig struct {
	Host                    string `yaml:"host"`
	Port                    string `yaml:"port"`
	JWTSecret               string `yaml:"jwt_secret"`
	JWTAccessTokenExpirySec int    `yaml:"jwt_access_token_expiry"`
	SQLiteDBPath            string `yaml:"sqlite_db_path"`
	RoutinesFile            string `yaml:"routines_file"`
	NowPlayingIntervalMs    int    `yaml:"now_playing_interval_ms"`
}

// Addr returns host:port for the listener.
func (c GatewayConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// NowPlayingInterval returns the state polling interval.
func (c GatewayConfig) NowPlayingInterval() time.Duration {
	return time.Duration(c.NowPlayingIntervalMs) * time.Millisecond
}

// Validate checks what the gateway needs before it can serve.
func (c GatewayConfig) Validate() error {
	if len(strings.TrimSpace(c.JWTSecret)) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// LoadOptions locates optional .env and YAML files. Empty fields fall back to
// ".env" and $MUSIC_AGENT_CONFIG.
type LoadOptions struct {
	EnvFile    string
	ConfigFile string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Amplifier: AmplifierConfig{
			Port:               10443,
			SonosSourceIndex:   4,
			AppleTVSourceIndex: 1,
		},
		Sonos: SonosConfig{
			Host:      "localhost",
			Port:      5005,
			TimeoutMs: 10000,
		},
		AppleMusic: AppleMusicConfig{
			TokenExpirySec: 86400,
			APIURL:         "https://api.music.apple.com/v1",
			Storefront:     "us",
		},
		Gateway: GatewayConfig{
			Host:                    "0.0.0.0",
			Port:                    "9000",
			JWTAccessTokenExpirySec: 3600,
			SQLiteDBPath:            "./data/music-agent.db",
			RoutinesFile:            "./routines.yaml",
			NowPlayingIntervalMs:    2000,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load layers configuration: defaults, then the YAML file, then environment
// variables (including any loaded from the .env file).
func Load(opts LoadOptions) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv("MUSIC_AGENT_CONFIG")
	}
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", configFile, err)
		}
	}

	applyEnv(&cfg)

	if cfg.AppleMusic.TokenExpirySec > 15777000 {
		return Config{}, fmt.Errorf("APPLE_TOKEN_EXPIRY_SECONDS must be at most 15777000")
	}
	return cfg, nil
}

// loadEnvFile loads a .env file without overriding variables already set. A
// missing default file is fine; a missing explicit file is not.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func applyEnv(cfg *Config) {
	cfg.Amplifier.Host = envString("AMP_HOST", cfg.Amplifier.Host)
	cfg.Amplifier.Port = envInt("AMP_PORT", cfg.Amplifier.Port)
	cfg.Amplifier.SonosSourceIndex = envInt("AMP_SONOS_SOURCE_INDEX", cfg.Amplifier.SonosSourceIndex)
	cfg.Amplifier.AppleTVSourceIndex = envInt("AMP_APPLETV_SOURCE_INDEX", cfg.Amplifier.AppleTVSourceIndex)
	cfg.Amplifier.Mock = envBool("AMP_MOCK", cfg.Amplifier.Mock)

	cfg.Sonos.Host = envString("SONOS_HOST", cfg.Sonos.Host)
	cfg.Sonos.Port = envInt("SONOS_PORT", cfg.Sonos.Port)
	cfg.Sonos.DefaultRoom = envString("SONOS_DEFAULT_ROOM", cfg.Sonos.DefaultRoom)
	cfg.Sonos.TimeoutMs = envInt("SONOS_TIMEOUT_MS", cfg.Sonos.TimeoutMs)

	// Apple Music settings are optional; the client is disabled without a token.
	cfg.AppleMusic.TeamID = envString("APPLE_TEAM_ID", cfg.AppleMusic.TeamID)
	cfg.AppleMusic.KeyID = envString("APPLE_KEY_ID", cfg.AppleMusic.KeyID)
	cfg.AppleMusic.PrivateKeyPath = envString("APPLE_PRIVATE_KEY_PATH", cfg.AppleMusic.PrivateKeyPath)
	cfg.AppleMusic.TokenExpirySec = envInt("APPLE_TOKEN_EXPIRY_SECONDS", cfg.AppleMusic.TokenExpirySec)
	cfg.AppleMusic.APIURL = envString("APPLE_MUSIC_API_URL", cfg.AppleMusic.APIURL)
	cfg.AppleMusic.Storefront = envString("APPLE_STOREFRONT", cfg.AppleMusic.Storefront)
	cfg.AppleMusic.UserToken = envString("APPLE_MUSIC_USER_TOKEN", cfg.AppleMusic.UserToken)
	cfg.AppleMusic.DeveloperToken = envString("APPLE_DEVELOPER_TOKEN", cfg.AppleMusic.DeveloperToken)

	cfg.Gateway.Host = envString("HOST", cfg.Gateway.Host)
	cfg.Gateway.Port = envString("PORT", cfg.Gateway.Port)
	cfg.Gateway.JWTSecret = envString("JWT_SECRET", cfg.Gateway.JWTSecret)
	cfg.Gateway.JWTAccessTokenExpirySec = envInt("JWT_ACCESS_TOKEN_EXPIRY", cfg.Gateway.JWTAccessTokenExpirySec)
	cfg.Gateway.SQLiteDBPath = envString("SQLITE_DB_PATH", cfg.Gateway.SQLiteDBPath)
	cfg.Gateway.RoutinesFile = envString("ROUTINES_FILE", cfg.Gateway.RoutinesFile)
	cfg.Gateway.NowPlayingIntervalMs = envInt("NOW_PLAYING_INTERVAL_MS", cfg.Gateway.NowPlayingIntervalMs)

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envString("LOG_FILE", cfg.Log.File)
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true") || val == "1"
}
