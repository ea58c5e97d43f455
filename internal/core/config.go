package core

import (
	"time"

	"featurescout/internal/i18n"
)

const (
	// DefaultCatalogHost is the host every accepted content link must carry
	DefaultCatalogHost = "open.spotify.com"
	// DefaultTracksLimit is the per-request item ceiling of the catalog API
	DefaultTracksLimit = 50
	// DefaultAppID prefixes every persisted key
	DefaultAppID = "featurescout"
)

type Config struct {
	Spotify SpotifyConfig
	Store   StoreConfig
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
}

type SpotifyConfig struct {
	ClientID    string
	RedirectURL string
	CatalogHost string
	APIBaseURL  string
	// AccessToken, when set, is treated like a token returned in the redirect fragment.
	AccessToken string
	MaxRetries  int
}

type StoreConfig struct {
	Backend       string
	SQLitePath    string
	RedisURL      string
	ReadCacheSize int
}

type ServerConfig struct {
	Enabled      bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	AppID       string
	Language    string
	TracksLimit int
	Search      string
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURL: "http://127.0.0.1:8080/",
			CatalogHost: DefaultCatalogHost,
			MaxRetries:  3,
		},
		Store: StoreConfig{
			Backend:       "sqlite",
			SQLitePath:    "./featurescout.db",
			ReadCacheSize: 256,
		},
		Server: ServerConfig{
			Enabled:      true,
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			AppID:       DefaultAppID,
			Language:    i18n.DefaultLanguage,
			TracksLimit: DefaultTracksLimit,
		},
	}
}
