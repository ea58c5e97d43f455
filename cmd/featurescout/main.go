// Package main provides the featurescout CLI application entry point.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"featurescout/internal/console"
	"featurescout/internal/core"
	httpserver "featurescout/internal/http"
	"featurescout/internal/i18n"
	"featurescout/internal/navigation"
	"featurescout/internal/spotify"
	"featurescout/internal/store"
)

const (
	envPrefix = "FEATURESCOUT"

	backendSQLite = "sqlite"
	backendRedis  = "redis"

	contentCacheExpectedItems = 10000
	contentCacheFalsePositive = 0.001
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "featurescout",
	Short: "featurescout - Spotify links to audio features and recommendations",
	Long: `featurescout resolves Spotify track, album and playlist links, shows their audio features
and builds recommendations from a curated seed collection and audio feature ranges.`,
	RunE: runFeatureScout,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .env)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "log format (json, console)")
	flags.String("spotify-client-id", "", "Spotify client ID")
	flags.String("spotify-redirect-url", defaults.Spotify.RedirectURL, "Redirect URL registered for the Spotify app")
	flags.String("spotify-catalog-host", defaults.Spotify.CatalogHost, "Host accepted in content links")
	flags.String("spotify-api-base-url", "", "Spotify Web API base URL (default: "+spotify.DefaultAPIBaseURL+")")
	flags.String("spotify-access-token", "", "Access token to use instead of authorizing in the browser")
	flags.Int("spotify-max-retries", defaults.Spotify.MaxRetries, "Attempts per Spotify API request on 429 and 5xx")
	flags.String("store-backend", defaults.Store.Backend, "Key-value store backend (sqlite, redis)")
	flags.String("store-sqlite-path", defaults.Store.SQLitePath, "SQLite database path")
	flags.String("store-redis-url", "", "Redis URL, e.g. redis://localhost:6379/0")
	flags.Int("store-read-cache-size", defaults.Store.ReadCacheSize, "SQLite read cache entries")
	flags.Bool("server-enabled", defaults.Server.Enabled, "Serve health, readiness, metrics and state over HTTP")
	flags.String("server-host", defaults.Server.Host, "HTTP server host")
	flags.Int("server-port", defaults.Server.Port, "HTTP server port")
	flags.String("app-id", defaults.App.AppID, "Prefix for persisted keys")
	flags.String("language", defaults.App.Language, fmt.Sprintf("Message language (%s)", supportedLangs))
	flags.Int("tracks-limit", defaults.App.TracksLimit, "Tracks fetched per album or playlist (1-50)")
	flags.String("search", "", "Link to resolve on startup")
	flags.Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureSpotify(cfg)
	configureStore(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.RedirectURL = viper.GetString("spotify-redirect-url")
	cfg.Spotify.CatalogHost = viper.GetString("spotify-catalog-host")
	if cfg.Spotify.CatalogHost == "" {
		cfg.Spotify.CatalogHost = core.DefaultCatalogHost
	}
	cfg.Spotify.APIBaseURL = viper.GetString("spotify-api-base-url")
	cfg.Spotify.AccessToken = viper.GetString("spotify-access-token")
	cfg.Spotify.MaxRetries = viper.GetInt("spotify-max-retries")
}

func configureStore(cfg *core.Config) {
	cfg.Store.Backend = strings.ToLower(viper.GetString("store-backend"))
	cfg.Store.SQLitePath = viper.GetString("store-sqlite-path")
	cfg.Store.RedisURL = viper.GetString("store-redis-url")
	cfg.Store.ReadCacheSize = viper.GetInt("store-read-cache-size")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Enabled = viper.GetBool("server-enabled")
	cfg.Server.Host = viper.GetString("server-host")
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = viper.GetString("log-format")
}

func configureApp(cfg *core.Config) {
	cfg.App.AppID = viper.GetString("app-id")
	if cfg.App.AppID == "" {
		cfg.App.AppID = core.DefaultAppID
	}
	cfg.App.TracksLimit = viper.GetInt("tracks-limit")
	cfg.App.Search = viper.GetString("search")

	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}
	if !i18n.IsSupported(cfg.App.Language) {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'. Supported languages: %s\n",
			cfg.App.Language, i18n.DefaultLanguage, strings.Join(i18n.GetSupportedLanguages(), ", "))
		cfg.App.Language = i18n.DefaultLanguage
	}
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	// stdout belongs to the console
	cfg.OutputPaths = []string{"stderr"}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runFeatureScout(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting featurescout",
		zap.String("store_backend", config.Store.Backend),
		zap.String("language", config.App.Language),
		zap.Bool("server_enabled", config.Server.Enabled))

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svcs.kv.Close(); closeErr != nil {
			logger.Debug("Failed to close store", zap.Error(closeErr))
		}
	}()

	return runServices(ctx, svcs)
}

// kvStore is a persistent store backend.
type kvStore interface {
	core.KeyValueStore
	Ping(ctx context.Context) error
	Close() error
}

type services struct {
	kv         kvStore
	app        *core.App
	console    *console.Console
	httpServer *httpserver.Server
}

func initializeServices(ctx context.Context) (*services, error) {
	kv, err := openStore(ctx, &config.Store)
	if err != nil {
		return nil, err
	}

	start, err := startLocation(&config.Spotify, config.App.Search)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	localizer := i18n.NewLocalizer(config.App.Language)
	metrics := httpserver.NewMetrics()
	cache := store.NewContentCache(contentCacheExpectedItems, contentCacheFalsePositive)

	client := spotify.NewClient(&config.Spotify, metrics, logger.Named("spotify"))
	authorizer := spotify.NewAuthorizer(&config.Spotify)
	history := navigation.NewHistory(start, os.Stdout, localizer, logger.Named("navigation"))

	errs := core.NewErrorHandler(localizer, nil, metrics, logger.Named("errors"))
	session := core.NewSession(config.App.AppID, kv, history, client, authorizer, logger.Named("session"))
	errs.SetReauthorizer(session)

	tracks := core.NewTrackResolver(client, cache, errs, logger.Named("tracks"))
	collections := core.NewCollectionResolver(client, cache, tracks, errs, config.App.TracksLimit,
		logger.Named("collections"))
	orchestrator := core.NewOrchestrator(config.Spotify.CatalogHost, tracks, collections, errs, cache,
		localizer, metrics, logger.Named("search"))

	seeds, err := core.LoadSeedCollection(ctx, kv, config.App.AppID, core.DefaultAudioFeatures,
		localizer, logger.Named("collection"))
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to load seed collection: %w", err)
	}

	app := core.NewApp(core.AppDeps{
		Navigator:    history,
		Session:      session,
		Orchestrator: orchestrator,
		Collection:   seeds,
		API:          client,
		Cache:        cache,
		Errors:       errs,
		Localizer:    localizer,
		Metrics:      metrics,
	}, logger.Named("app"))

	svcs := &services{
		kv:      kv,
		app:     app,
		console: console.New(os.Stdin, os.Stdout, app, localizer, logger.Named("console")),
	}
	if config.Server.Enabled {
		svcs.httpServer = httpserver.NewServer(&config.Server, metrics, app, logger.Named("http"))
	}
	return svcs, nil
}

func openStore(ctx context.Context, cfg *core.StoreConfig) (kvStore, error) {
	var (
		kv  kvStore
		err error
	)
	switch cfg.Backend {
	case backendRedis:
		kv, err = store.NewRedisKV(cfg.RedisURL, logger.Named("redis"))
	default:
		kv, err = store.NewSQLiteKV(store.SQLiteConfig{
			Path:          cfg.SQLitePath,
			ReadCacheSize: cfg.ReadCacheSize,
		}, logger.Named("sqlite"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}

	if err := kv.Ping(ctx); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to reach %s store: %w", cfg.Backend, err)
	}
	return kv, nil
}

// startLocation is the address the session boots from: the redirect URL, carrying a
// startup search and a preset access token the way an authorization redirect would.
func startLocation(cfg *core.SpotifyConfig, search string) (*url.URL, error) {
	start, err := url.Parse(cfg.RedirectURL)
	if err != nil || start.Host == "" {
		return nil, fmt.Errorf("invalid redirect URL %q", cfg.RedirectURL)
	}

	if search != "" {
		start = core.SearchLocation(start, search)
	}
	if cfg.AccessToken != "" {
		start.Fragment = url.Values{
			"access_token": {cfg.AccessToken},
			"token_type":   {"Bearer"},
		}.Encode()
	}
	return start, nil
}

func runServices(ctx context.Context, svcs *services) error {
	// The console owns the process lifetime: when input ends, everything stops.
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	if svcs.httpServer != nil {
		g.Go(func() error {
			return svcs.httpServer.Start(gCtx)
		})
	}

	g.Go(func() error {
		defer stop()
		if err := svcs.app.Boot(gCtx); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		return svcs.console.Run(gCtx)
	})

	logger.Info("featurescout started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("featurescout stopped with error", zap.Error(err))
		return err
	}

	logger.Info("featurescout stopped gracefully")
	return nil
}

func validateConfig(cfg *core.Config) error {
	if err := validateSpotifyConfig(cfg); err != nil {
		return err
	}
	if err := validateStoreConfig(cfg); err != nil {
		return err
	}
	if cfg.App.TracksLimit < 1 || cfg.App.TracksLimit > core.DefaultTracksLimit {
		return fmt.Errorf("tracks limit must be between 1 and %d, got %d", core.DefaultTracksLimit, cfg.App.TracksLimit)
	}
	return nil
}

func validateSpotifyConfig(cfg *core.Config) error {
	if cfg.Spotify.ClientID == "" && cfg.Spotify.AccessToken == "" {
		return fmt.Errorf("spotify client ID is required")
	}
	if cfg.Spotify.RedirectURL == "" {
		return fmt.Errorf("spotify redirect URL is required")
	}
	if cfg.Spotify.MaxRetries < 1 {
		return fmt.Errorf("spotify max retries must be at least 1, got %d", cfg.Spotify.MaxRetries)
	}
	return nil
}

func validateStoreConfig(cfg *core.Config) error {
	switch cfg.Store.Backend {
	case backendSQLite:
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite store")
		}
	case backendRedis:
		if cfg.Store.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store backend %q (sqlite, redis)", cfg.Store.Backend)
	}
	return nil
}

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("Successfully generated .env.example file")
	return nil
}

// envSection is one block of the generated .env.example.
type envSection struct {
	title string
	flags []string
}

var envSections = []envSection{
	{"SPOTIFY - Required", []string{
		"spotify-client-id", "spotify-redirect-url", "spotify-access-token",
		"spotify-catalog-host", "spotify-api-base-url", "spotify-max-retries",
	}},
	{"STORE", []string{"store-backend", "store-sqlite-path", "store-redis-url", "store-read-cache-size"}},
	{"APPLICATION", []string{"app-id", "language", "tracks-limit", "search"}},
	{"HTTP SERVER", []string{"server-enabled", "server-host", "server-port"}},
	{"LOGGING", []string{"log-level", "log-format"}},
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# featurescout Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	fmt.Fprintf(&content, "# Format: %s_<SETTING>=value\n", envPrefix)
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n\n")

	for _, section := range envSections {
		content.WriteString("# -----------------------------------------------------------------------------\n")
		fmt.Fprintf(&content, "# %s\n", section.title)
		content.WriteString("# -----------------------------------------------------------------------------\n")
		for _, name := range section.flags {
			f := cmd.PersistentFlags().Lookup(name)
			if f == nil {
				continue
			}
			fmt.Fprintf(&content, "# %s\n", f.Usage)
			fmt.Fprintf(&content, "%s=%s\n", flagToEnvVar(name), f.DefValue)
		}
		content.WriteString("\n")
	}

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
