package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"actubot/bot"
	"actubot/bot/dialog"
	"actubot/bot/profile"
	"actubot/bot/session"
	"actubot/channels/telegram"
	corebootstrap "actubot/core/bootstrap"
	corecmd "actubot/core/cmd"
	coreconfig "actubot/core/config"
	coredatabase "actubot/core/database"
	"actubot/core/logger"
	"actubot/core/netutil"
	"actubot/providers"
	"actubot/server"
)

// appConfig joins the core configuration with the database section.
type appConfig struct {
	coreconfig.Config
	Database coredatabase.Config
}

func (c *appConfig) CoreConfig() *coreconfig.Config { return &c.Config }

func loadConfig(path string) (corecmd.ConfigCarrier, error) {
	core, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}

	var wrap struct {
		Database coredatabase.Config `yaml:"database"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &wrap); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &wrap.Database); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	return &appConfig{Config: *core, Database: wrap.Database}, nil
}

// app holds the wired runtime: webhook server, optional Telegram channel,
// and the resources to close on shutdown.
type app struct {
	server  *server.Server
	channel *telegram.Channel
	audio   *providers.Audio
	db      *sqlx.DB
}

func buildApp(carrier corecmd.ConfigCarrier) (corecmd.App, error) {
	cfg, ok := carrier.(*appConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}

	db, err := corebootstrap.Run(cfg.CoreConfig(), cfg.Database)
	if err != nil {
		return nil, err
	}

	ctx := logger.Background()
	var store session.Store
	if cfg.Redis.URL != "" {
		store, err = session.NewRedisStore(ctx, cfg.Redis.URL, cfg.SessionTTL())
		if err != nil {
			db.Close()
			return nil, err
		}
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL())
	}
	sessions := session.NewManager(store)
	repo := profile.NewRepository(db)
	engine := dialog.NewOnboarding(sessions, repo)

	client := netutil.BuildClient(cfg.ProviderTimeout())
	news := providers.NewNews(cfg.Providers.NewsURL, client)
	translate := providers.NewTranslator(cfg.Providers.TranslateURL, client)
	weather := providers.NewWeather(cfg.Providers.WeatherURL, client)
	audio, err := providers.NewAudio(ctx,
		cfg.Providers.TTSLanguage, cfg.Providers.TTSVoice,
		cfg.Server.MediaDir, cfg.Server.MediaBaseURL)
	if err != nil {
		db.Close()
		return nil, err
	}

	dispatcher := bot.NewDispatcher(sessions, repo, engine, news, translate, weather, audio)
	processor := bot.NewProcessor(dispatcher, sessions)

	a := &app{db: db, audio: audio}
	a.server = server.New(cfg.CoreConfig(), processor)
	if cfg.Telegram.Enabled {
		channel, err := telegram.New(cfg.CoreConfig(), processor)
		if err != nil {
			audio.Close()
			db.Close()
			return nil, err
		}
		a.channel = channel
	}
	return a, nil
}

// Run serves until the context is done or a transport fails, then drains and
// releases resources.
func (a *app) Run(ctx context.Context) error {
	errc := make(chan error, 2)
	go func() { errc <- a.server.Run() }()
	if a.channel != nil {
		go func() { errc <- a.channel.Run(ctx) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	_ = a.audio.Close()
	_ = a.db.Close()
	return runErr
}
