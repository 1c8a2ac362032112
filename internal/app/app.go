// Package app arma los adapters según la configuración y los entrega al router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"rosie/internal/adapters/assets"
	"rosie/internal/adapters/audio/cue"
	"rosie/internal/adapters/auth/identitytoolkit"
	"rosie/internal/adapters/auth/local"
	"rosie/internal/adapters/capabilities/plansfeatures"
	"rosie/internal/adapters/notify/expo"
	"rosie/internal/adapters/notify/logsender"
	"rosie/internal/adapters/notify/scheduler"
	mem "rosie/internal/adapters/storage/memory"
	pg "rosie/internal/adapters/storage/postgres"
	"rosie/internal/adapters/storage/sqlite"
	"rosie/internal/config"
	"rosie/internal/domain/mood"
	"rosie/internal/domain/petsync"
	"rosie/internal/platform/i18n"
	"rosie/internal/platform/logger"
	assetsport "rosie/internal/ports/assets"
	"rosie/internal/ports/docstore"
	"rosie/internal/ports/notify"
	"rosie/internal/ports/settings"
	"rosie/internal/router"
)

// App mantiene el handler HTTP y lo que hay que cerrar al apagar.
type App struct {
	Handler http.Handler

	log     logger.Logger
	closers []func() error

	// background corre mientras el servidor está vivo (p.ej. LISTEN de Postgres).
	background []func(ctx context.Context) error
	wg         sync.WaitGroup
}

func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{log: log}

	store, settingsStore, err := a.storage(ctx, cfg.Storage)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var sender notify.Sender = logsender.New(log.With(map[string]any{"component": "notify"}))
	if cfg.Notify.Sender == "expo" {
		sender = expo.NewSender(expo.Config{
			PushURL:     cfg.Notify.ExpoPushURL,
			AccessToken: cfg.Notify.ExpoAccessToken,
		}, store)
	}
	sched := scheduler.New(sender, log.With(map[string]any{"component": "scheduler"}))
	a.closers = append(a.closers, func() error { sched.Close(); return nil })

	var res assetsport.Resolver = assets.NewStatic(cfg.Assets.BaseURL)
	s3cfg := assets.S3Config{
		Bucket:    cfg.Assets.S3Bucket,
		Region:    cfg.Assets.S3Region,
		Endpoint:  cfg.Assets.S3Endpoint,
		AccessKey: cfg.Assets.S3AccessKey,
		SecretKey: cfg.Assets.S3SecretKey,
	}
	if s3cfg.IsConfigured() {
		signer, err := assets.NewS3(ctx, s3cfg)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("s3 assets: %w", err)
		}
		res = signer
	}

	var plans *plansfeatures.Client
	if cfg.Plans.BaseURL != "" {
		plans, err = plansfeatures.NewClient(plansfeatures.Config{BaseURL: cfg.Plans.BaseURL, APIKey: cfg.Plans.APIKey})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("plans client: %w", err)
		}
	}

	opts := router.Options{
		Logger:       log,
		Store:        store,
		Settings:     settingsStore,
		Scheduler:    sched,
		Cues:         cue.NewHub(res),
		Assets:       res,
		Capabilities: plansfeatures.NewResolver(plans, cfg.Plans.AllowAll),
		DevMenu:      cfg.Pet.DevMenuEnabled,
	}

	switch cfg.Auth.Mode() {
	case config.AuthLocal:
		p, err := local.New(store, local.Config{Secret: []byte(cfg.Auth.JWTSecret), TokenTTL: cfg.Auth.AccessTokenTTL})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		opts.AuthVerifier, opts.AuthProvider = p, p
	case config.AuthIdentityToolkit:
		c, err := identitytoolkit.NewClient(identitytoolkit.Config{BaseURL: cfg.Auth.IdentityBaseURL, APIKey: cfg.Auth.IdentityAPIKey})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		opts.AuthVerifier, opts.AuthProvider = c, c
	default:
		log.Warn("auth disabled, using X-Debug-User-ID headers", nil)
	}

	policy, err := mood.ParsePolicy(cfg.Pet.RemedyPolicy)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	opts.Pet = petsync.Options{
		Policy:        policy,
		PetName:       cfg.Pet.Name,
		IdleThreshold: cfg.Pet.IdleThreshold,
		ReminderDelay: cfg.Pet.ReminderDelay,
		DecayInterval: cfg.Pet.DecayCheckInterval,
	}
	opts.Controller = petsync.NewController(petsync.Deps{
		Store:     store,
		Scheduler: sched,
		Player:    opts.Cues,
		Settings:  settingsStore,
		Messages:  i18n.MustNew(),
		Logger:    log.With(map[string]any{"component": "petsync"}),
	}, opts.Pet)
	// Los closers corren al revés: los efectos pendientes terminan antes de cerrar el scheduler.
	a.closers = append(a.closers, func() error { opts.Controller.Wait(); return nil })

	a.Handler = router.NewRouter(opts)
	log.Info("app ready", map[string]any{
		"auth":    string(cfg.Auth.Mode()),
		"policy":  string(policy),
		"sender":  cfg.Notify.Sender,
		"devmenu": cfg.Pet.DevMenuEnabled,
	})
	return a, nil
}

func (a *App) storage(ctx context.Context, cfg config.StorageConfig) (docstore.Store, settings.Store, error) {
	if cfg.DSN != "" {
		db, err := pg.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx, db); err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}

		docs := pg.NewDocStore(db, cfg.DSN, a.log.With(map[string]any{"component": "docstore"}))
		a.closers = append(a.closers, func() error { docs.Close(); return nil })
		a.background = append(a.background, docs.Listen)
		return docs, pg.NewSettingsStore(db), nil
	}

	docs := mem.NewDocStore()
	a.closers = append(a.closers, func() error { docs.Close(); return nil })

	if cfg.SQLitePath != "" {
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		return docs, st, nil
	}
	return docs, mem.NewSettingsStore(), nil
}

// Start lanza las tareas de fondo; terminan cuando ctx se cancela.
func (a *App) Start(ctx context.Context) {
	for _, run := range a.background {
		a.wg.Add(1)
		go func(run func(context.Context) error) {
			defer a.wg.Done()
			if err := run(ctx); err != nil {
				a.log.Error("background task failed", map[string]any{"err": err.Error()})
			}
		}(run)
	}
}

// Close cierra en orden inverso al de apertura. Llamar después de cancelar el ctx de Start.
func (a *App) Close() error {
	a.wg.Wait()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
