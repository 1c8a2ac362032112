package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"rosie/internal/adapters/assets"
	"rosie/internal/adapters/audio/cue"
	"rosie/internal/adapters/capabilities/plansfeatures"
	"rosie/internal/adapters/notify/logsender"
	"rosie/internal/adapters/notify/scheduler"
	mem "rosie/internal/adapters/storage/memory"
	_ "rosie/internal/docs"
	"rosie/internal/domain/accounts"
	"rosie/internal/domain/characters"
	"rosie/internal/domain/petsync"
	"rosie/internal/domain/preferences"
	"rosie/internal/middleware"
	"rosie/internal/platform/i18n"
	"rosie/internal/platform/logger"
	assetsport "rosie/internal/ports/assets"
	"rosie/internal/ports/auth"
	"rosie/internal/ports/capabilities"
	"rosie/internal/ports/docstore"
	"rosie/internal/ports/notify"
	"rosie/internal/ports/settings"
)

type Options struct {
	Logger logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	AuthProvider auth.Provider     // nil => sin /auth/*

	// Lo que venga en nil se arma in-memory.
	Store        docstore.Store
	Settings     settings.Store
	Scheduler    notify.Scheduler
	Cues         *cue.Hub
	Assets       assetsport.Resolver
	Capabilities capabilities.Resolver

	// Controller: si viene, quien lo arma drena sus efectos al apagar; si no, se crea con Pet.
	Controller *petsync.Controller
	Pet        petsync.Options
	DevMenu    bool
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	store := opts.Store
	if store == nil {
		store = mem.NewDocStore()
	}
	settingsStore := opts.Settings
	if settingsStore == nil {
		settingsStore = mem.NewSettingsStore()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.New(logsender.New(log), log)
	}
	res := opts.Assets
	if res == nil {
		res = assets.NewStatic("")
	}
	hub := opts.Cues
	if hub == nil {
		hub = cue.NewHub(res)
	}
	caps := opts.Capabilities
	if caps == nil {
		caps = plansfeatures.NewResolver(nil, true)
	}

	ctrl := opts.Controller
	if ctrl == nil {
		ctrl = petsync.NewController(petsync.Deps{
			Store:     store,
			Scheduler: sched,
			Player:    hub,
			Settings:  settingsStore,
			Messages:  i18n.MustNew(),
			Logger:    log.With(map[string]any{"component": "petsync"}),
		}, opts.Pet)
	}

	// Rutas por módulo
	if opts.AuthProvider != nil {
		accounts.RegisterRoutes(r, accounts.NewService(opts.AuthProvider, log))
	}
	petsync.RegisterRoutes(r, ctrl, petsync.HandlerOptions{
		DevMenu: opts.DevMenu,
		Cues:    hub,
		Logger:  log,
	})
	preferences.RegisterRoutes(r, preferences.NewService(settingsStore, store, sched, log))
	characters.RegisterRoutes(r, characters.NewService(caps, res, store, log))

	return r
}
