package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/pianoxl/handler"
	"github.com/dmitrymomot/pianoxl/migrations"
	"github.com/dmitrymomot/pianoxl/modules/account"
	"github.com/dmitrymomot/pianoxl/modules/app"
	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/broadcast"
	"github.com/dmitrymomot/pianoxl/pkg/clientip"
	"github.com/dmitrymomot/pianoxl/pkg/config"
	"github.com/dmitrymomot/pianoxl/pkg/cookie"
	"github.com/dmitrymomot/pianoxl/pkg/environment"
	"github.com/dmitrymomot/pianoxl/pkg/httpserver"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/metrics"
	"github.com/dmitrymomot/pianoxl/pkg/pg"
	"github.com/dmitrymomot/pianoxl/pkg/ratelimiter"
	"github.com/dmitrymomot/pianoxl/pkg/redis"
	"github.com/dmitrymomot/pianoxl/pkg/requestid"
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/checkout"
	"github.com/dmitrymomot/pianoxl/svc/entitlement"
	"github.com/dmitrymomot/pianoxl/svc/identity"
	"github.com/dmitrymomot/pianoxl/svc/tester"
	"github.com/dmitrymomot/pianoxl/views"
)

type appConfig struct {
	Env             string `env:"APP_ENV" envDefault:"development"`
	Service         string `env:"APP_NAME" envDefault:"pianoxl"`
	BroadcastBuffer int    `env:"APP_BROADCAST_BUFFER" envDefault:"16"`

	App       app.Config
	HTTP      httpserver.Config
	PG        pg.Config
	Redis     redis.Config
	Cookie    cookie.Config
	Session   session.Config
	Identity  identity.Config
	Checkout  checkout.Config
	RateLimit ratelimiter.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		logger.New().Error("missing or invalid configuration", logger.Error(err))
		os.Exit(1)
	}

	log := logger.New(
		logger.WithEnvironment(environment.Parse(cfg.Env), cfg.Service),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, migrations.FS, log); err != nil {
		return err
	}

	checks := map[string]func(context.Context) error{
		"postgres": pg.Healthcheck(pool),
	}

	var (
		sessionStore   session.Store
		limiterStore   ratelimiter.Store
		broadcaster    broadcast.Broadcaster[gate.Event]
		redisClient    *goredis.Client
		memorySessions *session.MemoryStore
		memoryLimits   *ratelimiter.MemoryStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		checks["redis"] = redis.Healthcheck(redisClient)
		sessionStore = session.NewRedisStore(redisClient)
		limiterStore = ratelimiter.NewRedisStore(redisClient, "ratelimit")
		broadcaster = broadcast.NewRedisBroadcaster[gate.Event](redisClient, cfg.Service+":", cfg.BroadcastBuffer)
	} else {
		log.WarnContext(ctx, "REDIS_URL not set, running on in-memory stores", logger.Component("main"))

		memorySessions = session.NewMemoryStore(cfg.Session.CleanupInterval)
		defer memorySessions.Close()
		memoryLimits = ratelimiter.NewMemoryStore()
		defer memoryLimits.Close()

		sessionStore = memorySessions
		limiterStore = memoryLimits
		broadcaster = broadcast.NewMemoryBroadcaster[gate.Event](cfg.BroadcastBuffer)
	}
	defer broadcaster.Close()

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return err
	}
	sessions := session.New(
		session.WithConfig(cfg.Session),
		session.WithCookieManager(cookies),
		session.WithStore(sessionStore),
	)

	m := metrics.New(cfg.Service)
	hub := gate.NewHub(broadcaster, gate.WithHubLogger(log))

	catalog := checkout.DefaultCatalog()
	if cfg.Checkout.URL == "" {
		cfg.Checkout.URL = strings.TrimRight(cfg.Identity.URL, "/") + "/functions/v1/stripe-checkout"
	}
	checkoutProvider, err := checkout.NewProvider(cfg.Checkout)
	if err != nil {
		return err
	}

	provider := account.NewProvider(
		identity.New(cfg.Identity),
		sessions,
		tester.NewRedeemer(tester.NewPGRepository(pool), tester.WithLogger(log)),
		account.WithNotifier(hub),
		account.WithOutcomeObserver(func(o tester.Outcome) { m.RedemptionOutcome(string(o)) }),
		account.WithLogger(log),
	)

	limiter, err := ratelimiter.NewBucket(limiterStore, cfg.RateLimit)
	if err != nil {
		return err
	}
	errorHandler := handler.NewErrorHandler(log, app.ErrorViews())

	accountRoutes := account.NewRoutes(provider,
		account.Views{SignInForm: views.SignInForm, SignUpForm: views.SignUpForm},
		account.WithFlash(cookies),
		account.WithRateLimit(account.AuthRateLimit(limiter)),
		account.WithErrorHandler(errorHandler),
		account.WithRoutesLogger(log),
	)

	gateApp := app.New(cfg.App,
		provider,
		entitlement.NewResolver(entitlement.NewPGStore(pool),
			entitlement.WithPlanNamer(catalog),
			entitlement.WithLogger(log),
		),
		checkout.NewInitiator(checkoutProvider, checkout.WithCatalog(catalog), checkout.WithLogger(log)),
		hub,
		app.WithFlash(cookies),
		app.WithObserver(m),
		app.WithErrorHandler(errorHandler),
		app.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware, m.Middleware, middleware.Recoverer)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, checks))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	accountRoutes.Register(r)
	gateApp.Register(r)

	log.InfoContext(ctx, "starting server", logger.Component("main"), slog.String("addr", cfg.HTTP.Addr))
	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, r)
}
