package setup

import (
	"github.com/redis/go-redis/v9"

	"github.com/regfence-dev/regfence/internal/checks"
	"github.com/regfence-dev/regfence/internal/config"
	"github.com/regfence-dev/regfence/internal/email"
	"github.com/regfence-dev/regfence/internal/handler"
	"github.com/regfence-dev/regfence/internal/jwt"
	"github.com/regfence-dev/regfence/internal/lists"
	"github.com/regfence-dev/regfence/internal/middleware"
	"github.com/regfence-dev/regfence/internal/reputation"
	"github.com/regfence-dev/regfence/internal/service"
	"github.com/regfence-dev/regfence/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Storage        *pg.Storage
	Handler        *handler.Handler
	Jwt            jwt.JwtService
	AuthMiddleware *middleware.Auth
	Config         *config.Config
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	guardCfg := &cfg.Public.Guard

	// An empty redis address leaves the cache off; the clients cope with a
	// nil cache.
	var redisClient *redis.Client
	if cfg.Private.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Private.Redis.Addr,
			Password: cfg.Private.Redis.Password,
			DB:       cfg.Private.Redis.DB,
		})
	}
	cache := reputation.NewCache(redisClient, guardCfg.ReputationCacheTTL())

	listChecker := lists.New(guardCfg.Whitelist, guardCfg.Blacklist,
		guardCfg.WhitelistEnabled, guardCfg.BlacklistEnabled)
	pattern := checks.NewPatternScorer(guardCfg.SpamKeywords)
	disposable := checks.NewDisposableChecker()
	disposable.LoadCustomDomains(guardCfg.CustomDisposableDomains)
	timingToken := checks.NewTimingToken(cfg.Private.TimingTokenKey)

	emailRep := reputation.NewEmailRep(cfg.Private.EmailRepKey, cache, guardCfg.LogErrors)
	oracle := reputation.NewDisposableOracle(cache, guardCfg.LogErrors)
	registry := reputation.NewStopForumSpam(cfg.Private.SfsKey, cache, guardCfg.LogErrors)

	var notifier service.Notifier
	if cfg.Private.Smtp.Server != "" {
		notifier = email.New(&cfg.Private.Smtp)
	}

	guard := service.NewEngine(guardCfg, listChecker, pattern, disposable, timingToken,
		emailRep, oracle, registry, storage, notifier)

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	admin := service.NewAdmin(storage, listChecker, registry, jwtService, guardCfg,
		cfg.Private.AdminPasswordHash)

	h := handler.New(guard, admin, timingToken, cfg, storage)

	return &Dependencies{
		Storage:        storage,
		Handler:        h,
		Jwt:            jwtService,
		AuthMiddleware: middleware.NewAuth(jwtService, cfg.Public.SecureCookies),
		Config:         cfg,
	}, nil
}
