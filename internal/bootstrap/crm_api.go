package bootstrap

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"crm_server/adapter/in/http"
	"crm_server/config"
	"crm_server/infra/middleware"
	"crm_server/pkg/logger"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "crm-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	middleware.InitTokenBlacklist(deps.Redis)

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		Prefork:               false,
		StrictRouting:         false,
		CaseSensitive:         false,

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		// go-json is considerably faster than encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 10 * 1024 * 1024, // 10MB

		Concurrency: 256 * 1024,

		ServerHeader:       "",
		DisableDefaultDate: true,

		DisableKeepalive: false,

		StreamRequestBody:            true,
		DisablePreParseMultipartForm: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.ValidateContentType())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS. AllowCredentials:true requires explicit origins (not "*")
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400, // 24 hours
	}))

	// Health check (no auth required). Probes must never be cached.
	app.Use("/health", middleware.NoCache())
	app.Use("/ready", middleware.NoCache())
	healthHandler := http.NewHealthHandlerWithDeps(deps.MongoDB, deps.Redis)
	healthHandler.Register(app)

	// Webhook (no auth required - called by Meta)
	if deps.MessageProducer != nil {
		webhookHandler := http.NewWebhookHandler(
			deps.MessageProducer,
			deps.Redis,
			cfg.WhatsAppVerifyToken,
			logger.Default(),
		)
		webhookHandler.Register(app)
	} else {
		logger.Warn("Webhook handler disabled, no message producer available")
	}

	// API routes (with auth)
	api := app.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	api.Use(middleware.ETag())
	api.Use(middleware.PrivateCache(30 * time.Second))

	// The interface indirection keeps a nil *RedisCache from reaching the
	// handler as a non-nil interface value.
	var analyticsCache http.AnalyticsCache
	if deps.Cache != nil {
		analyticsCache = deps.Cache
	}

	clientHandler := http.NewClientHandler(
		deps.ClientRepo,
		deps.InteractionRepo,
		deps.InsightRepo,
		deps.MessageProducer,
		analyticsCache,
	)
	clientHandler.Register(api)

	insightHandler := http.NewInsightHandler(deps.InsightRepo)
	insightHandler.Register(api)

	logger.Info("API server initialized successfully")

	return app, cleanup, nil
}
