package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"crm_server/adapter/out/messaging"
	"crm_server/adapter/out/mongodb"
	"crm_server/adapter/out/whatsapp"
	"crm_server/config"
	"crm_server/core/port/out"
	"crm_server/core/service/classification"
	"crm_server/core/service/scoring"
	"crm_server/infra/database"
	"crm_server/pkg/cache"
	"crm_server/pkg/logger"
)

type Dependencies struct {
	Config  *config.Config
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	ClientRepo      out.ClientRepository
	InteractionRepo out.InteractionRepository
	InsightRepo     out.InsightRepository

	// Messaging
	MessageProducer out.MessageProducer

	// WhatsApp
	WhatsAppSender out.MessageSender

	// Cache
	Cache *cache.RedisCache

	// Services
	Classifier      *classification.Classifier
	ScoringEngine   *scoring.Engine
	AnalysisService *scoring.AnalysisService
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// MongoDB
	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
	if err != nil {
		return nil, nil, err
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	})

	db := mongoClient.Database(cfg.MongoDBName)

	clientAdapter := mongodb.NewClientAdapter(db)
	interactionAdapter := mongodb.NewInteractionAdapter(db)
	insightAdapter := mongodb.NewInsightAdapter(db)

	// Index creation is best effort, a replica without permissions must
	// still be able to serve.
	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer idxCancel()
	if err := clientAdapter.EnsureIndexes(idxCtx); err != nil {
		logger.Warn("failed to ensure client indexes: %v", err)
	}
	if err := interactionAdapter.EnsureIndexes(idxCtx); err != nil {
		logger.Warn("failed to ensure interaction indexes: %v", err)
	}
	if err := insightAdapter.EnsureIndexes(idxCtx); err != nil {
		logger.Warn("failed to ensure insight indexes: %v", err)
	}

	deps.ClientRepo = clientAdapter
	deps.InteractionRepo = interactionAdapter
	deps.InsightRepo = insightAdapter

	// Redis
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { _ = redisClient.Close() })
			deps.Cache = cache.NewRedisCache(redisClient)
		}
	}

	// Message Producer (Redis Streams)
	if deps.Redis != nil {
		deps.MessageProducer = messaging.NewRedisProducer(deps.Redis)
	} else {
		logger.Warn("Redis not available, message producer disabled")
	}

	// WhatsApp Cloud API
	if cfg.WhatsAppAccessToken != "" && cfg.WhatsAppPhoneNumberID != "" {
		deps.WhatsAppSender = whatsapp.NewAdapter(whatsapp.Config{
			AccessToken:   cfg.WhatsAppAccessToken,
			PhoneNumberID: cfg.WhatsAppPhoneNumberID,
			APIVersion:    cfg.WhatsAppAPIVersion,
			BaseURL:       cfg.WhatsAppBaseURL,
		}, logger.Default())
	} else {
		logger.Warn("WhatsApp credentials not configured, outbound messaging disabled")
	}

	// Services
	deps.Classifier = classification.NewClassifier(logger.Default())
	deps.ScoringEngine = scoring.NewEngine()
	deps.AnalysisService = scoring.NewAnalysisService(
		deps.ClientRepo,
		deps.InteractionRepo,
		deps.InsightRepo,
		deps.ScoringEngine,
		logger.Default(),
	)

	return deps, cleanup, nil
}

// HealthCheck pings the backing stores.
func (d *Dependencies) HealthCheck(ctx context.Context) map[string]error {
	checks := make(map[string]error)

	if d.MongoDB != nil {
		checks["mongodb"] = d.MongoDB.Ping(ctx, nil)
	}
	if d.Redis != nil {
		checks["redis"] = d.Redis.Ping(ctx).Err()
	}

	return checks
}
