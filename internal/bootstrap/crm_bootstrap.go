package bootstrap

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crm_server/adapter/in/worker"
	"crm_server/adapter/out/messaging"
	"crm_server/config"
	"crm_server/pkg/logger"
)

type Worker struct {
	pool     *worker.Pool
	consumer *messaging.Consumer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	// Processors
	messageProcessor := worker.NewMessageProcessor(
		deps.ClientRepo,
		deps.InteractionRepo,
		deps.MessageProducer,
		deps.WhatsAppSender,
		deps.Classifier,
		logger.Default(),
	)
	analysisProcessor := worker.NewAnalysisProcessor(deps.AnalysisService, logger.Default())
	replyProcessor := worker.NewReplyProcessor(deps.WhatsAppSender, logger.Default())

	handler := worker.NewHandler(
		messageProcessor,
		analysisProcessor,
		replyProcessor,
		logger.Default(),
	)

	defaultConfig := worker.DefaultPoolConfig()
	poolConfig := &worker.PoolConfig{
		MinWorkers:         cfg.WorkerMin,
		MaxWorkers:         cfg.WorkerMax,
		QueueSize:          cfg.WorkerQueueSize,
		ScaleUpThreshold:   0.8,
		ScaleDownThreshold: 0.2,
		ScaleInterval:      cfg.WorkerScaleInterval,
		IdleTimeout:        cfg.WorkerIdleTimeout,
		JobTimeout:         defaultConfig.JobTimeout,
		JobTimeoutByType:   defaultConfig.JobTimeoutByType,
		BatchSize:          defaultConfig.BatchSize,
		WorkerChanSize:     defaultConfig.WorkerChanSize,
	}

	if poolConfig.MinWorkers == 0 {
		poolConfig.MinWorkers = 2
	}
	if poolConfig.MaxWorkers == 0 {
		poolConfig.MaxWorkers = 16
	}
	if poolConfig.QueueSize == 0 {
		poolConfig.QueueSize = 1000
	}
	if poolConfig.ScaleInterval == 0 {
		poolConfig.ScaleInterval = defaultConfig.ScaleInterval
	}
	if poolConfig.IdleTimeout == 0 {
		poolConfig.IdleTimeout = defaultConfig.IdleTimeout
	}

	pool := worker.NewPool(handler, poolConfig, zlog)

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		pool:   pool,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   zlog,
	}

	// Redis Stream Consumer (only when Redis is available)
	if deps.Redis != nil {
		streams := []string{
			messaging.StreamMessageProcess,
			messaging.StreamClientAnalyze,
			messaging.StreamReplySend,
		}

		w.consumer = messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
			Group:                cfg.ConsumerGroup,
			Consumer:             cfg.WorkerID,
			Streams:              streams,
			Handler:              worker.NewStreamHandler(pool, logger.Default()),
			Logger:               zlog,
			PendingCheckInterval: time.Duration(cfg.ConsumerPendingCheckSec) * time.Second,
			PendingIdleTime:      time.Duration(cfg.ConsumerPendingIdleSec) * time.Second,
			MaxRetries:           cfg.ConsumerMaxRetries,
		})
		logger.Info("Redis Stream Consumer configured for %d streams", len(streams))
	} else {
		logger.Warn("Redis not available, worker will only process direct submissions")
	}

	return w, cleanup, nil
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pool.Start()
	}()

	if w.consumer != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.zlog.Info().Msg("Starting Redis Stream Consumer...")
			if err := w.consumer.Run(w.ctx); err != nil && err != context.Canceled {
				w.zlog.Error().Err(err).Msg("Redis Stream Consumer error")
			}
		}()
	}

	// Block until context is cancelled
	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.pool.Stop()
	w.wg.Wait()
}

func (w *Worker) Submit(msg *worker.Message) bool {
	if msg.IsPriority() {
		return w.pool.SubmitPriority(msg)
	}
	return w.pool.Submit(msg)
}

func (w *Worker) GetMetrics() worker.PoolMetrics {
	return w.pool.GetMetrics()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
