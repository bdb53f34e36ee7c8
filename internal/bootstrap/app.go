package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pdfqa/internal/ai"
	appsvc "pdfqa/internal/app"
	"pdfqa/internal/cache"
	"pdfqa/internal/config"
	"pdfqa/internal/model"
	mysqlClient "pdfqa/internal/platform/mysql"
	rabbitmqClient "pdfqa/internal/platform/rabbitmq"
	redisClient "pdfqa/internal/platform/redis"
	"pdfqa/internal/rag"
	"pdfqa/internal/repository"
	"pdfqa/internal/session"
	"pdfqa/internal/worker"
)

// App holds every long-lived dependency, wired once at startup.
type App struct {
	Config *config.Config
	Log    *zap.Logger

	MySQL            *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	TranscriptWorker *worker.TranscriptWorker

	DocumentService *appsvc.DocumentService
	QAService       *appsvc.QAService
	Sessions        *session.Manager

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := newLogger(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.MySQL.MaxOpen)
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.Document{}, &model.QAMessage{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	docRepo := repository.NewDocumentRepository(mysqlDB)
	msgRepo := repository.NewQAMessageRepository(mysqlDB)
	docCache := cache.NewDocumentCache(redisCli, time.Duration(cfg.Redis.DocumentTTLSecond)*time.Second)
	publisher := rabbitmqClient.NewTranscriptPublisher(mqConn, cfg.RabbitMQ.TranscriptQueue)

	transcriptWorker := worker.NewTranscriptWorker(mqConn, msgRepo, cfg.RabbitMQ.TranscriptQueue, log)
	if err := transcriptWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transcript worker failed: %w", err)
	}

	provider := ai.NewProvider(
		ai.NewOpenAICompatibleClient(),
		ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		},
		ai.ChatConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: 0,
		},
	)
	pipeline := rag.NewPipeline(provider, provider, rag.PipelineConfig{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		TopK:         cfg.RAG.TopK,
		Sentinel:     cfg.RAG.Sentinel,
	})

	qaService := appsvc.NewQAService(docRepo, docCache, publisher, pipeline, log)
	docService := appsvc.NewDocumentService(docRepo, docCache, msgRepo, pipeline, log)
	sessions := session.NewManager(qaService, session.Config{
		RateLimit:  cfg.Session.RateLimit,
		RateWindow: time.Duration(cfg.Session.RateWindowSeconds) * time.Second,
		QueueSize:  cfg.Session.QueueSize,
	}, log)

	return &App{
		Config:           cfg,
		Log:              log,
		MySQL:            mysqlDB,
		Redis:            redisCli,
		MQConn:           mqConn,
		TranscriptWorker: transcriptWorker,
		DocumentService:  docService,
		QAService:        qaService,
		Sessions:         sessions,
		StartedAt:        time.Now(),
	}, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (a *App) Close() error {
	var closeErr error
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return closeErr
}
