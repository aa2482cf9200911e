package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/vidshare/internal/config"
	s3infra "github.com/ivankudzin/vidshare/internal/infra/s3"
	"github.com/ivankudzin/vidshare/internal/jobs/cleanup"
	pgrepo "github.com/ivankudzin/vidshare/internal/repo/postgres"
	redrepo "github.com/ivankudzin/vidshare/internal/repo/redis"
	authsvc "github.com/ivankudzin/vidshare/internal/services/auth"
	mediasvc "github.com/ivankudzin/vidshare/internal/services/media"
	tweetssvc "github.com/ivankudzin/vidshare/internal/services/tweets"
	userssvc "github.com/ivankudzin/vidshare/internal/services/users"
	videossvc "github.com/ivankudzin/vidshare/internal/services/videos"
	"github.com/ivankudzin/vidshare/internal/transport/http/upload"
)

type App struct {
	cfg         config.Config
	logger      *zap.Logger
	server      *http.Server
	postgres    *pgxpool.Pool
	redis       *goredis.Client
	s3          *minio.Client
	sweeper     *cleanup.Job
	sweepCancel context.CancelFunc
	httpRouter  http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	tokenRepo := redrepo.NewTokenRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	videoRepo := pgrepo.NewVideoRepo(pool)
	tweetRepo := pgrepo.NewTweetRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaStorage.AttachProber(mediasvc.NewFFProbe(cfg.Upload.FFProbePath))
	orchestrator := mediasvc.NewOrchestrator(mediaStorage, log)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, tokenRepo, cfg.Auth.RefreshTTL)
	userService := userssvc.NewService(userRepo, mediaStorage, orchestrator, log, userssvc.Config{
		BcryptCost: cfg.Auth.BcryptCost,
	})
	videoService := videossvc.NewService(videoRepo, mediaStorage, orchestrator, log)
	tweetService := tweetssvc.NewService(tweetRepo)

	staging, err := upload.NewStaging(cfg.Upload.StagingDir, cfg.Upload.MaxImageSize, cfg.Upload.MaxVideoSize)
	if err != nil {
		return nil, fmt.Errorf("init upload staging: %w", err)
	}
	sweeper := cleanup.NewStagingSweeper(staging.Dir(), upload.FilePrefix, cfg.Upload.StagingRetention, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:  authService,
		UserService:  userService,
		VideoService: videoService,
		TweetService: tweetService,
		Staging:      staging,
		Logger:       log,
		Config:       cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		sweeper:    sweeper,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	sweepCtx, cancel := context.WithCancel(context.Background())
	a.sweepCancel = cancel
	go a.sweeper.Start(sweepCtx, a.cfg.Upload.SweepInterval)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.sweepCancel != nil {
		a.sweepCancel()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
