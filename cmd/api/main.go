package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-jobboard-backend/config"
	_ "go-jobboard-backend/docs" // Important for Swagger
	v1 "go-jobboard-backend/internal/delivery/http/v1"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/internal/repository/memory"
	"go-jobboard-backend/internal/repository/postgres"
	"go-jobboard-backend/internal/usecase"
	"go-jobboard-backend/pkg/auth"
	"go-jobboard-backend/pkg/database"
	"go-jobboard-backend/pkg/email"
	"go-jobboard-backend/pkg/logger"
	pkgredis "go-jobboard-backend/pkg/redis"
	"go-jobboard-backend/pkg/security"
	"go-jobboard-backend/pkg/security/antivirus"
	"go-jobboard-backend/pkg/storage"
	"go-jobboard-backend/pkg/validation"
)

type repositories struct {
	users        domain.UserRepository
	jobs         domain.JobRepository
	applications domain.ApplicationRepository
	profiles     domain.ProfileRepository
}

// @title           Job Board API
// @version         1.0
// @description     Job postings, applications and seeker profiles.
// @host            localhost:8000
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting job board backend", "port", cfg.Port)
	secLogger := security.InitSecurityLogger("jobboard-backend", security.Environment())
	defer secLogger.Close()

	ctx := context.Background()
	pingers := map[string]usecase.Pinger{}

	// 3. Setup Database (in-memory when DATABASE_URL is unset)
	var repos repositories
	if cfg.DBUrl != "" {
		dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if cfg.RunMigrations {
			if err := database.RunMigrations(ctx, dbPool); err != nil {
				logger.Log.Error("Failed to run migrations", "error", err)
				os.Exit(1)
			}
		}
		if cfg.SecurityLogToDB {
			secLogger.SetPersistFunc(security.NewSecurityEventRepository(dbPool).PersistFunc())
		}

		repos = repositories{
			users:        postgres.NewUserRepository(dbPool),
			jobs:         postgres.NewJobRepository(dbPool),
			applications: postgres.NewApplicationRepository(dbPool),
			profiles:     postgres.NewProfileRepository(dbPool),
		}
		pingers["database"] = usecase.PingFunc(dbPool.Ping)
	} else {
		store := memory.NewStore()
		repos = repositories{
			users:        store.Users(),
			jobs:         store.Jobs(),
			applications: store.Applications(),
			profiles:     store.Profiles(),
		}
	}

	// 4. Setup Redis-backed counters
	var counters security.CounterStore
	redisClient, err := pkgredis.Connect(ctx, pkgredis.Config{
		URL:      cfg.UpstashRedisURL,
		Password: cfg.UpstashRedisPassword,
	})
	switch {
	case err == nil:
		defer redisClient.Close()
		counters = security.NewRedisCounterStore(redisClient)
		pingers["redis"] = usecase.PingFunc(func(ctx context.Context) error {
			return pkgredis.HealthCheck(ctx, redisClient)
		})
	case errors.Is(err, pkgredis.ErrNotConfigured):
		counters = security.NewMemoryCounterStore()
	default:
		logger.Log.Warn("Redis unavailable, falling back to in-memory counters", "error", err)
		counters = security.NewMemoryCounterStore()
	}

	// 5. Setup File Storage
	objectStore, err := newObjectStore(ctx, cfg)
	if err != nil {
		logger.Log.Error("Failed to set up file storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	if s3Store, ok := objectStore.(*storage.S3Store); ok {
		pingers["storage"] = usecase.PingFunc(s3Store.Ping)
	}

	// 6. Setup Email Service
	var notifier domain.StatusNotifier
	emailService := email.NewEmailService(cfg)
	if emailService.IsConfigured() {
		notifier = emailService
	} else {
		logger.Log.Warn("Email service not fully configured - status notifications disabled")
	}

	// 7. Setup UseCases
	validate := validation.New()
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tracker := security.NewLoginTracker(security.LoginTrackerConfig{
		MaxAttempts:   cfg.FailedLoginMaxAttempts,
		AttemptWindow: time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute,
		BlockDuration: time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute,
		UseIPTracking: true,
	}, counters, secLogger)
	maxUpload := int64(cfg.MaxUploadMB) << 20

	authUC := usecase.NewAuthUsecase(repos.users, issuer, tracker, validate)
	jobUC := usecase.NewJobUsecase(repos.jobs, validate)
	applicationUC := usecase.NewApplicationUsecase(repos.applications, repos.jobs, repos.profiles, objectStore, notifier, validate)
	profileUC := usecase.NewProfileUsecase(repos.profiles, objectStore, antivirus.New(cfg.ClamAVAddr), maxUpload, validate)
	healthUC := usecase.NewHealthUsecase(pingers)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:        authUC,
		JobUC:         jobUC,
		ApplicationUC: applicationUC,
		ProfileUC:     profileUC,
		HealthUC:      healthUC,
		Issuer:        issuer,
		Store:         objectStore,
		Counters:      counters,
		UploadLimiter: security.NewUploadLimiter(counters, 10, 50),
		Config:        cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "", "local":
		return storage.NewLocalStore(cfg.MediaRoot)
	default:
		return nil, errors.New("unknown STORAGE_DRIVER " + cfg.StorageDriver)
	}
}
