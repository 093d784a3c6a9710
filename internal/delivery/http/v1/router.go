package v1

import (
	"time"

	"go-jobboard-backend/config"
	"go-jobboard-backend/internal/delivery/http/middleware"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/internal/usecase"
	"go-jobboard-backend/pkg/auth"
	"go-jobboard-backend/pkg/security"
	"go-jobboard-backend/pkg/storage"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC        domain.AuthUsecase
	JobUC         domain.JobUsecase
	ApplicationUC domain.ApplicationUsecase
	ProfileUC     domain.ProfileUsecase
	HealthUC      usecase.HealthUsecase
	Issuer        *auth.Issuer
	Store         storage.ObjectStore
	// Counters backs the rate limiters; nil disables request rate limiting
	Counters      security.CounterStore
	UploadLimiter *security.UploadLimiter
	Config        *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())

	window := time.Duration(deps.Config.RateLimitWindowSeconds) * time.Second
	if deps.Counters != nil {
		r.Use(middleware.RateLimitMiddleware(deps.Counters,
			middleware.DefaultRateLimitConfig(deps.Config.RateLimitGlobalThreshold, window)))
	}

	api := r.Group("/api")

	if deps.HealthUC != nil {
		NewHealthHandler(api, deps.HealthUC)
	}

	// Swagger
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Login, register and refresh share a stricter per-IP limit
	public := api.Group("")
	authPublic := api.Group("")
	if deps.Counters != nil {
		authPublic.Use(middleware.RateLimitMiddleware(deps.Counters,
			middleware.LoginRateLimitConfig(deps.Config.RateLimitLoginThreshold, window)))
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Issuer, deps.AuthUC))
	{
		NewAuthHandler(authPublic, protected, deps.AuthUC)
		NewJobHandler(public, protected, deps.JobUC)
		NewApplicationHandler(protected, deps.ApplicationUC)
		NewProfileHandler(protected, deps.ProfileUC, deps.UploadLimiter, int64(deps.Config.MaxUploadMB)<<20)
	}

	// Public media (profile pictures only)
	NewMediaHandler(r, deps.Store)

	return r
}
