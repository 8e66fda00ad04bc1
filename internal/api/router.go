package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/inquotus/marketplace-api/docs"
	"github.com/inquotus/marketplace-api/internal/api/handler"
	"github.com/inquotus/marketplace-api/internal/api/middleware"
	"github.com/inquotus/marketplace-api/internal/core/domain"
	"github.com/inquotus/marketplace-api/internal/core/ports"
	"github.com/inquotus/marketplace-api/internal/core/service"
	mongodb "github.com/inquotus/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/inquotus/marketplace-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The notifier is constructed by the caller so its worker lifecycle can be
// tied to the process context.
func NewRouter(db *mongo.Database, rdb *redis.Client, jwtSecret string, notifier ports.Notifier, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Dependencies ---
	identityRepo := mongodb.NewIdentityRepository(db)
	listingRepo := mongodb.NewListingRepository(db)
	unlockRepo := mongodb.NewUnlockRepository(db)
	quoteCache := redisdb.NewQuoteCache(rdb)

	authService := service.NewAuthService(identityRepo, jwtSecret, 7*24*time.Hour)
	listingService := service.NewListingService(listingRepo, notifier, log)
	unlockService := service.NewUnlockService(listingRepo, unlockRepo, identityRepo, quoteCache, notifier, log)

	authHandler := handler.NewAuthHandler(authService)
	listingHandler := handler.NewListingHandler(listingService)
	unlockHandler := handler.NewUnlockHandler(unlockService)
	adminHandler := handler.NewAdminHandler(listingService, unlockService)

	auth := middleware.Auth(jwtSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Listings ---
	v1 := e.Group("/v1")
	v1.GET("/listings", listingHandler.Browse)
	v1.POST("/listings", listingHandler.Create, auth, middleware.RBAC(domain.RoleCommittente))
	v1.GET("/listings/mine", listingHandler.Mine, auth, middleware.RBAC(domain.RoleCommittente))

	// --- Unlocks (impresa and progettista only) ---
	unlockers := middleware.RBAC(domain.UnlockerRoles...)
	v1.GET("/listings/:id/quote", unlockHandler.Quote, auth, unlockers)
	v1.POST("/listings/:id/unlock", unlockHandler.Unlock, auth, unlockers)
	v1.GET("/listings/:id/contacts", unlockHandler.Contacts, auth, unlockers)
	v1.GET("/unlocks", unlockHandler.History, auth, unlockers)

	// --- Admin ---
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	v1.DELETE("/admin/listings/:id", adminHandler.HideListing, auth, adminOnly)
	v1.GET("/admin/transactions", adminHandler.Transactions, auth, adminOnly)

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
