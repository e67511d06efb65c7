// Package http wires the HTTP surface: repositories, services, use cases,
// handlers, and routes.
package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	entservices "github.com/guidepress-io/guidepress/internal/application/entitlement/services"
	entusecases "github.com/guidepress-io/guidepress/internal/application/entitlement/usecases"
	subservices "github.com/guidepress-io/guidepress/internal/application/subscription/services"
	subusecases "github.com/guidepress-io/guidepress/internal/application/subscription/usecases"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/infrastructure/cache"
	"github.com/guidepress-io/guidepress/internal/infrastructure/config"
	"github.com/guidepress-io/guidepress/internal/infrastructure/repository"
	adminmembership "github.com/guidepress-io/guidepress/internal/interfaces/http/handlers/admin/membership"
	"github.com/guidepress-io/guidepress/internal/interfaces/http/handlers/billing"
	"github.com/guidepress-io/guidepress/internal/interfaces/http/handlers/entitlement"
	"github.com/guidepress-io/guidepress/internal/interfaces/http/handlers/membership"
	"github.com/guidepress-io/guidepress/internal/interfaces/http/middleware"
	"github.com/guidepress-io/guidepress/internal/shared/db"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// Router holds the configured gin engine and its handlers.
type Router struct {
	engine             *gin.Engine
	entitlementHandler *entitlement.Handler
	membershipHandler  *membership.Handler
	billingHandler     *billing.Handler
	adminHandler       *adminmembership.Handler
}

// NewRouter builds the full dependency graph on top of the database
// connection and registers all routes.
func NewRouter(gdb *gorm.DB, cfg *config.Config, log logger.Interface) (*Router, error) {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))
	if len(cfg.Server.AllowedOrigins) > 0 {
		engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	}

	tierCatalog, err := loadCatalog(cfg, log)
	if err != nil {
		return nil, err
	}

	subscriptionRepo := repository.NewSubscriptionRepository(gdb, log)
	historyRepo := repository.NewSubscriptionHistoryRepository(gdb, log)
	processedEventRepo := repository.NewProcessedEventRepository(gdb, log)
	counterRepo := repository.NewUsageCounterRepository(gdb, log)
	txManager := db.NewTransactionManager(gdb)

	lifecycle := subservices.NewLifecycleService(subscriptionRepo, historyRepo, cfg.Membership, log)
	resolver := entservices.NewTierResolver(lifecycle, cfg.Membership, log)

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		snapshotCache := cache.NewRedisTierSnapshotCache(redisClient, log)
		lifecycle.SetCacheManager(snapshotCache)
		resolver.SetCacheManager(snapshotCache)
		log.Infow("tier snapshot cache enabled", "addr", cfg.Redis.GetAddr())
	}

	evaluateUC := entusecases.NewEvaluateCapabilityUseCase(resolver, counterRepo, tierCatalog, log)
	checkTierUC := entusecases.NewCheckTierUseCase(resolver, tierCatalog, log)
	applyEventUC := subusecases.NewApplyPaymentEventUseCase(
		subscriptionRepo, processedEventRepo, lifecycle, txManager, cfg.Membership, log,
	)
	checkoutUC := subusecases.NewInitiateCheckoutUseCase(lifecycle, tierCatalog, log)
	cancelUC := subusecases.NewCancelSubscriptionUseCase(lifecycle, cfg.Membership, log)
	assignTierUC := subusecases.NewAdminAssignTierUseCase(lifecycle, tierCatalog, cfg.Membership, log)
	reportUC := subusecases.NewGetMembershipReportUseCase(lifecycle, historyRepo, counterRepo, tierCatalog, log)

	r := &Router{
		engine:             engine,
		entitlementHandler: entitlement.NewHandler(evaluateUC, checkTierUC, log),
		membershipHandler:  membership.NewHandler(checkoutUC, cancelUC, reportUC, log),
		billingHandler:     billing.NewHandler(applyEventUC, log),
		adminHandler:       adminmembership.NewHandler(assignTierUC, cancelUC, reportUC, log),
	}
	r.registerRoutes()
	return r, nil
}

func (r *Router) registerRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.engine.Group("/api/v1")
	{
		users := v1.Group("/users/:user_id")
		{
			users.POST("/entitlements/evaluate", r.entitlementHandler.Evaluate)
			users.GET("/entitlements/:capability", r.entitlementHandler.Peek)
			users.GET("/tier/check", r.entitlementHandler.CheckTier)

			users.GET("/membership", r.membershipHandler.GetReport)
			users.POST("/membership/checkout", r.membershipHandler.InitiateCheckout)
			users.POST("/membership/cancel", r.membershipHandler.Cancel)
		}

		v1.POST("/billing/events", r.billingHandler.HandleEvent)

		admin := v1.Group("/admin/users/:user_id")
		{
			admin.PUT("/tier", r.adminHandler.AssignTier)
			admin.POST("/membership/cancel", r.adminHandler.Cancel)
			admin.GET("/membership", r.adminHandler.GetReport)
		}
	}
}

// GetEngine returns the underlying gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func loadCatalog(cfg *config.Config, log logger.Interface) (*catalog.Catalog, error) {
	if cfg.Membership.CatalogPath == "" {
		return catalog.Default(log), nil
	}
	tierCatalog, err := catalog.LoadFile(cfg.Membership.CatalogPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load tier catalog: %w", err)
	}
	return tierCatalog, nil
}
