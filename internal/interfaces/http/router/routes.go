package router

import (
	"fmt"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the handlers mounted by New
type Handlers struct {
	Party         *handler.PartyHandler
	Proposal      *handler.ProposalHandler
	SalesOrder    *handler.SalesOrderHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	System        *handler.SystemHandler
	Auth          *handler.AuthHandler
}

// Config configures the engine built by New
type Config struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	JWT     middleware.JWTMiddlewareConfig
	Tenant  middleware.TenantMiddlewareConfig
	// RateLimiter throttles API clients; nil disables rate limiting
	RateLimiter *middleware.RateLimiter
}

// Routes returns the registrars of the versioned API
func Routes(h Handlers) []RouteRegistrar {
	parties := NewDomainGroup("parties", "/parties").
		POST("", h.Party.Create).
		GET("", h.Party.List).
		GET("/by-tax-id/:taxId", h.Party.GetByTaxID).
		GET("/:id", h.Party.GetByID).
		PATCH("/:id", h.Party.Update).
		DELETE("/:id", h.Party.Delete)

	proposals := NewDomainGroup("proposals", "/proposals").
		POST("", h.Proposal.Create).
		GET("/:id", h.Proposal.GetByID).
		PUT("/:id/lines", h.Proposal.ReplaceLines).
		POST("/:id/close", h.Proposal.Close).
		DELETE("/:id", h.Proposal.Delete).
		POST("/:id/sales-order", h.Proposal.ConvertToSalesOrder)

	salesOrders := NewDomainGroup("sales-orders", "/sales-orders").
		GET("/:id", h.SalesOrder.GetByID).
		PUT("/:id/lines", h.SalesOrder.ReplaceLines).
		PUT("/:id/lines/:lineId/supplier", h.SalesOrder.AssignLineSupplier).
		POST("/:id/close", h.SalesOrder.Close).
		DELETE("/:id", h.SalesOrder.Delete).
		POST("/:id/purchase-orders", h.SalesOrder.ConvertToPurchaseOrders).
		GET("/:id/purchase-orders", h.SalesOrder.ListPurchaseOrders)

	purchaseOrders := NewDomainGroup("purchase-orders", "/purchase-orders").
		GET("/:id", h.PurchaseOrder.GetByID).
		POST("/:id/close", h.PurchaseOrder.Close).
		POST("/:id/pay", h.PurchaseOrder.MarkPaid)

	authGroup := NewDomainGroup("auth", "/auth").
		GET("/me", h.Auth.Me).
		POST("/logout", h.Auth.Logout)

	return []RouteRegistrar{parties, proposals, salesOrders, purchaseOrders, authGroup}
}

// New builds the gin engine with the global middleware chain, the public
// health route and the authenticated, tenant scoped API under /api/v1
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	jwtCfg := cfg.JWT
	if jwtCfg.Logger == nil {
		jwtCfg.Logger = log
	}
	tenantCfg := cfg.Tenant
	if tenantCfg.Logger == nil {
		tenantCfg.Logger = log
	}
	apiMiddleware := []gin.HandlerFunc{middleware.JWTAuth(jwtCfg), middleware.Tenant(tenantCfg)}
	if cfg.RateLimiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(cfg.RateLimiter))
	}

	r := NewRouter(engine, WithAPIMiddleware(apiMiddleware...))
	r.RegisterPublic(NewDomainGroup("system", "").GET("/health", h.System.Health))
	r.Register(Routes(h)...)
	r.Setup()

	return engine, nil
}
