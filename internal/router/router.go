package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/auto-service/internal/config"
	"github.com/iliyamo/auto-service/internal/handler"
	"github.com/iliyamo/auto-service/internal/middleware"
)

// Handlers bundles every handler the API exposes so registration takes
// a single argument.
type Handlers struct {
	Shift       *handler.ShiftHandler
	Transaction *handler.TransactionHandler
	User        *handler.UserHandler
	Service     *handler.ServiceHandler
	Record      *handler.RecordHandler
}

// RegisterRoutes wires the whole API under the /api prefix.  The token
// bucket limiter applies to every route; the response cache only ever
// touches GETs, so mounting it on the group is safe for writes.
func RegisterRoutes(e *echo.Echo, h Handlers, rdb *redis.Client, cacheCfg config.CacheConfig, rateCfg config.RateLimitConfig) {
	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(rateCfg, rdb))
	api.Use(middleware.NewResponseCache(cacheCfg, rdb))

	// Health check for load balancers and monitoring.
	api.GET("/health", handler.Health)

	// Shift lifecycle and audit log.  Static segments are registered
	// alongside the :id parameter; Echo resolves statics first.
	api.POST("/shifts/open/:id", h.Shift.Open)
	api.POST("/shifts/close/:id", h.Shift.Close)
	api.GET("/shifts", h.Shift.List)
	api.GET("/shifts/:id", h.Shift.Get)
	api.GET("/shifts/:id/logs", h.Shift.Logs)
	api.GET("/shifts/logs/operator/:id", h.Shift.OperatorLogs)
	api.GET("/shifts/operator/:id/active", h.Shift.Active)

	// Payment ledger.
	api.GET("/transactions", h.Transaction.List)
	api.POST("/transactions/payment", h.Transaction.Payment)
	api.POST("/transactions/cancellation", h.Transaction.Cancel)
	api.GET("/transactions/shift/:id/total", h.Transaction.ShiftTotals)
	api.GET("/transactions/operator/:id/report", h.Transaction.OperatorReport)
	api.GET("/transactions/:id", h.Transaction.Get)

	// Users, roles and master/service assignments.
	api.GET("/users", h.User.List)
	api.POST("/users", h.User.Create)
	api.POST("/users/register", h.User.Register)
	api.GET("/users/:id", h.User.Get)
	api.PUT("/users/:id", h.User.Update)
	api.DELETE("/users/:id", h.User.Delete)
	api.POST("/users/:id/services/:serviceId", h.User.AssignService)
	api.DELETE("/users/:id/services/:serviceId", h.User.UnassignService)

	// Service catalog.
	api.GET("/services", h.Service.List)
	api.POST("/services", h.Service.Create)
	api.GET("/services/:id", h.Service.Get)
	api.PUT("/services/:id", h.Service.Update)
	api.DELETE("/services/:id", h.Service.Delete)

	// Standalone work records.
	api.GET("/records", h.Record.List)
	api.POST("/records", h.Record.Create)
	api.GET("/records/:id", h.Record.Get)
	api.PUT("/records/:id", h.Record.Update)
	api.DELETE("/records/:id", h.Record.Delete)
}
