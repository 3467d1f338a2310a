package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/server/handlers"
	"github.com/mamadbah2/kitchenstock/internal/server/realtime"
)

// Handlers groups the HTTP adapters the engine routes to.
type Handlers struct {
	Inventory     *handlers.InventoryHandler
	Serving       *handlers.ServingHandler
	Recipes       *handlers.RecipeHandler
	Orders        *handlers.OrderHandler
	Notifications *handlers.NotificationHandler
	Hub           *realtime.Hub
	Gatherer      prometheus.Gatherer
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	}
	if h.Hub != nil {
		r.GET("/ws", h.Hub.Handle)
	}

	api := r.Group("/api")

	ingredients := api.Group("/ingredients")
	ingredients.GET("", h.Inventory.List)
	ingredients.POST("", h.Inventory.Add)
	ingredients.POST("/:id/restock", h.Inventory.Restock)

	recipes := api.Group("/recipes")
	recipes.GET("", h.Serving.ListRecipes)
	recipes.PUT("/:id", h.Recipes.Update)
	recipes.GET("/:id/capacity", h.Serving.Capacity)
	recipes.POST("/:id/validate", h.Serving.Validate)
	recipes.POST("/:id/serve", h.Serving.Serve)

	api.GET("/servings", h.Serving.History)

	orderRoutes := api.Group("/orders")
	orderRoutes.GET("", h.Orders.List)
	orderRoutes.POST("", h.Orders.Create)
	orderRoutes.GET("/:id", h.Orders.Get)
	orderRoutes.PUT("/:id", h.Orders.UpdateStatus)

	notifications := api.Group("/notifications")
	notifications.GET("", h.Notifications.List)
	notifications.PUT("/read-all", h.Notifications.MarkAllRead)
	notifications.PUT("/:id/read", h.Notifications.MarkRead)
	notifications.DELETE("/:id", h.Notifications.Delete)

	api.GET("/connection", h.Notifications.Connection)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// CORS builds the cross-origin policy. An empty list or a "*" entry admits any
// origin but never with credentials; explicit origins may send credentials.
func CORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}
	if len(origins) > 0 && !slices.Contains(origins, "*") {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return cors.New(opts)
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
