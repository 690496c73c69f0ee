package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/parishpay/internal/pkg/auth"
	"github.com/polkiloo/parishpay/internal/server/http/handlers"
	"github.com/polkiloo/parishpay/internal/server/http/middleware"
)

const (
	checkoutPath = "/api/checkout"
	webhookPath  = "/api/webhooks/stripe"

	maxDecodedBody = 1 << 20
)

// Setup configures gin router with handlers and middleware.
// Ops routes are registered only when the verifier is enabled.
func Setup(facade handlers.PaymentsFacade, verifier pkgAuth.TokenVerifier, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Content-Encoding", handlers.SignatureHeader, middleware.ServiceTokenHeader},
	}))
	engine.Use(middleware.DecompressRequest(maxDecodedBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	checkoutHandler := handlers.NewCheckoutHandler(facade)
	webhookHandler := handlers.NewWebhookHandler(facade)
	catalogHandler := handlers.NewCatalogHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.POST("/checkout", checkoutHandler.Checkout)
	api.POST("/webhooks/stripe", webhookHandler.Receive)
	api.GET("/products", catalogHandler.Products)
	api.GET("/delivery-dates", catalogHandler.DeliveryDates)
	api.GET("/orders/:id", catalogHandler.OrderStatus)

	if verifier != nil && verifier.Enabled() {
		opsHandler := handlers.NewOpsHandler(facade)
		ops := api.Group("/ops")
		ops.Use(middleware.ServiceToken(verifier))
		ops.GET("/events", opsHandler.Events)
		ops.POST("/events/:id/retry", opsHandler.Retry)
	}

	engine.NoMethod(func(c *gin.Context) {
		switch c.Request.URL.Path {
		case webhookPath:
			webhookHandler.MethodNotAllowed(c)
		case checkoutPath:
			checkoutHandler.MethodNotAllowed(c)
		default:
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		}
	})

	return engine
}
