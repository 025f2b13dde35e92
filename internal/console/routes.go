package console

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(
		recoveryMiddleware(h.logger),
		accessLog(h.logger),
		otelgin.Middleware(serviceName),
	)

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/availability", h.Availability)
		api.GET("/stock", h.Stock)

		api.GET("/cart", h.GetCart)
		api.POST("/cart/items", h.AddToCart)
		api.PATCH("/cart/items/:productID", h.ChangeQuantity)
		api.DELETE("/cart", h.ClearCart)
		api.POST("/checkout", h.Checkout)
		api.GET("/sales", h.SalesHistory)
		api.DELETE("/sales/:id", h.VoidSale)

		api.GET("/requests", h.RequestBoard)
		api.POST("/requests", h.CreateRequest)
		api.PUT("/requests/:id", h.EditRequest)
		api.DELETE("/requests/:id", h.CancelRequest)
		api.POST("/requests/:id/approve", h.ApproveRequest)
		api.POST("/requests/:id/reject", h.RejectRequest)
		api.POST("/requests/:id/receive", h.ReceiveRequest)
		api.POST("/requests/:id/dispatch", h.DispatchRequest)

		api.POST("/warehouse/incoming", h.RecordIncoming)
		api.PUT("/warehouse/incoming/:id", h.UpdateIncoming)
		api.DELETE("/warehouse/incoming/:id", h.DeleteIncoming)
	}
	return r
}

func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("💥 panic recovered",
					zap.Any("panic", err),
					zap.ByteString("stack", debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			}
		}()
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
