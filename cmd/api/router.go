package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopora-backend/internal/shared/middleware"
	"shopora-backend/pkg/container"
)

// SetupRouter builds the gin engine with the shared middleware stack and
// mounts every domain's routes under /api/v1.
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	router.GET("/health", func(ctx *gin.Context) {
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": c.Config.App.Version,
		})
	})

	authMW := middleware.AuthMiddleware(c.JWTManager)
	adminMW := middleware.AdminMiddleware()

	v1 := router.Group("/api/v1")
	{
		c.UserHandler.RegisterRoutes(v1, authMW)
		c.ProductHandler.RegisterRoutes(v1, authMW, adminMW)
		c.CouponHandler.RegisterRoutes(v1, authMW, adminMW)
		c.CartHandler.RegisterRoutes(v1, authMW)
		c.OrderHandler.RegisterRoutes(v1, authMW, adminMW)
	}

	return router
}
