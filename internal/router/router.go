package router

import (
	"github.com/gin-gonic/gin"
	"github.com/hendrik2009/hearo-backend/config"
	"github.com/hendrik2009/hearo-backend/internal/app/controller"
	"github.com/hendrik2009/hearo-backend/internal/middleware"
	"github.com/hendrik2009/hearo-backend/internal/websocket"
)

type Router struct {
	authController    *controller.AuthController
	bindingController *controller.BindingController
	authMiddleware    *middleware.AuthMiddleware
	hub               *websocket.Hub
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	bindingController *controller.BindingController,
	authMiddleware *middleware.AuthMiddleware,
	hub *websocket.Hub,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		bindingController: bindingController,
		authMiddleware:    authMiddleware,
		hub:               hub,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "HEARO tag service is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
		}

		bindings := v1.Group("/bindings")
		{
			// Reads stay open: the on-device player resolves scanned
			// tags over loopback without a token.
			bindings.GET("", r.bindingController.ListBindings)
			bindings.GET("/stats", r.bindingController.GetStats)
			bindings.GET("/export",
				r.authMiddleware.Authenticate(),
				r.bindingController.ExportBindings,
			)
			bindings.POST("/seed",
				r.authMiddleware.Authenticate(),
				r.bindingController.SeedBindings,
			)
			bindings.GET("/:uid", r.bindingController.GetBinding)
			bindings.PUT("/:uid", r.bindingController.UpsertBinding)
		}

		events := v1.Group("/events")
		events.Use(r.authMiddleware.Authenticate())
		{
			events.GET("", func(c *gin.Context) {
				websocket.ServeWS(r.hub, c)
			})
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
