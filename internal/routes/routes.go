package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"clinic-portal-server/internal/config"
	"clinic-portal-server/internal/handlers"
	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/session"
	"clinic-portal-server/internal/upstream"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, cfg *config.Config, log zerolog.Logger) {
	clinicAPI := upstream.NewClient(cfg.ClinicAPIBaseURL, cfg.UpstreamTimeout, log)
	adminAPI := upstream.NewAdminClient(cfg.AdminAPIBaseURL, cfg.UpstreamTimeout, log)
	sessions := session.NewManager()

	authHandler := handlers.NewAuthHandler(clinicAPI, cfg)
	appointmentHandler := handlers.NewAppointmentHandler(clinicAPI, sessions, log)
	termsHandler := handlers.NewTermsHandler(clinicAPI)
	adminHandler := handlers.NewAdminHandler(adminAPI)

	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.RateLimit(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst))

	// Public routes (no session cookie required)
	public := router.Group("/api/clinic")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}
	}

	// Dashboard routes gated on the clinic session cookie
	private := router.Group("/api/clinic")
	private.Use(middleware.RequireClinicAuth(cfg.CookieName))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.GET("/verify", authHandler.Verify)
			authRoutesPrivate.POST("/logout", authHandler.Logout)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.GET("/upcoming", appointmentHandler.Upcoming)
			appointmentRoutes.GET("/:status", appointmentHandler.List)
		}

		sessionRoutes := private.Group("/sessions")
		{
			sessionRoutes.POST("", appointmentHandler.OpenSession)
			sessionRoutes.POST("/:sid/file", appointmentHandler.SelectFile)
			sessionRoutes.POST("/:sid/upload", appointmentHandler.Upload)
			sessionRoutes.PATCH("/:sid/draft", appointmentHandler.UpdateDraft)
			sessionRoutes.POST("/:sid/save", appointmentHandler.Save)
			sessionRoutes.DELETE("/:sid", appointmentHandler.CloseSession)
		}

		termsRoutes := private.Group("/terms")
		{
			termsRoutes.GET("", termsHandler.Status)
			termsRoutes.POST("/accept", termsHandler.Accept)
		}
	}

	// Admin portal routes; the admin backend authenticates each action from
	// the credentials in the request body.
	admin := router.Group("/api/admin")
	{
		admin.GET("/action/clinics", adminHandler.ListClinics)
		admin.POST("/action/activate/:id", adminHandler.Activate)
		admin.POST("/action/deactivate/:id", adminHandler.Deactivate)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
