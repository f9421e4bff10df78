package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/onsekiz/backend/internal/auth"
	"github.com/onsekiz/backend/internal/config"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/email"
	"github.com/onsekiz/backend/internal/handlers"
	"github.com/onsekiz/backend/internal/keepalive"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/middleware"
	"github.com/onsekiz/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("logger: " + err.Error())
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	authService := auth.NewService(cfg.JWTSecret)

	var imageStore storage.ImageStore
	if cfg.CloudinaryURL != "" {
		store, err := storage.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			logger.Log.Fatal("failed to initialize image hosting", zap.Error(err))
		}
		imageStore = store
	} else {
		logger.Log.Warn("CLOUDINARY_URL not set; image uploads disabled")
	}

	var emailService *email.Service
	if cfg.FromEmail != "" {
		emailService, err = email.NewService(cfg.AWSRegion, cfg.FromEmail, cfg.FromName)
		if err != nil {
			logger.Log.Warn("email delivery disabled", zap.Error(err))
			emailService = nil
		}
	} else {
		logger.Log.Warn("FROM_EMAIL not set; email delivery disabled")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())

	// Cookie auth requires credentials, which rules out a wildcard origin.
	// The allowed origin is echoed back instead.
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := handlers.NewHandlers(imageStore)
	authHandlers := handlers.NewAuthHandlers(authService, emailService)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.RateLimitAuth())
		{
			authRoutes.POST("/signup", authHandlers.Signup)
			authRoutes.POST("/login", authHandlers.Login)
			authRoutes.POST("/logout", authHandlers.Logout)
			authRoutes.POST("/forgot-password", authHandlers.ForgotPassword)
			authRoutes.POST("/reset-password", authHandlers.ResetPassword)
		}

		protected := api.Group("")
		protected.Use(middleware.RateLimit())
		protected.Use(middleware.Auth(authService))
		{
			protected.GET("/auth/me", authHandlers.Me)
			protected.POST("/auth/verify-email", authHandlers.VerifyEmail)
			protected.POST("/auth/resend-code", authHandlers.ResendCode)

			post := protected.Group("/post")
			{
				post.POST("", h.CreatePost)
				post.GET("/feed", h.GetGlobalFeed)
				post.GET("/feed/following", h.GetFollowingFeed)
				post.GET("/search", h.SearchPosts)
				post.GET("/:id", h.GetPost)
				post.PUT("/:id", h.UpdatePost)
				post.DELETE("/:id", h.DeletePost)

				post.POST("/:id/like", h.ToggleLike)
				post.POST("/:id/save", h.ToggleSave)
				post.POST("/:id/hide", h.HidePost)
				post.DELETE("/:id/hide", h.UnhidePost)
				post.POST("/:id/pin", h.PinPost)
				post.DELETE("/:id/pin", h.UnpinPost)
				post.POST("/:id/retweet", h.ToggleRetweet)
				post.POST("/:id/quote", h.QuoteRetweet)

				post.POST("/:id/comment", h.CreateComment)
				post.PUT("/:id/comment/:commentId", h.UpdateComment)
				post.DELETE("/:id/comment/:commentId", h.DeleteComment)
				post.POST("/:id/comment/:commentId/like", h.ToggleCommentLike)
			}

			user := protected.Group("/user")
			{
				user.PUT("/profile", h.UpdateProfile)
				user.GET("/suggested", h.GetSuggestedUsers)
				user.GET("/liked", h.GetLikedPosts)
				user.GET("/saved", h.GetSavedPosts)
				user.GET("/hidden", h.GetHiddenPosts)
				user.GET("/:username", h.GetProfile)
				user.GET("/:username/posts", h.GetUserPosts)
				user.GET("/:username/followers", h.GetFollowers)
				user.GET("/:username/following", h.GetFollowing)
				user.POST("/:username/follow", h.ToggleFollow)
				user.POST("/:username/block", h.ToggleBlock)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.GetNotifications)
				notifications.DELETE("", h.DeleteAllNotifications)
				notifications.DELETE("/:id", h.DeleteNotification)
			}

			protected.POST("/upload/image", middleware.RateLimitUpload(), h.UploadImage)
		}
	}

	var pinger *keepalive.Pinger
	if cfg.KeepAliveURL != "" {
		interval, err := time.ParseDuration(cfg.KeepAliveInterval)
		if err != nil {
			logger.Log.Warn("invalid keep-alive interval; using 14m", zap.Error(err))
			interval = 14 * time.Minute
		}
		pinger = keepalive.NewPinger(cfg.KeepAliveURL, interval)
		pinger.Start()
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	if pinger != nil {
		pinger.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}
}
