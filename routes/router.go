package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kbdspace/kbdspace-backend/config"
	"github.com/kbdspace/kbdspace-backend/controllers"
	"github.com/kbdspace/kbdspace-backend/identity"
	"github.com/kbdspace/kbdspace-backend/middleware"
	"github.com/kbdspace/kbdspace-backend/ratelimit"
	"github.com/kbdspace/kbdspace-backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers. Post and comment
// mutations count against independent limiter instances.
func SetupRouter(db *gorm.DB, provider identity.Provider, postLimiter, commentLimiter ratelimit.Limiter) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(db, provider, postLimiter)
	commentController := controllers.NewCommentController(db, provider, commentLimiter)
	profileController := controllers.NewProfileController(provider)

	api := r.Group("/api/v1")

	// Public reads
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/posts/:id/comments", commentController.ListPostComments)
	api.GET("/posts/:id/comments/count", commentController.CountPostComments)
	api.GET("/users/:id/posts", postController.ListUserPosts)
	api.GET("/users/:id/posts/count", postController.CountUserPosts)
	api.GET("/users/:id/comments", commentController.ListUserComments)
	api.GET("/users/:id/comments/count", commentController.CountUserComments)
	api.GET("/profile/:username", profileController.GetUserByUsername)

	// Authenticated mutations
	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.DELETE("/posts/:id/comments", commentController.DeletePostComments)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeRouteNotFound, "route not found")
	})

	return r
}
