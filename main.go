package main

import (
	"time"

	"github.com/kbdspace/kbdspace-backend/config"
	"github.com/kbdspace/kbdspace-backend/identity"
	"github.com/kbdspace/kbdspace-backend/models"
	"github.com/kbdspace/kbdspace-backend/ratelimit"
	"github.com/kbdspace/kbdspace-backend/routes"
	"github.com/kbdspace/kbdspace-backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Post{}, &models.Comment{})

	provider := identity.NewClient(cfg.IdentityBaseURL, cfg.IdentityAPIKey)

	window := time.Duration(cfg.MutationWindowSec) * time.Second
	var postLimiter, commentLimiter ratelimit.Limiter
	if rc := utils.GetRedis(); rc != nil {
		postLimiter = ratelimit.NewRedisLimiter(rc, "ratelimit:posts", cfg.MutationLimit, window)
		commentLimiter = ratelimit.NewRedisLimiter(rc, "ratelimit:comments", cfg.MutationLimit, window)
	} else {
		utils.Sugar.Warn("redis not configured, mutation quotas fall back to in-process limiters")
		postLimiter = ratelimit.NewLocalLimiter(cfg.MutationLimit, window)
		commentLimiter = ratelimit.NewLocalLimiter(cfg.MutationLimit, window)
	}

	r := routes.SetupRouter(db, provider, postLimiter, commentLimiter)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
