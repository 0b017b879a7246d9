package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"pharmacompare/internal/app"
	"pharmacompare/internal/config"
	"pharmacompare/internal/ratelimit"
	"pharmacompare/internal/server"
	"pharmacompare/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		JWTSecret:   cfg.JWTSecret,
		SessionTTL:  sessionTTL,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	var redisClient *redis.Client
	if cfg.LoginRateLimitPerMinute > 0 || cfg.SignupRateLimitPerMinute > 0 {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}
	loginLimiter, err := newLimiter(redisClient, "login", cfg.LoginRateLimitPerMinute)
	if err != nil {
		log.Fatalf("failed to init login rate limiter: %v", err)
	}
	signupLimiter, err := newLimiter(redisClient, "signup", cfg.SignupRateLimitPerMinute)
	if err != nil {
		log.Fatalf("failed to init signup rate limiter: %v", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		LoginLimiter:   loginLimiter,
		SignupLimiter:  signupLimiter,
		TrustedProxies: trustedProxies,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("pharmacompare server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func newLimiter(client *redis.Client, name string, perMinute int) (*ratelimit.Limiter, error) {
	if perMinute <= 0 {
		return nil, nil
	}
	return ratelimit.New(client, "pharmacompare:ratelimit:"+name, perMinute, time.Minute)
}
