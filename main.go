package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/notewave/notewave/handlers"
	"github.com/notewave/notewave/internal/config"
	"github.com/notewave/notewave/internal/database"
	notehandler "github.com/notewave/notewave/internal/note/handler"
	"github.com/notewave/notewave/internal/note/repository"
	noteservice "github.com/notewave/notewave/internal/note/service"
	"github.com/notewave/notewave/internal/oidc"
	"github.com/notewave/notewave/internal/realtime"
	"github.com/notewave/notewave/internal/storage"
	"github.com/notewave/notewave/internal/tokens"
	"github.com/notewave/notewave/internal/users"
	"github.com/notewave/notewave/pkg/logger"
	"github.com/notewave/notewave/pkg/metrics"
	"github.com/notewave/notewave/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v", cfg.OIDC.Issuer != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate limiter and the presence occupancy
	// mirror can use it when configured.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(context.Background()).Err(); err == nil {
			redisClient = client
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		} else {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit := int(cfg.RateLimit.RPS * float64(cfg.RateLimit.WindowSeconds))
			r.Use(middleware.NewRedisRateLimiter(redisClient, limit, win).Middleware())
		} else {
			r.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
		}
	}

	// OIDC verifier; insecure fallback only under explicit opt-in for
	// integration tests.
	var verifier middleware.Verifier
	ctx := context.Background()
	if cfg.OIDC.Issuer != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		verifier = tokens.NewHS256Verifier(cfg.JWT.Secret)
		logger.Infof("using HS256 token verifier (shared JWT secret)")
	}
	if verifier == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = oidc.NewInsecureVerifier()
		}
	}

	// Persistence: MongoDB when configured, in-memory fallback otherwise.
	var noteRepo noteservice.Repository = repository.NewMemoryRepo()
	var userRepo users.UserRepository = users.NewMemoryUserRepository()
	var mongoOK bool
	if cfg.MongoDB.URI != "" {
		client, errConn := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB, using in-memory storage: %v", errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			noteRepo = repository.NewMongoRepo(db.Collection("notes"))
			userRepo = users.NewMongoUserRepository(db.Collection("users"))
			mongoOK = true
		}
	}
	userSvc := users.NewService(userRepo)

	// Object storage for note exports; optional.
	var store noteservice.ObjectStore
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		s, err := storage.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage: %v", err)
		} else {
			store = s
			logger.Infof("Connected to MinIO: %s (bucket %s)", mcfg.Endpoint, mcfg.Bucket)
		}
	}

	noteSvc := noteservice.New(noteRepo, userSvc, store, cfg.Share.ClientURL)

	// Presence hub with optional Redis occupancy mirror.
	var occ realtime.OccupancyStore
	if redisClient != nil {
		occ = realtime.NewRedisOccupancy(redisClient, "presence:")
	}
	hub := realtime.NewHub(occ)
	go hub.Run()
	defer hub.Close()

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		// storage readiness: memory fallback always serves, but a configured
		// Mongo that never came up means we are not ready.
		if cfg.MongoDB.URI != "" && !mongoOK {
			deps["mongodb"] = false
			ready = false
		} else {
			deps["mongodb"] = true
		}

		if cfg.OIDC.Issuer != "" {
			deps["oidc"] = verifier != nil
			if verifier == nil {
				ready = false
			}
		} else {
			deps["oidc"] = true
		}

		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	if verifier != nil {
		notehandler.RegisterNoteRoutes(r, noteSvc, userSvc, hub, verifier)
		r.GET("/ws", realtime.ServeWS(hub, verifier))
	} else {
		logger.Warnf("note API not registered: no token verifier configured")
	}

	// Development-only token mint; pairs with the HS256 verifier so local
	// setups work without an OIDC provider.
	if cfg.JWT.Secret != "" && cfg.Server.Environment == "development" {
		handlers.RegisterDevTokenIssuer(r, cfg, userSvc)
		logger.Warnf("development token issuer enabled at /auth/dev-token")
	}

	// Minimal Swagger UI + JSON for API documentation
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Config summary: oidc=%v mongo=%v redis=%v minio=%v", cfg.OIDC.Issuer != "", mongoOK, redisClient != nil, store != nil)
	logger.Infof("Starting notes service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
