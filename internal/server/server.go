package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/ali-rahimi/medibot/config"
	"github.com/ali-rahimi/medibot/internal/locks"
	"github.com/ali-rahimi/medibot/internal/medical"
	"github.com/ali-rahimi/medibot/internal/runtime"
	"github.com/ali-rahimi/medibot/internal/store"
	"github.com/ali-rahimi/medibot/internal/telemetry"
	"github.com/ali-rahimi/medibot/provider"
	"github.com/ali-rahimi/medibot/tools/vectorstore"
)

func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New()
		e.GET("/metrics", echo.WrapHandler(tele.Handler()))
	}

	_ = Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0)

	// Initialize shared dependencies (top-level DI)
	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:          cfg.LLM.APIKey,
		CompletionModel: cfg.LLM.CompletionModel,
		EmbeddingModel:  cfg.LLM.EmbeddingModel,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}

	if err := cfg.Vector.Validate(); err != nil {
		return err
	}
	index := vectorstore.NewPinecone(cfg.Vector.BaseURL, cfg.Vector.APIKey, cfg.Vector.Namespace, llm, cfg.Vector.Timeout)

	var locker locks.Locker
	if cfg.Locks.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
		locker = &locks.RedisLocker{Rdb: rdb, TTL: cfg.Locks.TTL, PollEvery: cfg.Locks.PollEvery}
	}

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	sessions := medical.NewSessionManager(st)
	retriever := medical.NewRetriever(index)
	orch := medical.NewOrchestrator(sessions, retriever, llm, locker, tele, orchLogger)

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	api := e.Group("/api")
	auth := &AuthHandler{Store: st, Secret: secret}
	auth.Register(api.Group("/auth"))

	me := api.Group("/me")
	me.Use(runtime.EchoAuthMiddleware(secret))
	me.GET("", func(c echo.Context) error {
		return c.JSON(200, MeResponse{UserID: c.Get("user_id").(string)})
	})

	ch := &ChatHandler{Proc: orch, Sessions: sessions}
	ch.Register(api.Group("/chat"), secret)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10002"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
