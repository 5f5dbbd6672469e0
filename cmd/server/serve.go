package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"pasur-go/internal/broadcast"
	"pasur-go/internal/config"
	"pasur-go/internal/database"
	"pasur-go/internal/handlers"
	"pasur-go/internal/logging"
	"pasur-go/internal/middleware"
	"pasur-go/internal/tracing"
	"pasur-go/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func serve(c *cli.Context) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  Name,
		Environment:  cfg.AppEnv,
		PrettyPrint:  cfg.IsDevelopment(),
		TracesExport: cfg.TracesExporter,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logging.L.WithError(err).Warn("tracer shutdown")
		}
	}()

	db, err := database.OpenAndMigrate(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("db open/migrate: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.L.WithError(err).Error("db close")
		}
	}()

	hubRef := websocket.NewHubRef(websocket.NewHub())
	go runHub(hubRef)
	defer func() {
		if h, ok := hubRef.Get(); ok {
			h.Stop()
		}
	}()

	local := broadcast.NewHubBroadcaster(hubRef.Get)
	var bc broadcast.Broadcaster = local
	if cfg.RedisURL != "" {
		rdb, err := broadcast.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		// Every instance, this one included, receives updates through the relay.
		bc = broadcast.NewRedisBroadcaster(rdb)
		relay := broadcast.NewRelay(rdb, local)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.L.WithError(err).Error("redis relay stopped")
			}
		}()
		logging.L.Info("broadcasting match updates through redis")
	}

	handlers.SetWebSocketOriginPolicy(cfg.IsDevelopment(), cfg.DevWebSocketsAllowAll, cfg.WSAllowedOrigins)
	app := handlers.NewApp(db, bc, hubRef.Get, cfg)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(Name))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg))
	handlers.RegisterRoutes(r, app)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.L.WithField("addr", cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.L.Info("shutdown signal received")
	case err := <-errCh:
		logging.L.WithError(err).Error("server error")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logging.L.WithError(err).Error("server shutdown")
	}
	return nil
}

// runHub keeps a hub running, swapping in a fresh one when Run panics. It
// returns once the current hub is stopped.
func runHub(hubRef *websocket.HubRef) {
	for {
		currentHub, ok := hubRef.Get()
		if !ok {
			time.Sleep(time.Second)
			hubRef.Set(websocket.NewHub())
			continue
		}
		panicked := false
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked = true
					logging.L.WithField("panic", r).Errorf("hub.Run panic\n%s", debug.Stack())
				}
			}()
			currentHub.Run()
		}()
		if !panicked {
			return
		}
		// Make calls on the dead hub no-ops instead of blocking forever.
		currentHub.Stop()
		hubRef.Set(websocket.NewHub())
		time.Sleep(time.Second)
	}
}

func migrate(c *cli.Context) error {
	db, err := database.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer db.Close()
	applied, err := database.Migrate(db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(os.Stdout, "database is up to date")
		return nil
	}
	for _, v := range applied {
		fmt.Fprintln(os.Stdout, "applied", v)
	}
	return nil
}
