package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kbconsole/api"
	"kbconsole/config"
	"kbconsole/database"
	"kbconsole/identity"
	"kbconsole/middleware"
	"kbconsole/querycache"
	"kbconsole/repository"
	"kbconsole/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, config.AppConfig, log)
	},
}

// newRouter wires repositories, services and handlers over db. The returned cache must
// be started and closed by the caller.
func newRouter(cfg config.Config, db *gorm.DB, log *zap.Logger) (*gin.Engine, *querycache.Cache, error) {
	jwtp, err := identity.NewJWTProvider([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, nil, err
	}

	// Initialize Repositories
	articleRepo := repository.NewArticleRepository(db, log)
	favoriteRepo := repository.NewFavoriteRepository(db, log)
	metricsRepo := repository.NewMetricsRepository(db, log)

	// Initialize Services
	cache := querycache.New(querycache.WithLogger(log), querycache.WithJanitorInterval(cfg.Cache.JanitorInterval))
	policies := services.NewCachePolicies(cfg.Cache.List, cfg.Cache.Stats)
	articleService := services.NewArticleService(articleRepo, favoriteRepo, jwtp, cache, policies, log)
	apiHandler := api.NewAPIHandler(
		articleService,
		services.NewFavoriteService(articleService, favoriteRepo, jwtp, cache, log),
		services.NewTrackingService(articleService, articleRepo, jwtp, cache, log),
		services.NewExportService(articleService, log),
		services.NewDashboardService(articleRepo, metricsRepo, jwtp, cache, policies, log),
		jwtp,
		cfg,
		log,
	)

	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(middleware.Logger(log))
	r.Use(gin.Recovery())
	r.Use(middleware.Cors())
	r.Use(middleware.Authenticate(jwtp, log))
	apiHandler.RegisterRoutes(r)
	return r, cache, nil
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	mainLog := log.Named("Main")
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := database.Init(cfg, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	r, cache, err := newRouter(cfg, db, log)
	if err != nil {
		return err
	}
	cache.Start(ctx)
	defer cache.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		mainLog.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	mainLog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
