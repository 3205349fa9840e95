package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/vmemory/internal/ai"
	"github.com/xxxsen/vmemory/internal/bootstrap"
	"github.com/xxxsen/vmemory/internal/config"
	"github.com/xxxsen/vmemory/internal/embedcache"
	"github.com/xxxsen/vmemory/internal/handler"
	"github.com/xxxsen/vmemory/internal/middleware"
	"github.com/xxxsen/vmemory/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "embedding-service",
		Short: "HTTP embedding service for vector memory",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the embedding service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.Setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json (environment variables override it)")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func newEmbedder(cfg config.EmbeddingConfig) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfg.Backends))
	for _, backend := range cfg.Backends {
		args := map[string]interface{}{
			"timeout_second": cfg.BackendTimeoutSecond,
		}
		for k, v := range backend.Data {
			args[k] = v
		}
		provider, err := ai.NewEmbedProvider(backend.Provider, args)
		if err != nil {
			return nil, fmt.Errorf("init embedding provider %s: %w", backend.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     backend.Provider + ":" + backend.Model,
			Embedder: ai.NewEmbedder(provider, backend.Model),
		})
	}
	embedder := ai.NewGroupEmbedder(entries)
	if embedder == nil {
		return nil, fmt.Errorf("no embedding backend configured")
	}
	return embedcache.WrapLruCacheToEmbedder(embedder, cfg.CacheSize, cfg.CacheTTL), nil
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logutil.GetLogger(ctx)
	logger.Info("loading embedding backend",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("backends", len(cfg.Embedding.Backends)),
	)
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	embedService := service.NewEmbedService(embedder, cfg.Embedding.Model, cfg.Embedding.Dimension)
	if err := embedService.Init(ctx); err != nil {
		return fmt.Errorf("init embedding service: %w", err)
	}
	logger.Info("embedding backend ready",
		zap.String("model", embedService.ModelName()),
		zap.Int("dimension", embedService.Dimension()),
	)

	deps := handler.RouterDeps{
		Embed: handler.NewEmbedHandler(embedService),
	}
	engine, err := newEngine(cfg.Service.Addr(), deps)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logger.Info("http server listening", zap.String("addr", cfg.Service.Addr()))
	srv := &http.Server{
		Addr:              cfg.Service.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv, shutdownTimeout)
}

func newEngine(addr string, deps handler.RouterDeps) (webapi.IWebEngine, error) {
	return webapi.NewEngine(
		"/",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
}

// serve runs srv until it fails or ctx is cancelled. On cancellation
// in-flight requests get up to timeout to finish.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger := logutil.GetLogger(ctx)
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
