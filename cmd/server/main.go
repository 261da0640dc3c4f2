package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/techassets/backend/internal/config"
	"github.com/techassets/backend/internal/handler"
	"github.com/techassets/backend/internal/logging"
	"github.com/techassets/backend/internal/metrics"
	"github.com/techassets/backend/internal/repository"
	"github.com/techassets/backend/internal/service"
	"github.com/techassets/backend/internal/staging"
	"github.com/techassets/backend/internal/storage"
	"github.com/techassets/backend/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("load config failed", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, assets, owners, closeDB := openRepositories(ctx, cfg)
	defer closeDB()

	mux := http.NewServeMux()

	store := openObjectStore(ctx, cfg, mux)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := metrics.NewPrometheusObserver("techassets", reg)
	if err != nil {
		logging.Fatal("register metrics failed", "error", err)
	}

	// ステージングディレクトリと掃除役
	dir := staging.NewDir(cfg.StagingDir)
	janitor := staging.NewJanitor()
	if n, err := janitor.SweepStale(ctx, cfg.StagingDir, cfg.StagingMaxAge); err != nil {
		slog.Warn("initial stale sweep failed", "dir", cfg.StagingDir, "error", err)
	} else if n > 0 {
		slog.Info("stale staged files removed at startup", "count", n)
	}
	go janitor.Run(ctx, cfg.StagingDir, cfg.StagingMaxAge/4, cfg.StagingMaxAge)

	assetService := service.NewAssetService(assets, owners, store, janitor, observer, service.AssetConfig{
		Folder:    cfg.AssetFolder,
		MaxImages: cfg.MaxImages,
	})

	h := handler.New(db, cfg.FrontendURL)
	h.AddCheck("staging", dir.Check)
	assetHandler := handler.NewAssetHandler(assetService)
	gate := upload.NewGate(dir, janitor, cfg.MaxFileSize)
	limiter := handler.NewRateLimiter(ctx, cfg.RateLimitPerMin)

	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// 技術者画像 API（書き込み系はレート制限付き）
	mux.Handle("POST /api/technicians/{id}/images", limiter.Middleware(gate.Middleware(http.HandlerFunc(assetHandler.Create))))
	mux.HandleFunc("GET /api/technicians/{id}/images", assetHandler.Get)
	mux.Handle("DELETE /api/technicians/{id}/images", limiter.Middleware(http.HandlerFunc(assetHandler.DeleteAll)))
	mux.Handle("DELETE /api/technicians/{id}/images/one", limiter.Middleware(gate.Middleware(http.HandlerFunc(assetHandler.DeleteOne))))

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler.RequestLogger(handler.SecurityHeaders(h.CORS(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		// Create uploads up to MaxImages files one after another.
		WriteTimeout: time.Duration(cfg.MaxImages)*cfg.RemoteTimeout + 10*time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "store", cfg.StoreDriver, "object_store", cfg.ObjectStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	stop()
}

// openRepositories returns the metadata store selected by STORE_DRIVER.
func openRepositories(ctx context.Context, cfg config.Config) (repository.DB, repository.AssetRepository, repository.OwnerRepository, func()) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("using in-memory metadata store; data is lost on restart", "owners", len(cfg.DevOwnerIDs))
		assets := repository.NewMemoryAssetRepository()
		return assets, assets, repository.NewMemoryOwnerRepository(cfg.DevOwnerIDs...), func() {}
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	owners, err := repository.NewCachedOwnerRepository(repository.NewPgOwnerRepository(pool), cfg.OwnerCacheSize, cfg.OwnerCacheTTL)
	if err != nil {
		logging.Fatal("owner cache failed", "error", err)
	}
	return pool, repository.NewPgAssetRepository(pool), owners, pool.Close
}

// openObjectStore returns the remote store selected by OBJECT_STORE. The local
// store is served from mux under LOCAL_OBJECT_URL.
func openObjectStore(ctx context.Context, cfg config.Config, mux *http.ServeMux) storage.ObjectStore {
	if cfg.ObjectStore == "local" {
		prefix := strings.TrimSuffix(cfg.LocalObjectURL, "/")
		mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.LocalObjectDir))))
		return storage.NewLocalStore(cfg.LocalObjectDir, prefix)
	}

	store, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
		PublicURL: cfg.S3PublicURL,
		Timeout:   cfg.RemoteTimeout,
	})
	if err != nil {
		logging.Fatal("object store client failed", "error", err)
	}
	if err := store.EnsureBucket(ctx, cfg.S3Region); err != nil {
		logging.Fatal("object store bucket check failed", "bucket", cfg.S3Bucket, "error", err)
	}
	return store
}
