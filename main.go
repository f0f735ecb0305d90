package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imgchat/internal/api"
	"imgchat/internal/config"
	"imgchat/internal/logger"
	"imgchat/internal/redis"
	"imgchat/internal/service/chat"
	"imgchat/internal/service/translate"
	"imgchat/internal/session"
	"imgchat/internal/storage"
	"imgchat/internal/upload"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := cfg.Database
	logger.Infof("dbType: %s", dbCfg.DriverName())
	db, err := storage.Open(dbCfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	// The database only backs the best-effort sink, so it may be down at startup.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warnf("database unreachable, translations will not be recorded until it is: %v", err)
	} else if dbCfg.AutoMigrate {
		if err := storage.Migrate(dbCfg); err != nil {
			logger.Warnf("migrate database: %v", err)
		}
	}
	pingCancel()

	var store session.Store
	switch cfg.BasicConfig.SessionStore {
	case "redis":
		rdb, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb)
	default:
		mem := session.NewMemoryStore()
		mem.StartJanitor(ctx, session.DefaultJanitorInterval)
		store = mem
	}

	uploads, err := upload.NewDir(cfg.BasicConfig.UploadDir)
	if err != nil {
		logger.Fatalf("prepare upload dir: %v", err)
	}
	logger.Infof("uploads stored in %s", uploads.Root())

	gateway := translate.NewClient(cfg.Gateway.URL, cfg.Gateway.BucketName, cfg.Gateway.Timeout)
	chatService := chat.NewService(uploads, gateway, storage.NewSink(db, dbCfg.DriverName()), cfg.Gateway.TargetLanguage)
	sessions := session.NewManager(store, cfg.BasicConfig.SessionTTL, gin.Mode() == gin.ReleaseMode)
	handlers := api.NewHandler(chatService, sessions, uploads, cfg.BasicConfig.MaxUploadBytes)

	router := gin.New()
	router.Use(api.RequestLogger(), gin.Recovery())
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":5001"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
