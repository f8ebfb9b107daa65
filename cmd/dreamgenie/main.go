package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreamgenie/internal/config"
	"dreamgenie/internal/database"
	httpapi "dreamgenie/internal/http"
	"dreamgenie/internal/logger"
	"dreamgenie/internal/repository"
	"dreamgenie/internal/service"
	sig "dreamgenie/internal/signal"
	"dreamgenie/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "dreamgenie")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	// 睡眠记录仓库：启用 DB 时走 Postgres，失败退回 KV（保证本地 go run 可用）
	var db *sql.DB
	var sleepRepo repository.SleepRecordsRepo = repository.NewKVSleepRecordsRepo(kv)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			sleepRepo = repository.NewPostgresSleepRecordsRepo(db)
			log.Info("DB enabled for sleep records")
		} else {
			log.Warn("DB enabled but connection failed, falling back to KV store", zap.Error(err))
		}
	}

	incentiveRepo := repository.NewKVIncentiveRepo(kv)

	bridge := sig.NewBridgeClient(cfg.Bridge.Address, time.Duration(cfg.Bridge.TimeoutMS)*time.Millisecond, log)
	resolver := sig.NewResolver(bridge, log)

	sleepSvc := service.NewSleepService(sleepRepo, log)
	behaviorSvc := service.NewBehaviorService(resolver, log)
	incentiveSvc := service.NewIncentiveService(incentiveRepo, sleepSvc, log)

	health := httpapi.NewHealthHandler(sleepSvc, behaviorSvc, incentiveSvc, log)
	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(health)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
