package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/cache"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/config"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/engine"
	httpapi "github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/http"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/logger"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/notifier"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/repository"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/service"
)

func main() {
	// .env 不存在时静默忽略，生产环境直接用环境变量
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "smartwatch-backend")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := repository.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer repository.Close(db)

	redisClient := cache.NewRedisClient(&cfg.Redis)
	defer cache.Close(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cache.Ping(ctx, redisClient); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	readings := cache.NewReadingCache(redisClient, cfg.Notify.KeyPrefix, cfg.Notify.CacheTTL, log)
	repoStore := repository.NewStore(db, cfg.Alert.DefaultThresholds(), log)
	store := cache.NewCachedStore(repoStore, readings, log)
	queue := cache.NewNotifyQueue(redisClient, cfg.Notify.Stream, cfg.Notify.ConsumerGroup, log)

	if err := queue.EnsureGroup(ctx); err != nil {
		log.Fatal("Failed to create notification consumer group", zap.Error(err))
	}

	// 通知通道：按配置决定启用哪些
	var dispatchers []notifier.Dispatcher
	if cfg.Line.AccessToken != "" {
		dispatchers = append(dispatchers, notifier.NewLineDispatcher(&cfg.Line, log))
		log.Info("LINE dispatcher enabled")
	}
	if cfg.MQTT.Broker != "" {
		mqttDispatcher, err := notifier.NewMQTTDispatcher(&cfg.MQTT, log)
		if err != nil {
			log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttDispatcher.Close()
		dispatchers = append(dispatchers, mqttDispatcher)
		log.Info("MQTT dispatcher enabled")
	}
	if len(dispatchers) == 0 {
		log.Warn("No notification dispatcher configured, alerts will only be queued")
	}

	hostname, _ := os.Hostname()
	consumer := notifier.NewStreamConsumer(queue, dispatchers, hostname, cfg.Alert.DispatchTimeout, log)
	go consumer.Start(ctx)

	eng := engine.New(cfg.Alert, store, readings, queue, log)

	router := httpapi.NewRouter(log)
	router.RegisterWatchRoutes(httpapi.NewWatchHandler(eng, log))
	router.RegisterEmergencyRoutes(httpapi.NewEmergencyHandler(eng, log))
	router.RegisterHistoryRoutes(httpapi.NewHistoryHandler(repoStore, log))
	router.RegisterHealthRoute()

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
