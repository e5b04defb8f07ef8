package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishn-cti/remit-go/config"
	"github.com/krishn-cti/remit-go/internal/api/dispatch_api"
	"github.com/krishn-cti/remit-go/internal/broker/kafka"
	"github.com/krishn-cti/remit-go/internal/cache/rediscache"
	"github.com/krishn-cti/remit-go/internal/services/dispatch"
	"github.com/krishn-cti/remit-go/internal/services/geomatch"
	"github.com/krishn-cti/remit-go/internal/services/notifications"
	"github.com/krishn-cti/remit-go/internal/storage/pgdispatch"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.Remit.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.NotificationQueuedTopicName
	if topic == "" {
		topic = "notification.queued"
	}
	cacheTTL := time.Duration(cfg.Remit.OrderCacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)
	defer st.Close()

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	dispatcher := notifications.NewDispatcher(st, producer, topic)

	svc := dispatch.New(st, geomatch.New(st), dispatcher, rc, cacheTTL).
		WithDispatchSettings(cfg.Remit.DispatchRadiusKm, cfg.Remit.DispatchCandidates).
		WithBaseURL(cfg.Remit.BaseURL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runRemitAPI(ctx, remitAPIOpts{httpAddr: httpAddr}, dispatch_api.New(svc)); err != nil && err != context.Canceled {
		panic(err)
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgdispatch.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgdispatch.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}
