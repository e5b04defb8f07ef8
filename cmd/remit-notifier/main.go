package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/krishn-cti/remit-go/config"
	"github.com/krishn-cti/remit-go/internal/broker/kafka"
	"github.com/krishn-cti/remit-go/internal/cache/rediscache"
	"github.com/krishn-cti/remit-go/internal/integrations/push"
	"github.com/krishn-cti/remit-go/internal/integrations/push/fake"
	"github.com/krishn-cti/remit-go/internal/integrations/push/fcmhttp"
	"github.com/krishn-cti/remit-go/internal/services/pusher"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	topic := cfg.Kafka.NotificationQueuedTopicName
	if topic == "" {
		topic = "notification.queued"
	}
	consumerGroup := cfg.Remit.NotifierKafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "remit-notifier"
	}
	httpAddr := cfg.Remit.NotifierHTTPAddr
	if httpAddr == "" {
		httpAddr = ":8082"
	}
	perToken := int64(cfg.Remit.NotifierPushPerTokenPerMinute)
	if perToken <= 0 {
		perToken = 30
	}

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rl := rediscache.NewRateLimiter(redisAddr)

	// Без ключа провайдера пуши уходят в локальный fake.
	var client push.Client
	if cfg.Remit.PushMode == "fcm" && cfg.Remit.FCMServerKey != "" {
		client = fcmhttp.New(cfg.Remit.FCMBaseURL, cfg.Remit.FCMServerKey)
	} else {
		client = fake.New()
	}

	p := pusher.New(client, rl).WithRateLimit(perToken)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)
	defer func() { _ = consumer.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runNotifier(ctx, notifierOpts{
		httpAddr:      httpAddr,
		topic:         topic,
		consumerGroup: consumerGroup,
	}, p, consumer); err != nil && err != context.Canceled {
		panic(err)
	}
}
