package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Remit    RemitConfig    `yaml:"remit"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                        string `yaml:"host"`
	Port                        int    `yaml:"port"`
	NotificationQueuedTopicName string `yaml:"notification_queued_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type RemitConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	// BaseURL — для абсолютных ссылок на загруженные файлы (фото профилей).
	// Задаётся явно в конфиге, не вычисляется по сетевым интерфейсам.
	BaseURL string `yaml:"base_url"`

	DispatchRadiusKm     float64 `yaml:"dispatch_radius_km"`
	DispatchCandidates   int     `yaml:"dispatch_candidates"`
	OrderCacheTTLSeconds int     `yaml:"order_cache_ttl_seconds"`

	NotifierKafkaConsumerGroup    string `yaml:"notifier_kafka_consumer_group"`
	NotifierHTTPAddr              string `yaml:"notifier_http_addr"`
	NotifierPushPerTokenPerMinute int    `yaml:"notifier_push_per_token_per_minute"`

	// push_mode: "fcm" | "fake"
	PushMode     string `yaml:"push_mode"`
	FCMBaseURL   string `yaml:"fcm_base_url"`
	FCMServerKey string `yaml:"fcm_server_key"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
