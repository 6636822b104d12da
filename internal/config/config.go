package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Rewards RewardsConfig
	Chill   ChillConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Topics  TopicConfig
	Enabled bool
}

type TopicConfig struct {
	OrderCreated  string
	OrderStatus   string
	OutletChill   string
	RewardClaimed string
}

type RewardsConfig struct {
	SpinCost     int
	RatingTokens int
}

type ChillConfig struct {
	DefaultCooldown time.Duration
	MinMinutes      int
	MaxMinutes      int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8090"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				OrderCreated:  getEnv("KAFKA_TOPIC_ORDER_CREATED", "campus.order.created"),
				OrderStatus:   getEnv("KAFKA_TOPIC_ORDER_STATUS", "campus.order.status"),
				OutletChill:   getEnv("KAFKA_TOPIC_OUTLET_CHILL", "campus.outlet.chill"),
				RewardClaimed: getEnv("KAFKA_TOPIC_REWARD_CLAIMED", "campus.reward.claimed"),
			},
		},
		Rewards: RewardsConfig{
			SpinCost:     getEnvInt("SPIN_COST_TOKENS", 20),
			RatingTokens: getEnvInt("RATING_REWARD_TOKENS", 10),
		},
		Chill: ChillConfig{
			DefaultCooldown: time.Duration(getEnvInt("CHILL_DEFAULT_MINUTES", 10)) * time.Minute,
			MinMinutes:      getEnvInt("CHILL_MIN_MINUTES", 5),
			MaxMinutes:      getEnvInt("CHILL_MAX_MINUTES", 480),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
