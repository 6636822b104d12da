package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"campusbites/internal/auth"
	"campusbites/internal/config"
	"campusbites/internal/gamify"
	gamify_db "campusbites/internal/gamify/db"
	"campusbites/internal/gamify/gamify_api"
	"campusbites/internal/kafka"
	"campusbites/internal/logger"
	"campusbites/internal/notify"
	"campusbites/internal/rewards"
	rewards_db "campusbites/internal/rewards/db"
	rewards_redis "campusbites/internal/rewards/redis"
	"campusbites/internal/rewards/rewards_api"
	"campusbites/internal/sse"
)

// Standalone reward-economy service: the wheel, token balances and the
// leaderboard without the order pipeline. Used when the reward surface is
// scaled separately from order traffic.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("redis connection error: %v", err))
	}
	defer redisClient.Close()

	var publisher notify.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		publisher = producer
	}
	notifier := notify.NewService(sse.NewOrderEventEmitter(), publisher, cfg.Kafka.Topics, log)

	rewardsService := rewards.NewRewardsService(
		&rewards_db.DB{Bun: bunDB},
		rewards_redis.NewRedis(redisClient),
		notifier,
		log,
		cfg.Rewards,
	)
	gamifyService := gamify.NewGamifyService(&gamify_db.DB{Bun: bunDB}, log)

	rewardsHandler := &rewards_api.Handler{RewardsService: rewardsService, Logger: log}
	gamifyHandler := &gamify_api.Handler{GamifyService: gamifyService, Logger: log}

	r := chi.NewRouter()
	r.Get("/api/leaderboard", gamifyHandler.Leaderboard)
	r.Get("/api/badges", gamifyHandler.Badges)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Route("/api/rewards", func(r chi.Router) {
			r.Get("/", rewardsHandler.Catalog)
			r.Post("/spin", rewardsHandler.Spin)
			r.Get("/claims", rewardsHandler.History)
			r.Get("/balance", rewardsHandler.Balance)
		})
		r.Route("/api/users/me", func(r chi.Router) {
			r.Get("/badges", gamifyHandler.MyBadges)
			r.Get("/comfort-food", gamifyHandler.ComfortFood)
		})
	})

	port := os.Getenv("REWARDS_PORT")
	if port == "" {
		port = ":8091"
	}
	server := &http.Server{Addr: port, Handler: r}

	go func() {
		log.Info("HTTP", fmt.Sprintf("rewards service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("server shutdown failed: %v", err))
	}
}
