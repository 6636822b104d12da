package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
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
	"campusbites/internal/database/migrations"
	"campusbites/internal/gamify"
	gamify_db "campusbites/internal/gamify/db"
	"campusbites/internal/gamify/gamify_api"
	"campusbites/internal/kafka"
	"campusbites/internal/logger"
	"campusbites/internal/notify"
	"campusbites/internal/order"
	order_db "campusbites/internal/order/db"
	"campusbites/internal/order/order_api"
	"campusbites/internal/outlet"
	outlet_db "campusbites/internal/outlet/db"
	"campusbites/internal/outlet/outlet_api"
	outlet_redis "campusbites/internal/outlet/redis"
	"campusbites/internal/pickup"
	"campusbites/internal/pickup/pickup_api"
	"campusbites/internal/rating"
	rating_db "campusbites/internal/rating/db"
	"campusbites/internal/rating/rating_api"
	"campusbites/internal/rewards"
	rewards_db "campusbites/internal/rewards/db"
	rewards_redis "campusbites/internal/rewards/redis"
	"campusbites/internal/rewards/rewards_api"
	"campusbites/internal/sse"
)

// subscribeChillExpiry watches redis keyevent notifications for expiring
// chill mirror keys and asks the outlet service to reconcile the stored
// chill state with the clock.
func subscribeChillExpiry(rdb *redis.Client, outletService *outlet.OutletService, log *logger.Logger) {
	ctx := context.Background()

	val, err := rdb.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		log.Error("REDIS", fmt.Sprintf("failed to get keyspace config: %v", err))
	} else if len(val) == 2 {
		setting, _ := val[1].(string)
		if !strings.Contains(setting, "x") && !strings.Contains(setting, "E") {
			log.Warn("REDIS", "keyspace notifications not configured for expiry events")
		}
	}

	pubsub := rdb.PSubscribe(ctx, fmt.Sprintf("__keyevent@%d__:expired", rdb.Options().DB))
	log.Info("REDIS", "subscribed to keyevent expired notifications")

	go func() {
		for msg := range pubsub.Channel() {
			outletID := outlet_redis.OutletIDFromExpiredKey(msg.Payload)
			if outletID == "" {
				continue
			}
			log.Info("CHILL", fmt.Sprintf("mirror key expired for outlet %s", outletID))
			outletService.HandleChillExpiry(ctx, outletID)
		}
	}()
}

func verifyConnections(ctx context.Context, log *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Fatal("CONFIG", "REDIS_ADDR not set")
	}
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("redis connection error: %v", err))
	}

	if _, err := redisClient.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("failed to enable keyspace notifications: %v", err))
	} else {
		log.Info("REDIS", "keyspace notifications enabled for expired events")
	}

	log.Info("DATABASE", fmt.Sprintf("redis connection successful to %s", redisAddr))
	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "starting CampusBites core service")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	bunDB, redisClient := verifyConnections(ctx, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if os.Getenv("AUTO_MIGRATE") == "true" {
		opts := migrations.DefaultOptions()
		if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
			opts.Dir = dir
		}
		opts.SeedData = os.Getenv("SEED_DATA") == "true"

		runner := migrations.NewRunner(bunDB, opts, log)
		if err := runner.Run(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("migrations failed: %v", err))
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		topics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderStatus,
			cfg.Kafka.Topics.OutletChill,
			cfg.Kafka.Topics.RewardClaimed,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "required topics ensured")
		}
	} else {
		log.Warn("KAFKA", "kafka disabled, events stay process-local")
	}

	emitter := sse.NewOrderEventEmitter()
	var publisher notify.Publisher
	if producer != nil {
		publisher = producer
	}
	notifier := notify.NewService(emitter, publisher, cfg.Kafka.Topics, log)

	outletService := outlet.NewOutletService(
		&outlet_db.DB{Bun: bunDB},
		outlet_redis.NewRedis(redisClient),
		notifier,
		log,
		cfg.Chill,
	)
	gamifyService := gamify.NewGamifyService(&gamify_db.DB{Bun: bunDB}, log)
	orderService := order.NewOrderService(
		&order_db.DB{Bun: bunDB},
		outletService,
		&gamify.OrderHook{Service: gamifyService},
		notifier,
		log,
	)
	pickupService := pickup.NewPickupService(&order_db.DB{Bun: bunDB}, notifier, log)
	rewardsService := rewards.NewRewardsService(
		&rewards_db.DB{Bun: bunDB},
		rewards_redis.NewRedis(redisClient),
		notifier,
		log,
		cfg.Rewards,
	)
	ratingService := rating.NewRatingService(&rating_db.DB{Bun: bunDB}, log, cfg.Rewards)

	orderHandler := &order_api.Handler{OrderService: orderService, Logger: log}
	sseHandler := order_api.NewSSEHandler(log, emitter)
	outletHandler := &outlet_api.Handler{OutletService: outletService, Logger: log}
	pickupHandler := &pickup_api.Handler{PickupService: pickupService, Logger: log}
	rewardsHandler := &rewards_api.Handler{RewardsService: rewardsService, Logger: log}
	ratingHandler := &rating_api.Handler{RatingService: ratingService, Logger: log}
	gamifyHandler := &gamify_api.Handler{GamifyService: gamifyService, Logger: log}

	log.Info("HTTP", "setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/outlets", outletHandler.ListOutlets)
	r.Get("/api/outlets/{outletID}", outletHandler.GetOutlet)
	r.Get("/api/outlets/{outletID}/ratings", ratingHandler.OutletRatings)
	r.Get("/api/leaderboard", gamifyHandler.Leaderboard)
	r.Get("/api/badges", gamifyHandler.Badges)

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Route("/api", func(r chi.Router) {
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.CreateOrder)
				r.Get("/", orderHandler.ListOrders)
				r.Get("/{orderID}", orderHandler.GetOrder)
				r.Patch("/{orderID}/status", orderHandler.UpdateStatus)
				r.Delete("/{orderID}", orderHandler.CancelOrder)
				r.Post("/{orderID}/rating", ratingHandler.Submit)
				r.Get("/{orderID}/rating", ratingHandler.GetByOrder)
				r.Get("/feed", sseHandler.HandleUserOrderFeed)
			})

			r.Route("/group-orders", func(r chi.Router) {
				r.Post("/", orderHandler.CreateGroupOrder)
				r.Get("/{shareToken}", orderHandler.GetGroupOrder)
				r.Post("/{groupID}/close", orderHandler.CloseGroupOrder)
			})

			r.Route("/pickup", func(r chi.Router) {
				r.Get("/{code}", pickupHandler.VerifyByCode)
				r.Get("/{code}/qr", pickupHandler.QRCode)
				r.Post("/{code}/confirm", pickupHandler.ConfirmPickup)
			})

			r.Route("/outlets/{outletID}", func(r chi.Router) {
				r.Post("/scan", pickupHandler.ScanByOutlet)
				r.Post("/chill", outletHandler.ActivateChill)
				r.Delete("/chill", outletHandler.DeactivateChill)
				r.Get("/feed", sseHandler.HandleOutletOrderFeed)
			})

			r.Route("/rewards", func(r chi.Router) {
				r.Get("/", rewardsHandler.Catalog)
				r.Post("/spin", rewardsHandler.Spin)
				r.Get("/claims", rewardsHandler.History)
				r.Get("/balance", rewardsHandler.Balance)
			})

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/badges", gamifyHandler.MyBadges)
				r.Get("/comfort-food", gamifyHandler.ComfortFood)
			})
		})
	})

	// No WriteTimeout: the SSE feeds hold their response open.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	log.Info("REDIS", "starting chill expiry subscription")
	subscribeChillExpiry(redisClient, outletService, log)

	go func() {
		log.Info("HTTP", fmt.Sprintf("CampusBites core running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "service started, waiting for shutdown signal")
	<-stop

	log.Info("APP", "shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "shutdown complete")
	}
}
