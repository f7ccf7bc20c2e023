package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ruangpena/internal/config"
	"ruangpena/internal/credentials"
	"ruangpena/internal/database"
	"ruangpena/internal/handlers"
	"ruangpena/internal/metrics"
	"ruangpena/internal/middleware"
	"ruangpena/internal/models"
	"ruangpena/internal/repositories"
	"ruangpena/internal/services"
	"ruangpena/pkg/logging"
	"ruangpena/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"gorm.io/gorm"
)

// application bundles the HTTP app with the connections it owns.
type application struct {
	app   *fiber.App
	db    *gorm.DB
	mq    *rabbitmq.Client
	redis *redis.Client
}

func main() {
	// A missing .env file is fine; the environment wins either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	// --- Optional infrastructure ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:    cfg.RabbitMQURL,
			Queues: []string{services.QueueJournalEvents, services.QueuePasswordReset},
		})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize RabbitMQ client")
		}
	} else {
		log.Info("RABBITMQ_URL not set, events are not published")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = openRedis(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
	} else {
		log.Info("REDIS_URL not set, reset codes are kept in memory")
	}

	a, err := newApp(cfg, db, mqClient, redisClient)
	if err != nil {
		log.WithError(err).Fatal("failed to build application")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.SeedDemo {
		if err := database.SeedDemo(ctx, repositories.NewGORMUserRepository(db), repositories.NewGORMJournalRepository(db), cfg.BcryptCost); err != nil {
			log.WithError(err).Error("failed to seed demo data")
		}
	}

	if mqClient != nil {
		startConsumers(ctx, mqClient)
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("addr", cfg.AppPort).Info("starting server")
		if err := a.app.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	log.Info("shutting down server")
	stop()

	if err := a.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("error during Fiber shutdown")
	}
	a.close()
	log.Info("server gracefully stopped")
}

func openRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// newApp wires repositories, services and handlers into a Fiber app. mq and
// rdb may be nil.
func newApp(cfg *config.Config, db *gorm.DB, mq *rabbitmq.Client, rdb *redis.Client) (*application, error) {
	tokens, err := credentials.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	journalRepo := repositories.NewGORMJournalRepository(db)
	var resetCodes repositories.ResetCodeRepository = repositories.NewMockResetCodeRepository()
	if rdb != nil {
		resetCodes = repositories.NewRedisResetCodeRepository(rdb)
	}

	// A nil *rabbitmq.Client must stay a nil interface.
	var publisher services.EventPublisher
	var sender services.ResetCodeSender = services.LogResetCodeSender{}
	if mq != nil {
		publisher = mq
		sender = services.NewQueueResetCodeSender(mq)
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, tokens, cfg.BcryptCost)
	resetService := services.NewPasswordResetService(userRepo, resetCodes, sender, cfg.ResetCodeTTL, cfg.BcryptCost)
	userService := services.NewUserService(userRepo, journalRepo, publisher, cfg.BcryptCost)
	journalService := services.NewJournalService(journalRepo, userRepo, publisher)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "RuangPena",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Metrics())
	// Inside the logger and metrics so panics are logged and counted.
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	a := &application{app: app, db: db, mq: mq, redis: rdb}

	app.Get("/health", a.health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// --- API Routes ---
	api := app.Group("/api")
	guard := middleware.AuthRequired(authService)

	authLimiter := limiter.New(limiter.Config{
		Max:        cfg.AuthRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.Response{
				Success: false,
				Message: "Too many requests, please try again later",
			})
		},
	})

	handlers.NewAuthHandler(authService, resetService).RegisterRoutes(api, authLimiter)
	handlers.NewUserHandler(userService).RegisterRoutes(api, guard)
	handlers.NewJournalHandler(journalService).RegisterRoutes(api, guard)

	return a, nil
}

// health reports the state of the database and the optional brokers.
func (a *application) health(c *fiber.Ctx) error {
	status := fiber.StatusOK
	checks := fiber.Map{"database": "ok"}

	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status = fiber.StatusServiceUnavailable
		checks["database"] = "unavailable"
	}
	if a.redis != nil {
		checks["redis"] = "ok"
		if err := a.redis.Ping(c.UserContext()).Err(); err != nil {
			status = fiber.StatusServiceUnavailable
			checks["redis"] = "unavailable"
		}
	}
	if a.mq != nil {
		checks["rabbitmq"] = "connected"
	} else {
		checks["rabbitmq"] = "disabled"
	}

	state := "healthy"
	if status != fiber.StatusOK {
		state = "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"time":   time.Now().Format(time.RFC3339),
		"checks": checks,
	})
}

func (a *application) close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			log.WithError(err).Error("failed to close RabbitMQ client")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Error("failed to close Redis client")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
		}
	}
}

// startConsumers attaches the in-process workers: an audit log of journal
// events and the mail worker for reset codes.
func startConsumers(ctx context.Context, mq *rabbitmq.Client) {
	err := mq.Consume(ctx, services.QueueJournalEvents, func(msg amqp.Delivery) error {
		var event models.JournalEvent
		if err := rabbitmq.DecodeJSON(msg, &event); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"event":      event.Event,
			"user_id":    event.UserID,
			"journal_id": event.JournalID,
			"type":       event.Type,
		}).Info("journal event")
		return nil
	})
	if err != nil {
		log.WithError(err).Error("failed to start journal event consumer")
	}

	mailer := services.LogResetCodeSender{}
	err = mq.Consume(ctx, services.QueuePasswordReset, func(msg amqp.Delivery) error {
		var reset services.ResetCodeMessage
		if err := rabbitmq.DecodeJSON(msg, &reset); err != nil {
			return err
		}
		return mailer.SendResetCode(ctx, reset.Email, reset.Code)
	})
	if err != nil {
		log.WithError(err).Error("failed to start password reset consumer")
	}
}
