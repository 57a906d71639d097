package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Karlivar21/Bakari-Backend/internal/audit"
	"github.com/Karlivar21/Bakari-Backend/internal/auth"
	"github.com/Karlivar21/Bakari-Backend/internal/cache"
	"github.com/Karlivar21/Bakari-Backend/internal/config"
	"github.com/Karlivar21/Bakari-Backend/internal/email"
	"github.com/Karlivar21/Bakari-Backend/internal/events"
	h "github.com/Karlivar21/Bakari-Backend/internal/http"
	"github.com/Karlivar21/Bakari-Backend/internal/pricing"
	"github.com/Karlivar21/Bakari-Backend/internal/provider"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
	"github.com/Karlivar21/Bakari-Backend/internal/service"
	"github.com/Karlivar21/Bakari-Backend/internal/sweep"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	catalog, err := pricing.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("failed to load price catalog: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := repository.ConnectMongoDB(connectCtx, repository.MongoOptions{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout.Std(),
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout.Std(),
		MaxPoolSize:            cfg.Mongo.MaxPoolSize,
		MinPoolSize:            cfg.Mongo.MinPoolSize,
	})
	connectCancel()
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Printf("failed to disconnect from MongoDB: %v", err)
		}
	}()

	orderRepo := repository.NewMongoOrderRepository(db)
	commentRepo := repository.NewMongoCommentRepository(db)
	soupPlanRepo := repository.NewMongoSoupPlanRepository(db)

	// The audit journal is optional infrastructure: without Postgres the
	// service still takes payments, it just loses the reconciliation trail.
	var journal audit.Journal
	if cfg.Postgres.Host != "" {
		cred := &audit.Credentials{
			Host:              cfg.Postgres.Host,
			Port:              cfg.Postgres.Port,
			User:              cfg.Postgres.User,
			Password:          cfg.Postgres.Password,
			DBName:            cfg.Postgres.DBName,
			MigrationsDirPath: cfg.Postgres.MigrationsDir,
		}
		auditRepo, err := audit.NewRepository(cred)
		if err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		if err := auditRepo.RunMigrations(cred); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		journal = auditRepo
	} else {
		log.Println("postgres not configured, payment events will not be journaled")
	}

	var soupCache cache.SoupPlanCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		soupCache = cache.NewRedisCache(redisClient)
	}

	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer publisher.Close()
	}

	tokens := provider.NewTokenSource(
		cfg.Payment.OAuthURL,
		cfg.Payment.ClientID,
		cfg.Payment.ClientSecret,
		cfg.Payment.Scope,
	)
	checkout := provider.NewClient(
		cfg.Payment.APIBase,
		cfg.Payment.SessionsPath,
		cfg.Payment.StoreID,
		tokens,
	)

	var verifier service.WebhookVerifier
	if cfg.Payment.WebhookPublicKey != "" {
		v, err := provider.NewVerifier(cfg.Payment.WebhookPublicKey)
		if err != nil {
			log.Fatalf("failed to load webhook public key: %v", err)
		}
		verifier = v
	} else {
		log.Println("webhook public key not configured, signature verification disabled")
	}

	var sender email.Sender = email.LogSender{}
	if cfg.Email.Endpoint != "" && cfg.Email.APIKey != "" {
		sender = email.NewAPISender(cfg.Email.Endpoint, cfg.Email.APIKey, cfg.Email.From)
	}

	orderService := service.NewOrderService(orderRepo, catalog, publisher)
	paymentService := service.NewPaymentService(
		orderRepo, checkout, sender, journal, publisher,
		service.DefaultClassifier(), verifier,
		service.PaymentServiceConfig{
			SuccessURLTemplate: cfg.Payment.SuccessURLTemplate,
			CancelURL:          cfg.Payment.CancelURL,
			OrderTimeout:       cfg.Payment.OrderTimeout.Std(),
		},
	)
	soupPlanService := service.NewSoupPlanService(soupPlanRepo, soupCache)

	users := make([]auth.User, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, auth.User{Username: u.Username, PasswordHash: u.PasswordHash})
	}
	authService := auth.NewService(users, cfg.Auth.JWTSecret)

	requestTimeout := cfg.HTTP.RequestTimeout.Std()
	router := h.NewRouter(h.Handlers{
		Orders:   h.NewOrderHandler(orderService, requestTimeout),
		Payments: h.NewPaymentHandler(paymentService, requestTimeout),
		SoupPlan: h.NewSoupPlanHandler(soupPlanService, requestTimeout),
		Comments: h.NewCommentHandler(commentRepo, requestTimeout),
		Auth:     h.NewAuthHandler(authService),
	}, authService, requestTimeout)

	sweeper := sweep.NewSweeper(paymentService, cfg.Payment.SweepInterval.Std())
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "bakari-backend"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on :%s", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
