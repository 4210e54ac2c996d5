package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-enrollment/internal/api/router"
	"campus-enrollment/internal/config"
	"campus-enrollment/internal/infrastructure/cache"
	"campus-enrollment/internal/infrastructure/notification"
	"campus-enrollment/internal/infrastructure/queue"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	"campus-enrollment/internal/service"
	"campus-enrollment/pkg/auth"
	"campus-enrollment/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
)

var (
	port      string
	storeType string
	noMigrate bool
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the enrollment HTTP server",
	Long: `Start the enrollment HTTP server.
This includes:
- Enroll and cancel endpoints for students
- Activity management and participant listings
- Confirmation workers (in-memory or redis queue)
- Per-client rate limiting on the enroll routes`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startServer(); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVarP(&port, "port", "p", "", "Port for the server to listen on (overrides server.port)")
	serverCmd.Flags().StringVar(&storeType, "store", "", "Record store: postgres or memory (overrides store.type)")
	serverCmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "Skip applying migrations on startup")
}

func newSender(cfg *config.Config) (interfaces.NotificationSender, error) {
	switch cfg.Notification.Sender {
	case "kafka":
		logger.Info("Publishing confirmations to kafka topic %s", cfg.Notification.Topic)
		return notification.NewKafkaSender(cfg.Notification.Brokers, cfg.Notification.Topic), nil
	case "log", "":
		return notification.NewLogSender(), nil
	default:
		return nil, fmt.Errorf("unknown notification sender %q", cfg.Notification.Sender)
	}
}

func newQueue(cfg *config.Config, client *redis.Client, sender interfaces.NotificationSender) (interfaces.NotificationQueue, error) {
	opts := queue.Options{
		BufferSize:     cfg.Notification.BufferSize,
		Workers:        cfg.Notification.Workers,
		MaxAttempts:    cfg.Notification.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Notification.InitialBackoff) * time.Millisecond,
		SendTimeout:    time.Duration(cfg.Notification.SendTimeout) * time.Second,
		EnqueueTimeout: time.Duration(cfg.Notification.EnqueueTimeout) * time.Millisecond,
	}

	switch cfg.Notification.Queue {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis notification queue requires cache.type redis")
		}
		logger.Info("Using Redis notification queue")
		return queue.NewRedisQueue(client, sender, opts), nil
	case "memory", "":
		logger.Info("Using in-memory notification queue")
		return queue.NewInMemoryQueue(sender, opts), nil
	default:
		return nil, fmt.Errorf("unknown notification queue %q", cfg.Notification.Queue)
	}
}

func startServer() error {
	cfg := config.Get()
	if port != "" {
		cfg.Server.Port = port
	}
	if storeType != "" {
		cfg.Store.Type = storeType
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret must be set")
	}

	store, err := openStorage(cfg, !noMigrate)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	deps := router.Dependencies{
		Auth:    auth.Config{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer},
		Pingers: store.pingers,
		Version: cfg.App.Version,
	}

	var client *redis.Client
	if cfg.Cache.Type == "redis" {
		client = cache.NewClient(fmt.Sprintf("%s:%d", cfg.Cache.Host, cfg.Cache.Port), cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.PoolSize)
		limiter := cache.NewRedisRateLimiterFromClient(client)
		defer limiter.Close()

		deps.Pingers["redis"] = limiter
		if cfg.RateLimit.Enabled {
			deps.RateLimiter = limiter
			deps.RateLimit = cfg.RateLimit.Requests
			deps.RateLimitWindow = time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		}
	}

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}
	defer sender.Close()

	notifier, err := newQueue(cfg, client, sender)
	if err != nil {
		return err
	}
	notifier.StartWorkers()

	deps.Enrollments = service.NewEnrollmentService(store.transactor, notifier)
	deps.Activities = service.NewActivityService(store.transactor, store.reports)

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router.NewRouter(deps),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Starting enrollment server on port %s (store=%s)", cfg.Server.Port, cfg.Store.Type)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	logger.Info("Stopping notification workers...")
	notifier.StopWorkers()

	logger.Info("Server exited")
	return nil
}
