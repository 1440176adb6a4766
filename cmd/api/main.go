package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mamane/internal/config"
	"mamane/internal/middleware"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"
	"mamane/internal/router"
	"mamane/internal/service"

	"github.com/rs/cors"
)

func main() {
	cfg := config.MustLoad()
	log := pkg.NewLogger(cfg.Env)

	db, err := mysql.InitDB(cfg.MySQL.DSN)
	if err != nil {
		log.Error("mysql init failed", "err", err)
		os.Exit(1)
	}

	rdb, err := redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := pkg.NewTokenManager(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)
	mailer := pkg.NewSMTPMailer(pkg.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := service.NewNotificationService(db, mailer, cfg.SiteURL)

	var (
		dispatcher service.Dispatcher
		closers    []func()
	)
	switch cfg.Notify.Mode {
	case config.NotifyModeSync:
		dispatcher = service.NewSyncDispatcher(notifier, log)
	case config.NotifyModeOutbox:
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			log.Error("kafka producer init failed", "err", err)
			os.Exit(1)
		}
		closers = append(closers, func() { producer.Close() })
		dispatcher = service.NewOutboxDispatcher(db, log)
		go service.NewOutboxRelayer(db, service.KafkaSender(producer), log).Run(ctx)
	default:
		async := service.NewAsyncDispatcher(notifier, service.AsyncOptions{
			Workers:     cfg.Notify.Workers,
			QueueSize:   cfg.Notify.QueueSize,
			MaxAttempts: cfg.Notify.MaxAttempts,
			Dedup:       &redis.DedupRepository{RDB: rdb, TTL: cfg.Notify.DedupTTL},
		}, log)
		closers = append(closers, async.Close)
		dispatcher = async
	}

	go service.NewReactionCountReconciler(db, redis.NewReactionCacheRepository(rdb), log).Run(ctx)

	engine := router.InitRouter(router.Deps{
		Log:           log,
		Identity:      middleware.NewIdentity(db, rdb, tokens, log),
		Users:         service.NewUserService(db, rdb, tokens),
		Posts:         service.NewPostService(db, rdb),
		Reactions:     service.NewReactionService(db, rdb, dispatcher, log),
		Favorites:     service.NewFavoriteService(db, dispatcher),
		Moderation:    service.NewModerationService(db, rdb, log),
		Notifier:      notifier,
		ReactLimit:    redis.NewTokenBucket(rdb, cfg.RateLimit.ReactPerMinute, cfg.RateLimit.ReactPerMinute),
		FavoriteLimit: redis.NewTokenBucket(rdb, cfg.RateLimit.FavoritePerMinute, cfg.RateLimit.FavoritePerMinute),
		InternalKey:   cfg.InternalKey,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.InternalKeyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	}).Handler(engine)

	srv := &http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server listening", slog.String("addr", srv.Addr), slog.String("notify_mode", cfg.Notify.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	for _, c := range closers {
		c()
	}
}
