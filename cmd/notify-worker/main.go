package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mamane/internal/config"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"
	"mamane/internal/service"
)

const (
	handleAttempts = 3
	handleBackoff  = time.Second
)

// notify-worker consumes intents the api relayed to Kafka from the outbox and mails them.
func main() {
	cfg := config.MustLoad()
	log := pkg.NewLogger(cfg.Env).With("component", "notify-worker")

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

	notifier := service.NewNotificationService(db, pkg.NewSMTPMailer(pkg.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}), cfg.SiteURL)
	handle := service.IntentHandler(notifier, &redis.DedupRepository{RDB: rdb, TTL: cfg.Notify.DedupTTL}, log)

	consumer := pkg.NewKafkaConsumer(pkg.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("consuming", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	err = consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		var err error
		for attempt := 1; attempt <= handleAttempts; attempt++ {
			if err = handle(ctx, key, value); err == nil {
				return nil
			}
			log.Warn("notification delivery failed", "attempt", attempt, "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(handleBackoff * time.Duration(attempt)):
			}
		}
		return err
	})
	if err != nil {
		log.Error("consumer stopped, message left uncommitted for redelivery", "err", err)
		os.Exit(1)
	}
}
