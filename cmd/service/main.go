package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aumentovaneza/TapLink-sub001/config"
	"github.com/aumentovaneza/TapLink-sub001/internal/expiry"
	"github.com/aumentovaneza/TapLink-sub001/internal/export"
	"github.com/aumentovaneza/TapLink-sub001/internal/notify"
	"github.com/aumentovaneza/TapLink-sub001/internal/repository"
	"github.com/aumentovaneza/TapLink-sub001/internal/service"
	"github.com/aumentovaneza/TapLink-sub001/internal/storage"
	"github.com/aumentovaneza/TapLink-sub001/pkg/database"
	"github.com/aumentovaneza/TapLink-sub001/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos, err := repository.New(db, log)
	if err != nil {
		log.Fatal("failed to build repository", zap.Error(err))
	}

	blobs, err := storage.New(cfg.StorageDir)
	if err != nil {
		log.Fatal("failed to open blob storage", zap.Error(err))
	}

	// Канал уведомлений: Kafka, иначе SMTP, иначе только лог
	var writer *kafka.Writer
	var mailer notify.Mailer
	switch {
	case cfg.Kafka.Configured():
		writer = notify.NewEmailWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer writer.Close()
		log.Info("notifications via kafka", zap.String("topic", cfg.Kafka.Topic))
	case cfg.SMTP.Configured():
		mailer = notify.NewEmailSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		log.Info("notifications via direct smtp", zap.String("host", cfg.SMTP.Host))
	default:
		log.Info("notifications simulated (no channel configured)")
	}
	dispatcher := notify.NewDispatcher(writer, mailer, log)

	exporter := export.NewSheetExporter(cfg.PaymentWindow)

	svc := service.NewOrderService(repos, blobs, dispatcher, exporter, cfg.PaymentWindow, cfg.PaymentQRPath, log)

	scheduler := expiry.NewScheduler(svc, cfg.SweepInterval, log)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	scheduler.Start(sweepCtx)

	log.Info("hardware order service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down hardware order service...")

	// Останавливаем планировщик
	scheduler.Stop()
	sweepCancel()

	log.Info("hardware order service stopped gracefully")
}
