package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/pkg/database"
	"go.uber.org/zap"
)

type Config struct {
	DB DB

	// Хранилище квитанций и QR-кодов
	StorageDir    string
	PaymentQRPath string

	// Жизненный цикл оплаты
	PaymentWindow time.Duration
	SweepInterval time.Duration

	// Каналы уведомлений; оба опциональны
	SMTP  SMTP
	Kafka Kafka
}

type DB struct {
	database.Config
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s SMTP) Configured() bool { return s.Host != "" }

type Kafka struct {
	Brokers []string
	Topic   string
}

func (k Kafka) Configured() bool { return len(k.Brokers) > 0 && k.Topic != "" }

func Load(log *zap.Logger) *Config {
	return &Config{
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		StorageDir:    getEnv("STORAGE_DIR", log),
		PaymentQRPath: getEnvDefault("PAYMENT_QR_PATH", "qr/promptpay.png"),
		PaymentWindow: time.Duration(atoiDefault(os.Getenv("PAYMENT_WINDOW_MINUTES"), 15)) * time.Minute,
		SweepInterval: time.Duration(atoiDefault(os.Getenv("SWEEP_INTERVAL_SECONDS"), 60)) * time.Second,
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     atoiDefault(os.Getenv("SMTP_PORT"), 465),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		Kafka: Kafka{
			Brokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
			Topic:   os.Getenv("KAFKA_TOPIC_EMAIL"),
		},
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
