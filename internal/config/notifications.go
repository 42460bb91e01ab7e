package config

import (
	"fmt"
	"time"
)

const defaultStockAlertThreshold = 5

// Notifications configures the event consumer. StockAlertThreshold is the
// stock level at or below which a consumed product event is logged as an
// alert rather than plain information.
type Notifications struct {
	RabbitMQURL         string
	StockAlertThreshold int
	ShutdownTimeout     time.Duration
}

func LoadNotifications() (Notifications, error) {
	cfg := Notifications{
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		StockAlertThreshold: getEnvInt("STOCK_ALERT_THRESHOLD", defaultStockAlertThreshold),
		ShutdownTimeout:     defaultShutdownTimeout,
	}

	if cfg.RabbitMQURL == "" {
		return Notifications{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	return cfg, nil
}
