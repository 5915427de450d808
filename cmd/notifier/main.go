package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/queue"
)

// notifier consumes booking events from RabbitMQ and appends a ticket line
// per event to TICKET_LOG_PATH.
func main() {
	_ = godotenv.Load()
	logger.Init(config.LogLevel(), config.LogFormat())
	log := logger.Get()

	broker := config.LoadBrokerConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("notifier starting", "queues", queue.Queues, "ticket_log", broker.TicketLogPath)
	err := queue.NewConsumer(broker.URL, broker.TicketLogPath).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("notifier stopped", "error", err)
	}
	log.Info("notifier stopped")
}
