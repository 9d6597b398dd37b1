package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fashon-shop/fulfillment/internal/fulfillment"
	"github.com/fashon-shop/fulfillment/internal/messaging"
	"github.com/fashon-shop/fulfillment/internal/notifier"
)

const consumerGroup = "notification-worker"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}
	brokers := strings.Split(kafkaBrokers, ",")

	handler := notifier.NewHandler(logger)

	subscriptions := []struct {
		topic  string
		handle messaging.MessageHandler
	}{
		{fulfillment.TopicOrderCreated, handler.HandleOrderCreated},
		{fulfillment.TopicOrderCancelled, handler.HandleOrderCancelled},
		{fulfillment.TopicPaymentConfirmed, handler.HandlePaymentConfirmed},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting notification worker", "brokers", brokers)

	var wg sync.WaitGroup
	for _, sub := range subscriptions {
		consumer := messaging.NewConsumer(brokers, sub.topic, consumerGroup, logger)
		defer func() { _ = consumer.Close() }()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, sub.handle); err != nil {
				if ctx.Err() == context.Canceled {
					logger.Info("consumer stopped", "topic", sub.topic)
					return
				}
				logger.Error("consumer error", "error", err, "topic", sub.topic)
				cancel()
			}
		}()
	}

	wg.Wait()
}
