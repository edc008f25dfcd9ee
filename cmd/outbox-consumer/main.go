package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/bloomgrove/platform/internal/infra"
)

// Consumes the published bloom.* topics and logs each event. Serves as the
// downstream template for notification or analytics consumers.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the outbox consumer")
	}

	topics := []string{
		string(domain.EventUserRegistered),
		string(domain.EventChallengeCompleted),
		string(domain.EventBadgeAwarded),
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, "bloom-outbox-consumer", true, logger)
		defer consumer.Close()

		wg.Add(1)
		go func(topic string, c *infra.KafkaConsumer) {
			defer wg.Done()
			consume(ctx, topic, c, logger)
		}(topic, consumer)
	}

	wg.Wait()
	logger.Info("outbox-consumer shutting down")
	return nil
}

func consume(ctx context.Context, topic string, c *infra.KafkaConsumer, logger *slog.Logger) {
	logger.Info("consuming topic", "topic", topic)
	for {
		msg, err := c.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("read message failed", "topic", topic, "error", err)
			continue
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			logger.Error("malformed event", "topic", topic, "error", err)
			continue
		}

		logger.Info("event received",
			"topic", topic,
			"key", string(msg.Key),
			"event_id", string(envelope["event_id"]),
			"event_type", string(envelope["event_type"]),
		)
	}
}
