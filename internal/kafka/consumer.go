package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"trip-haven-backend/internal/models"
)

// BookingConsumer drives the notification pipeline: every booking lifecycle
// event lands here and is handed to the dispatcher (email today).
type BookingConsumer struct {
	consumer sarama.ConsumerGroup
	topics   []string
}

func NewBookingConsumer(brokers []string, groupID string) (*BookingConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &BookingConsumer{
		consumer: consumer,
		topics:   []string{bookingTopic},
	}, nil
}

func (c *BookingConsumer) ConsumeBookingEvents(ctx context.Context, handler func(*models.BookingEvent) error) error {
	consumerHandler := &bookingConsumerHandler{handler: handler}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consumer.Consume(ctx, c.topics, consumerHandler); err != nil {
				log.Printf("Error consuming messages: %v", err)
				return err
			}
		}
	}
}

func (c *BookingConsumer) Close() error {
	return c.consumer.Close()
}

type bookingConsumerHandler struct {
	handler func(*models.BookingEvent) error
}

func (h *bookingConsumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *bookingConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *bookingConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event models.BookingEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			continue
		}

		if err := h.handler(&event); err != nil {
			log.Printf("Failed to handle booking event: %v", err)
			continue
		}

		session.MarkMessage(message, "")
	}

	return nil
}
