package service

import (
	"context"
	"encoding/json"
	"time"

	"learnera-be/internal/dto"
	"learnera-be/internal/pkg/logger"
	"learnera-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the message-persisted pipeline: each event is
// relayed to the NATS bus for downstream services and written to the chat
// audit log. Fan-out to live connections already happened synchronously.
type consumerService struct {
	pubSub         message.Subscriber
	topicName      string
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewConsumerService(
	pubSub message.Subscriber,
	topicName string,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.MessagePersistedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal pipeline message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ChatAudit", "Message persisted", map[string]interface{}{
		"message_id":  payload.MessageId,
		"sender_id":   payload.SenderId,
		"receiver_id": payload.ReceiverId,
		"timestamp":   payload.Timestamp,
	})

	if cs.eventPublisher != nil {
		occurredAt, err := time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			occurredAt = time.Now()
		}

		event := events.NewChatMessageSentEvent(payload.MessageId, payload.SenderId, payload.ReceiverId, occurredAt)
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to relay event to bus", map[string]interface{}{
				"message_id": payload.MessageId, "error": err.Error(),
			})
			msg.Nack() // Retry transient bus failures
			return
		}
	}

	msg.Ack()
}
