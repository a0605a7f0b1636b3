package service

import (
	"encoding/json"

	"learnera-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService hands message-persisted events to the in-process
// pipeline. The consumer side relays them to the event bus and audit log.
type IPublisherService interface {
	PublishMessagePersisted(payload dto.MessagePersistedEvent) error
}

type publisherService struct {
	topicName string
	pubSub    message.Publisher
}

func NewPublisherService(topicName string, pubSub message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (s *publisherService) PublishMessagePersisted(payload dto.MessagePersistedEvent) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	return s.pubSub.Publish(s.topicName, msg)
}
