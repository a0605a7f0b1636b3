package service

import (
	"context"

	"learnera-be/internal/dto"
	"learnera-be/internal/pkg/logger"
	"learnera-be/pkg/events"
	pktNats "learnera-be/pkg/nats"
)

// AnnouncementService listens for system-wide broadcast events published by
// other backend services and fans them out to every live connection via the
// presence group.
type AnnouncementService struct {
	subscriber *pktNats.Subscriber
	groups     GroupPublisher
	logger     logger.ILogger
}

func NewAnnouncementService(sub *pktNats.Subscriber, groups GroupPublisher, log logger.ILogger) *AnnouncementService {
	return &AnnouncementService{
		subscriber: sub,
		groups:     groups,
		logger:     log,
	}
}

// Start begins listening on the event bus.
func (s *AnnouncementService) Start() {
	err := s.subscriber.Subscribe("events."+events.EventSystemBroadcast, "chat-gateway-broadcast", s.handleEvent)
	if err != nil {
		s.logger.Error("AnnouncementService", "Failed to start broadcast subscriber", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.logger.Info("AnnouncementService", "Listening for system broadcasts", nil)
}

func (s *AnnouncementService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	title, _ := payload["title"].(string)
	body, _ := payload["message"].(string)
	if title == "" && body == "" {
		s.logger.Warn("AnnouncementService", "Dropping empty broadcast event", nil)
		return nil
	}

	return s.groups.Publish(ctx, PresenceGroup, dto.AnnouncementPayload{
		Type:    dto.TypeAnnouncement,
		Title:   title,
		Message: body,
	})
}
