package service

import (
	"context"

	"learnera-be/internal/dto"
	"learnera-be/internal/pkg/logger"
	"learnera-be/pkg/events"
)

// IPresenceService records online/offline transitions. The hub ref-counts
// connections per user, so MarkOnline fires only for a user's first live
// connection and MarkOffline only when the last one closes.
type IPresenceService interface {
	MarkOnline(ctx context.Context, userId uint) error
	MarkOffline(ctx context.Context, userId uint) error
}

type presenceService struct {
	directory      IUserDirectory
	groups         GroupPublisher
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewPresenceService(
	directory IUserDirectory,
	groups GroupPublisher,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IPresenceService {
	return &presenceService{
		directory:      directory,
		groups:         groups,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *presenceService) MarkOnline(ctx context.Context, userId uint) error {
	return s.transition(ctx, userId, true)
}

func (s *presenceService) MarkOffline(ctx context.Context, userId uint) error {
	return s.transition(ctx, userId, false)
}

func (s *presenceService) transition(ctx context.Context, userId uint, online bool) error {
	// The directory write and the fan-out are independent: a transient flag
	// write failure must not silence the live presence notification.
	if err := s.directory.SetOnline(ctx, userId, online); err != nil {
		s.logger.Error("PresenceService", "Failed to persist online flag", map[string]interface{}{
			"user_id": userId, "online": online, "error": err.Error(),
		})
	}

	payload := dto.UserStatusPayload{
		Type:     dto.TypeUserStatus,
		UserId:   userId,
		IsOnline: online,
	}
	if err := s.groups.Publish(ctx, PresenceGroup, payload); err != nil {
		s.logger.Error("PresenceService", "Failed to publish presence event", map[string]interface{}{
			"user_id": userId, "online": online, "error": err.Error(),
		})
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewUserPresenceEvent(userId, online)); err != nil {
			s.logger.Warn("PresenceService", "Failed to publish presence domain event", map[string]interface{}{
				"user_id": userId, "error": err.Error(),
			})
		}
	}

	return nil
}
