package service

import (
	"context"
	"fmt"

	"learnera-be/pkg/events"
)

// PresenceGroup is the global group every authenticated connection joins;
// presence transitions and system announcements are fanned out through it.
const PresenceGroup = "chat_presence"

// PersonalGroup names the group holding all of one user's live connections.
func PersonalGroup(userId uint) string {
	return fmt.Sprintf("chat_user_%d", userId)
}

// GroupPublisher fans an event out to every live connection in a group,
// in this process and across instances. Implemented by the websocket hub.
type GroupPublisher interface {
	Publish(ctx context.Context, group string, payload interface{}) error
}

// EventPublisher pushes domain events onto the backend event bus.
// Implemented by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
