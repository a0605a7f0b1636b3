package events

import "time"

const (
	EventChatMessageSent = "CHAT_MESSAGE_SENT"
	EventUserOnline      = "USER_ONLINE"
	EventUserOffline     = "USER_OFFLINE"
	EventSystemBroadcast = "SYSTEM_BROADCAST"
)

// NewChatMessageSentEvent is emitted after a chat message is durably stored.
func NewChatMessageSentEvent(messageId, senderId, receiverId uint, occurredAt time.Time) Event {
	return BaseEvent{
		Type: EventChatMessageSent,
		Data: map[string]interface{}{
			"message_id":  messageId,
			"sender_id":   senderId,
			"receiver_id": receiverId,
		},
		OccurredAt: occurredAt,
	}
}

// NewUserPresenceEvent is emitted on an offline<->online transition.
func NewUserPresenceEvent(userId uint, online bool) Event {
	eventType := EventUserOffline
	if online {
		eventType = EventUserOnline
	}
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"user_id":   userId,
			"is_online": online,
		},
		OccurredAt: time.Now(),
	}
}
