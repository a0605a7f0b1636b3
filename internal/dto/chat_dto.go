package dto

// Frame type/status discriminators (server → client).
const (
	StatusSent     = "sent"
	StatusReceived = "received"
	StatusError    = "error"

	TypeUserStatus            = "user_status"
	TypeConnectionEstablished = "connection_established"
	TypeAnnouncement          = "announcement"
)

// ChatSendRequest is the single inbound frame shape (client → server).
// Unknown top-level fields are ignored.
type ChatSendRequest struct {
	ReceiverId uint   `json:"receiver_id" validate:"required,gt=0"`
	Message    string `json:"message" validate:"required"`
}

// ChatEventPayload carries a delivered message. Status is "received" on the
// receiver's copy and "sent" on the sender's echo (which also carries the
// receiver id); both copies share the same MessageId.
type ChatEventPayload struct {
	Status     string `json:"status"`
	SenderId   uint   `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
	MessageId  uint   `json:"message_id"`
	Timestamp  string `json:"timestamp"`
	ReceiverId uint   `json:"receiver_id,omitempty"`
}

type ChatErrorPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type UserStatusPayload struct {
	Type     string `json:"type"`
	UserId   uint   `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

type ConnectionEstablishedPayload struct {
	Type   string `json:"type"`
	UserId uint   `json:"user_id"`
}

type AnnouncementPayload struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// MessagePersistedEvent rides the in-process pipeline after a successful
// store write; the consumer relays it to the event bus and audit log.
type MessagePersistedEvent struct {
	MessageId  uint   `json:"message_id"`
	SenderId   uint   `json:"sender_id"`
	ReceiverId uint   `json:"receiver_id"`
	Timestamp  string `json:"timestamp"`
}

// REST responses

type ChatUserResponse struct {
	Id                   uint    `json:"id"`
	Username             string  `json:"username"`
	Email                string  `json:"email"`
	FirstName            string  `json:"first_name"`
	LastName             string  `json:"last_name"`
	IsTeacher            bool    `json:"is_teacher"`
	IsStudent            bool    `json:"is_student"`
	IsParent             bool    `json:"is_parent"`
	IsOnline             bool    `json:"is_online"`
	ProfileImage         *string `json:"profile_image"`
	DisplayName          string  `json:"display_name"`
	LastMessage          *string `json:"last_message,omitempty"`
	LastMessageTimestamp *string `json:"last_message_timestamp,omitempty"`
}

type ChatMessageResponse struct {
	Id         uint   `json:"id"`
	Sender     uint   `json:"sender"`
	Receiver   uint   `json:"receiver"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	IsReceived bool   `json:"is_received"`
	IsRead     bool   `json:"is_read"`
}
