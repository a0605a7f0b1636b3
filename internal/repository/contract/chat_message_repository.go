package contract

import (
	"context"

	"learnera-be/internal/entity"
	"learnera-be/internal/repository/specification"
)

type ChatMessageRepository interface {
	// Create validates the sender/receiver role pairing and persists the
	// message, filling in the assigned id and timestamp. Role violations and
	// unknown receivers come back as validation errors, storage faults as
	// transient errors.
	Create(ctx context.Context, msg *entity.ChatMessage) error

	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)

	// MarkReceived / MarkRead flip delivery-status flags on all messages from
	// sender to receiver. Invoked by receiver-side actions only.
	MarkReceived(ctx context.Context, senderId, receiverId uint) error
	MarkRead(ctx context.Context, senderId, receiverId uint) error
}
