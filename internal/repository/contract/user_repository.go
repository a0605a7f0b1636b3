package contract

import (
	"context"

	"learnera-be/internal/entity"
	"learnera-be/internal/repository/specification"
)

type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)

	// SetOnline persists the presence flag. Idempotent.
	SetOnline(ctx context.Context, id uint, online bool) error

	// ListContacts returns the users the viewer is allowed to chat with,
	// annotated with the latest message exchanged with each.
	ListContacts(ctx context.Context, viewer *entity.User) ([]*entity.Contact, error)
}
