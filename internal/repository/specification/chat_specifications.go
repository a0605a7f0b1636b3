package specification

import (
	"gorm.io/gorm"
)

// ConversationBetween matches messages flowing either direction between two users.
type ConversationBetween struct {
	UserA uint
	UserB uint
}

func (s ConversationBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		s.UserA, s.UserB, s.UserB, s.UserA,
	)
}

// FromSenderTo matches messages sent by one user to another (one direction).
type FromSenderTo struct {
	SenderId   uint
	ReceiverId uint
}

func (s FromSenderTo) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sender_id = ? AND receiver_id = ?", s.SenderId, s.ReceiverId)
}

// Unreceived matches messages not yet flagged as delivered.
type Unreceived struct{}

func (s Unreceived) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_received = ?", false)
}

// Unread matches messages not yet flagged as read.
type Unread struct{}

func (s Unread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ?", false)
}
