package model

import (
	"time"
)

type UserChatMessage struct {
	Id         uint      `gorm:"primaryKey;autoIncrement"`
	SenderId   uint      `gorm:"not null;index"`
	ReceiverId uint      `gorm:"not null;index"`
	Message    string    `gorm:"type:text;not null"`
	Timestamp  time.Time `gorm:"autoCreateTime;index"`
	IsReceived bool      `gorm:"default:false"`
	IsRead     bool      `gorm:"default:false"`
}

func (UserChatMessage) TableName() string {
	return "user_chat_messages"
}
