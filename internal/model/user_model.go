package model

import (
	"time"
)

type User struct {
	Id           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	Email        string `gorm:"size:254;index"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	IsTeacher    bool   `gorm:"default:false"`
	IsStudent    bool   `gorm:"default:false"`
	IsParent     bool   `gorm:"default:false"`
	IsOnline     bool   `gorm:"default:false"`
	ProfileImage *string
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
