package entity

import (
	"time"
)

type User struct {
	Id           uint
	Username     string
	Email        string
	FirstName    string
	LastName     string
	IsTeacher    bool
	IsStudent    bool
	IsParent     bool
	IsOnline     bool
	ProfileImage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CanMessage applies the role-compatibility rules: teachers talk to students
// and parents, students and parents talk to teachers only.
func (u *User) CanMessage(receiver *User) bool {
	switch {
	case u.IsTeacher:
		return receiver.IsStudent || receiver.IsParent
	case u.IsParent:
		return receiver.IsTeacher
	case u.IsStudent:
		return receiver.IsTeacher
	default:
		return false
	}
}

// Contact is a chat counterpart annotated with conversation recency,
// used by the contact-list endpoint.
type Contact struct {
	User
	LastMessage          *string
	LastMessageTimestamp *time.Time
}
