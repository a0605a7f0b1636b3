package entity

import (
	"time"
)

// ChatMessage is a persisted direct message. Id and Timestamp are assigned by
// the store on creation. IsReceived/IsRead are mutated only by explicit
// receiver-side actions, never by the gateway.
type ChatMessage struct {
	Id         uint
	SenderId   uint
	ReceiverId uint
	Message    string
	Timestamp  time.Time
	IsReceived bool
	IsRead     bool
}
