package mapper

import (
	"learnera-be/internal/entity"
	"learnera-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ToEntity(msg *model.UserChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:         msg.Id,
		SenderId:   msg.SenderId,
		ReceiverId: msg.ReceiverId,
		Message:    msg.Message,
		Timestamp:  msg.Timestamp,
		IsReceived: msg.IsReceived,
		IsRead:     msg.IsRead,
	}
}

func (m *ChatMapper) ToModel(msg *entity.ChatMessage) *model.UserChatMessage {
	if msg == nil {
		return nil
	}
	return &model.UserChatMessage{
		Id:         msg.Id,
		SenderId:   msg.SenderId,
		ReceiverId: msg.ReceiverId,
		Message:    msg.Message,
		Timestamp:  msg.Timestamp,
		IsReceived: msg.IsReceived,
		IsRead:     msg.IsRead,
	}
}

func (m *ChatMapper) ToEntities(msgs []*model.UserChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		entities = append(entities, m.ToEntity(msg))
	}
	return entities
}
