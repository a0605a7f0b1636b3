package service

import (
	"context"
	"time"

	"learnera-be/internal/dto"
	"learnera-be/internal/entity"
	"learnera-be/internal/pkg/apperrors"
	"learnera-be/internal/pkg/logger"
	"learnera-be/internal/repository/contract"
	"learnera-be/internal/repository/specification"

	"github.com/go-playground/validator/v10"
)

type IChatService interface {
	// Route persists a direct message and fans the delivery event out to the
	// receiver's personal group plus an echo (status "sent") to the sender's
	// own personal group, so every open connection of both parties converges.
	Route(ctx context.Context, senderId uint, req *dto.ChatSendRequest) error

	CurrentUser(ctx context.Context, userId uint) (*dto.ChatUserResponse, error)
	GetContacts(ctx context.Context, viewerId uint) ([]*dto.ChatUserResponse, error)
	GetConversation(ctx context.Context, viewerId, otherId uint) ([]*dto.ChatMessageResponse, error)
	MarkConversationReceived(ctx context.Context, viewerId, senderId uint) error
	MarkConversationRead(ctx context.Context, viewerId, senderId uint) error
}

type chatService struct {
	directory IUserDirectory
	messages  contract.ChatMessageRepository
	users     contract.UserRepository
	groups    GroupPublisher
	publisher IPublisherService
	validate  *validator.Validate
	logger    logger.ILogger
}

func NewChatService(
	directory IUserDirectory,
	messages contract.ChatMessageRepository,
	users contract.UserRepository,
	groups GroupPublisher,
	publisher IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		directory: directory,
		messages:  messages,
		users:     users,
		groups:    groups,
		publisher: publisher,
		validate:  validator.New(),
		logger:    log,
	}
}

func (s *chatService) Route(ctx context.Context, senderId uint, req *dto.ChatSendRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "Missing required fields", err)
	}

	sender, err := s.directory.GetUser(ctx, senderId)
	if err != nil {
		return err
	}
	if sender == nil {
		// The account was deleted after the token was issued; the caller
		// treats this as terminal and closes the connection.
		return apperrors.New(apperrors.KindUserNotFound, "sender does not exist")
	}

	msg := entity.ChatMessage{
		SenderId:   senderId,
		ReceiverId: req.ReceiverId,
		Message:    req.Message,
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return err
	}

	// The row is durable from here on; fan-out is best-effort notification
	// and its failures are logged, not surfaced.
	delivery := dto.ChatEventPayload{
		Status:     dto.StatusReceived,
		SenderId:   senderId,
		SenderName: sender.FullName(),
		Message:    msg.Message,
		MessageId:  msg.Id,
		Timestamp:  msg.Timestamp.UTC().Format(time.RFC3339),
	}
	if err := s.groups.Publish(ctx, PersonalGroup(req.ReceiverId), delivery); err != nil {
		s.logger.Error("ChatService", "Failed to fan out delivery event", map[string]interface{}{
			"message_id": msg.Id, "receiver_id": req.ReceiverId, "error": err.Error(),
		})
	}

	echo := delivery
	echo.Status = dto.StatusSent
	echo.ReceiverId = req.ReceiverId
	if err := s.groups.Publish(ctx, PersonalGroup(senderId), echo); err != nil {
		s.logger.Error("ChatService", "Failed to fan out echo event", map[string]interface{}{
			"message_id": msg.Id, "sender_id": senderId, "error": err.Error(),
		})
	}

	if s.publisher != nil {
		persisted := dto.MessagePersistedEvent{
			MessageId:  msg.Id,
			SenderId:   senderId,
			ReceiverId: req.ReceiverId,
			Timestamp:  delivery.Timestamp,
		}
		if err := s.publisher.PublishMessagePersisted(persisted); err != nil {
			s.logger.Warn("ChatService", "Failed to enqueue message-persisted event", map[string]interface{}{
				"message_id": msg.Id, "error": err.Error(),
			})
		}
	}

	return nil
}

func (s *chatService) CurrentUser(ctx context.Context, userId uint) (*dto.ChatUserResponse, error) {
	user, err := s.directory.GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
	}
	return toChatUserResponse(user), nil
}

func (s *chatService) GetContacts(ctx context.Context, viewerId uint) ([]*dto.ChatUserResponse, error) {
	viewer, err := s.directory.GetUser(ctx, viewerId)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
	}

	contacts, err := s.users.ListContacts(ctx, viewer)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatUserResponse, 0, len(contacts))
	for _, c := range contacts {
		r := toChatUserResponse(&c.User)
		r.LastMessage = c.LastMessage
		if c.LastMessageTimestamp != nil {
			ts := c.LastMessageTimestamp.UTC().Format(time.RFC3339)
			r.LastMessageTimestamp = &ts
		}
		res = append(res, r)
	}
	return res, nil
}

func (s *chatService) GetConversation(ctx context.Context, viewerId, otherId uint) ([]*dto.ChatMessageResponse, error) {
	viewer, err := s.directory.GetUser(ctx, viewerId)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
	}
	other, err := s.directory.GetUser(ctx, otherId)
	if err != nil {
		return nil, err
	}

	// Disallowed pairings yield an empty history rather than an error.
	if other == nil || !viewer.CanMessage(other) {
		return []*dto.ChatMessageResponse{}, nil
	}

	messages, err := s.messages.FindAll(ctx,
		specification.ConversationBetween{UserA: viewerId, UserB: otherId},
		specification.OrderBy{Field: "timestamp"},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.ChatMessageResponse{
			Id:         m.Id,
			Sender:     m.SenderId,
			Receiver:   m.ReceiverId,
			Message:    m.Message,
			Timestamp:  m.Timestamp.UTC().Format(time.RFC3339),
			IsReceived: m.IsReceived,
			IsRead:     m.IsRead,
		})
	}
	return res, nil
}

func (s *chatService) MarkConversationReceived(ctx context.Context, viewerId, senderId uint) error {
	return s.messages.MarkReceived(ctx, senderId, viewerId)
}

func (s *chatService) MarkConversationRead(ctx context.Context, viewerId, senderId uint) error {
	return s.messages.MarkRead(ctx, senderId, viewerId)
}

func toChatUserResponse(u *entity.User) *dto.ChatUserResponse {
	return &dto.ChatUserResponse{
		Id:           u.Id,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsTeacher:    u.IsTeacher,
		IsStudent:    u.IsStudent,
		IsParent:     u.IsParent,
		IsOnline:     u.IsOnline,
		ProfileImage: u.ProfileImage,
		DisplayName:  u.FullName(),
	}
}
