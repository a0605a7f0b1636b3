package implementation

import (
	"context"
	"errors"

	"learnera-be/internal/entity"
	"learnera-be/internal/mapper"
	"learnera-be/internal/model"
	"learnera-be/internal/pkg/apperrors"
	"learnera-be/internal/repository/contract"
	"learnera-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatMessageRepositoryImpl struct {
	db         *gorm.DB
	mapper     *mapper.ChatMapper
	userMapper *mapper.UserMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:         db,
		mapper:     mapper.NewChatMapper(),
		userMapper: mapper.NewUserMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatMessageRepositoryImpl) loadUser(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindTransient, "failed to load user", err)
	}
	return &u, nil
}

// Create enforces the role-compatibility rules before persisting:
// teacher -> student/parent, parent -> teacher, student -> teacher.
func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, msg *entity.ChatMessage) error {
	senderModel, err := r.loadUser(ctx, msg.SenderId)
	if err != nil {
		return err
	}
	if senderModel == nil {
		return apperrors.New(apperrors.KindValidation, "sender does not exist")
	}
	receiverModel, err := r.loadUser(ctx, msg.ReceiverId)
	if err != nil {
		return err
	}
	if receiverModel == nil {
		return apperrors.New(apperrors.KindValidation, "receiver does not exist")
	}

	sender := r.userMapper.ToEntity(senderModel)
	receiver := r.userMapper.ToEntity(receiverModel)
	if !sender.CanMessage(receiver) {
		return apperrors.New(apperrors.KindValidation, roleViolationMessage(sender))
	}

	m := r.mapper.ToModel(msg)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "failed to persist message", err)
	}

	// Read back the assigned id and timestamp.
	*msg = *r.mapper.ToEntity(m)
	return nil
}

func roleViolationMessage(sender *entity.User) string {
	switch {
	case sender.IsTeacher:
		return "If sender is teacher, receiver must be student or parent"
	case sender.IsParent:
		return "If sender is parent, receiver must be teacher"
	case sender.IsStudent:
		return "If sender is student, receiver must be teacher"
	default:
		return "sender role does not permit messaging"
	}
}

func (r *ChatMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var models []*model.UserChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransient, "failed to list messages", err)
	}

	return r.mapper.ToEntities(models), nil
}

func (r *ChatMessageRepositoryImpl) MarkReceived(ctx context.Context, senderId, receiverId uint) error {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.UserChatMessage{}),
		specification.FromSenderTo{SenderId: senderId, ReceiverId: receiverId},
		specification.Unreceived{},
	)
	if err := query.Update("is_received", true).Error; err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "failed to mark messages received", err)
	}
	return nil
}

func (r *ChatMessageRepositoryImpl) MarkRead(ctx context.Context, senderId, receiverId uint) error {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.UserChatMessage{}),
		specification.FromSenderTo{SenderId: senderId, ReceiverId: receiverId},
		specification.Unread{},
	)
	if err := query.Update("is_read", true).Error; err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "failed to mark messages read", err)
	}
	return nil
}
