package implementation

import (
	"context"
	"errors"
	"time"

	"learnera-be/internal/entity"
	"learnera-be/internal/mapper"
	"learnera-be/internal/model"
	"learnera-be/internal/pkg/apperrors"
	"learnera-be/internal/repository/contract"
	"learnera-be/internal/repository/specification"

	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindTransient, "failed to load user", err)
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) SetOnline(ctx context.Context, id uint, online bool) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_online", online).Error
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "failed to update online flag", err)
	}
	return nil
}

// ListContacts mirrors the contact list surface: teachers see students and
// parents, students and parents see teachers, annotated with the latest
// message in either direction and ordered most-recent-conversation first.
func (r *UserRepositoryImpl) ListContacts(ctx context.Context, viewer *entity.User) ([]*entity.Contact, error) {
	var rows []struct {
		model.User
		LastMessage          *string    `gorm:"column:last_message"`
		LastMessageTimestamp *time.Time `gorm:"column:last_message_timestamp"`
	}

	roleFilter := "(is_teacher = TRUE)"
	if viewer.IsTeacher {
		roleFilter = "(is_student = TRUE OR is_parent = TRUE)"
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT u.*, lm.message AS last_message, lm.timestamp AS last_message_timestamp
		FROM users u
		LEFT JOIN LATERAL (
			SELECT m.message, m.timestamp
			FROM user_chat_messages m
			WHERE (m.sender_id = u.id AND m.receiver_id = ?)
			   OR (m.sender_id = ? AND m.receiver_id = u.id)
			ORDER BY m.timestamp DESC
			LIMIT 1
		) lm ON TRUE
		WHERE `+roleFilter+` AND u.id <> ?
		ORDER BY lm.timestamp DESC NULLS LAST, u.first_name ASC
	`, viewer.Id, viewer.Id, viewer.Id).Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransient, "failed to list contacts", err)
	}

	contacts := make([]*entity.Contact, 0, len(rows))
	for i := range rows {
		contacts = append(contacts, &entity.Contact{
			User:                 *r.mapper.ToEntity(&rows[i].User),
			LastMessage:          rows[i].LastMessage,
			LastMessageTimestamp: rows[i].LastMessageTimestamp,
		})
	}
	return contacts, nil
}
