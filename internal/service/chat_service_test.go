package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnera-be/internal/dto"
	"learnera-be/internal/entity"
	"learnera-be/internal/pkg/apperrors"
	"learnera-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeDirectory struct {
	users      map[uint]*entity.User
	setOnline  map[uint]bool
	setOnlErr  error
	getUserErr error
}

func newFakeDirectory(users ...*entity.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[uint]*entity.User), setOnline: make(map[uint]bool)}
	for _, u := range users {
		d.users[u.Id] = u
	}
	return d
}

func (d *fakeDirectory) GetUser(_ context.Context, id uint) (*entity.User, error) {
	if d.getUserErr != nil {
		return nil, d.getUserErr
	}
	return d.users[id], nil
}

func (d *fakeDirectory) SetOnline(_ context.Context, id uint, online bool) error {
	if d.setOnlErr != nil {
		return d.setOnlErr
	}
	d.setOnline[id] = online
	return nil
}

type fakeMessageRepo struct {
	created   []*entity.ChatMessage
	createErr error
	messages  []*entity.ChatMessage
	received  [][2]uint
	read      [][2]uint
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *entity.ChatMessage) error {
	if r.createErr != nil {
		return r.createErr
	}
	msg.Id = uint(len(r.created) + 1)
	msg.Timestamp = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r.created = append(r.created, msg)
	return nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.ChatMessage, error) {
	return r.messages, nil
}

func (r *fakeMessageRepo) MarkReceived(_ context.Context, senderId, receiverId uint) error {
	r.received = append(r.received, [2]uint{senderId, receiverId})
	return nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, senderId, receiverId uint) error {
	r.read = append(r.read, [2]uint{senderId, receiverId})
	return nil
}

type fakeUserRepo struct {
	contacts []*entity.Contact
}

func (r *fakeUserRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) SetOnline(_ context.Context, _ uint, _ bool) error { return nil }

func (r *fakeUserRepo) ListContacts(_ context.Context, _ *entity.User) ([]*entity.Contact, error) {
	return r.contacts, nil
}

type publishedEvent struct {
	group   string
	payload interface{}
}

type fakeGroupPublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakeGroupPublisher) Publish(_ context.Context, group string, payload interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{group: group, payload: payload})
	return nil
}

type fakePublisherService struct {
	events []dto.MessagePersistedEvent
	err    error
}

func (p *fakePublisherService) PublishMessagePersisted(payload dto.MessagePersistedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, payload)
	return nil
}

func teacherUser(id uint) *entity.User {
	return &entity.User{Id: id, Username: "teach", FirstName: "Tina", LastName: "Teacher", IsTeacher: true}
}

func studentUser(id uint) *entity.User {
	return &entity.User{Id: id, Username: "stud", FirstName: "Sam", LastName: "Student", IsStudent: true}
}

func TestRoutePersistsAndFansOut(t *testing.T) {
	sender := teacherUser(1)
	directory := newFakeDirectory(sender, studentUser(2))
	repo := &fakeMessageRepo{}
	groups := &fakeGroupPublisher{}
	pipeline := &fakePublisherService{}

	svc := NewChatService(directory, repo, &fakeUserRepo{}, groups, pipeline, nopLogger{})

	err := svc.Route(context.Background(), 1, &dto.ChatSendRequest{ReceiverId: 2, Message: "hello"})
	assert.NoError(t, err)

	assert.Len(t, repo.created, 1)
	assert.Equal(t, uint(1), repo.created[0].SenderId)
	assert.Equal(t, uint(2), repo.created[0].ReceiverId)

	assert.Len(t, groups.published, 2)

	delivery := groups.published[0]
	assert.Equal(t, PersonalGroup(2), delivery.group)
	deliveryPayload := delivery.payload.(dto.ChatEventPayload)
	assert.Equal(t, dto.StatusReceived, deliveryPayload.Status)
	assert.Equal(t, uint(1), deliveryPayload.SenderId)
	assert.Equal(t, "Tina Teacher", deliveryPayload.SenderName)
	assert.Zero(t, deliveryPayload.ReceiverId, "delivery copy omits the receiver id")

	echo := groups.published[1]
	assert.Equal(t, PersonalGroup(1), echo.group)
	echoPayload := echo.payload.(dto.ChatEventPayload)
	assert.Equal(t, dto.StatusSent, echoPayload.Status)
	assert.Equal(t, uint(2), echoPayload.ReceiverId)

	assert.Equal(t, deliveryPayload.MessageId, echoPayload.MessageId,
		"both copies reference the same stored row")
	assert.Equal(t, deliveryPayload.Timestamp, echoPayload.Timestamp)

	assert.Len(t, pipeline.events, 1)
	assert.Equal(t, deliveryPayload.MessageId, pipeline.events[0].MessageId)
}

func TestRouteRejectsIncompleteRequest(t *testing.T) {
	directory := newFakeDirectory(teacherUser(1))
	repo := &fakeMessageRepo{}
	groups := &fakeGroupPublisher{}

	svc := NewChatService(directory, repo, &fakeUserRepo{}, groups, nil, nopLogger{})

	for _, req := range []*dto.ChatSendRequest{
		{ReceiverId: 0, Message: "hello"},
		{ReceiverId: 2, Message: ""},
	} {
		err := svc.Route(context.Background(), 1, req)
		assert.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Equal(t, "Missing required fields", apperrors.UserMessage(err))
	}

	assert.Empty(t, repo.created, "nothing persisted")
	assert.Empty(t, groups.published, "nothing fanned out")
}

func TestRoutePropagatesRoleRejection(t *testing.T) {
	directory := newFakeDirectory(teacherUser(1))
	repo := &fakeMessageRepo{
		createErr: apperrors.New(apperrors.KindValidation, "If sender is teacher, receiver must be student or parent"),
	}
	groups := &fakeGroupPublisher{}

	svc := NewChatService(directory, repo, &fakeUserRepo{}, groups, nil, nopLogger{})

	err := svc.Route(context.Background(), 1, &dto.ChatSendRequest{ReceiverId: 2, Message: "hello"})
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Empty(t, groups.published, "rejected messages are never fanned out")
}

func TestRouteFanOutFailureIsNotSurfaced(t *testing.T) {
	directory := newFakeDirectory(teacherUser(1), studentUser(2))
	repo := &fakeMessageRepo{}
	groups := &fakeGroupPublisher{err: errors.New("backbone down")}

	svc := NewChatService(directory, repo, &fakeUserRepo{}, groups, nil, nopLogger{})

	err := svc.Route(context.Background(), 1, &dto.ChatSendRequest{ReceiverId: 2, Message: "hello"})
	assert.NoError(t, err, "the row is durable, notification loss is tolerated")
	assert.Len(t, repo.created, 1)
}

func TestCurrentUserNotFound(t *testing.T) {
	svc := NewChatService(newFakeDirectory(), &fakeMessageRepo{}, &fakeUserRepo{}, &fakeGroupPublisher{}, nil, nopLogger{})

	_, err := svc.CurrentUser(context.Background(), 99)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindUserNotFound, apperrors.KindOf(err))
}

func TestGetConversationDisallowedPairingIsEmpty(t *testing.T) {
	// Two students may not chat with each other.
	directory := newFakeDirectory(studentUser(1), studentUser(2))
	repo := &fakeMessageRepo{
		messages: []*entity.ChatMessage{{Id: 1, SenderId: 1, ReceiverId: 2, Message: "x"}},
	}

	svc := NewChatService(directory, repo, &fakeUserRepo{}, &fakeGroupPublisher{}, nil, nopLogger{})

	res, err := svc.GetConversation(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Empty(t, res)
}

func TestGetConversationReturnsHistory(t *testing.T) {
	directory := newFakeDirectory(teacherUser(1), studentUser(2))
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeMessageRepo{
		messages: []*entity.ChatMessage{
			{Id: 1, SenderId: 1, ReceiverId: 2, Message: "hi", Timestamp: ts, IsReceived: true},
			{Id: 2, SenderId: 2, ReceiverId: 1, Message: "hello", Timestamp: ts.Add(time.Minute)},
		},
	}

	svc := NewChatService(directory, repo, &fakeUserRepo{}, &fakeGroupPublisher{}, nil, nopLogger{})

	res, err := svc.GetConversation(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Len(t, res, 2)
	assert.Equal(t, "2026-03-10T12:00:00Z", res[0].Timestamp)
	assert.True(t, res[0].IsReceived)
	assert.False(t, res[1].IsRead)
}

func TestMarkConversationFlagsUseSenderReceiverOrder(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := NewChatService(newFakeDirectory(), repo, &fakeUserRepo{}, &fakeGroupPublisher{}, nil, nopLogger{})

	assert.NoError(t, svc.MarkConversationReceived(context.Background(), 5, 9))
	assert.NoError(t, svc.MarkConversationRead(context.Background(), 5, 9))

	// Viewer 5 flips flags on messages sent BY 9 TO 5.
	assert.Equal(t, [][2]uint{{9, 5}}, repo.received)
	assert.Equal(t, [][2]uint{{9, 5}}, repo.read)
}
