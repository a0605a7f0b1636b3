package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeBackbone records subscribe/unsubscribe/publish calls.
type fakeBackbone struct {
	mu           sync.Mutex
	subscribed   []string
	unsubscribed []string
	published    map[string][][]byte
}

func newFakeBackbone() *fakeBackbone {
	return &fakeBackbone{published: make(map[string][][]byte)}
}

func (b *fakeBackbone) Subscribe(group string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribed = append(b.subscribed, group)
	return nil
}

func (b *fakeBackbone) Unsubscribe(group string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribed = append(b.unsubscribed, group)
	return nil
}

func (b *fakeBackbone) Publish(_ context.Context, group string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[group] = append(b.published[group], payload)
	return nil
}

func (b *fakeBackbone) Run(func(group string, payload []byte)) {}
func (b *fakeBackbone) Close() error                           { return nil }

func newTestClient(hub *Hub, userId uint) *Client {
	return newClient(hub, nil, userId, nil, nil)
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, data)
		default:
			return out
		}
	}
}

func TestHubRegisterRefCount(t *testing.T) {
	hub := NewHub(nil, nopLogger{})

	c1 := newTestClient(hub, 7)
	c2 := newTestClient(hub, 7)

	assert.True(t, hub.Register(c1), "first connection of a user")
	assert.False(t, hub.Register(c2), "second connection of the same user")

	assert.False(t, hub.Unregister(c1), "one connection remains")
	assert.True(t, hub.Unregister(c2), "last connection gone")
}

func TestHubUnregisterUnknownClient(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	c := newTestClient(hub, 7)

	assert.False(t, hub.Unregister(c))
}

func TestHubJoinIsIdempotent(t *testing.T) {
	backbone := newFakeBackbone()
	hub := NewHub(backbone, nopLogger{})

	c := newTestClient(hub, 7)
	hub.Register(c)

	hub.Join("chat_user_7", c)
	hub.Join("chat_user_7", c)
	hub.Join("chat_user_7", c)

	assert.Equal(t, []string{"chat_user_7"}, backbone.subscribed,
		"only the first local member subscribes the backbone")

	err := hub.Publish(context.Background(), "chat_user_7", map[string]string{"k": "v"})
	assert.NoError(t, err)
	assert.Len(t, drain(c), 1, "repeated joins must not duplicate delivery")
}

func TestHubLeaveIsIdempotent(t *testing.T) {
	backbone := newFakeBackbone()
	hub := NewHub(backbone, nopLogger{})

	c := newTestClient(hub, 7)
	hub.Register(c)
	hub.Join("chat_presence", c)

	hub.Leave("chat_presence", c)
	hub.Leave("chat_presence", c)

	assert.Equal(t, []string{"chat_presence"}, backbone.unsubscribed)

	err := hub.Publish(context.Background(), "chat_presence", map[string]string{"k": "v"})
	assert.NoError(t, err)
	assert.Empty(t, drain(c))
}

func TestHubPublishReachesGroupMembersOnly(t *testing.T) {
	hub := NewHub(nil, nopLogger{})

	member := newTestClient(hub, 1)
	bystander := newTestClient(hub, 2)
	hub.Register(member)
	hub.Register(bystander)
	hub.Join("chat_user_1", member)
	hub.Join("chat_user_2", bystander)

	payload := map[string]interface{}{"status": "received", "message": "hi"}
	err := hub.Publish(context.Background(), "chat_user_1", payload)
	assert.NoError(t, err)

	got := drain(member)
	assert.Len(t, got, 1)
	assert.Empty(t, drain(bystander))

	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(got[0], &decoded))
	assert.Equal(t, "received", decoded["status"])
}

func TestHubPublishForwardsToBackbone(t *testing.T) {
	backbone := newFakeBackbone()
	hub := NewHub(backbone, nopLogger{})

	c := newTestClient(hub, 7)
	hub.Register(c)
	hub.Join("chat_user_7", c)

	err := hub.Publish(context.Background(), "chat_user_7", map[string]string{"k": "v"})
	assert.NoError(t, err)

	assert.Len(t, backbone.published["chat_user_7"], 1)
	assert.Len(t, drain(c), 1, "local members are served directly too")
}

func TestHubPublishToEmptyGroupStillHitsBackbone(t *testing.T) {
	backbone := newFakeBackbone()
	hub := NewHub(backbone, nopLogger{})

	err := hub.Publish(context.Background(), "chat_user_99", map[string]string{"k": "v"})
	assert.NoError(t, err)
	assert.Len(t, backbone.published["chat_user_99"], 1,
		"remote instances may hold the members")
}

func TestHubUnregisterCleansUpGroups(t *testing.T) {
	backbone := newFakeBackbone()
	hub := NewHub(backbone, nopLogger{})

	c := newTestClient(hub, 7)
	hub.Register(c)
	hub.Join("chat_user_7", c)
	hub.Join("chat_presence", c)

	hub.Unregister(c)

	assert.ElementsMatch(t, []string{"chat_user_7", "chat_presence"}, backbone.unsubscribed)

	// The send channel is closed by unregister.
	_, open := <-c.send
	assert.False(t, open)

	// Publishing afterwards must not panic on the closed channel.
	err := hub.Publish(context.Background(), "chat_user_7", map[string]string{"k": "v"})
	assert.NoError(t, err)
}

func TestHubSlowConsumerDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(nil, nopLogger{})

	c := newTestClient(hub, 7)
	hub.Register(c)
	hub.Join("chat_user_7", c)

	// Fill the buffer past capacity; extra events are dropped, not blocked on.
	for i := 0; i < sendBufferSize+10; i++ {
		err := hub.Publish(context.Background(), "chat_user_7", map[string]int{"i": i})
		assert.NoError(t, err)
	}

	assert.Len(t, drain(c), sendBufferSize)
}
