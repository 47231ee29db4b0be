package notifications

import (
	"context"
	"errors"
	"testing"

	"campusnet/realtime"
	"campusnet/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memNotificationStore struct {
	rows []models.Notification
	fail bool
}

func (s *memNotificationStore) CreateNotification(_ context.Context, notification *models.Notification) error {
	if s.fail {
		return errors.New("write failed")
	}
	s.rows = append(s.rows, *notification)
	return nil
}

type memUserDirectory struct {
	users map[string]*models.User
}

func (d *memUserDirectory) GetUser(_ context.Context, id string) (*models.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return user, nil
}

type fakeChannel struct {
	id     string
	pushes []any
	events []string
	fail   bool
}

func (c *fakeChannel) ID() string { return c.id }

func (c *fakeChannel) Push(event string, payload any) error {
	if c.fail {
		return errors.New("channel gone stale")
	}
	c.events = append(c.events, event)
	c.pushes = append(c.pushes, payload)
	return nil
}

type fakePresence struct {
	channels map[string]realtime.Channel
}

func (p *fakePresence) Lookup(userID string) (realtime.Channel, bool) {
	ch, ok := p.channels[userID]
	return ch, ok
}

func newTestSink(fail bool, channels map[string]realtime.Channel) (*Sink, *memNotificationStore) {
	store := &memNotificationStore{fail: fail}
	users := &memUserDirectory{users: map[string]*models.User{
		"alice": {ID: primitive.NewObjectID(), Username: "alice"},
	}}
	return NewSink(store, users, &fakePresence{channels: channels}), store
}

func TestNotifyPersistsWithoutPresence(t *testing.T) {
	sink, store := newTestSink(false, nil)

	err := sink.Notify(context.Background(), FollowEvent("bob", "alice"))
	require.NoError(t, err)

	// durable row exists even though bob is offline
	require.Len(t, store.rows, 1)
	assert.Equal(t, models.NotificationFollow, store.rows[0].Type)
	assert.Equal(t, "bob", store.rows[0].User)
	assert.Equal(t, "alice", store.rows[0].FromUser)
	assert.False(t, store.rows[0].CreatedAt.IsZero())
}

func TestNotifyPushesToRegisteredChannel(t *testing.T) {
	channel := &fakeChannel{id: "ch-1"}
	sink, store := newTestSink(false, map[string]realtime.Channel{"bob": channel})

	err := sink.Notify(context.Background(), FollowEvent("bob", "alice"))
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	require.Len(t, channel.pushes, 1)
	assert.Equal(t, []string{PushEventName}, channel.events)

	payload, ok := channel.pushes[0].(PushPayload)
	require.True(t, ok)
	assert.Equal(t, models.NotificationFollow, payload.Type)
	assert.Equal(t, "alice", payload.UserID)
	require.NotNil(t, payload.UserDetails)
	assert.Equal(t, "alice", payload.UserDetails.Username)
}

func TestNotifyFailClosedOnPersistenceError(t *testing.T) {
	channel := &fakeChannel{id: "ch-1"}
	sink, _ := newTestSink(true, map[string]realtime.Channel{"bob": channel})

	err := sink.Notify(context.Background(), FollowEvent("bob", "alice"))
	assert.ErrorIs(t, err, ErrPersistence)

	// no push is attempted after a failed write
	assert.Empty(t, channel.pushes)
}

func TestNotifySwallowsPushFailure(t *testing.T) {
	channel := &fakeChannel{id: "ch-1", fail: true}
	sink, store := newTestSink(false, map[string]realtime.Channel{"bob": channel})

	err := sink.Notify(context.Background(), FollowEvent("bob", "alice"))
	require.NoError(t, err)

	// the durable record survives the stale channel
	assert.Len(t, store.rows, 1)
}

func TestNotifyIncludesPostReference(t *testing.T) {
	channel := &fakeChannel{id: "ch-1"}
	sink, store := newTestSink(false, map[string]realtime.Channel{"bob": channel})

	err := sink.Notify(context.Background(), LikeEvent("bob", "alice", "post-1"))
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	assert.Equal(t, "post-1", store.rows[0].Post)

	payload := channel.pushes[0].(PushPayload)
	assert.Equal(t, "post-1", payload.PostID)
}

func TestNotifyRejectsInvalidEvents(t *testing.T) {
	sink, store := newTestSink(false, nil)

	tests := []struct {
		name  string
		event Event
	}{
		{"unknown kind", Event{Kind: "poke", Recipient: "bob", Actor: "alice"}},
		{"missing recipient", Event{Kind: models.NotificationFollow, Actor: "alice"}},
		{"self notification", Event{Kind: models.NotificationFollow, Recipient: "alice", Actor: "alice"}},
		{"follow with post", Event{Kind: models.NotificationFollow, Recipient: "bob", Actor: "alice", Post: "post-1"}},
		{"like without post", Event{Kind: models.NotificationLike, Recipient: "bob", Actor: "alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sink.Notify(context.Background(), tt.event)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, store.rows)
}
