package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusnet/monitoring"
	"campusnet/realtime"
	"campusnet/storage/models"

	log "github.com/sirupsen/logrus"
)

// ErrPersistence reports a store write failure. When it is returned no push
// has been attempted.
var ErrPersistence = errors.New("failed to persist notification")

// PushEventName is the event name clients subscribe to for notifications.
const PushEventName = "notification"

type Store interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
}

type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Presence interface {
	Lookup(userID string) (realtime.Channel, bool)
}

// UserDetails is the actor summary embedded in pushed payloads.
type UserDetails struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type PushPayload struct {
	Type        models.NotificationType `json:"type"`
	UserID      string                  `json:"userId"`
	UserDetails *UserDetails            `json:"userDetails,omitempty"`
	PostID      string                  `json:"postId,omitempty"`
	Message     string                  `json:"message"`
}

// Sink persists notifications and forwards them to the recipient's live
// connection when one exists. Persistence always comes first: a dropped
// realtime delivery must never lose the notification, and a failed write
// stops the whole call before any push is attempted.
type Sink struct {
	store    Store
	users    UserDirectory
	presence Presence
}

func NewSink(store Store, users UserDirectory, presence Presence) *Sink {
	return &Sink{
		store:    store,
		users:    users,
		presence: presence,
	}
}

func (s *Sink) Notify(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	notification := models.Notification{
		Type:      event.Kind,
		User:      event.Recipient,
		FromUser:  event.Actor,
		Post:      event.Post,
		Message:   event.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, &notification); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	monitoring.NotificationsPersisted.WithLabelValues(string(event.Kind)).Inc()

	channel, ok := s.presence.Lookup(event.Recipient)
	if !ok {
		monitoring.NotificationsDropped.WithLabelValues(string(event.Kind)).Inc()
		return nil
	}

	payload := PushPayload{
		Type:        event.Kind,
		UserID:      event.Actor,
		UserDetails: s.actorDetails(ctx, event.Actor),
		PostID:      event.Post,
		Message:     event.Message,
	}
	if err := channel.Push(PushEventName, payload); err != nil {
		// The durable record is the source of truth; a stale channel is
		// not the caller's problem.
		log.Warnf("Dropping realtime push to user %s: %v", event.Recipient, err)
		monitoring.NotificationsDropped.WithLabelValues(string(event.Kind)).Inc()
		return nil
	}
	monitoring.NotificationsPushed.WithLabelValues(string(event.Kind)).Inc()
	return nil
}

func (s *Sink) actorDetails(ctx context.Context, actorID string) *UserDetails {
	user, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		log.Warnf("Could not resolve actor %s for push payload: %v", actorID, err)
		return nil
	}
	return &UserDetails{
		ID:       user.ID.Hex(),
		Username: user.Username,
	}
}
