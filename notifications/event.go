package notifications

import (
	"fmt"

	"campusnet/storage/models"
)

// Event is the validated form of a realtime notification. Payloads are not
// assembled ad hoc at call sites; every producer goes through this type and
// the sink rejects anything outside the known kinds.
type Event struct {
	Kind      models.NotificationType
	Recipient string
	Actor     string
	Post      string
	Message   string
}

func FollowEvent(recipient, actor string) Event {
	return Event{
		Kind:      models.NotificationFollow,
		Recipient: recipient,
		Actor:     actor,
		Message:   "You have a new follower",
	}
}

func LikeEvent(recipient, actor, postID string) Event {
	return Event{
		Kind:      models.NotificationLike,
		Recipient: recipient,
		Actor:     actor,
		Post:      postID,
		Message:   "Your post was liked",
	}
}

func DislikeEvent(recipient, actor, postID string) Event {
	return Event{
		Kind:      models.NotificationDislike,
		Recipient: recipient,
		Actor:     actor,
		Post:      postID,
		Message:   "A like was removed from your post",
	}
}

func CommentEvent(recipient, actor, postID string) Event {
	return Event{
		Kind:      models.NotificationComment,
		Recipient: recipient,
		Actor:     actor,
		Post:      postID,
		Message:   "Someone commented on your post",
	}
}

func (e Event) Validate() error {
	switch e.Kind {
	case models.NotificationFollow:
		if e.Post != "" {
			return fmt.Errorf("follow event must not reference a post")
		}
	case models.NotificationLike, models.NotificationDislike, models.NotificationComment:
		if e.Post == "" {
			return fmt.Errorf("%s event requires a post reference", e.Kind)
		}
	default:
		return fmt.Errorf("unknown event kind: %q", e.Kind)
	}
	if e.Recipient == "" || e.Actor == "" {
		return fmt.Errorf("event requires recipient and actor")
	}
	if e.Recipient == e.Actor {
		return fmt.Errorf("event recipient equals actor")
	}
	return nil
}
