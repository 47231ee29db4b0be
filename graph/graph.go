package graph

import (
	"context"

	"campusnet/notifications"
	"campusnet/storage/models"

	log "github.com/sirupsen/logrus"
)

// UserStore is the slice of the user directory the coordinator needs. Both
// directions of an edge mutation are expected to be applied as a unit by the
// implementation; the coordinator never issues them separately.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	AddFollowEdge(ctx context.Context, actorID, targetID string) error
	RemoveFollowEdge(ctx context.Context, actorID, targetID string) error
}

// RequestStore is the follow-request ledger. Requests are append-mostly:
// created pending, flipped to accepted or rejected exactly once, never
// deleted.
type RequestStore interface {
	CreateFollowRequest(ctx context.Context, from, to string) (*models.FollowRequest, error)
	GetFollowRequest(ctx context.Context, id string) (*models.FollowRequest, error)
	FindPendingRequest(ctx context.Context, from, to string) (*models.FollowRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus) error
	ListPendingRequests(ctx context.Context, to string) ([]models.FollowRequest, error)
}

type Notifier interface {
	Notify(ctx context.Context, event notifications.Event) error
}

// Config carries the coordinator's behavior switches.
type Config struct {
	// NotifyOnAccept controls whether accepting a follow request emits a
	// follow notification to the requester's target, making accept
	// symmetric with a direct public follow. Off by default.
	NotifyOnAccept bool
}

// Coordinator decides, per follow action, whether to mutate the graph
// directly or route through the follow-request ledger, and emits follow
// notifications on direct follows.
type Coordinator struct {
	users    UserStore
	requests RequestStore
	notifier Notifier
	config   Config
}

func NewCoordinator(users UserStore, requests RequestStore, notifier Notifier, config Config) *Coordinator {
	return &Coordinator{
		users:    users,
		requests: requests,
		notifier: notifier,
		config:   config,
	}
}

// ToggleResult reports what a ToggleFollow call actually did.
type ToggleResult struct {
	// Following is true when the call established the edge.
	Following bool `json:"following"`
	// IsFollowRequest is true when no edge was touched and a pending
	// request was created instead.
	IsFollowRequest bool `json:"isFollowRequest"`
}

// ToggleFollow follows targetID on behalf of actorID, or unfollows if the
// edge already exists. Following a private account queues a follow request
// instead of mutating the graph.
func (c *Coordinator) ToggleFollow(ctx context.Context, actorID, targetID string) (ToggleResult, error) {
	if actorID == targetID {
		return ToggleResult{}, ErrInvalidOperation
	}

	actor, err := c.users.GetUser(ctx, actorID)
	if err != nil {
		return ToggleResult{}, err
	}
	target, err := c.users.GetUser(ctx, targetID)
	if err != nil {
		return ToggleResult{}, err
	}

	if actor.IsFollowing(targetID) {
		if err := c.users.RemoveFollowEdge(ctx, actorID, targetID); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Following: false}, nil
	}

	if target.Privacy == models.Private {
		existing, err := c.requests.FindPendingRequest(ctx, actorID, targetID)
		if err != nil {
			return ToggleResult{}, err
		}
		if existing != nil {
			return ToggleResult{}, ErrDuplicateRequest
		}
		if _, err := c.requests.CreateFollowRequest(ctx, actorID, targetID); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{IsFollowRequest: true}, nil
	}

	if err := c.users.AddFollowEdge(ctx, actorID, targetID); err != nil {
		return ToggleResult{}, err
	}
	c.emitFollow(ctx, targetID, actorID)
	return ToggleResult{Following: true}, nil
}

// Accept resolves a pending request on behalf of its target and establishes
// the same symmetric edge as a direct public follow.
func (c *Coordinator) Accept(ctx context.Context, requestID, actingUserID string) error {
	request, err := c.resolvable(ctx, requestID, actingUserID)
	if err != nil {
		return err
	}

	if err := c.requests.UpdateRequestStatus(ctx, requestID, models.RequestAccepted); err != nil {
		return err
	}
	if err := c.users.AddFollowEdge(ctx, request.From, request.To); err != nil {
		return err
	}
	if c.config.NotifyOnAccept {
		c.emitFollow(ctx, request.To, request.From)
	}
	return nil
}

// Reject resolves a pending request on behalf of its target. The requester
// may submit a fresh request afterwards; rejection is not a block.
func (c *Coordinator) Reject(ctx context.Context, requestID, actingUserID string) error {
	if _, err := c.resolvable(ctx, requestID, actingUserID); err != nil {
		return err
	}
	return c.requests.UpdateRequestStatus(ctx, requestID, models.RequestRejected)
}

// ListPending returns the pending requests addressed to userID, newest
// first.
func (c *Coordinator) ListPending(ctx context.Context, userID string) ([]models.FollowRequest, error) {
	return c.requests.ListPendingRequests(ctx, userID)
}

// resolvable fetches a request and checks that actingUserID may resolve it.
// A request addressed to someone else is reported as missing rather than
// forbidden, so request ids do not leak.
func (c *Coordinator) resolvable(ctx context.Context, requestID, actingUserID string) (*models.FollowRequest, error) {
	request, err := c.requests.GetFollowRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil || request.To != actingUserID {
		return nil, ErrNotFound
	}
	if request.Status != models.RequestPending {
		return nil, ErrInvalidState
	}
	return request, nil
}

// emitFollow sends the follow notification. The edge is already durable at
// this point; a sink failure is logged and does not undo the follow.
func (c *Coordinator) emitFollow(ctx context.Context, recipientID, actorID string) {
	if err := c.notifier.Notify(ctx, notifications.FollowEvent(recipientID, actorID)); err != nil {
		log.Errorf("Failed to notify user %s of new follower: %v", recipientID, err)
	}
}
