package graph

import "errors"

// These are surfaced to callers as distinct, user-displayable outcomes.
// Nothing here is retried internally.
var (
	// ErrInvalidOperation rejects a user acting on themselves.
	ErrInvalidOperation = errors.New("you cannot follow or unfollow yourself")

	// ErrDuplicateRequest rejects a follow while an earlier request is
	// still pending.
	ErrDuplicateRequest = errors.New("follow request already sent")

	// ErrNotFound covers missing users and missing requests, including a
	// request resolved by anyone other than its target.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState rejects resolving a request that is no longer
	// pending.
	ErrInvalidState = errors.New("request is no longer pending")
)
