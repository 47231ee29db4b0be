package realtime

import "sync"

// Channel is a handle to one live client connection.
type Channel interface {
	ID() string
	Push(event string, payload any) error
}

// Registry maps a user id to at most one live channel. Entries live for the
// lifetime of the process; after a restart every user is offline until they
// reconnect and re-register.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]Channel),
	}
}

// Register binds userID to ch. A second registration for the same user
// replaces the previous one (last-registered wins).
func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[userID] = ch
}

// Unregister removes whichever mapping currently holds ch. Disconnects often
// arrive without a user id, so the lookup scans values rather than keys. A
// channel that was already replaced by a newer registration is left alone.
func (r *Registry) Unregister(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, registered := range r.channels {
		if registered.ID() == ch.ID() {
			delete(r.channels, userID)
			return
		}
	}
}

// Lookup returns the live channel for userID, if any.
func (r *Registry) Lookup(userID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[userID]
	return ch, ok
}

// Online returns the ids of all currently connected users.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.channels))
	for userID := range r.channels {
		users = append(users, userID)
	}
	return users
}
