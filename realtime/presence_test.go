package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChannel struct {
	id string
}

func (c *stubChannel) ID() string { return c.id }

func (c *stubChannel) Push(string, any) error { return nil }

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Lookup("alice")
	assert.False(t, ok)

	channel := &stubChannel{id: "ch-1"}
	registry.Register("alice", channel)

	found, ok := registry.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "ch-1", found.ID())
}

func TestRegisterLastWins(t *testing.T) {
	registry := NewRegistry()

	first := &stubChannel{id: "ch-1"}
	second := &stubChannel{id: "ch-2"}
	registry.Register("alice", first)
	registry.Register("alice", second)

	found, ok := registry.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "ch-2", found.ID())
}

func TestUnregisterByChannel(t *testing.T) {
	registry := NewRegistry()

	channel := &stubChannel{id: "ch-1"}
	registry.Register("alice", channel)

	// unregister knows only the channel, not the user
	registry.Unregister(&stubChannel{id: "ch-1"})

	_, ok := registry.Lookup("alice")
	assert.False(t, ok)
}

func TestUnregisterStaleChannelKeepsNewerRegistration(t *testing.T) {
	registry := NewRegistry()

	stale := &stubChannel{id: "ch-1"}
	fresh := &stubChannel{id: "ch-2"}
	registry.Register("alice", stale)
	registry.Register("alice", fresh)

	// the stale connection disconnecting must not evict the fresh one
	registry.Unregister(stale)

	found, ok := registry.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "ch-2", found.ID())
}

func TestOnline(t *testing.T) {
	registry := NewRegistry()
	registry.Register("alice", &stubChannel{id: "ch-1"})
	registry.Register("bob", &stubChannel{id: "ch-2"})

	assert.ElementsMatch(t, []string{"alice", "bob"}, registry.Online())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i%10)
			channel := &stubChannel{id: fmt.Sprintf("ch-%d", i)}
			registry.Register(userID, channel)
			registry.Lookup(userID)
			registry.Unregister(channel)
		}(i)
	}
	wg.Wait()
}
