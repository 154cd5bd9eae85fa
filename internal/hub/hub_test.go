package hub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(sub *Subscription) []string {
	var out []string
	for {
		select {
		case data, ok := <-sub.Receive():
			if !ok {
				return out
			}
			out = append(out, string(data))
		default:
			return out
		}
	}
}

func TestHub_SubscribeValidation(t *testing.T) {
	h := New()

	_, err := h.Subscribe("r1", "")
	assert.ErrorIs(t, err, ErrInvalidParticipant)

	sub, err := h.Subscribe("r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "r1", sub.RoomID)
	assert.Equal(t, "alice", sub.ClientID)
	assert.True(t, h.Subscribed("r1", "alice"))
}

func TestHub_BroadcastOrderPerSubscriber(t *testing.T) {
	h := New()
	alice, err := h.Subscribe("r1", "alice")
	require.NoError(t, err)
	bob, err := h.Subscribe("r1", "bob")
	require.NoError(t, err)
	other, err := h.Subscribe("r2", "carol")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		h.Broadcast("r1", []byte(fmt.Sprintf("msg %d", i)))
	}

	want := []string{"msg 0", "msg 1", "msg 2", "msg 3", "msg 4"}
	assert.Equal(t, want, drain(alice))
	assert.Equal(t, want, drain(bob))
	assert.Empty(t, drain(other), "no cross-room delivery")
}

func TestHub_BroadcastExcept(t *testing.T) {
	h := New()
	alice, err := h.Subscribe("r1", "alice")
	require.NoError(t, err)
	bob, err := h.Subscribe("r1", "bob")
	require.NoError(t, err)

	h.BroadcastExcept("r1", "alice", []byte("for others"))

	assert.Empty(t, drain(alice))
	assert.Equal(t, []string{"for others"}, drain(bob))
}

func TestHub_SendTo(t *testing.T) {
	h := New()
	alice, err := h.Subscribe("r1", "alice")
	require.NoError(t, err)
	bob, err := h.Subscribe("r1", "bob")
	require.NoError(t, err)

	h.SendTo("r1", "alice", []byte("private"))
	h.SendTo("r1", "ghost", []byte("dropped"))

	assert.Equal(t, []string{"private"}, drain(alice))
	assert.Empty(t, drain(bob))
}

func TestHub_SupersedeClosesPrior(t *testing.T) {
	h := New()
	old, err := h.Subscribe("r1", "alice")
	require.NoError(t, err)
	replacement, err := h.Subscribe("r1", "alice")
	require.NoError(t, err)

	_, ok := <-old.Receive()
	assert.False(t, ok, "superseded subscription channel must be closed")

	h.Broadcast("r1", []byte("hello"))
	assert.Equal(t, []string{"hello"}, drain(replacement))

	// tearing down the stale handle must not evict the replacement
	h.Unsubscribe(old)
	assert.True(t, h.Subscribed("r1", "alice"))
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	h := New()
	slow, err := h.Subscribe("r1", "slow")
	require.NoError(t, err)
	healthy, err := h.Subscribe("r1", "healthy")
	require.NoError(t, err)

	// fill the slow subscriber's queue, then overflow it
	for i := 0; i < sendBuffer+1; i++ {
		h.Broadcast("r1", []byte("x"))
		drain(healthy)
	}

	assert.False(t, h.Subscribed("r1", "slow"), "overflowing subscriber is dropped")
	assert.True(t, h.Subscribed("r1", "healthy"), "others are unaffected")

	received := drain(slow)
	assert.Len(t, received, sendBuffer)
}

func TestHub_UnsubscribeCleansEmptyRoom(t *testing.T) {
	h := New()
	sub, err := h.Subscribe("r1", "alice")
	require.NoError(t, err)

	rooms, clients := h.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, clients)

	h.Unsubscribe(sub)
	assert.Equal(t, 0, h.Count("r1"))

	rooms, clients = h.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, clients)

	// double unsubscribe is a no-op
	h.Unsubscribe(sub)
}
