package room

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetOrCreateConcurrent(t *testing.T) {
	const callers = 64

	store := NewStore(StoreOptions{})

	var wg sync.WaitGroup
	rooms := make(chan *Room, callers)
	created := make(chan bool, callers)
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rm, wasCreated := store.GetOrCreate("shared")
			rooms <- rm
			created <- wasCreated
		}()
	}

	close(start)
	wg.Wait()
	close(rooms)
	close(created)

	first := <-rooms
	require.NotNil(t, first)
	for rm := range rooms {
		assert.Same(t, first, rm, "all callers must observe the same Room instance")
	}

	creations := 0
	for wasCreated := range created {
		if wasCreated {
			creations++
		}
	}
	assert.Equal(t, 1, creations, "exactly one caller wins the creation")
}

func TestStore_CreateUniqueIDs(t *testing.T) {
	store := NewStore(StoreOptions{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rm := store.Create("", "")
		assert.False(t, seen[rm.ID()])
		seen[rm.ID()] = true
	}
}

func TestStore_SweepEmptyRoomsAfterGrace(t *testing.T) {
	var removed []string
	store := NewStore(StoreOptions{
		GracePeriod: time.Minute,
		OnRemove:    func(roomID string) { removed = append(removed, roomID) },
	})

	abandoned, _ := store.GetOrCreate("abandoned")
	_, _, err := abandoned.Join("alice", "Alice")
	require.NoError(t, err)
	abandoned.Leave("alice")

	occupied, _ := store.GetOrCreate("occupied")
	_, _, err = occupied.Join("bob", "Bob")
	require.NoError(t, err)

	// inside the grace window nothing is touched
	store.sweep(time.Now())
	_, err = store.Get("abandoned")
	assert.NoError(t, err)

	store.sweep(time.Now().Add(2 * time.Minute))

	_, err = store.Get("abandoned")
	assert.ErrorIs(t, err, ErrRoomNotFound, "empty room past the grace window is reclaimed")
	_, err = store.Get("occupied")
	assert.NoError(t, err, "occupied room survives")
	assert.Equal(t, []string{"abandoned"}, removed)
}

func TestStore_SweepEndedRoomImmediately(t *testing.T) {
	store := NewStore(StoreOptions{GracePeriod: time.Hour})

	rm, _ := store.GetOrCreate("r1")
	_, _, err := rm.Join("alice", "Alice")
	require.NoError(t, err)
	_, err = rm.StartGame("alice")
	require.NoError(t, err)
	_, err = rm.EndGame("alice")
	require.NoError(t, err)
	rm.Leave("alice")

	store.sweep(time.Now())

	_, err = store.Get("r1")
	assert.ErrorIs(t, err, ErrRoomNotFound, "ended and empty room goes at the next sweep")
}

func TestStore_SweepSkipsReoccupiedRoom(t *testing.T) {
	store := NewStore(StoreOptions{GracePeriod: time.Minute})

	rm, created := store.GetOrCreate("r1")
	require.True(t, created)

	// The sweeper's scan saw the room empty past the grace window, but a
	// join lands before the removal step runs.
	_, _, err := rm.Join("alice", "Alice")
	require.NoError(t, err)

	removed := store.removeIfExpired("r1", time.Now().Add(2*time.Minute))
	assert.False(t, removed, "a reoccupied room must not be reclaimed")

	again, created := store.GetOrCreate("r1")
	assert.False(t, created)
	assert.Same(t, rm, again, "one live Room per id")
	assert.Contains(t, again.PlayerList(), "alice")
}

func TestStore_BuzzerResetHookWired(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	store := NewStore(StoreOptions{
		ResetPolicy: ResetToActive,
		OnBuzzerReset: func(roomID string, st State) {
			mu.Lock()
			events = append(events, roomID+":"+string(st.BuzzerState))
			mu.Unlock()
		},
	})

	rm, _ := store.GetOrCreate("r1")
	_, _, err := rm.Join("alice", "Alice")
	require.NoError(t, err)
	_, err = rm.StartGame("alice")
	require.NoError(t, err)
	_, _, err = rm.Buzz("alice")
	require.NoError(t, err)

	rm.mu.Lock()
	seq := rm.buzzSeq
	rm.mu.Unlock()
	rm.autoReset(seq)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"r1:active"}, events)
}
