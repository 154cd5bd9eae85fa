package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoreOptions tunes room lifecycle behavior.
type StoreOptions struct {
	// GracePeriod is how long an empty room survives before the sweeper
	// reclaims it, so a brief reconnect gap does not destroy the room.
	GracePeriod   time.Duration
	SweepInterval time.Duration
	ResetPolicy   ResetPolicy

	// OnBuzzerReset fires after a timer-driven buzzer reset so the caller
	// can push the fresh snapshot to subscribers.
	OnBuzzerReset func(roomID string, st State)
	// OnRemove fires when the sweeper or an explicit Remove destroys a room.
	OnRemove func(roomID string)
}

// Store owns the id -> Room table. There is at most one live Room per id:
// two rooms for the same id would split the authoritative state.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	opts  StoreOptions
}

func NewStore(opts StoreOptions) *Store {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	if opts.ResetPolicy == "" {
		opts.ResetPolicy = ResetToActive
	}
	return &Store{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

// Create makes a room under a fresh short id (the join code).
func (s *Store) Create(name, passwordHash string) *Room {
	for {
		id := uuid.New().String()[:8]
		s.mu.Lock()
		if _, taken := s.rooms[id]; !taken {
			rm := s.newRoomLocked(id, name, passwordHash)
			s.mu.Unlock()
			return rm
		}
		s.mu.Unlock()
	}
}

// GetOrCreate resolves a room by id, creating it on first reference.
// Racing callers all observe the same instance; the first one wins.
func (s *Store) GetOrCreate(id string) (*Room, bool) {
	s.mu.RLock()
	rm, ok := s.rooms[id]
	s.mu.RUnlock()
	if ok {
		return rm, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rm, ok := s.rooms[id]; ok {
		return rm, false
	}
	return s.newRoomLocked(id, "", ""), true
}

func (s *Store) newRoomLocked(id, name, passwordHash string) *Room {
	rm := New(id, name, passwordHash, s.opts.ResetPolicy)
	if s.opts.OnBuzzerReset != nil {
		hook := s.opts.OnBuzzerReset
		rm.onAutoReset = func(st State) { hook(id, st) }
	}
	s.rooms[id] = rm
	return rm
}

// Get resolves an existing room.
func (s *Store) Get(id string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rm, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// Infos returns the public summary of every room.
func (s *Store) Infos() []Info {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, rm := range s.rooms {
		rooms = append(rooms, rm)
	}
	s.mu.RUnlock()

	infos := make([]Info, 0, len(rooms))
	for _, rm := range rooms {
		infos = append(infos, rm.Info())
	}
	return infos
}

// Run sweeps abandoned rooms until the context is cancelled. A room is
// reclaimed when it has been empty past the grace period, or as soon as it
// is both ended and empty.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mu.RLock()
	var candidates []string
	for id, rm := range s.rooms {
		if s.expiredLocked(rm, now) {
			candidates = append(candidates, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range candidates {
		if s.removeIfExpired(id, now) {
			slog.Info("swept abandoned room", "room", id)
		}
	}
}

// removeIfExpired deletes a room only if it is still expired once the write
// lock is held. A join landing between the sweep's scan and this call clears
// emptySince and keeps the room; deleting regardless would strand the joined
// player and let the next lookup mint a second Room for the same id.
func (s *Store) removeIfExpired(id string, now time.Time) bool {
	s.mu.Lock()
	rm, ok := s.rooms[id]
	if !ok || !s.expiredLocked(rm, now) {
		s.mu.Unlock()
		return false
	}
	delete(s.rooms, id)
	s.mu.Unlock()

	if s.opts.OnRemove != nil {
		s.opts.OnRemove(id)
	}
	return true
}

func (s *Store) expiredLocked(rm *Room, now time.Time) bool {
	emptySince := rm.EmptySince()
	if emptySince.IsZero() {
		return false
	}
	return rm.Ended() || now.Sub(emptySince) > s.opts.GracePeriod
}
