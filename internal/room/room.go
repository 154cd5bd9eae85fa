package room

import (
	"encoding/json"
	"sync"
	"time"
)

type GameState string

const (
	GameWaiting GameState = "waiting"
	GamePlaying GameState = "playing"
	GamePaused  GameState = "paused"
	GameEnded   GameState = "ended"
)

type BuzzerState string

const (
	BuzzerInactive BuzzerState = "inactive"
	BuzzerActive   BuzzerState = "active"
	BuzzerBuzzed   BuzzerState = "buzzed"
)

// ResetPolicy is what the buzzer returns to when a buzz is never judged
// within the room's buzzerOffDuration window.
type ResetPolicy string

const (
	ResetToActive   ResetPolicy = "active"
	ResetToInactive ResetPolicy = "inactive"
	ResetNone       ResetPolicy = "none"
)

// Player is a participant's in-room standing.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// State is the full authoritative snapshot pushed to clients as room_state.
type State struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	HasPassword   bool              `json:"has_password"`
	GameState     GameState         `json:"game_state"`
	BuzzerState   BuzzerState       `json:"buzzer_state"`
	CurrentBuzzer string            `json:"current_buzzer"`
	Players       map[string]Player `json:"players"`
	Config        Config            `json:"config"`
	CurrentSong   json.RawMessage   `json:"current_song"`
}

// Info is the public room summary returned by the rooms listing.
type Info struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HasPassword bool      `json:"has_password"`
	PlayerCount int       `json:"player_count"`
	GameState   GameState `json:"game_state"`
	CreatedAt   string    `json:"created_at"`
}

// AnswerResult is the outcome of the host judging a buzzed answer.
type AnswerResult struct {
	PlayerID  string            `json:"player_id"`
	IsCorrect bool              `json:"is_correct"`
	Scores    map[string]Player `json:"scores"`
}

// Room is the authoritative state of one game. Every transition goes
// through the room's mutex; that lock is the single serialization point
// the buzzer race is decided at. Nothing slow happens under it: broadcasts
// triggered inside a transition only queue onto per-connection buffers.
type Room struct {
	mu sync.Mutex

	id           string
	name         string
	passwordHash string
	hostID       string
	createdAt    time.Time

	gameState     GameState
	buzzerState   BuzzerState
	currentBuzzer string
	buzzTimestamp string
	config        Config
	players       map[string]*Player
	joinOrder     []string
	currentSong   json.RawMessage

	emptySince time.Time

	// buzzSeq invalidates pending auto-reset timers: any transition that
	// settles the buzzer bumps it, so a stale timer firing later is a no-op.
	buzzSeq     int
	resetPolicy ResetPolicy
	onAutoReset func(st State)
}

// New creates a room in the waiting state. The password hash may be empty;
// clients only ever see has_password.
func New(id, name, passwordHash string, policy ResetPolicy) *Room {
	if name == "" {
		name = id
	}
	return &Room{
		id:           id,
		name:         name,
		passwordHash: passwordHash,
		createdAt:    time.Now(),
		gameState:    GameWaiting,
		buzzerState:  BuzzerInactive,
		config:       DefaultConfig(),
		players:      make(map[string]*Player),
		resetPolicy:  policy,
		emptySince:   time.Now(),
	}
}

func (r *Room) ID() string { return r.id }

// HostID returns the current host's participant id, or "" for an empty room.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// SetAutoResetHook installs the callback invoked after a timer-driven
// buzzer reset, outside the room lock. The store wires this to a broadcast.
func (r *Room) SetAutoResetHook(fn func(st State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAutoReset = fn
}

// CheckPassword reports whether the given password grants access.
func (r *Room) CheckPassword(check func(hash, password string) bool, password string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.passwordHash == "" {
		return true
	}
	return check(r.passwordHash, password)
}

// Join adds a participant, or refreshes them on reconnect keeping their
// score. The first joiner becomes host. Joining an ended room fails.
func (r *Room) Join(clientID, name string) (State, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameState == GameEnded {
		return State{}, false, ErrRoomEnded
	}
	if name == "" {
		name = clientID
	}

	if p, ok := r.players[clientID]; ok {
		// Reconnect with the same id supersedes the old session.
		p.Name = name
	} else {
		r.players[clientID] = &Player{Name: name}
		r.joinOrder = append(r.joinOrder, clientID)
	}

	if r.hostID == "" {
		r.hostID = clientID
	}
	r.emptySince = time.Time{}

	return r.stateLocked(), r.hostID == clientID, nil
}

// Leave removes a participant. When the host leaves, the longest-present
// remaining player is promoted. Returns the new host id ("" when no
// promotion happened) and whether the room is now empty.
func (r *Room) Leave(clientID string) (newHostID string, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[clientID]; !ok {
		return "", len(r.players) == 0
	}
	delete(r.players, clientID)
	for i, id := range r.joinOrder {
		if id == clientID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}

	// A dropped connection must not leave the buzzer stuck on its holder.
	if r.currentBuzzer == clientID {
		r.settleBuzzerLocked(BuzzerActive)
	}

	if r.hostID == clientID {
		r.hostID = ""
		if len(r.joinOrder) > 0 {
			r.hostID = r.joinOrder[0]
			newHostID = r.hostID
		}
	}

	if len(r.players) == 0 {
		r.emptySince = time.Now()
		return newHostID, true
	}
	return newHostID, false
}

// PlayerList returns a copy of the membership with scores.
func (r *Room) PlayerList() map[string]Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersLocked()
}

// State returns the full authoritative snapshot.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Info returns the public summary used by the rooms listing.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Info{
		ID:          r.id,
		Name:        r.name,
		HasPassword: r.passwordHash != "",
		PlayerCount: len(r.players),
		GameState:   r.gameState,
		CreatedAt:   r.createdAt.Format(time.RFC3339Nano),
	}
}

// UpdateConfig validates and merges a partial config change. Host-only.
func (r *Room) UpdateConfig(clientID string, upd ConfigUpdate) (Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientID != r.hostID {
		return r.config, ErrNotHost
	}
	if err := upd.validate(); err != nil {
		return r.config, err
	}
	r.config = r.config.merge(upd)
	return r.config, nil
}

// StartGame moves waiting -> playing and arms the buzzer. Host-only.
func (r *Room) StartGame(clientID string) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientID != r.hostID {
		return State{}, ErrNotHost
	}
	if r.gameState != GameWaiting {
		return State{}, ErrInvalidTransition
	}
	r.gameState = GamePlaying
	r.settleBuzzerLocked(BuzzerActive)
	return r.stateLocked(), nil
}

// PauseGame toggles playing <-> paused. The buzzer is disarmed while
// paused and re-armed on resume. Host-only.
func (r *Room) PauseGame(clientID string) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientID != r.hostID {
		return State{}, ErrNotHost
	}
	switch r.gameState {
	case GamePlaying:
		r.gameState = GamePaused
		r.settleBuzzerLocked(BuzzerInactive)
	case GamePaused:
		r.gameState = GamePlaying
		r.settleBuzzerLocked(BuzzerActive)
	default:
		return State{}, ErrInvalidTransition
	}
	return r.stateLocked(), nil
}

// EndGame terminates the room. Ended rooms reject joins and are swept
// once empty. Host-only.
func (r *Room) EndGame(clientID string) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientID != r.hostID {
		return State{}, ErrNotHost
	}
	if r.gameState == GameEnded {
		return State{}, ErrInvalidTransition
	}
	r.gameState = GameEnded
	r.settleBuzzerLocked(BuzzerInactive)
	return r.stateLocked(), nil
}

// Buzz attempts to claim the buzzer. The first caller to take the room
// lock while the buzzer is active wins; everyone after that is a no-op
// until the buzzer is settled again.
func (r *Room) Buzz(clientID string) (State, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[clientID]; !ok {
		return State{}, "", ErrUnknownPlayer
	}
	if r.gameState != GamePlaying || r.buzzerState != BuzzerActive {
		return State{}, "", ErrInvalidTransition
	}

	r.buzzerState = BuzzerBuzzed
	r.currentBuzzer = clientID
	r.buzzTimestamp = time.Now().Format(time.RFC3339Nano)
	r.buzzSeq++

	if r.resetPolicy != ResetNone {
		seq := r.buzzSeq
		window := time.Duration(r.config.BuzzerOffDuration) * time.Second
		time.AfterFunc(window, func() { r.autoReset(seq) })
	}

	return r.stateLocked(), r.buzzTimestamp, nil
}

// ValidateAnswer is the host judging the buzzed answer. A correct answer
// credits the holder one point. Either way the buzzer re-arms.
func (r *Room) ValidateAnswer(clientID string, isCorrect bool) (AnswerResult, State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientID != r.hostID {
		return AnswerResult{}, State{}, ErrNotHost
	}
	if r.buzzerState != BuzzerBuzzed || r.currentBuzzer == "" {
		return AnswerResult{}, State{}, ErrInvalidTransition
	}

	buzzer := r.currentBuzzer
	if isCorrect {
		if p, ok := r.players[buzzer]; ok {
			p.Score++
		}
	}

	r.settleBuzzerLocked(BuzzerActive)

	result := AnswerResult{
		PlayerID:  buzzer,
		IsCorrect: isCorrect,
		Scores:    r.playersLocked(),
	}
	return result, r.stateLocked(), nil
}

// SetSong records the clip currently in play. The payload is opaque to the
// core; the music catalog collaborator owns its shape. Host-only.
func (r *Room) SetSong(clientID string, song json.RawMessage) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientID != r.hostID {
		return State{}, ErrNotHost
	}
	r.currentSong = song
	return r.stateLocked(), nil
}

// EmptySince returns when the room last became empty, or the zero time
// while it is occupied.
func (r *Room) EmptySince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emptySince
}

// Ended reports whether the game has been terminated.
func (r *Room) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameState == GameEnded
}

func (r *Room) autoReset(seq int) {
	r.mu.Lock()
	if r.buzzerState != BuzzerBuzzed || seq != r.buzzSeq {
		r.mu.Unlock()
		return
	}
	target := BuzzerActive
	if r.resetPolicy == ResetToInactive {
		target = BuzzerInactive
	}
	r.settleBuzzerLocked(target)
	st := r.stateLocked()
	hook := r.onAutoReset
	r.mu.Unlock()

	if hook != nil {
		hook(st)
	}
}

// settleBuzzerLocked resolves the buzzer to a non-buzzed state, clearing
// the holder and invalidating any pending auto-reset timer.
func (r *Room) settleBuzzerLocked(target BuzzerState) {
	r.buzzerState = target
	r.currentBuzzer = ""
	r.buzzTimestamp = ""
	r.buzzSeq++
}

func (r *Room) playersLocked() map[string]Player {
	out := make(map[string]Player, len(r.players))
	for id, p := range r.players {
		out[id] = *p
	}
	return out
}

func (r *Room) stateLocked() State {
	return State{
		ID:            r.id,
		Name:          r.name,
		HasPassword:   r.passwordHash != "",
		GameState:     r.gameState,
		BuzzerState:   r.buzzerState,
		CurrentBuzzer: r.currentBuzzer,
		Players:       r.playersLocked(),
		Config:        r.config,
		CurrentSong:   r.currentSong,
	}
}
