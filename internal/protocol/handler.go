package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yunko006/blindotesto/internal/chat"
	"github.com/yunko006/blindotesto/internal/hub"
	"github.com/yunko006/blindotesto/internal/room"
)

const joinHistoryCount = 30

// Handler dispatches inbound frames to the room state machine and turns
// the results into outbound frames. Commands for the same room are handled
// under a per-room lock so the fan-out order matches the order transitions
// were applied; queuing onto subscriber buffers is non-blocking, so the
// lock is never held across network I/O.
type Handler struct {
	rooms *room.Store
	conns *hub.Hub
	chat  *chat.Log

	locks sync.Map // roomID -> *sync.Mutex
}

func NewHandler(rooms *room.Store, conns *hub.Hub, chatLog *chat.Log) *Handler {
	return &Handler{rooms: rooms, conns: conns, chat: chatLog}
}

func (h *Handler) lockRoom(roomID string) func() {
	mu, _ := h.locks.LoadOrStore(roomID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// BroadcastState pushes a fresh authoritative snapshot to a room. The room
// store wires this up as the buzzer auto-reset hook.
func (h *Handler) BroadcastState(roomID string) {
	rm, err := h.rooms.Get(roomID)
	if err != nil {
		return
	}
	defer h.lockRoom(roomID)()
	h.conns.Broadcast(roomID, RoomState(rm.State()))
}

// Connect resolves (creating if needed) the room, joins the participant
// and replays the initial state to the new subscriber: player list, recent
// chat history, then the full room snapshot. Other subscribers learn about
// the join afterwards.
func (h *Handler) Connect(roomID, clientID, name string) (*hub.Subscription, *room.Room, error) {
	if clientID == "" {
		return nil, nil, hub.ErrInvalidParticipant
	}

	rm, created := h.rooms.GetOrCreate(roomID)
	if created {
		slog.Info("room created on first join", "room", roomID)
	}

	defer h.lockRoom(roomID)()

	st, isHost, err := rm.Join(clientID, name)
	if err != nil {
		if errors.Is(err, room.ErrRoomEnded) {
			return nil, nil, hub.ErrRoomNotJoinable
		}
		return nil, nil, err
	}

	sub, err := h.conns.Subscribe(roomID, clientID)
	if err != nil {
		return nil, nil, err
	}

	displayName := st.Players[clientID].Name
	sysMsg := h.chat.AppendSystem(roomID, fmt.Sprintf("%s joined the game", displayName))

	h.conns.SendTo(roomID, clientID, PlayerList(st.Players))
	h.conns.SendTo(roomID, clientID, ChatHistory(h.chat.History(roomID, joinHistoryCount)))
	h.conns.SendTo(roomID, clientID, RoomState(st))

	h.conns.BroadcastExcept(roomID, clientID, PlayerJoined(clientID))
	h.conns.BroadcastExcept(roomID, clientID, SystemMessage(sysMsg))

	slog.Info("client joined", "room", roomID, "clientId", clientID, "host", isHost)
	return sub, rm, nil
}

// Disconnect tears a connection down. When the participant reconnected
// already (the subscription was superseded), the player stays in the room.
func (h *Handler) Disconnect(sub *hub.Subscription, rm *room.Room) {
	h.conns.Unsubscribe(sub)

	defer h.lockRoom(sub.RoomID)()

	if h.conns.Subscribed(sub.RoomID, sub.ClientID) {
		return
	}

	newHost, empty := rm.Leave(sub.ClientID)
	sysMsg := h.chat.AppendSystem(sub.RoomID, fmt.Sprintf("%s left the game", sub.ClientID))
	h.conns.Broadcast(sub.RoomID, PlayerDisconnected(sub.ClientID, sysMsg, rm.PlayerList()))

	if newHost != "" {
		promoted := h.chat.AppendSystem(sub.RoomID, fmt.Sprintf("%s is now the host", newHost))
		h.conns.Broadcast(sub.RoomID, SystemMessage(promoted))
	}

	slog.Info("client left", "room", sub.RoomID, "clientId", sub.ClientID, "roomEmpty", empty)
}

// Handle processes one inbound frame from a connection. Malformed frames
// and commands illegal in the current state are logged and dropped; they
// never terminate the connection.
func (h *Handler) Handle(rm *room.Room, sub *hub.Subscription, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("malformed frame", "room", sub.RoomID, "clientId", sub.ClientID, "error", err)
		return
	}

	defer h.lockRoom(sub.RoomID)()

	switch env.Type {
	case TypeGetPlayerList:
		h.conns.SendTo(sub.RoomID, sub.ClientID, PlayerList(rm.PlayerList()))

	case TypeConfigUpdate:
		h.handleConfigUpdate(rm, sub, data)

	case TypeStartGame:
		h.handleGameEvent(rm, sub, env.Type)

	case TypePauseGame:
		h.handleGameEvent(rm, sub, env.Type)

	case TypeEndGame:
		h.handleGameEvent(rm, sub, env.Type)

	case TypeBuzz:
		h.handleBuzz(rm, sub)

	case TypeValidateAnswer:
		h.handleValidateAnswer(rm, sub, data)

	case TypeChatMessage:
		h.handleChatMessage(rm, sub, data)

	case TypeSetSong:
		h.handleSetSong(rm, sub, data)

	case TypePing:
		h.conns.SendTo(sub.RoomID, sub.ClientID, Pong())

	default:
		slog.Warn("unknown message type", "room", sub.RoomID, "clientId", sub.ClientID, "type", env.Type)
	}
}

func (h *Handler) handleConfigUpdate(rm *room.Room, sub *hub.Subscription, data []byte) {
	var in configUpdateIn
	if err := json.Unmarshal(data, &in); err != nil {
		slog.Warn("malformed config_update", "room", sub.RoomID, "clientId", sub.ClientID, "error", err)
		return
	}

	cfg, err := rm.UpdateConfig(sub.ClientID, in.Config)
	switch {
	case errors.Is(err, room.ErrNotHost):
		slog.Debug("config_update from non-host dropped", "room", sub.RoomID, "clientId", sub.ClientID)
	case errors.Is(err, room.ErrValidation):
		// Prior config stays in place; only the sender hears about it.
		rejected := chat.Entry{
			SenderID: "system", SenderName: "System", IsSystem: true,
			RoomID: sub.RoomID, SenderRole: "system", Content: err.Error(),
		}
		h.conns.SendTo(sub.RoomID, sub.ClientID, SystemMessage(rejected))
	case err == nil:
		sysMsg := h.chat.AppendSystem(sub.RoomID, fmt.Sprintf("Configuration updated by %s", sub.ClientID))
		h.conns.Broadcast(sub.RoomID, ConfigUpdated(cfg, sub.ClientID, sysMsg))
	}
}

func (h *Handler) handleGameEvent(rm *room.Room, sub *hub.Subscription, msgType string) {
	var (
		st    room.State
		err   error
		text  string
		frame func(room.State, chat.Entry) []byte
	)

	switch msgType {
	case TypeStartGame:
		st, err = rm.StartGame(sub.ClientID)
		text, frame = "The game has started!", GameStarted
	case TypePauseGame:
		st, err = rm.PauseGame(sub.ClientID)
		text, frame = "The game was paused", GamePaused
		if err == nil && st.GameState == room.GamePlaying {
			text = "The game resumed"
		}
	case TypeEndGame:
		st, err = rm.EndGame(sub.ClientID)
		text, frame = "The game has ended", GameEnded
	}

	if err != nil {
		slog.Debug("game event dropped", "room", sub.RoomID, "clientId", sub.ClientID, "type", msgType, "reason", err)
		return
	}

	sysMsg := h.chat.AppendSystem(sub.RoomID, text)
	h.conns.Broadcast(sub.RoomID, frame(st, sysMsg))
	h.conns.Broadcast(sub.RoomID, RoomState(st))
}

func (h *Handler) handleBuzz(rm *room.Room, sub *hub.Subscription) {
	st, timestamp, err := rm.Buzz(sub.ClientID)
	if err != nil {
		// Losing the race or buzzing out of turn is a normal no-op.
		slog.Debug("buzz dropped", "room", sub.RoomID, "clientId", sub.ClientID, "reason", err)
		return
	}

	name := st.Players[sub.ClientID].Name
	sysMsg := h.chat.AppendSystem(sub.RoomID, fmt.Sprintf("%s buzzed!", name))
	h.conns.Broadcast(sub.RoomID, Buzz(sub.ClientID, timestamp, sysMsg))
	h.conns.Broadcast(sub.RoomID, RoomState(st))
}

func (h *Handler) handleValidateAnswer(rm *room.Room, sub *hub.Subscription, data []byte) {
	var in validateAnswerIn
	if err := json.Unmarshal(data, &in); err != nil {
		slog.Warn("malformed validate_answer", "room", sub.RoomID, "clientId", sub.ClientID, "error", err)
		return
	}

	result, st, err := rm.ValidateAnswer(sub.ClientID, in.IsCorrect)
	if err != nil {
		slog.Debug("validate_answer dropped", "room", sub.RoomID, "clientId", sub.ClientID, "reason", err)
		return
	}

	verdict := "incorrect"
	if result.IsCorrect {
		verdict = "correct"
	}
	name := st.Players[result.PlayerID].Name
	if name == "" {
		name = result.PlayerID
	}
	sysMsg := h.chat.AppendSystem(sub.RoomID, fmt.Sprintf("%s's answer was %s!", name, verdict))
	h.conns.Broadcast(sub.RoomID, AnswerResult(result, sysMsg, st))
}

func (h *Handler) handleChatMessage(rm *room.Room, sub *hub.Subscription, data []byte) {
	var in chatMessageIn
	if err := json.Unmarshal(data, &in); err != nil {
		slog.Warn("malformed chat_message", "room", sub.RoomID, "clientId", sub.ClientID, "error", err)
		return
	}
	if in.Content == "" {
		slog.Debug("empty chat_message dropped", "room", sub.RoomID, "clientId", sub.ClientID)
		return
	}

	players := rm.PlayerList()
	sender, ok := players[sub.ClientID]
	if !ok {
		return
	}
	role := "player"
	if rm.HostID() == sub.ClientID {
		role = "host"
	}

	entry := h.chat.Append(sub.RoomID, sub.ClientID, sender.Name, in.Content, role)

	h.conns.SendTo(sub.RoomID, sub.ClientID, ChatMessage(entry, true))
	h.conns.BroadcastExcept(sub.RoomID, sub.ClientID, ChatMessage(entry, false))
}

func (h *Handler) handleSetSong(rm *room.Room, sub *hub.Subscription, data []byte) {
	var in setSongIn
	if err := json.Unmarshal(data, &in); err != nil {
		slog.Warn("malformed set_song", "room", sub.RoomID, "clientId", sub.ClientID, "error", err)
		return
	}

	st, err := rm.SetSong(sub.ClientID, in.Song)
	if err != nil {
		slog.Debug("set_song dropped", "room", sub.RoomID, "clientId", sub.ClientID, "reason", err)
		return
	}
	h.conns.Broadcast(sub.RoomID, RoomState(st))
}
