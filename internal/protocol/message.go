package protocol

import (
	"encoding/json"
	"log/slog"

	"github.com/yunko006/blindotesto/internal/chat"
	"github.com/yunko006/blindotesto/internal/room"
)

// Client -> server message types.
const (
	TypeGetPlayerList  = "get_player_list"
	TypeConfigUpdate   = "config_update"
	TypeStartGame      = "start_game"
	TypePauseGame      = "pause_game"
	TypeEndGame        = "end_game"
	TypeBuzz           = "buzz"
	TypeValidateAnswer = "validate_answer"
	TypeChatMessage    = "chat_message"
	TypeSetSong        = "set_song"
	TypePing           = "ping"
)

// envelope carries only the discriminator; the payload is re-parsed into
// the typed variant the discriminator selects.
type envelope struct {
	Type string `json:"type"`
}

type configUpdateIn struct {
	Config room.ConfigUpdate `json:"config"`
}

type chatMessageIn struct {
	Content string `json:"content"`
}

type validateAnswerIn struct {
	IsCorrect bool `json:"is_correct"`
}

type setSongIn struct {
	Song json.RawMessage `json:"song"`
}

// chatEntryOut is a chat entry on the wire, with the is_self marker only
// the sender's own copy carries.
type chatEntryOut struct {
	chat.Entry
	IsSelf bool `json:"is_self,omitempty"`
}

// Server -> client messages. One struct per type; the constructors below
// return the marshalled frame.

type playerListOut struct {
	Type    string                 `json:"type"`
	Players map[string]room.Player `json:"players"`
}

type roomStateOut struct {
	Type  string     `json:"type"`
	State room.State `json:"state"`
}

type configUpdateOut struct {
	Type          string      `json:"type"`
	Config        room.Config `json:"config"`
	UpdatedBy     string      `json:"updated_by"`
	SystemMessage chat.Entry  `json:"system_message"`
}

type chatHistoryOut struct {
	Type     string       `json:"type"`
	Messages []chat.Entry `json:"messages"`
}

type chatMessageOut struct {
	Type    string       `json:"type"`
	Message chatEntryOut `json:"message"`
}

type playerJoinedOut struct {
	Type   string `json:"type"`
	Player string `json:"player"`
}

type playerDisconnectedOut struct {
	Type          string                 `json:"type"`
	Player        string                 `json:"player"`
	SystemMessage chat.Entry             `json:"system_message"`
	Players       map[string]room.Player `json:"players"`
}

type systemMessageOut struct {
	Type    string     `json:"type"`
	Message chat.Entry `json:"message"`
}

type buzzOut struct {
	Type          string     `json:"type"`
	Player        string     `json:"player"`
	Timestamp     string     `json:"timestamp"`
	SystemMessage chat.Entry `json:"system_message"`
}

type gameEventOut struct {
	Type          string     `json:"type"`
	State         room.State `json:"state"`
	SystemMessage chat.Entry `json:"system_message"`
}

type answerResultOut struct {
	Type          string            `json:"type"`
	Result        room.AnswerResult `json:"result"`
	SystemMessage chat.Entry        `json:"system_message"`
	State         room.State        `json:"state"`
}

type pongOut struct {
	Type string `json:"type"`
}

func marshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal error", "error", err)
		return nil
	}
	return data
}

func PlayerList(players map[string]room.Player) []byte {
	return marshal(playerListOut{Type: "player_list", Players: players})
}

func RoomState(st room.State) []byte {
	return marshal(roomStateOut{Type: "room_state", State: st})
}

func ConfigUpdated(cfg room.Config, updatedBy string, sysMsg chat.Entry) []byte {
	return marshal(configUpdateOut{Type: "config_update", Config: cfg, UpdatedBy: updatedBy, SystemMessage: sysMsg})
}

func ChatHistory(messages []chat.Entry) []byte {
	return marshal(chatHistoryOut{Type: "chat_history", Messages: messages})
}

func ChatMessage(entry chat.Entry, isSelf bool) []byte {
	return marshal(chatMessageOut{Type: "chat_message", Message: chatEntryOut{Entry: entry, IsSelf: isSelf}})
}

func PlayerJoined(player string) []byte {
	return marshal(playerJoinedOut{Type: "player_joined", Player: player})
}

func PlayerDisconnected(player string, sysMsg chat.Entry, players map[string]room.Player) []byte {
	return marshal(playerDisconnectedOut{Type: "player_disconnected", Player: player, SystemMessage: sysMsg, Players: players})
}

func SystemMessage(entry chat.Entry) []byte {
	return marshal(systemMessageOut{Type: "system_message", Message: entry})
}

func Buzz(player, timestamp string, sysMsg chat.Entry) []byte {
	return marshal(buzzOut{Type: "buzz", Player: player, Timestamp: timestamp, SystemMessage: sysMsg})
}

func GameStarted(st room.State, sysMsg chat.Entry) []byte {
	return marshal(gameEventOut{Type: "game_started", State: st, SystemMessage: sysMsg})
}

func GamePaused(st room.State, sysMsg chat.Entry) []byte {
	return marshal(gameEventOut{Type: "game_paused", State: st, SystemMessage: sysMsg})
}

func GameEnded(st room.State, sysMsg chat.Entry) []byte {
	return marshal(gameEventOut{Type: "game_ended", State: st, SystemMessage: sysMsg})
}

func AnswerResult(result room.AnswerResult, sysMsg chat.Entry, st room.State) []byte {
	return marshal(answerResultOut{Type: "answer_result", Result: result, SystemMessage: sysMsg, State: st})
}

func Pong() []byte {
	return marshal(pongOut{Type: "pong"})
}
