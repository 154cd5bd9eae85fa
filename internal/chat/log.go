package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultMaxHistory = 100

// Entry is a single chat message, immutable once appended.
type Entry struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	RoomID     string `json:"room_id"`
	SenderRole string `json:"sender_role"`
	IsSystem   bool   `json:"is_system"`
	Timestamp  string `json:"timestamp"`
}

// Log keeps an append-only, capped chat history per room. History is
// replayed to clients when they join or explicitly request it.
type Log struct {
	mu         sync.RWMutex
	entries    map[string][]Entry
	maxHistory int
}

func NewLog() *Log {
	return &Log{
		entries:    make(map[string][]Entry),
		maxHistory: defaultMaxHistory,
	}
}

// Append records a user message and returns the stored entry.
func (l *Log) Append(roomID, senderID, senderName, content, senderRole string) Entry {
	entry := Entry{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		RoomID:     roomID,
		SenderRole: senderRole,
		Timestamp:  time.Now().Format(time.RFC3339Nano),
	}

	l.append(roomID, entry)
	return entry
}

// AppendSystem records a server-generated message.
func (l *Log) AppendSystem(roomID, content string) Entry {
	entry := Entry{
		ID:         uuid.New().String(),
		SenderID:   "system",
		SenderName: "System",
		Content:    content,
		RoomID:     roomID,
		SenderRole: "system",
		IsSystem:   true,
		Timestamp:  time.Now().Format(time.RFC3339Nano),
	}

	l.append(roomID, entry)
	return entry
}

func (l *Log) append(roomID string, entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.entries[roomID], entry)
	if len(entries) > l.maxHistory {
		entries = entries[len(entries)-l.maxHistory:]
	}
	l.entries[roomID] = entries
}

// History returns up to limit most recent entries in append order.
// A limit <= 0 returns the full retained history.
func (l *Log) History(roomID string, limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[roomID]
	if limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Drop discards a room's history once the room is destroyed.
func (l *Log) Drop(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, roomID)
}
