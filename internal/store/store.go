package store

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/VladimirMonin/go-chat/internal/model"
)

var ErrChatDoesNotExist = errors.New("chat does not exist")

// Store maps chat id to chat. All operations are copy-on-write: they leave
// the receiver untouched and return the next store, so a snapshot handed to
// an observer can never change underneath it.
type Store map[string]model.Chat

func (s Store) Clone() Store {
	next := make(Store, len(s))
	for id, chat := range s {
		next[id] = chat
	}
	return next
}

// SortedIDs returns chat ids in creation order. Ids are unix-millisecond
// numbers, so numeric order is insertion order.
func (s Store) SortedIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(ids[i], 10, 64)
		b, errB := strconv.ParseInt(ids[j], 10, 64)
		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})
	return ids
}

// CreateChat adds an empty chat with a fresh id and an ordinal title.
func CreateChat(s Store, gen *IDGen) (Store, string) {
	next := s.Clone()
	chatID := gen.Next()
	next[chatID] = model.Chat{
		ID:       chatID,
		Title:    fmt.Sprintf("Chat %d", len(s)+1),
		Messages: make([]model.Message, 0),
	}
	return next, chatID
}

// DeleteChat removes the chat. Deleting an absent chat is a benign no-op.
func DeleteChat(s Store, chatID string) Store {
	next := s.Clone()
	delete(next, chatID)
	return next
}

// AppendMessage appends to the end of the chat's message log. Prior
// messages are never reordered or rewritten.
func AppendMessage(s Store, chatID string, message model.Message) (Store, error) {
	chat, ok := s[chatID]
	if !ok {
		return s, ErrChatDoesNotExist
	}
	next := s.Clone()
	messages := make([]model.Message, len(chat.Messages), len(chat.Messages)+1)
	copy(messages, chat.Messages)
	chat.Messages = append(messages, message)
	next[chatID] = chat
	return next, nil
}

// IDGen produces strictly increasing unix-millisecond ids. When two chats
// are created within the same millisecond the later one is bumped past the
// previous id.
type IDGen struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewIDGen() *IDGen {
	return &IDGen{now: time.Now}
}

// SeedAfter moves the generator past every id already present, so ids stay
// unique even when the loaded store was written by a clock ahead of ours.
func (g *IDGen) SeedAfter(s Store) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range s {
		if ms, err := strconv.ParseInt(id, 10, 64); err == nil && ms > g.last {
			g.last = ms
		}
	}
}

func (g *IDGen) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
