package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/kisandost/kisan-chat/internal/model/chat"
)

// Entry is one displayed transcript row.
type Entry struct {
	ID      string
	Message chat.Message
}

// Transcript is the ordered, de-duplicated message list of one channel session.
// No two entries share the same (message, timestamp, from).
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	seen    map[chat.DedupKey]struct{}
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		entries: make([]Entry, 0, 32),
		seen:    make(map[chat.DedupKey]struct{}),
	}
}

// Append adds msg in receipt order. It reports false when msg is blank or
// already present.
func (t *Transcript) Append(msg chat.Message) bool {
	if msg.IsBlank() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := msg.Key()
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	t.entries = append(t.entries, Entry{ID: uuid.NewString(), Message: msg})
	return true
}

// Replace discards the current rows and loads msgs in their given order.
// Blank and repeated messages are skipped. It returns the resulting length.
func (t *Transcript) Replace(msgs []chat.Message) int {
	kept := lo.UniqBy(
		lo.Reject(msgs, func(m chat.Message, _ int) bool { return m.IsBlank() }),
		func(m chat.Message) chat.DedupKey { return m.Key() },
	)

	entries := make([]Entry, 0, len(kept))
	seen := make(map[chat.DedupKey]struct{}, len(kept))
	for _, m := range kept {
		seen[m.Key()] = struct{}{}
		entries = append(entries, Entry{ID: uuid.NewString(), Message: m})
	}

	t.mu.Lock()
	t.entries = entries
	t.seen = seen
	t.mu.Unlock()

	return len(entries)
}

// Entries returns a snapshot of the rows.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]Entry, len(t.entries))
	copy(copied, t.entries)
	return copied
}

// Messages returns a snapshot of the messages.
func (t *Transcript) Messages() []chat.Message {
	return lo.Map(t.Entries(), func(e Entry, _ int) chat.Message { return e.Message })
}

// Len returns the number of rows.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
