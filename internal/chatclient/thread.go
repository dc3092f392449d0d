// Package chatclient implements the client-side view of one conversation: a
// message list that renders sends optimistically and reconciles them against
// the canonical rows the relay broadcasts back.
package chatclient

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/localmart/localmart-backend/internal/model"
)

const (
	tempIDPrefix = "tmp_"

	// A broadcast whose timestamp lands within this window of an
	// optimistic entry's send time is treated as its confirmation.
	defaultMatchWindow = 5 * time.Second

	// An optimistic entry unconfirmed past this deadline is marked failed
	// so the UI can offer a resend.
	defaultSendTimeout = 10 * time.Second
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Entry is one visible message. Confirmed entries carry the server id;
// pending and failed entries carry only the temporary id.
type Entry struct {
	ID         uint64
	TempID     string
	Sender     uint64
	SenderRole model.ParticipantRole
	Text       string
	CreatedAt  time.Time
	Status     Status
}

// EmitFunc submits a send-message action to the relay.
type EmitFunc func(conversationID, sender uint64, role model.ParticipantRole, text string) error

var ErrUnknownTempID = errors.New("no pending message with that id")

type Thread struct {
	mu      sync.Mutex
	convID  uint64
	sender  uint64
	role    model.ParticipantRole
	emit    EmitFunc
	entries []Entry

	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

func NewThread(convID, sender uint64, role model.ParticipantRole, emit EmitFunc) *Thread {
	return &Thread{
		convID:  convID,
		sender:  sender,
		role:    role,
		emit:    emit,
		window:  defaultMatchWindow,
		timeout: defaultSendTimeout,
		now:     time.Now,
	}
}

// Send appends an optimistic entry and emits the message. The returned
// temporary id distinguishes the entry until the server confirms it.
func (t *Thread) Send(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("text is required")
	}
	tempID := tempIDPrefix + uuid.NewString()

	t.mu.Lock()
	t.entries = append(t.entries, Entry{
		TempID:     tempID,
		Sender:     t.sender,
		SenderRole: t.role,
		Text:       text,
		CreatedAt:  t.now(),
		Status:     StatusPending,
	})
	t.mu.Unlock()

	if err := t.emit(t.convID, t.sender, t.role, text); err != nil {
		t.markFailed(tempID)
		return tempID, err
	}
	return tempID, nil
}

// Receive reconciles a canonical message from the relay. Duplicate
// broadcasts are ignored; a matching optimistic entry is replaced in place;
// anything else (the other participant, or another tab of the same account)
// is appended.
func (t *Thread) Receive(msg model.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if e.ID != 0 && e.ID == msg.ID {
			return
		}
	}

	for i, e := range t.entries {
		if e.Status != StatusPending {
			continue
		}
		if e.Sender != msg.Sender || e.Text != msg.Text {
			continue
		}
		delta := msg.CreatedAt.Sub(e.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta > t.window {
			continue
		}
		t.entries[i] = Entry{
			ID:         msg.ID,
			Sender:     msg.Sender,
			SenderRole: msg.SenderRole,
			Text:       msg.Text,
			CreatedAt:  msg.CreatedAt,
			Status:     StatusConfirmed,
		}
		return
	}

	t.entries = append(t.entries, Entry{
		ID:         msg.ID,
		Sender:     msg.Sender,
		SenderRole: msg.SenderRole,
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt,
		Status:     StatusConfirmed,
	})
}

// Sweep marks pending entries whose deadline has passed as failed and
// returns their temporary ids for the UI to surface.
func (t *Thread) Sweep() []string {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	var failed []string
	for i, e := range t.entries {
		if e.Status == StatusPending && now.Sub(e.CreatedAt) > t.timeout {
			t.entries[i].Status = StatusFailed
			failed = append(failed, e.TempID)
		}
	}
	return failed
}

// Resend re-emits a failed entry, restoring it to pending with a fresh
// deadline. Its list position is preserved.
func (t *Thread) Resend(tempID string) error {
	t.mu.Lock()
	var entry *Entry
	for i := range t.entries {
		if t.entries[i].TempID == tempID && t.entries[i].Status == StatusFailed {
			entry = &t.entries[i]
			break
		}
	}
	if entry == nil {
		t.mu.Unlock()
		return ErrUnknownTempID
	}
	entry.Status = StatusPending
	entry.CreatedAt = t.now()
	text := entry.Text
	t.mu.Unlock()

	if err := t.emit(t.convID, t.sender, t.role, text); err != nil {
		t.markFailed(tempID)
		return err
	}
	return nil
}

// Messages returns a snapshot of the visible list in order.
func (t *Thread) Messages() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Thread) markFailed(tempID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].TempID == tempID {
			t.entries[i].Status = StatusFailed
			return
		}
	}
}
