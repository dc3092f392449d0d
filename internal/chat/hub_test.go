package chat

import (
	"testing"

	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(role model.ParticipantRole, id uint64) *Client {
	return NewClient(auth.Identity{Role: role, ID: id}, nil)
}

func TestHubJoinLeave(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := newTestClient(model.RoleUser, 1)
	h.Add(c)

	assert.False(t, h.InRoom("7", c))
	h.Join("7", c)
	assert.True(t, h.InRoom("7", c))

	h.Leave("7", c)
	assert.False(t, h.InRoom("7", c))
	// Leaving is connection-scoped only; the identity is still tracked.
	assert.True(t, h.IsOnline(c.Identity))
}

func TestHubRemoveDropsAllRooms(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := newTestClient(model.RoleUser, 1)
	h.Add(c)
	h.Join("1", c)
	h.Join("2", c)

	stillOnline, emptied := h.Remove(c)
	assert.False(t, stillOnline)
	assert.ElementsMatch(t, []string{"1", "2"}, emptied)
	assert.False(t, h.InRoom("1", c))
	assert.False(t, h.InRoom("2", c))
	assert.False(t, h.IsOnline(c.Identity))
}

func TestHubIsOnlinePerIdentity(t *testing.T) {
	h := NewHub(zerolog.Nop())
	// Two tabs for the same user plus a seller with the same numeric id.
	a := newTestClient(model.RoleUser, 5)
	b := newTestClient(model.RoleUser, 5)
	s := newTestClient(model.RoleSeller, 5)
	h.Add(a)
	h.Add(b)
	h.Add(s)

	assert.True(t, h.IsOnline(a.Identity))
	stillOnline, _ := h.Remove(a)
	assert.True(t, stillOnline)
	assert.True(t, h.IsOnline(b.Identity))
	stillOnline, _ = h.Remove(b)
	assert.False(t, stillOnline)
	assert.False(t, h.IsOnline(a.Identity))
	// The seller identity is independent of the user with the same id.
	assert.True(t, h.IsOnline(s.Identity))
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a := newTestClient(model.RoleUser, 1)
	b := newTestClient(model.RoleSeller, 2)
	outsider := newTestClient(model.RoleUser, 3)
	for _, c := range []*Client{a, b, outsider} {
		h.Add(c)
	}
	h.Join("9", a)
	h.Join("9", b)
	h.Join("10", outsider)

	h.Broadcast("9", []byte("hello"))

	for _, c := range []*Client{a, b} {
		select {
		case got := <-c.Send:
			assert.Equal(t, "hello", string(got))
		default:
			t.Fatalf("client %s did not receive broadcast", c.ID)
		}
	}
	select {
	case <-outsider.Send:
		t.Fatal("client outside the room received the broadcast")
	default:
	}
}

func TestHubBroadcastExcept(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a := newTestClient(model.RoleUser, 1)
	b := newTestClient(model.RoleSeller, 2)
	h.Add(a)
	h.Add(b)
	h.Join("9", a)
	h.Join("9", b)

	h.BroadcastExcept("9", []byte("typing"), a)

	select {
	case <-a.Send:
		t.Fatal("excluded client received the broadcast")
	default:
	}
	select {
	case got := <-b.Send:
		require.Equal(t, "typing", string(got))
	default:
		t.Fatal("other client did not receive the broadcast")
	}
}

func TestHubRoomEmptiesWhenLastClientLeaves(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a := newTestClient(model.RoleUser, 1)
	h.Add(a)
	h.Join("3", a)
	h.Leave("3", a)

	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms["3"]
	assert.False(t, ok)
}
