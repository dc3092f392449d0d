package chat

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/repository"
	"github.com/localmart/localmart-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type relayFixture struct {
	relay  *Relay
	hub    *Hub
	db     *gorm.DB
	convs  service.ConversationService
	conv   *model.Conversation
	user   *Client
	seller *Client
}

// newRelayFixture wires a relay over an in-memory store with one user/seller
// pair and their conversation. Clients carry no live socket; events go in
// through Handle and come out on the Send channels.
func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Seller{}, &model.Conversation{},
		&model.ConversationRead{}, &model.Message{}, &model.Notification{},
	))

	// Distinct ids so that a role/id pair from one side never aliases the
	// other participant (user/seller id ranges overlap in fresh tables).
	user := model.User{ID: 7, Name: "Asha", Email: "asha@example.com", PasswordHash: "x"}
	seller := model.Seller{ID: 3, ShopName: "Corner Greens", Email: "greens@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&seller).Error)

	convs := service.NewConversationService(
		repository.NewConversationRepository(db),
		repository.NewUserRepository(db),
		repository.NewSellerRepository(db),
	)
	conv, err := convs.CreateOrGet(context.Background(), "", user.ID, seller.ID)
	require.NoError(t, err)

	notifs := service.NewNotificationService(repository.NewNotificationRepository(db))
	hub := NewHub(zerolog.Nop())
	f := &relayFixture{
		relay:  NewRelay(hub, convs, notifs, nil, zerolog.Nop()),
		hub:    hub,
		db:     db,
		convs:  convs,
		conv:   conv,
		user:   NewClient(auth.Identity{Role: model.RoleUser, ID: user.ID}, nil),
		seller: NewClient(auth.Identity{Role: model.RoleSeller, ID: seller.ID}, nil),
	}
	hub.Add(f.user)
	hub.Add(f.seller)
	return f
}

func event(t *testing.T, name string, payload any) Envelope {
	t.Helper()
	raw, err := codec.Marshal(payload)
	require.NoError(t, err)
	return Envelope{Event: name, Data: raw}
}

// recv pops the next outbound frame for c, failing the test if there is none.
func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.Send:
		var env Envelope
		require.NoError(t, codec.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("expected an outbound frame, got none")
		return Envelope{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("expected no outbound frame, got %s", data)
	default:
	}
}

func (f *relayFixture) join(t *testing.T, c *Client) {
	t.Helper()
	f.relay.Handle(c, event(t, EventJoinConversation, map[string]any{"conversationId": f.conv.ID}))
	assertSilent(t, c)
	require.True(t, f.hub.InRoom(roomKey(f.conv.ID), c))
}

func TestJoinChecksMembership(t *testing.T) {
	f := newRelayFixture(t)

	f.join(t, f.user)
	f.join(t, f.seller)

	stranger := NewClient(auth.Identity{Role: model.RoleUser, ID: 999}, nil)
	f.hub.Add(stranger)
	f.relay.Handle(stranger, event(t, EventJoinConversation, map[string]any{"conversationId": f.conv.ID}))
	env := recv(t, stranger)
	assert.Equal(t, EventError, env.Event)
	assert.False(t, f.hub.InRoom(roomKey(f.conv.ID), stranger))
}

func TestJoinRejectsWrongRoleSameID(t *testing.T) {
	f := newRelayFixture(t)

	// A seller whose id collides with the user id is still not a participant.
	imposter := NewClient(auth.Identity{Role: model.RoleSeller, ID: f.user.Identity.ID}, nil)
	f.hub.Add(imposter)
	f.relay.Handle(imposter, event(t, EventJoinConversation, map[string]any{"conversationId": f.conv.ID}))
	env := recv(t, imposter)
	assert.Equal(t, EventError, env.Event)
	assert.False(t, f.hub.InRoom(roomKey(f.conv.ID), imposter))
}

func TestJoinUnknownConversation(t *testing.T) {
	f := newRelayFixture(t)
	f.relay.Handle(f.user, event(t, EventJoinConversation, map[string]any{"conversationId": 4242}))
	env := recv(t, f.user)
	assert.Equal(t, EventError, env.Event)
}

func TestJoinMalformedPayload(t *testing.T) {
	f := newRelayFixture(t)
	for _, payload := range []map[string]any{
		{},
		{"conversationId": 0},
		{"conversationId": -3},
		{"conversationId": "abc"},
		{"conversationId": 1.5},
	} {
		f.relay.Handle(f.user, event(t, EventJoinConversation, payload))
		env := recv(t, f.user)
		assert.Equal(t, EventError, env.Event, "payload %v", payload)
	}
}

func TestSendBroadcastsToWholeRoom(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)
	f.join(t, f.seller)

	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.user.Identity.ID,
		"text":           "hi, is the basil fresh?",
	}))

	// The sender receives its own message back as delivery confirmation.
	for _, c := range []*Client{f.user, f.seller} {
		env := recv(t, c)
		require.Equal(t, EventReceiveMessage, env.Event)
		var msg model.Message
		require.NoError(t, codec.Unmarshal(env.Data, &msg))
		assert.NotZero(t, msg.ID)
		assert.Equal(t, f.conv.ID, msg.ConversationID)
		assert.Equal(t, f.user.Identity.ID, msg.Sender)
		assert.Equal(t, model.RoleUser, msg.SenderRole)
		assert.Equal(t, "hi, is the basil fresh?", msg.Text)
	}

	msgs, err := f.convs.ListMessages(context.Background(), f.conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestSendAcceptsStringIDs(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)

	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": roomKey(f.conv.ID),
		"sender":         roomKey(f.user.Identity.ID),
		"text":           "still there?",
	}))
	env := recv(t, f.user)
	assert.Equal(t, EventReceiveMessage, env.Event)
}

func TestSendRejectsSpoofedSender(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)
	f.join(t, f.seller)

	// Claiming the seller's id over the user's connection fails.
	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.seller.Identity.ID,
		"text":           "spoofed",
	}))
	env := recv(t, f.user)
	assert.Equal(t, EventError, env.Event)
	assertSilent(t, f.seller)

	// Same for a role that contradicts the connection identity.
	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.user.Identity.ID,
		"senderRole":     string(model.RoleSeller),
		"text":           "spoofed",
	}))
	env = recv(t, f.user)
	assert.Equal(t, EventError, env.Event)

	msgs, err := f.convs.ListMessages(context.Background(), f.conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendEmptyTextNotPersisted(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)

	for _, text := range []string{"", "   ", "\n\t"} {
		f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
			"conversationId": f.conv.ID,
			"sender":         f.user.Identity.ID,
			"text":           text,
		}))
		env := recv(t, f.user)
		assert.Equal(t, EventError, env.Event)
	}

	msgs, err := f.convs.ListMessages(context.Background(), f.conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendWithoutJoinStillDelivers(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.seller)

	// Sending requires membership in the conversation, not room presence.
	// The sender just misses the echo because it never joined the room.
	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.user.Identity.ID,
		"text":           "sent from the list view",
	}))
	assertSilent(t, f.user)

	env := recv(t, f.seller)
	assert.Equal(t, EventReceiveMessage, env.Event)
}

func TestRoomIsolation(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)
	f.join(t, f.seller)

	// A second user with their own conversation to the same seller.
	other := model.User{Name: "Brina", Email: "brina@example.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&other).Error)
	otherConv, err := f.convs.CreateOrGet(context.Background(), "", other.ID, f.seller.Identity.ID)
	require.NoError(t, err)
	require.NotEqual(t, f.conv.ID, otherConv.ID)

	otherClient := NewClient(auth.Identity{Role: model.RoleUser, ID: other.ID}, nil)
	f.hub.Add(otherClient)
	f.relay.Handle(otherClient, event(t, EventJoinConversation, map[string]any{"conversationId": otherConv.ID}))
	assertSilent(t, otherClient)

	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.user.Identity.ID,
		"text":           "only for conversation one",
	}))

	recv(t, f.user)
	recv(t, f.seller)
	assertSilent(t, otherClient)
}

func TestTypingExcludesSender(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)
	f.join(t, f.seller)

	f.relay.Handle(f.user, event(t, EventTyping, map[string]any{
		"conversationId": f.conv.ID,
		"userId":         f.user.Identity.ID,
		"isTyping":       true,
	}))

	assertSilent(t, f.user)
	env := recv(t, f.seller)
	require.Equal(t, EventUserTyping, env.Event)
	var p typingPayload
	require.NoError(t, codec.Unmarshal(env.Data, &p))
	assert.True(t, p.IsTyping)
}

func TestUnknownEvent(t *testing.T) {
	f := newRelayFixture(t)
	f.relay.Handle(f.user, Envelope{Event: "self-destruct"})
	env := recv(t, f.user)
	assert.Equal(t, EventError, env.Event)
}

func TestDropClientClearsRooms(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)

	f.relay.dropClient(f.user)
	assert.False(t, f.hub.InRoom(roomKey(f.conv.ID), f.user))
	assert.False(t, f.hub.IsOnline(f.user.Identity))
}

func TestDropClientReleasesConversationLock(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)
	f.join(t, f.seller)

	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.user.Identity.ID,
		"text":           "hello",
	}))
	f.relay.lockMu.Lock()
	assert.Len(t, f.relay.convLocks, 1)
	f.relay.lockMu.Unlock()

	// The lock entry survives while anyone is still in the room.
	f.relay.dropClient(f.user)
	f.relay.lockMu.Lock()
	assert.Len(t, f.relay.convLocks, 1)
	f.relay.lockMu.Unlock()

	f.relay.dropClient(f.seller)
	f.relay.lockMu.Lock()
	assert.Empty(t, f.relay.convLocks)
	f.relay.lockMu.Unlock()
}

func TestOfflineRecipientNotified(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.user)
	f.relay.dropClient(f.seller)

	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.user.Identity.ID,
		"text":           "are you there?",
	}))
	env := recv(t, f.user)
	require.Equal(t, EventReceiveMessage, env.Event)

	var list []model.Notification
	require.NoError(t, f.db.Find(&list).Error)
	require.Len(t, list, 1)
	assert.Equal(t, model.RoleSeller, list[0].RecipientRole)
	assert.Equal(t, f.seller.Identity.ID, list[0].RecipientID)
	assert.Equal(t, "new_message", list[0].Type)
	assert.Equal(t, "are you there?", list[0].Body)
	require.NotNil(t, list[0].ConversationID)
	assert.Equal(t, f.conv.ID, *list[0].ConversationID)

	// Any live connection suppresses the notification, joined or not.
	f.hub.Add(f.seller)
	f.relay.Handle(f.user, event(t, EventSendMessage, map[string]any{
		"conversationId": f.conv.ID,
		"sender":         f.user.Identity.ID,
		"text":           "hello again",
	}))
	recv(t, f.user)

	var count int64
	require.NoError(t, f.db.Model(&model.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeliverBroadcastsToJoinedSockets(t *testing.T) {
	f := newRelayFixture(t)
	f.join(t, f.seller)

	// The REST append path: no websocket event, same fan-out.
	msg, err := f.relay.Deliver(context.Background(), f.user.Identity, f.conv.ID, "posted over http")
	require.NoError(t, err)
	require.NotZero(t, msg.ID)

	env := recv(t, f.seller)
	require.Equal(t, EventReceiveMessage, env.Event)
	var got model.Message
	require.NoError(t, codec.Unmarshal(env.Data, &got))
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "posted over http", got.Text)
}

func TestDeliverRejectsNonParticipant(t *testing.T) {
	f := newRelayFixture(t)
	_, err := f.relay.Deliver(context.Background(), auth.Identity{Role: model.RoleUser, ID: 999}, f.conv.ID, "nope")
	assert.ErrorIs(t, err, service.ErrNotParticipant)
}
