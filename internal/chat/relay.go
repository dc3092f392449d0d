package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/service"
	"github.com/rs/zerolog"
)

const handleTimeout = 10 * time.Second

// Relay mediates real-time delivery between connected clients: it authorizes
// joins against conversation membership, persists sends through the
// conversation service and fans the canonical row back out to the room.
// Failures stay local to the triggering connection.
type Relay struct {
	hub      *Hub
	convs    service.ConversationService
	notifs   service.NotificationService
	presence *Presence
	log      zerolog.Logger

	// One lock per conversation so interleaved sends to the same
	// conversation serialize; persistence order equals broadcast order.
	// Entries are dropped when the conversation's room empties.
	lockMu    sync.Mutex
	convLocks map[uint64]*sync.Mutex
}

func NewRelay(hub *Hub, convs service.ConversationService, notifs service.NotificationService, presence *Presence, log zerolog.Logger) *Relay {
	return &Relay{
		hub:       hub,
		convs:     convs,
		notifs:    notifs,
		presence:  presence,
		log:       log,
		convLocks: make(map[uint64]*sync.Mutex),
	}
}

func (r *Relay) Handle(c *Client, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch env.Event {
	case EventJoinConversation:
		r.handleJoin(ctx, c, env.Data)
	case EventSendMessage:
		r.handleSend(ctx, c, env.Data)
	case EventTyping:
		r.handleTyping(c, env.Data)
	default:
		r.sendError(c, "unknown event: "+env.Event)
	}
}

func (r *Relay) handleJoin(ctx context.Context, c *Client, data []byte) {
	var p joinPayload
	if err := codec.Unmarshal(data, &p); err != nil || p.ConversationID == nil {
		r.sendError(c, "conversationId is required")
		return
	}
	convID, ok := coerceID(p.ConversationID)
	if !ok {
		r.sendError(c, "conversationId must be a positive integer")
		return
	}
	cv, err := r.convs.Get(ctx, convID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			r.sendError(c, "conversation not found")
		} else {
			r.sendError(c, "failed to load conversation")
		}
		return
	}
	// Membership is checked at join time: a socket that is not a
	// participant never observes the room's broadcasts.
	if !cv.HasParticipant(c.Identity.Role, c.Identity.ID) {
		r.sendError(c, "not a participant in this conversation")
		return
	}
	r.hub.Join(roomKey(convID), c)
}

func (r *Relay) handleSend(ctx context.Context, c *Client, data []byte) {
	var p sendPayload
	if err := codec.Unmarshal(data, &p); err != nil {
		r.sendError(c, "malformed send-message payload")
		return
	}
	text := strings.TrimSpace(p.Text)
	if p.ConversationID == nil || p.Sender == nil || text == "" {
		r.sendError(c, "conversationId, sender and text are required")
		return
	}
	convID, ok := coerceID(p.ConversationID)
	if !ok {
		r.sendError(c, "conversationId must be a positive integer")
		return
	}
	sender, ok := coerceID(p.Sender)
	if !ok {
		r.sendError(c, "sender must be a positive integer")
		return
	}
	if sender != c.Identity.ID {
		r.sendError(c, "sender does not match connection identity")
		return
	}
	role := model.ParticipantRole(p.SenderRole)
	if role.Valid() && role != c.Identity.Role {
		r.sendError(c, "senderRole does not match connection identity")
		return
	}
	if _, err := r.Deliver(ctx, c.Identity, convID, text); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			r.sendError(c, "conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			r.sendError(c, "sender is not a participant in this conversation")
		case errors.Is(err, service.ErrEmptyMessage):
			r.sendError(c, "message text is required")
		default:
			r.log.Error().Err(err).Uint64("conversation", convID).Msg("message persist failed")
			r.sendError(c, "failed to send message")
		}
	}
}

// Deliver persists a message and fans the canonical row out to the
// conversation's room, serialized per conversation. The socket send path and
// the REST append share it so both produce the same broadcast and the same
// offline notification.
func (r *Relay) Deliver(ctx context.Context, from auth.Identity, convID uint64, text string) (*model.Message, error) {
	mu := r.conversationLock(convID)
	mu.Lock()
	defer mu.Unlock()

	msg, cv, err := r.convs.AppendMessage(ctx, convID, from.ID, from.Role, text)
	if err != nil {
		return nil, err
	}

	out, err := marshalEvent(EventReceiveMessage, msg)
	if err != nil {
		// Already persisted; the room just misses this broadcast.
		r.log.Error().Err(err).Msg("receive-message marshal failed")
		return msg, nil
	}
	// The sender gets the broadcast too; that is its delivery confirmation.
	r.hub.Broadcast(roomKey(convID), out)

	r.notifyIfOffline(ctx, cv, from, msg)
	return msg, nil
}

func (r *Relay) handleTyping(c *Client, data []byte) {
	var p typingPayload
	if err := codec.Unmarshal(data, &p); err != nil || p.ConversationID == nil || p.UserID == nil {
		r.sendError(c, "conversationId and userId are required")
		return
	}
	convID, ok := coerceID(p.ConversationID)
	if !ok {
		r.sendError(c, "conversationId must be a positive integer")
		return
	}
	// Best-effort, fire-and-forget; never persisted, never echoed back to
	// the sender.
	out, err := marshalEvent(EventUserTyping, p)
	if err != nil {
		return
	}
	r.hub.BroadcastExcept(roomKey(convID), out, c)
}

func (r *Relay) sendError(c *Client, msg string) {
	out, err := marshalEvent(EventError, errorPayload{Message: msg})
	if err != nil {
		return
	}
	select {
	case c.Send <- out:
	case <-c.done:
	default:
	}
}

func (r *Relay) conversationLock(convID uint64) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	mu, ok := r.convLocks[convID]
	if !ok {
		mu = &sync.Mutex{}
		r.convLocks[convID] = mu
	}
	return mu
}

// releaseConversationLocks drops lock entries for rooms that just lost their
// last connection, keeping the map bounded by the number of active rooms.
func (r *Relay) releaseConversationLocks(rooms []string) {
	if len(rooms) == 0 {
		return
	}
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	for _, room := range rooms {
		if convID, err := strconv.ParseUint(room, 10, 64); err == nil {
			delete(r.convLocks, convID)
		}
	}
}

// notifyIfOffline writes a notification row for the other participant when
// they have no live connection anywhere.
func (r *Relay) notifyIfOffline(ctx context.Context, cv *model.Conversation, sender auth.Identity, msg *model.Message) {
	if r.notifs == nil {
		return
	}
	recipient := auth.Identity{Role: model.RoleUser, ID: cv.UserID}
	if sender.Role == model.RoleUser && sender.ID == cv.UserID {
		recipient = auth.Identity{Role: model.RoleSeller, ID: cv.SellerID}
	}
	if r.isOnline(ctx, recipient) {
		return
	}
	convID := cv.ID
	r.notifs.Notify(ctx, recipient.Role, recipient.ID, "new_message", msg.Text, &convID, nil)
}

func (r *Relay) isOnline(ctx context.Context, ident auth.Identity) bool {
	if r.presence != nil {
		online, err := r.presence.IsOnline(ctx, ident)
		if err == nil {
			return online
		}
		r.log.Warn().Err(err).Msg("presence lookup failed, falling back to hub")
	}
	return r.hub.IsOnline(ident)
}

// dropClient is called when a connection's read side ends.
func (r *Relay) dropClient(c *Client) {
	stillOnline, emptied := r.hub.Remove(c)
	r.releaseConversationLocks(emptied)
	if !stillOnline && r.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.presence.Offline(ctx, c.Identity); err != nil {
			r.log.Warn().Err(err).Msg("presence offline failed")
		}
	}
}

// touchPresence refreshes the presence TTL from the pong handler.
func (r *Relay) touchPresence(c *Client) {
	if r.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.presence.Online(ctx, c.Identity); err != nil {
		r.log.Warn().Err(err).Msg("presence refresh failed")
	}
}
