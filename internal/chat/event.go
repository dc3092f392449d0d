package chat

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Wire events. Inbound: join-conversation, send-message, typing.
// Outbound: receive-message, user-typing, error.
const (
	EventJoinConversation = "join-conversation"
	EventSendMessage      = "send-message"
	EventTyping           = "typing"
	EventReceiveMessage   = "receive-message"
	EventUserTyping       = "user-typing"
	EventError            = "error"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope frames every message on the socket as {"event": ..., "data": ...}.
type Envelope struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

type joinPayload struct {
	ConversationID any `json:"conversationId"`
}

type sendPayload struct {
	ConversationID any    `json:"conversationId"`
	Sender         any    `json:"sender"`
	Text           string `json:"text"`
	SenderRole     string `json:"senderRole,omitempty"`
}

type typingPayload struct {
	ConversationID any  `json:"conversationId"`
	UserID         any  `json:"userId"`
	IsTyping       bool `json:"isTyping"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := codec.Marshal(data)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(Envelope{Event: event, Data: raw})
}

// coerceID accepts the loose id encodings clients send: a JSON number or a
// decimal string. Zero and fractional values are rejected.
func coerceID(v any) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 || t != float64(uint64(t)) {
			return 0, false
		}
		return uint64(t), true
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil || n == 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func roomKey(convID uint64) string {
	return strconv.FormatUint(convID, 10)
}
