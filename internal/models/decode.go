package models

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrUnknownEventType = errors.New("unknown event type")
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var eventDecoders = map[string]func(raw json.RawMessage) Event{
	EventPresenceChanged: func(raw json.RawMessage) Event {
		f := payloadFields(raw)
		e := PresenceChanged{Raw: raw}
		f.str("userId", &e.UserId)
		f.boolean("isOnline", &e.IsOnline)
		return e
	},
	EventTyping: func(raw json.RawMessage) Event {
		f := payloadFields(raw)
		e := TypingEvent{Raw: raw}
		f.str("userId", &e.UserId)
		f.str("conversationId", &e.ConversationId)
		f.boolean("isTyping", &e.IsTyping)
		return e
	},
	EventMessageReceived: func(raw json.RawMessage) Event {
		return decodeChatMessage(raw)
	},
	EventDeliveredReceipts: func(raw json.RawMessage) Event {
		return DeliveredReceipts{decodeReceipts(raw)}
	},
	EventReadReceipts: func(raw json.RawMessage) Event {
		return ReadReceipts{decodeReceipts(raw)}
	},
	EventHistoryResult: func(raw json.RawMessage) Event {
		return decodeHistory(raw)
	},
	EventMessageEdited: func(raw json.RawMessage) Event {
		f := payloadFields(raw)
		e := MessageEdited{Raw: raw}
		f.str("id", &e.ID)
		f.str("conversationId", &e.ConversationId)
		f.str("text", &e.Text)
		f.str("editedAt", &e.EditedAt)
		return e
	},
	EventMessageDeleted: func(raw json.RawMessage) Event {
		f := payloadFields(raw)
		e := MessageDeleted{Raw: raw}
		f.str("id", &e.ID)
		f.str("conversationId", &e.ConversationId)
		f.str("deletedAt", &e.DeletedAt)
		return e
	},
}

// DecodeEvent parses one inbound frame. It fails with ErrMalformedFrame when
// the frame is not JSON or has no type, and with ErrUnknownEventType when the
// type is not one the client understands. Payload members are read
// best-effort; the exact payload bytes are always kept on the event.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	decode, ok := eventDecoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}

	return decode(env.Payload), nil
}

func decodeChatMessage(raw json.RawMessage) ChatMessage {
	f := payloadFields(raw)
	m := ChatMessage{Raw: raw}
	f.str("id", &m.ID)
	f.str("conversationId", &m.ConversationId)
	f.str("fromUserId", &m.FromUserId)
	f.str("toUserId", &m.ToUserId)
	f.str("text", &m.Text)
	f.str("clientMessageId", &m.ClientMessageId)
	f.str("createdAt", &m.CreatedAt)
	f.str("deliveredAt", &m.DeliveredAt)
	f.str("readAt", &m.ReadAt)
	f.str("editedAt", &m.EditedAt)
	f.boolean("isDeleted", &m.IsDeleted)
	return m
}

func decodeReceipts(raw json.RawMessage) Receipts {
	f := payloadFields(raw)
	r := Receipts{Raw: raw}
	f.str("conversationId", &r.ConversationId)
	f.str("userId", &r.UserId)
	f.strs("messageIds", &r.MessageIds)
	f.str("at", &r.At)
	return r
}

func decodeHistory(raw json.RawMessage) HistoryResult {
	// Always non-nil so handlers can range without checking.
	items := []ChatMessage{}
	for _, item := range payloadFields(raw).list("items") {
		items = append(items, decodeChatMessage(item))
	}

	return HistoryResult{Items: items, Raw: raw}
}

// fields holds the members of a payload object. Its accessors leave the
// target untouched when a member is missing or of a shape they cannot read.
type fields map[string]json.RawMessage

// payloadFields splits raw into members. A payload that is not an object
// has none.
func payloadFields(raw json.RawMessage) fields {
	var f fields
	if len(raw) == 0 {
		return f
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return f
}

// str reads a string member. Numbers and booleans keep their literal text,
// so a numeric id 42 reads as "42".
func (f fields) str(key string, dst *string) {
	if v, ok := f[key]; ok {
		if s, ok := scalarText(v); ok {
			*dst = s
		}
	}
}

// boolean reads a boolean member. A number reads as true when non-zero.
func (f fields) boolean(key string, dst *bool) {
	v, ok := f[key]
	if !ok {
		return
	}

	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		*dst = b
		return
	}

	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		*dst = n != 0
	}
}

// strs reads an array of scalars, skipping elements that are not scalars.
func (f fields) strs(key string, dst *[]string) {
	items := f.list(key)
	if items == nil {
		return
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := scalarText(item); ok {
			out = append(out, s)
		}
	}
	*dst = out
}

func (f fields) list(key string) []json.RawMessage {
	v, ok := f[key]
	if !ok {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil
	}
	return items
}

func scalarText(v json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}

	t := bytes.TrimSpace(v)
	if len(t) == 0 || t[0] == '{' || t[0] == '[' {
		return "", false
	}
	return string(t), true
}
