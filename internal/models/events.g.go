package models

import "github.com/goccy/go-json"

// Inbound event types sent by the chat server.
const (
	EventPresenceChanged   = "presenceChanged"
	EventTyping            = "typing"
	EventMessageReceived   = "messageReceived"
	EventDeliveredReceipts = "deliveredReceipts"
	EventReadReceipts      = "readReceipts"
	EventHistoryResult     = "historyResult"
	EventMessageEdited     = "messageEdited"
	EventMessageDeleted    = "messageDeleted"
)

// Event is one inbound server event. The set of variants is closed: every
// variant calls exactly one EventVisitor method from Accept.
type Event interface {
	Type() string
	// Payload returns the payload bytes exactly as received.
	Payload() json.RawMessage
	Accept(v EventVisitor)
}

// EventVisitor has one method per inbound variant.
type EventVisitor interface {
	PresenceChanged(PresenceChanged)
	Typing(TypingEvent)
	MessageReceived(ChatMessage)
	Delivered(DeliveredReceipts)
	Read(ReadReceipts)
	History(HistoryResult)
	Edited(MessageEdited)
	Deleted(MessageDeleted)
}

type PresenceChanged struct {
	UserId   string          `json:"userId"`
	IsOnline bool            `json:"isOnline"`
	Raw      json.RawMessage `json:"-"`
}

type TypingEvent struct {
	UserId         string          `json:"userId"`
	ConversationId string          `json:"conversationId"`
	IsTyping       bool            `json:"isTyping"`
	Raw            json.RawMessage `json:"-"`
}

// ChatMessage is a direct message as the server reports it, both live
// (messageReceived) and inside history pages. Ids and timestamps hold the
// server's literal text, whether it sent a string or a number.
type ChatMessage struct {
	ID              string          `json:"id"`
	ConversationId  string          `json:"conversationId,omitempty"`
	FromUserId      string          `json:"fromUserId"`
	ToUserId        string          `json:"toUserId"`
	Text            string          `json:"text"`
	ClientMessageId string          `json:"clientMessageId,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	DeliveredAt     string          `json:"deliveredAt,omitempty"`
	ReadAt          string          `json:"readAt,omitempty"`
	EditedAt        string          `json:"editedAt,omitempty"`
	IsDeleted       bool            `json:"isDeleted,omitempty"`
	Raw             json.RawMessage `json:"-"`
}

// Receipts acknowledges that messages reached or were seen by UserId.
type Receipts struct {
	ConversationId string          `json:"conversationId,omitempty"`
	UserId         string          `json:"userId"`
	MessageIds     []string        `json:"messageIds"`
	At             string          `json:"at,omitempty"`
	Raw            json.RawMessage `json:"-"`
}

type DeliveredReceipts struct{ Receipts }

type ReadReceipts struct{ Receipts }

type HistoryResult struct {
	Items []ChatMessage   `json:"items"`
	Raw   json.RawMessage `json:"-"`
}

type MessageEdited struct {
	ID             string          `json:"id"`
	ConversationId string          `json:"conversationId,omitempty"`
	Text           string          `json:"text"`
	EditedAt       string          `json:"editedAt,omitempty"`
	Raw            json.RawMessage `json:"-"`
}

type MessageDeleted struct {
	ID             string          `json:"id"`
	ConversationId string          `json:"conversationId,omitempty"`
	DeletedAt      string          `json:"deletedAt,omitempty"`
	Raw            json.RawMessage `json:"-"`
}

func (e PresenceChanged) Type() string               { return EventPresenceChanged }
func (e PresenceChanged) Payload() json.RawMessage   { return e.Raw }
func (e PresenceChanged) Accept(v EventVisitor)      { v.PresenceChanged(e) }
func (e TypingEvent) Type() string                   { return EventTyping }
func (e TypingEvent) Payload() json.RawMessage       { return e.Raw }
func (e TypingEvent) Accept(v EventVisitor)          { v.Typing(e) }
func (e ChatMessage) Type() string                   { return EventMessageReceived }
func (e ChatMessage) Payload() json.RawMessage       { return e.Raw }
func (e ChatMessage) Accept(v EventVisitor)          { v.MessageReceived(e) }
func (e DeliveredReceipts) Type() string             { return EventDeliveredReceipts }
func (e DeliveredReceipts) Payload() json.RawMessage { return e.Raw }
func (e DeliveredReceipts) Accept(v EventVisitor)    { v.Delivered(e) }
func (e ReadReceipts) Type() string                  { return EventReadReceipts }
func (e ReadReceipts) Payload() json.RawMessage      { return e.Raw }
func (e ReadReceipts) Accept(v EventVisitor)         { v.Read(e) }
func (e HistoryResult) Type() string                 { return EventHistoryResult }
func (e HistoryResult) Payload() json.RawMessage     { return e.Raw }
func (e HistoryResult) Accept(v EventVisitor)        { v.History(e) }
func (e MessageEdited) Type() string                 { return EventMessageEdited }
func (e MessageEdited) Payload() json.RawMessage     { return e.Raw }
func (e MessageEdited) Accept(v EventVisitor)        { v.Edited(e) }
func (e MessageDeleted) Type() string                { return EventMessageDeleted }
func (e MessageDeleted) Payload() json.RawMessage    { return e.Raw }
func (e MessageDeleted) Accept(v EventVisitor)       { v.Deleted(e) }
