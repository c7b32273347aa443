package ws

import "wishera-chat/internal/models"

// Handlers receives inbound events. Every field is optional; events without
// a handler are dropped. Handlers run on the connection's read goroutine, in
// the order frames arrive, so they should not block.
type Handlers struct {
	// OnEvent, when set, sees every decoded event before its typed handler.
	OnEvent func(models.Event)

	OnPresenceChanged func(models.PresenceChanged)
	OnTyping          func(models.TypingEvent)
	OnMessageReceived func(models.ChatMessage)
	OnDelivered       func(models.Receipts)
	OnRead            func(models.Receipts)
	// OnHistory receives the page items, never nil.
	OnHistory func([]models.ChatMessage)
	OnEdited  func(models.MessageEdited)
	OnDeleted func(models.MessageDeleted)

	// OnProtocolError receives frames that could not be decoded.
	OnProtocolError func(error)

	// OnStateChange runs on the Client's run loop. It must not call SetUser.
	OnStateChange func(StateEvent)
}

var _ models.EventVisitor = Handlers{}

// Dispatch runs OnEvent and then the typed handler for e.
func (h Handlers) Dispatch(e models.Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
	e.Accept(h)
}

func (h Handlers) PresenceChanged(e models.PresenceChanged) {
	if h.OnPresenceChanged != nil {
		h.OnPresenceChanged(e)
	}
}

func (h Handlers) Typing(e models.TypingEvent) {
	if h.OnTyping != nil {
		h.OnTyping(e)
	}
}

func (h Handlers) MessageReceived(e models.ChatMessage) {
	if h.OnMessageReceived != nil {
		h.OnMessageReceived(e)
	}
}

func (h Handlers) Delivered(e models.DeliveredReceipts) {
	if h.OnDelivered != nil {
		h.OnDelivered(e.Receipts)
	}
}

func (h Handlers) Read(e models.ReadReceipts) {
	if h.OnRead != nil {
		h.OnRead(e.Receipts)
	}
}

func (h Handlers) History(e models.HistoryResult) {
	if h.OnHistory == nil {
		return
	}
	items := e.Items
	if items == nil {
		items = []models.ChatMessage{}
	}
	h.OnHistory(items)
}

func (h Handlers) Edited(e models.MessageEdited) {
	if h.OnEdited != nil {
		h.OnEdited(e)
	}
}

func (h Handlers) Deleted(e models.MessageDeleted) {
	if h.OnDeleted != nil {
		h.OnDeleted(e)
	}
}

func (h Handlers) protocolError(err error) {
	if h.OnProtocolError != nil {
		h.OnProtocolError(err)
	}
}

func (h Handlers) stateChange(e StateEvent) {
	if h.OnStateChange != nil {
		h.OnStateChange(e)
	}
}
