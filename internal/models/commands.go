package models

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Outbound command types sent to the chat server.
const (
	CommandRegister   = "register"
	CommandJoinDirect = "joinDirect"
	CommandSendDirect = "sendDirect"
	CommandTyping     = "typing"
	CommandDelivered  = "delivered"
	CommandRead       = "read"
	CommandHistory    = "history"
)

const DefaultHistoryPageSize = 20

type Command struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type RegisterPayload struct {
	UserId string `json:"userId"`
}

type JoinDirectPayload struct {
	CurrentUserId string `json:"currentUserId"`
	OtherUserId   string `json:"otherUserId"`
}

type SendDirectPayload struct {
	FromUserId      string `json:"fromUserId"`
	ToUserId        string `json:"toUserId"`
	Text            string `json:"text"`
	ClientMessageId string `json:"clientMessageId,omitempty"`
}

type TypingPayload struct {
	UserId      string `json:"userId"`
	OtherUserId string `json:"otherUserId"`
	IsTyping    bool   `json:"isTyping"`
}

// ReceiptPayload is shared by delivered and read.
type ReceiptPayload struct {
	UserId      string   `json:"userId"`
	OtherUserId string   `json:"otherUserId"`
	MessageIds  []string `json:"messageIds"`
}

type HistoryPayload struct {
	UserA    string `json:"userA"`
	UserB    string `json:"userB"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// EncodeCommand renders a command as a single text frame.
func EncodeCommand(commandType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Command{Type: commandType, Payload: payload})
}

// NewClientMessageID returns an id the sender can use to match its own
// sendDirect against the echoed messageReceived.
func NewClientMessageID() string {
	return uuid.NewString()
}
