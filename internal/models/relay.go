package models

import "github.com/goccy/go-json"

// RelayEvent is what the bridge publishes to Redis for every inbound event.
type RelayEvent struct {
	Type      string          `json:"type"`
	UserId    string          `json:"userId"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// RelayCommand is what other services publish to Redis to make the bridge
// act on the user's behalf. The bridge supplies the acting user id itself,
// so payloads carry only the counterpart fields.
type RelayCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type RelayJoinDirect struct {
	OtherUserId string `json:"otherUserId"`
}

type RelaySendDirect struct {
	ToUserId        string `json:"toUserId"`
	Text            string `json:"text"`
	ClientMessageId string `json:"clientMessageId,omitempty"`
}

type RelayTyping struct {
	OtherUserId string `json:"otherUserId"`
	IsTyping    bool   `json:"isTyping"`
}

type RelayReceipt struct {
	OtherUserId string   `json:"otherUserId"`
	MessageIds  []string `json:"messageIds"`
}

type RelayHistory struct {
	OtherUserId string `json:"otherUserId"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}
