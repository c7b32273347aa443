package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wishera-chat/internal/models"

	"github.com/goccy/go-json"
)

var (
	ErrUnknownCommand = errors.New("unknown command type")
	ErrInvalidCommand = errors.New("invalid command")
	ErrNotConnected   = errors.New("chat connection not open")
)

// Commander is the part of the chat client the relay drives.
type Commander interface {
	UserID() string
	JoinDirect(otherUserId string) bool
	SendDirect(toUserId, text, clientMessageId string) bool
	Typing(otherUserId string, isTyping bool) bool
	Delivered(otherUserId string, messageIds []string) bool
	Read(otherUserId string, messageIds []string) bool
	History(userA, userB string, page, pageSize int) bool
}

// SubscribeToCommands feeds commands published on userId's command channel
// to commander until ctx ends.
func SubscribeToCommands(ctx context.Context, client *Client, userId string, commander Commander) error {
	channel := CommandsChannel(userId)
	slog.Info("[REDIS] Starting command subscription", "channel", channel)

	pubsub := client.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.Error("[REDIS] Failed to receive subscription confirmation", "error", err)
		return fmt.Errorf("pubsub.Receive: %w", err)
	}

	slog.Info("[REDIS] Subscription confirmed, listening for commands...", "channel", channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				slog.Info("[REDIS] Redis pub/sub channel closed", "channel", channel)
				return nil
			}

			if err := HandleCommand(commander, []byte(msg.Payload)); err != nil {
				slog.Warn("[REDIS] Command not sent", "channel", msg.Channel, "error", err)
			}
		}
	}
}

// HandleCommand decodes one relayed command and sends it as the
// commander's user. sendDirect without a clientMessageId gets a fresh one.
func HandleCommand(commander Commander, payload []byte) error {
	var cmd models.RelayCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	var sent bool
	switch cmd.Type {
	case models.CommandJoinDirect:
		var p models.RelayJoinDirect
		if err := decodeCommand(cmd, &p); err != nil {
			return err
		}
		if p.OtherUserId == "" {
			return fmt.Errorf("%w: %s without otherUserId", ErrInvalidCommand, cmd.Type)
		}
		sent = commander.JoinDirect(p.OtherUserId)

	case models.CommandSendDirect:
		var p models.RelaySendDirect
		if err := decodeCommand(cmd, &p); err != nil {
			return err
		}
		if p.ToUserId == "" {
			return fmt.Errorf("%w: %s without toUserId", ErrInvalidCommand, cmd.Type)
		}
		if p.ClientMessageId == "" {
			p.ClientMessageId = models.NewClientMessageID()
		}
		sent = commander.SendDirect(p.ToUserId, p.Text, p.ClientMessageId)

	case models.CommandTyping:
		var p models.RelayTyping
		if err := decodeCommand(cmd, &p); err != nil {
			return err
		}
		if p.OtherUserId == "" {
			return fmt.Errorf("%w: %s without otherUserId", ErrInvalidCommand, cmd.Type)
		}
		sent = commander.Typing(p.OtherUserId, p.IsTyping)

	case models.CommandDelivered, models.CommandRead:
		var p models.RelayReceipt
		if err := decodeCommand(cmd, &p); err != nil {
			return err
		}
		if p.OtherUserId == "" {
			return fmt.Errorf("%w: %s without otherUserId", ErrInvalidCommand, cmd.Type)
		}
		if cmd.Type == models.CommandDelivered {
			sent = commander.Delivered(p.OtherUserId, p.MessageIds)
		} else {
			sent = commander.Read(p.OtherUserId, p.MessageIds)
		}

	case models.CommandHistory:
		var p models.RelayHistory
		if err := decodeCommand(cmd, &p); err != nil {
			return err
		}
		if p.OtherUserId == "" {
			return fmt.Errorf("%w: %s without otherUserId", ErrInvalidCommand, cmd.Type)
		}
		sent = commander.History(commander.UserID(), p.OtherUserId, p.Page, p.PageSize)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}

	if !sent {
		return fmt.Errorf("%s: %w", cmd.Type, ErrNotConnected)
	}

	return nil
}

func decodeCommand(cmd models.RelayCommand, v interface{}) error {
	if len(cmd.Payload) == 0 {
		return fmt.Errorf("%w: %s without payload", ErrInvalidCommand, cmd.Type)
	}

	if err := json.Unmarshal(cmd.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %w", ErrInvalidCommand, cmd.Type, err)
	}

	return nil
}
