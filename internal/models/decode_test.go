package models_test

import (
	"testing"

	"wishera-chat/internal/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		frame    string
		wantType string
		check    func(t *testing.T, e models.Event)
	}{
		{
			name:     "presence changed",
			frame:    `{"type":"presenceChanged","payload":{"userId":"u2","isOnline":true}}`,
			wantType: models.EventPresenceChanged,
			check: func(t *testing.T, e models.Event) {
				require.Equal(t, "u2", e.(models.PresenceChanged).UserId)
				require.True(t, e.(models.PresenceChanged).IsOnline)
			},
		},
		{
			name:     "typing",
			frame:    `{"type":"typing","payload":{"userId":"u2","conversationId":"c1","isTyping":true}}`,
			wantType: models.EventTyping,
			check: func(t *testing.T, e models.Event) {
				require.Equal(t, models.TypingEvent{
					UserId:         "u2",
					ConversationId: "c1",
					IsTyping:       true,
					Raw:            json.RawMessage(`{"userId":"u2","conversationId":"c1","isTyping":true}`),
				}, e)
			},
		},
		{
			name:     "message received",
			frame:    `{"type":"messageReceived","payload":{"id":"m1","fromUserId":"u2","toUserId":"u1","text":"hi","clientMessageId":"x"}}`,
			wantType: models.EventMessageReceived,
			check: func(t *testing.T, e models.Event) {
				m := e.(models.ChatMessage)
				require.Equal(t, "m1", m.ID)
				require.Equal(t, "hi", m.Text)
				require.Equal(t, "x", m.ClientMessageId)
			},
		},
		{
			name:     "delivered receipts",
			frame:    `{"type":"deliveredReceipts","payload":{"userId":"u2","messageIds":["m1","m2"]}}`,
			wantType: models.EventDeliveredReceipts,
			check: func(t *testing.T, e models.Event) {
				require.Equal(t, []string{"m1", "m2"}, e.(models.DeliveredReceipts).MessageIds)
			},
		},
		{
			name:     "read receipts",
			frame:    `{"type":"readReceipts","payload":{"userId":"u2","messageIds":["m3"]}}`,
			wantType: models.EventReadReceipts,
			check: func(t *testing.T, e models.Event) {
				require.Equal(t, "u2", e.(models.ReadReceipts).UserId)
			},
		},
		{
			name:     "history result",
			frame:    `{"type":"historyResult","payload":{"items":[{"id":"m1","text":"a"},{"id":"m2","text":"b"}]}}`,
			wantType: models.EventHistoryResult,
			check: func(t *testing.T, e models.Event) {
				items := e.(models.HistoryResult).Items
				require.Len(t, items, 2)
				require.Equal(t, "m2", items[1].ID)
				require.JSONEq(t, `{"id":"m2","text":"b"}`, string(items[1].Raw))
			},
		},
		{
			name:     "message edited",
			frame:    `{"type":"messageEdited","payload":{"id":"m1","text":"edited"}}`,
			wantType: models.EventMessageEdited,
			check: func(t *testing.T, e models.Event) {
				require.Equal(t, "edited", e.(models.MessageEdited).Text)
			},
		},
		{
			name:     "message deleted",
			frame:    `{"type":"messageDeleted","payload":{"id":"m1"}}`,
			wantType: models.EventMessageDeleted,
			check: func(t *testing.T, e models.Event) {
				require.Equal(t, "m1", e.(models.MessageDeleted).ID)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := models.DecodeEvent([]byte(tt.frame))
			require.NoError(t, err)
			require.Equal(t, tt.wantType, e.Type())

			var env struct {
				Payload json.RawMessage `json:"payload"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.frame), &env))
			require.JSONEq(t, string(env.Payload), string(e.Payload()))

			tt.check(t, e)
		})
	}
}

func TestDecodeEvent_HistoryWithoutItems(t *testing.T) {
	t.Parallel()

	for _, frame := range []string{
		`{"type":"historyResult","payload":{}}`,
		`{"type":"historyResult","payload":null}`,
		`{"type":"historyResult"}`,
	} {
		e, err := models.DecodeEvent([]byte(frame))
		require.NoError(t, err, frame)

		items := e.(models.HistoryResult).Items
		require.NotNil(t, items, frame)
		require.Empty(t, items, frame)
	}
}

func TestDecodeEvent_LoosePayloads(t *testing.T) {
	t.Parallel()

	t.Run("it should keep numeric ids and timestamps as text", func(t *testing.T) {
		payload := `{"id":42,"fromUserId":"u2","text":"hi","createdAt":1700000000000,"isDeleted":0}`

		e, err := models.DecodeEvent([]byte(`{"type":"messageReceived","payload":` + payload + `}`))
		require.NoError(t, err)

		m := e.(models.ChatMessage)
		require.Equal(t, "42", m.ID)
		require.Equal(t, "1700000000000", m.CreatedAt)
		require.Equal(t, "hi", m.Text)
		require.False(t, m.IsDeleted)
		require.JSONEq(t, payload, string(m.Raw))
	})

	t.Run("it should keep every item of a mixed history page", func(t *testing.T) {
		payload := `{"items":[{"id":"m1","text":"a"},{"id":2,"text":"b","isDeleted":0,"readAt":{"at":1}},"odd"],"hasMore":true}`

		e, err := models.DecodeEvent([]byte(`{"type":"historyResult","payload":` + payload + `}`))
		require.NoError(t, err)

		page := e.(models.HistoryResult)
		require.Len(t, page.Items, 3)
		require.Equal(t, "m1", page.Items[0].ID)
		require.Equal(t, "2", page.Items[1].ID)
		require.Empty(t, page.Items[1].ReadAt)
		require.Empty(t, page.Items[2].ID)
		require.JSONEq(t, `"odd"`, string(page.Items[2].Raw))
		require.JSONEq(t, payload, string(page.Raw))
	})

	t.Run("it should read mixed receipt ids", func(t *testing.T) {
		e, err := models.DecodeEvent([]byte(`{"type":"readReceipts","payload":{"userId":"u2","messageIds":["m1",7,null,{}]}}`))
		require.NoError(t, err)
		require.Equal(t, []string{"m1", "7", ""}, e.(models.ReadReceipts).MessageIds)
	})

	t.Run("it should dispatch payloads of unexpected shape", func(t *testing.T) {
		e, err := models.DecodeEvent([]byte(`{"type":"presenceChanged","payload":{"userId":"u2","isOnline":"yes"}}`))
		require.NoError(t, err)
		require.Equal(t, "u2", e.(models.PresenceChanged).UserId)
		require.False(t, e.(models.PresenceChanged).IsOnline)

		e, err = models.DecodeEvent([]byte(`{"type":"messageDeleted","payload":"m1"}`))
		require.NoError(t, err)
		require.JSONEq(t, `"m1"`, string(e.Payload()))
	})
}

func TestDecodeEvent_Errors(t *testing.T) {
	t.Parallel()

	t.Run("it should reject frames that are not json", func(t *testing.T) {
		_, err := models.DecodeEvent([]byte("not json"))
		require.ErrorIs(t, err, models.ErrMalformedFrame)
	})

	t.Run("it should reject frames without a type", func(t *testing.T) {
		_, err := models.DecodeEvent([]byte(`{"payload":{}}`))
		require.ErrorIs(t, err, models.ErrMalformedFrame)
	})

	t.Run("it should reject a type that is not a string", func(t *testing.T) {
		_, err := models.DecodeEvent([]byte(`{"type":7,"payload":{}}`))
		require.ErrorIs(t, err, models.ErrMalformedFrame)
	})

	t.Run("it should report unknown types separately", func(t *testing.T) {
		_, err := models.DecodeEvent([]byte(`{"type":"somethingNew","payload":{}}`))
		require.ErrorIs(t, err, models.ErrUnknownEventType)
		require.NotErrorIs(t, err, models.ErrMalformedFrame)
	})
}

func TestEncodeCommand(t *testing.T) {
	t.Parallel()

	t.Run("it should omit an empty client message id", func(t *testing.T) {
		data, err := models.EncodeCommand(models.CommandSendDirect, models.SendDirectPayload{
			FromUserId: "u1",
			ToUserId:   "u2",
			Text:       "hello",
		})
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"sendDirect","payload":{"fromUserId":"u1","toUserId":"u2","text":"hello"}}`, string(data))
	})

	t.Run("it should encode history paging", func(t *testing.T) {
		data, err := models.EncodeCommand(models.CommandHistory, models.HistoryPayload{
			UserA:    "u1",
			UserB:    "u2",
			PageSize: models.DefaultHistoryPageSize,
		})
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"history","payload":{"userA":"u1","userB":"u2","page":0,"pageSize":20}}`, string(data))
	})
}

func TestNewClientMessageID(t *testing.T) {
	t.Parallel()

	a, b := models.NewClientMessageID(), models.NewClientMessageID()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
