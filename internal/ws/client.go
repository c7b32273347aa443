package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"wishera-chat/internal/models"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

var (
	ErrAlreadyRunning   = errors.New("client already running")
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
)

type Options struct {
	// BaseURL is the HTTP(S) address of the chat backend.
	BaseURL string
	// Token, when set, is sent as a bearer token on the upgrade request.
	Token            string
	HandshakeTimeout time.Duration
	Backoff          Backoff
}

// Client keeps one chat connection alive for the current user and exposes
// the chat commands. Commands are fire-and-forget: they return false, and
// send nothing, unless the connection is open.
type Client struct {
	endpoint string
	header   http.Header
	dialer   *websocket.Dialer
	backoff  Backoff
	handlers Handlers

	mu      sync.RWMutex
	state   State
	userId  string
	conn    *conn
	running bool

	identity chan string
	dialed   chan dialResult
	lost     chan *conn
	stopped  chan struct{}
}

type dialResult struct {
	gen    uint64
	userId string
	ws     *websocket.Conn
	err    error
}

// NewClient prepares a client for userId. An empty userId is allowed; the
// client then stays idle until SetUser supplies one.
func NewClient(opts Options, userId string, handlers Handlers) (*Client, error) {
	endpoint, err := EndpointURL(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("EndpointURL: %w", err)
	}

	header := http.Header{}
	if token := strings.TrimPrefix(opts.Token, "Bearer "); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	return &Client{
		endpoint: endpoint,
		header:   header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		backoff:  opts.Backoff,
		handlers: handlers,
		userId:   userId,
		identity: make(chan string),
		dialed:   make(chan dialResult),
		lost:     make(chan *conn),
		stopped:  make(chan struct{}),
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userId
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connected reports whether commands can currently be sent.
func (c *Client) Connected() bool {
	return c.State() == StateOpen
}

// Run drives the connection until ctx is cancelled. On return the socket is
// closed and no reconnect is pending. Run may only be called once.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	defer close(c.stopped)

	var (
		// gen invalidates dial results and timers from before a teardown.
		gen     uint64
		attempt int
		retry   *time.Timer
		retryC  <-chan time.Time
	)

	cancelRetry := func() {
		if retry != nil {
			retry.Stop()
			retry, retryC = nil, nil
		}
	}

	connect := func() {
		userId := c.UserID()
		if userId == "" {
			return
		}

		switch c.State() {
		case StateConnecting, StateOpen:
			return
		}

		cancelRetry()
		c.setState(StateConnecting, nil)
		go c.dial(ctx, gen, userId)
	}

	scheduleRetry := func(cause error) {
		delay, ok := c.backoff.Delay(attempt)
		if !ok {
			slog.Error("[CLIENT] Giving up reconnecting", "user", c.UserID(), "attempts", attempt, "error", cause)
			attempt = 0
			c.setState(StateIdle, fmt.Errorf("%w: %w", ErrRetriesExhausted, cause))
			return
		}

		attempt++
		retry = time.NewTimer(delay)
		retryC = retry.C

		slog.Info("[CLIENT] Reconnect scheduled", "user", c.UserID(), "delay", delay, "attempt", attempt)
		c.setState(StateReconnectScheduled, cause)
	}

	teardown := func() {
		gen++
		attempt = 0
		cancelRetry()

		if cn := c.detach(nil); cn != nil {
			c.setState(StateClosing, nil)
			cn.close()
		}
		c.setState(StateIdle, nil)
	}

	slog.Info("[CLIENT] Starting client loop", "endpoint", c.endpoint, "user", c.UserID())
	connect()

	for {
		select {
		case <-ctx.Done():
			teardown()
			slog.Info("[CLIENT] Client loop stopped", "user", c.UserID())
			return nil

		case userId := <-c.identity:
			if userId == c.UserID() && c.State() != StateIdle {
				continue
			}

			slog.Info("[CLIENT] Identity changed", "from", c.UserID(), "to", userId)
			teardown()

			c.mu.Lock()
			c.userId = userId
			c.mu.Unlock()

			connect()

		case res := <-c.dialed:
			if res.gen != gen {
				if res.ws != nil {
					res.ws.Close()
				}
				continue
			}

			if res.err != nil {
				slog.Warn("[CLIENT] Dial failed", "user", res.userId, "endpoint", c.endpoint, "error", res.err)
				scheduleRetry(res.err)
				continue
			}

			attempt = 0
			c.attach(res.ws, res.userId)

		case cn := <-c.lost:
			if c.detach(cn) == nil {
				continue
			}

			slog.Warn("[CLIENT] Connection lost", "user", cn.userId, "error", cn.err)
			scheduleRetry(cn.err)

		case <-retryC:
			retry, retryC = nil, nil
			connect()
		}
	}
}

// SetUser switches the identity the client connects as. An empty userId
// closes the connection and leaves the client idle.
func (c *Client) SetUser(userId string) {
	c.mu.Lock()
	if !c.running {
		c.userId = userId
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	select {
	case c.identity <- userId:
	case <-c.stopped:
	}
}

func (c *Client) dial(ctx context.Context, gen uint64, userId string) {
	slog.Debug("[CLIENT] Dialing", "endpoint", c.endpoint, "user", userId)

	ws, resp, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
	if err != nil && resp != nil {
		err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
	}

	res := dialResult{gen: gen, userId: userId, ws: ws, err: err}
	select {
	case c.dialed <- res:
	case <-c.stopped:
		if ws != nil {
			ws.Close()
		}
	}
}

// attach starts the pumps for a fresh socket and makes it visible to
// commands. register is queued first so it is always the first frame out.
func (c *Client) attach(ws *websocket.Conn, userId string) {
	cn := newConn(ws, userId)
	go cn.writePump()
	go cn.readPump(c.dispatch, c.reportLost)

	frame, err := models.EncodeCommand(models.CommandRegister, models.RegisterPayload{UserId: userId})
	if err != nil {
		slog.Error("[CLIENT] Failed to encode register", "user", userId, "error", err)
	} else {
		cn.enqueue(frame)
	}

	c.mu.Lock()
	c.conn = cn
	old := c.state
	c.state = StateOpen
	c.mu.Unlock()

	slog.Info("[CLIENT] Connected", "user", userId, "endpoint", c.endpoint)
	c.handlers.stateChange(StateEvent{Old: old, New: StateOpen})
}

// detach clears the current conn. With a non-nil want it only does so if
// want is still current, so a stale loss report is a no-op.
func (c *Client) detach(want *conn) *conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	cn := c.conn
	if cn == nil || (want != nil && want != cn) {
		return nil
	}

	c.conn = nil
	return cn
}

func (c *Client) reportLost(cn *conn) {
	select {
	case c.lost <- cn:
	case <-c.stopped:
	}
}

func (c *Client) setState(s State, err error) {
	c.mu.Lock()
	old := c.state
	c.state = s
	c.mu.Unlock()

	if old == s && err == nil {
		return
	}

	c.handlers.stateChange(StateEvent{Old: old, New: s, Err: err})
}

func (c *Client) dispatch(frame []byte) {
	event, err := models.DecodeEvent(frame)
	if err != nil {
		if errors.Is(err, models.ErrUnknownEventType) {
			slog.Debug("[CLIENT] Ignoring unknown event", "error", err)
			return
		}

		slog.Debug("[CLIENT] Dropping malformed frame", "size", len(frame), "error", err)
		c.handlers.protocolError(err)
		return
	}

	c.handlers.Dispatch(event)
}

func (c *Client) send(commandType string, payload func(userId string) interface{}) bool {
	c.mu.RLock()
	cn := c.conn
	c.mu.RUnlock()

	if cn == nil {
		return false
	}

	frame, err := models.EncodeCommand(commandType, payload(cn.userId))
	if err != nil {
		slog.Error("[CLIENT] Failed to encode command", "type", commandType, "error", err)
		return false
	}

	return cn.enqueue(frame)
}

func (c *Client) JoinDirect(otherUserId string) bool {
	return c.send(models.CommandJoinDirect, func(userId string) interface{} {
		return models.JoinDirectPayload{CurrentUserId: userId, OtherUserId: otherUserId}
	})
}

// SendDirect sends text to toUserId. clientMessageId is optional and is
// omitted from the frame when empty.
func (c *Client) SendDirect(toUserId, text, clientMessageId string) bool {
	return c.send(models.CommandSendDirect, func(userId string) interface{} {
		return models.SendDirectPayload{
			FromUserId:      userId,
			ToUserId:        toUserId,
			Text:            text,
			ClientMessageId: clientMessageId,
		}
	})
}

func (c *Client) Typing(otherUserId string, isTyping bool) bool {
	return c.send(models.CommandTyping, func(userId string) interface{} {
		return models.TypingPayload{UserId: userId, OtherUserId: otherUserId, IsTyping: isTyping}
	})
}

func (c *Client) Delivered(otherUserId string, messageIds []string) bool {
	return c.send(models.CommandDelivered, receipt(otherUserId, messageIds))
}

func (c *Client) Read(otherUserId string, messageIds []string) bool {
	return c.send(models.CommandRead, receipt(otherUserId, messageIds))
}

// History asks for one page of the conversation between userA and userB.
// A negative page is treated as 0 and a non-positive pageSize as
// models.DefaultHistoryPageSize.
func (c *Client) History(userA, userB string, page, pageSize int) bool {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = models.DefaultHistoryPageSize
	}

	return c.send(models.CommandHistory, func(string) interface{} {
		return models.HistoryPayload{UserA: userA, UserB: userB, Page: page, PageSize: pageSize}
	})
}

func receipt(otherUserId string, messageIds []string) func(string) interface{} {
	if messageIds == nil {
		messageIds = []string{}
	}

	return func(userId string) interface{} {
		return models.ReceiptPayload{UserId: userId, OtherUserId: otherUserId, MessageIds: messageIds}
	}
}
