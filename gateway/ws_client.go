package gateway

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
)

// ConnState is the lifecycle state of the WebSocket connection
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var errNotConnected = stderrors.New("gateway not connected")

// Options configures a Client
type Options struct {
	URL            string
	Token          string
	ClientID       string
	Version        string
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	ReconnectMin   time.Duration
	ReconnectMax   time.Duration
	ReadLimit      int64
}

func (o *Options) setDefaults() {
	if o.ClientID == "" {
		o.ClientID = "clawdeck"
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.ReconnectMin <= 0 {
		o.ReconnectMin = time.Second
	}
	if o.ReconnectMax < o.ReconnectMin {
		o.ReconnectMax = 30 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32 << 20
	}
}

// Client is a RemoteClient over the gateway WebSocket protocol. It reconnects
// with exponential backoff until Close is called.
type Client struct {
	opts Options

	mu       sync.Mutex
	conn     *websocket.Conn
	state    ConnState
	pending  map[string]chan response
	closed   bool
	retrying bool

	handlerMu   sync.RWMutex
	handlers    map[int]EventHandler
	stateFns    []func(ConnState)
	nextHandler int

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a disconnected client
func NewClient(opts Options) *Client {
	opts.setDefaults()
	return &Client{
		opts:     opts,
		pending:  make(map[string]chan response),
		handlers: make(map[int]EventHandler),
	}
}

// OnStateChange registers fn for connection state transitions
func (c *Client) OnStateChange(fn func(ConnState)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.stateFns = append(c.stateFns, fn)
}

// State returns the current connection state
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the gateway and performs the connect handshake. After a
// successful Connect, dropped connections are re-established in the background.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.Transport("", models.MethodConnect, fmt.Errorf("client closed"))
	}
	if c.runCtx == nil {
		c.runCtx, c.cancel = context.WithCancel(context.Background())
	}
	c.mu.Unlock()

	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	c.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, c.opts.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.setState(StateDisconnected)
		return errors.Transport("", models.MethodConnect, fmt.Errorf("dial %s: %w", c.opts.URL, err))
	}
	conn.SetReadLimit(c.opts.ReadLimit)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn)

	params := connectParams{
		Token:  c.opts.Token,
		Client: clientInfo{ID: c.opts.ClientID, Version: c.opts.Version},
	}
	if _, err := c.request(ctx, conn, models.MethodConnect, params); err != nil {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusPolicyViolation, "handshake failed")
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateConnected)
	logging.LogInfof("gateway connected: %s", c.opts.URL)
	return nil
}

// Close stops reconnecting and closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if conn != nil {
		err = conn.Close(websocket.StatusNormalClosure, "bye")
	}
	c.wg.Wait()
	c.setState(StateDisconnected)
	return err
}

// Call sends a request frame and waits for the matching response
func (c *Client) Call(ctx context.Context, method string, params any) ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if conn == nil || state != StateConnected {
		return nil, errors.Transport("", method, errNotConnected)
	}
	return c.request(ctx, conn, method, params)
}

func (c *Client) request(ctx context.Context, conn *websocket.Conn, method string, params any) ([]byte, error) {
	id := uuid.NewString()
	frame, err := encodeRequest(id, method, params)
	if err != nil {
		return nil, errors.New(errors.KindMalformed, "", method, err)
	}

	ch := make(chan response, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	if err := conn.Write(reqCtx, websocket.MessageText, frame); err != nil {
		return nil, errors.Transport("", method, err)
	}

	select {
	case resp := <-ch:
		if resp.err != nil {
			return nil, errors.Transport("", method, resp.err)
		}
		if !resp.ok {
			msg := resp.message
			if msg == "" {
				msg = "request failed"
			}
			return nil, errors.Transport("", method, stderrors.New(msg))
		}
		return resp.payload, nil
	case <-reqCtx.Done():
		if stderrors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, errors.New(errors.KindTimeout, "", method, reqCtx.Err())
		}
		return nil, errors.Transport("", method, reqCtx.Err())
	}
}

// Subscribe registers handler for push events
func (c *Client) Subscribe(handler EventHandler) func() {
	c.handlerMu.Lock()
	id := c.nextHandler
	c.nextHandler++
	c.handlers[id] = handler
	c.handlerMu.Unlock()

	return func() {
		c.handlerMu.Lock()
		delete(c.handlers, id)
		c.handlerMu.Unlock()
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	ctx := c.runContext()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.dropConnection(conn, err)
			return
		}

		in, ok := parseFrame(data)
		if !ok {
			logging.LogDebugf("gateway: ignoring unparseable frame (%d bytes)", len(data))
			continue
		}

		switch in.kind {
		case frameResponse:
			c.mu.Lock()
			ch, found := c.pending[in.id]
			c.mu.Unlock()
			if found {
				select {
				case ch <- in.resp:
				default:
				}
			}
		case frameEvent:
			c.dispatch(in.event, in.payload)
		}
	}
}

func (c *Client) dispatch(name string, payload []byte) {
	c.handlerMu.RLock()
	handlers := make([]EventHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.handlerMu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if p := errors.CapturePanic("gateway event handler", recover()); p != nil {
					logging.LogErrorf("%v", p)
				}
			}()
			h(name, payload)
		}()
	}
}

// dropConnection fails in-flight requests and schedules a reconnect when the
// lost connection was the live one and the client is still open
func (c *Client) dropConnection(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	live := c.conn == conn
	if live {
		c.conn = nil
	}
	for id, ch := range c.pending {
		select {
		case ch <- response{err: cause}:
		default:
		}
		delete(c.pending, id)
	}
	closed := c.closed
	retry := live && !closed && !c.retrying
	if retry {
		c.retrying = true
	}
	c.mu.Unlock()

	if !live || closed {
		return
	}
	c.setState(StateDisconnected)
	if !retry {
		return
	}

	logging.LogWarnf("gateway connection lost: %v", cause)
	c.wg.Add(1)
	go c.reconnect()
}

func (c *Client) reconnect() {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		c.retrying = false
		c.mu.Unlock()
	}()

	ctx := c.runContext()
	backoff := c.opts.ReconnectMin
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		err := c.dial(ctx)
		if err == nil {
			return
		}
		logging.LogDebugf("gateway reconnect failed: %v", err)

		backoff *= 2
		if backoff > c.opts.ReconnectMax {
			backoff = c.opts.ReconnectMax
		}
	}
}

func (c *Client) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCtx == nil {
		return context.Background()
	}
	return c.runCtx
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	c.handlerMu.RLock()
	fns := append([]func(ConnState){}, c.stateFns...)
	c.handlerMu.RUnlock()
	for _, fn := range fns {
		fn(s)
	}
}

// GetSessions fetches sessions.list
func (c *Client) GetSessions(ctx context.Context) (*models.SessionList, error) {
	raw, err := c.Call(ctx, models.MethodSessionsList, map[string]any{})
	if err != nil {
		return nil, err
	}
	return DecodeSessions(raw)
}

// GetAgents fetches agents.list
func (c *Client) GetAgents(ctx context.Context) ([]models.AgentSnapshot, error) {
	raw, err := c.Call(ctx, models.MethodAgentsList, map[string]any{})
	if err != nil {
		return nil, err
	}
	return DecodeAgents(raw)
}

// GetCostSummary fetches usage.cost for the last days days
func (c *Client) GetCostSummary(ctx context.Context, days int) (*models.CostSummary, error) {
	raw, err := c.Call(ctx, models.MethodUsageCost, CostParams{Days: days})
	if err != nil {
		return nil, err
	}
	return DecodeCostSummary(raw)
}

// GetSessionsUsage fetches sessions.usage
func (c *Client) GetSessionsUsage(ctx context.Context, limit int) (*models.SessionsUsageResponse, error) {
	raw, err := c.Call(ctx, models.MethodSessionsUsage, UsageParams{Limit: limit})
	if err != nil {
		return nil, err
	}
	return DecodeSessionsUsage(raw)
}

var _ RemoteClient = (*Client)(nil)
