package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription id.
	SubscribeTimeout time.Duration
	// Logger receives connection and protocol warnings. Nil disables logging.
	Logger *zap.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  10 * time.Second,
	}
}

// WSClientImpl implements SignatureSubscriber using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps server subscription ID to subscriber
	subs   map[int64]*signatureSub
	subsMu sync.Mutex

	// pending maps request ID to subscriber waiting for its subscription ID
	pending   map[uint64]*signatureSub
	pendingMu sync.Mutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// signatureSub tracks one signatureSubscribe request across reconnects.
type signatureSub struct {
	signature string
	notify    chan SignatureNotification
	ack       chan subscribeAck
	id        int64 // guarded by WSClientImpl.subsMu
	released  atomic.Bool
}

type subscribeAck struct {
	id  int64
	err error
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		subs:     make(map[int64]*signatureSub),
		pending:  make(map[uint64]*signatureSub),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Compile-time interface check.
var _ SignatureSubscriber = (*WSClientImpl)(nil)

// connect establishes WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeSignature subscribes to confirmation of signature.
func (c *WSClientImpl) SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureNotification, func(), error) {
	if c.closed.Load() {
		return nil, nil, fmt.Errorf("client closed")
	}

	sub := &signatureSub{
		signature: signature,
		notify:    make(chan SignatureNotification, 1),
		ack:       make(chan subscribeAck, 1),
	}

	reqID, err := c.sendSubscribe(sub)
	if err != nil {
		return nil, nil, err
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case ack := <-sub.ack:
		if ack.err != nil {
			return nil, nil, fmt.Errorf("signatureSubscribe: %w", ack.err)
		}
	case <-timer.C:
		c.dropPending(reqID)
		return nil, nil, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return nil, nil, fmt.Errorf("client closed")
	case <-ctx.Done():
		c.dropPending(reqID)
		return nil, nil, ctx.Err()
	}

	return sub.notify, func() { c.release(sub) }, nil
}

// sendSubscribe registers sub as pending and writes the subscribe request.
func (c *WSClientImpl) sendSubscribe(sub *signatureSub) (uint64, error) {
	reqID := c.requestID.Add(1)

	c.pendingMu.Lock()
	c.pending[reqID] = sub
	c.pendingMu.Unlock()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			sub.signature,
			map[string]string{"commitment": CommitmentConfirmed},
		},
	}

	if err := c.writeJSON(req); err != nil {
		c.dropPending(reqID)
		return 0, fmt.Errorf("write subscribe: %w", err)
	}
	return reqID, nil
}

func (c *WSClientImpl) writeJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *WSClientImpl) dropPending(reqID uint64) {
	c.pendingMu.Lock()
	delete(c.pending, reqID)
	c.pendingMu.Unlock()
}

// release forgets sub and unsubscribes if no notification was delivered yet.
func (c *WSClientImpl) release(sub *signatureSub) {
	if sub.released.Swap(true) {
		return
	}

	c.subsMu.Lock()
	id := sub.id
	active := c.subs[id] == sub
	if active {
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	if !active || c.closed.Load() {
		return
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "signatureUnsubscribe",
		Params:  []interface{}{id},
	}
	if err := c.writeJSON(req); err != nil {
		c.logger.Debug("signatureUnsubscribe failed", zap.Int64("subscription", id), zap.Error(err))
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id := range c.subs {
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingMu.Lock()
	for id := range c.pending {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			// A failed reconnect leaves conn nil; keep retrying with backoff.
			if !c.reconnecting.Swap(true) {
				c.logger.Warn("websocket disconnected, retrying", zap.Duration("delay", reconnectDelay))
				go c.reconnect(reconnectDelay)
				reconnectDelay = c.nextReconnectDelay(reconnectDelay)
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				c.logger.Warn("websocket read failed, reconnecting",
					zap.Error(err), zap.Duration("delay", reconnectDelay))
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = c.nextReconnectDelay(reconnectDelay)

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

func (c *WSClientImpl) nextReconnectDelay(d time.Duration) time.Duration {
	d *= 2
	if d > c.config.MaxReconnectDelay {
		d = c.config.MaxReconnectDelay
	}
	return d
}

// reconnect attempts to reconnect and resubscribe.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Warn("websocket reconnect failed", zap.Error(err))
		return
	}

	c.resubscribeAll()
}

// resubscribeAll re-sends signatureSubscribe for every live subscription.
// Server-side ids change, so subscriptions move back to pending until acknowledged.
func (c *WSClientImpl) resubscribeAll() {
	c.subsMu.Lock()
	live := make([]*signatureSub, 0, len(c.subs))
	for id, sub := range c.subs {
		live = append(live, sub)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	for _, sub := range live {
		if _, err := c.sendSubscribe(sub); err != nil {
			c.logger.Warn("resubscribe failed", zap.String("signature", sub.signature), zap.Error(err))
		}
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Debug("ignoring malformed websocket message", zap.Error(err))
		return
	}

	if env.Method == "signatureNotification" {
		c.handleSignatureNotification(env.Params)
		return
	}

	if env.ID == nil {
		return
	}

	c.pendingMu.Lock()
	sub, ok := c.pending[*env.ID]
	if ok {
		delete(c.pending, *env.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		// unsubscribe acknowledgements and late responses
		return
	}

	if env.Error != nil {
		c.logger.Warn("subscription rejected",
			zap.Int("code", env.Error.Code), zap.String("message", env.Error.Message))
		c.sendAck(sub, subscribeAck{err: env.Error})
		return
	}

	var subID int64
	if err := json.Unmarshal(env.Result, &subID); err != nil {
		c.sendAck(sub, subscribeAck{err: fmt.Errorf("unexpected subscription result: %s", env.Result)})
		return
	}

	// Register before acknowledging: the notification may be the very next frame.
	c.subsMu.Lock()
	sub.id = subID
	c.subs[subID] = sub
	c.subsMu.Unlock()

	c.sendAck(sub, subscribeAck{id: subID})
}

func (c *WSClientImpl) sendAck(sub *signatureSub, ack subscribeAck) {
	select {
	case sub.ack <- ack:
	default:
	}
}

// handleSignatureNotification delivers the single notification for a subscription.
func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	if params == nil {
		return
	}

	var value wsSignatureValue
	if err := json.Unmarshal(params.Result.Value, &value); err != nil {
		// "receivedSignature" string notifications carry no result
		return
	}

	c.subsMu.Lock()
	sub, ok := c.subs[params.Subscription]
	if ok {
		// the node drops the subscription after notifying
		delete(c.subs, params.Subscription)
	}
	c.subsMu.Unlock()

	if !ok {
		return
	}

	notif := SignatureNotification{
		Signature: sub.signature,
		Err:       value.Err,
	}
	if params.Result.Context != nil {
		notif.Slot = params.Result.Context.Slot
	}

	select {
	case sub.notify <- notif:
	default:
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// a dead connection surfaces in readLoop
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsEnvelope covers both responses (id set) and notifications (method set).
// Subscription id 0 is valid, so result is decoded separately.
type wsEnvelope struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id"`
	Method  string                `json:"method"`
	Result  json.RawMessage       `json:"result"`
	Error   *RPCError             `json:"error"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext      `json:"context"`
	Value   json.RawMessage `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
