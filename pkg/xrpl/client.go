package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const dialTimeout = 10 * time.Second

// Client is a websocket JSON-RPC client for a rippled-style node. Requests
// are correlated to responses by id; a rate limiter in front keeps the
// client inside the node's per-connection request budget.
type Client struct {
	endpoint string
	conn     *websocket.Conn
	limiter  *rate.Limiter

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[uint64]chan rpcReply
	nextID    uint64

	closeOnce sync.Once
	done      chan struct{}
}

type rpcReply struct {
	result json.RawMessage
	err    error
}

type rpcEnvelope struct {
	ID           uint64          `json:"id"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
}

// RPCError is an error response from the node.
type RPCError struct {
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("xrpl: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("xrpl: %s", e.Code)
}

// NewClient dials the node and starts the read loop.
func NewClient(ctx context.Context, endpoint string, reqLimitPerSecond int) (*Client, error) {
	if reqLimitPerSecond <= 0 {
		reqLimitPerSecond = 20
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("xrpl: dial %s: %w", endpoint, err)
	}

	c := &Client{
		endpoint: endpoint,
		conn:     conn,
		limiter:  rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond),
		pending:  make(map[uint64]chan rpcReply),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection and fails all in-flight requests.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Request sends a command and waits for its response or the context
// deadline. params are merged into the command frame.
func (c *Client) Request(ctx context.Context, command string, params map[string]interface{}) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	frame := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		frame[k] = v
	}
	frame["command"] = command

	c.pendingMu.Lock()
	c.nextID++
	id := c.nextID
	reply := make(chan rpcReply, 1)
	c.pending[id] = reply
	c.pendingMu.Unlock()
	frame["id"] = id

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(frame)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("xrpl: send %s: %w", command, err)
	}

	select {
	case r := <-reply:
		if r.err != nil {
			return nil, r.err
		}
		return r.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("xrpl: connection closed")
	}
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.failPending(fmt.Errorf("xrpl: read: %w", err))
			return
		}

		var env rpcEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.WithError(err).Warn("dropping malformed frame from node")
			continue
		}
		if env.ID == 0 {
			// Unsolicited stream message, nothing subscribes to those.
			continue
		}

		c.pendingMu.Lock()
		reply, ok := c.pending[env.ID]
		c.pendingMu.Unlock()
		if !ok {
			continue
		}

		if env.Status == "error" || env.Error != "" {
			reply <- rpcReply{err: &RPCError{Code: env.Error, Message: env.ErrorMessage}}
			continue
		}
		reply <- rpcReply{result: env.Result}
	}
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, reply := range c.pending {
		select {
		case reply <- rpcReply{err: err}:
		default:
		}
		delete(c.pending, id)
	}
}
