package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/hub"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/protocol"
)

const (
	maxFrameSize = 512 * 1024
	sendBuffer   = 256

	writeWait   = 5 * time.Second
	readTimeout = 60 * time.Second
	pingPeriod  = 50 * time.Second // below readTimeout so the pong keeps the read side alive
)

var (
	errFrameTooLarge = errors.New("frame exceeds limit")
	errFragmented    = errors.New("fragmented frames are not supported")
)

var _ hub.Client = (*Client)(nil)

// Client binds one websocket connection to the hub. The read loop owns
// inbound frames, the write loop is the only writer on conn.
type Client struct {
	id     string
	conn   net.Conn
	hub    *hub.Hub
	logger *zap.Logger

	out  chan []byte
	pong chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		conn:   conn,
		hub:    h,
		logger: logger.With(zap.String("client_id", id)),
		out:    make(chan []byte, sendBuffer),
		pong:   make(chan []byte, 1),
		done:   make(chan struct{}),
	}
}

func (c *Client) Start() {
	c.logger.Debug("Client connected", zap.String("remote", c.conn.RemoteAddr().String()))
	go c.writeLoop()
	go c.readLoop()
}

func (c *Client) ID() string { return c.id }

// Close asks the write loop to say goodbye and hang up. Safe to call repeatedly.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Send queues msg, dropping it when the client is gone or too slow.
func (c *Client) Send(msg []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.out <- msg:
	default:
		c.logger.Warn("Dropping message for slow client")
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		op, payload, err := c.readFrame()
		switch {
		case errors.Is(err, errFrameTooLarge), errors.Is(err, errFragmented):
			c.logger.Warn("Rejecting frame", zap.Error(err))
			return
		case err != nil:
			return
		}

		switch op {
		case ws.OpText:
			c.handle(payload)
		case ws.OpPing:
			select {
			case c.pong <- payload:
			default: // a pong is already pending
			}
		case ws.OpClose:
			return
		}
	}
}

func (c *Client) readFrame() (ws.OpCode, []byte, error) {
	h, err := ws.ReadHeader(c.conn)
	if err != nil {
		return 0, nil, err
	}
	if h.Length > maxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", errFrameTooLarge, h.Length)
	}
	if !h.Fin {
		return 0, nil, errFragmented
	}

	payload := make([]byte, h.Length)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return 0, nil, err
	}
	if h.Masked {
		ws.Cipher(payload, h.Mask, 0)
	}
	return h.OpCode, payload, nil
}

func (c *Client) handle(payload []byte) {
	var req protocol.WSRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.Send(protocol.Error("", "Invalid JSON").Bytes())
		return
	}
	c.hub.HandleCommand(c, req)
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var err error
		select {
		case msg := <-c.out:
			err = c.write(ws.OpText, msg)
		case p := <-c.pong:
			err = c.write(ws.OpPong, p)
		case <-ping.C:
			err = c.write(ws.OpPing, nil)
		case <-c.done:
			c.write(ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
			return
		}
		if err != nil {
			c.logger.Debug("Write failed", zap.Error(err))
			return
		}
	}
}

func (c *Client) write(op ws.OpCode, p []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wsutil.WriteServerMessage(c.conn, op, p)
}
