package hub

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/protocol"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/repository"
)

const snapshotTimeout = 2 * time.Second

// Client is one websocket connection as the hub sees it.
type Client interface {
	ID() string
	Send(msg []byte)
	Close()
}

type watchers map[Client]struct{}

// Hub fans price events out to websocket clients by symbol.
// A symbol has an upstream feed subscription exactly while it has a topic.
type Hub struct {
	feed    repository.PriceFeed
	logger  *zap.Logger
	symbols []string // display order
	known   map[string]bool

	mu      sync.RWMutex
	topics  map[string]watchers
	watches map[Client]map[string]struct{}
}

// New starts pumping feed events into Broadcast until ctx is done.
// symbols is the fixed set clients may subscribe to.
func New(ctx context.Context, feed repository.PriceFeed, symbols []string, logger *zap.Logger) *Hub {
	h := &Hub{
		feed:    feed,
		logger:  logger,
		symbols: append([]string(nil), symbols...),
		known:   make(map[string]bool, len(symbols)),
		topics:  make(map[string]watchers),
		watches: make(map[Client]map[string]struct{}),
	}
	for _, s := range symbols {
		h.known[s] = true
	}

	go feed.RunPubSub(ctx, h.Broadcast)

	return h
}

func (h *Hub) HandleCommand(c Client, req protocol.WSRequest) {
	switch req.Action {
	case protocol.ActionSubscribe:
		h.subscribe(c, req.ID, normalize(req.Payload.Symbols))
	case protocol.ActionSubscribeAll:
		h.subscribe(c, req.ID, h.symbols)
	case protocol.ActionUnsubscribe:
		h.unsubscribe(c, req.ID, normalize(req.Payload.Symbols))
	case protocol.ActionUnsubscribeAll:
		h.unsubscribeAll(c, req.ID)
	default:
		c.Send(protocol.Error(req.ID, "Unknown action: "+req.Action).Bytes())
	}
}

// subscribe holds the write lock across registration, ack and snapshots, so a
// live event for a symbol can only reach the client after its snapshot.
func (h *Hub) subscribe(c Client, id string, symbols []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var fresh []string
	for _, sym := range symbols {
		if _, dup := h.watches[c][sym]; h.known[sym] && !dup {
			h.watch(c, sym)
			fresh = append(fresh, sym)
		}
	}
	if len(fresh) == 0 {
		c.Send(protocol.Error(id, "No valid/new symbols provided").Bytes())
		return
	}

	c.Send(protocol.Ack(id, fmt.Sprintf("Subscribed to %v", fresh)).Bytes())

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	snapshots, err := h.feed.GetSnapshots(ctx, fresh)
	if err != nil {
		h.logger.Warn("Failed to load snapshots", zap.Strings("symbols", fresh), zap.Error(err))
		return
	}
	for _, snap := range snapshots {
		c.Send([]byte(snap))
	}
}

func (h *Hub) unsubscribe(c Client, id string, symbols []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []string
	for _, sym := range symbols {
		if _, ok := h.watches[c][sym]; ok {
			h.unwatch(c, sym)
			removed = append(removed, sym)
		}
	}

	if len(removed) == 0 {
		c.Send(protocol.Error(id, fmt.Sprintf("Not subscribed to: %v", symbols)).Bytes())
		return
	}
	c.Send(protocol.Ack(id, fmt.Sprintf("Unsubscribed from %v", removed)).Bytes())
}

func (h *Hub) unsubscribeAll(c Client, id string) {
	h.mu.Lock()
	h.dropAll(c)
	h.mu.Unlock()

	c.Send(protocol.Ack(id, "Unsubscribed from all symbols").Bytes())
}

// Unregister forgets c and closes it.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	h.dropAll(c)
	h.mu.Unlock()

	c.Close()
}

func (h *Hub) Broadcast(symbol string, payload string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := []byte(payload)
	for c := range h.topics[symbol] {
		c.Send(msg)
	}
}

// Subscribers reports how many clients currently watch symbol.
func (h *Hub) Subscribers(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[symbol])
}

// Symbols lists the subscribable symbols in display order.
func (h *Hub) Symbols() []string {
	return append([]string(nil), h.symbols...)
}

// watch, unwatch and dropAll require mu held for writing.

func (h *Hub) watch(c Client, sym string) {
	if h.watches[c] == nil {
		h.watches[c] = make(map[string]struct{})
	}
	h.watches[c][sym] = struct{}{}

	t, ok := h.topics[sym]
	if !ok {
		t = make(watchers)
		h.topics[sym] = t
		if err := h.feed.SubscribeToFeed(context.Background(), sym); err != nil {
			h.logger.Error("Failed to subscribe upstream", zap.String("symbol", sym), zap.Error(err))
		}
	}
	t[c] = struct{}{}
}

func (h *Hub) unwatch(c Client, sym string) {
	delete(h.watches[c], sym)

	t := h.topics[sym]
	delete(t, c)
	if len(t) > 0 {
		return
	}
	delete(h.topics, sym)
	if err := h.feed.UnsubscribeFromFeed(context.Background(), sym); err != nil {
		h.logger.Error("Failed to unsubscribe upstream", zap.String("symbol", sym), zap.Error(err))
	}
}

func (h *Hub) dropAll(c Client) {
	for sym := range h.watches[c] {
		h.unwatch(c, sym)
	}
	delete(h.watches, c)
}

func normalize(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}
