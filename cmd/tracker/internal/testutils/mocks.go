package testutils

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/protocol"
)

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal  string
	Sent   [][]byte
	Closed bool
	Mu     sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) Send(b []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Sent = append(m.Sent, append([]byte(nil), b...))
}

// Replies decodes every ack or error sent so far.
func (m *MockClient) Replies() []protocol.WSResponse {
	var out []protocol.WSResponse
	for _, raw := range m.all() {
		var r protocol.WSResponse
		if json.Unmarshal(raw, &r) == nil && r.Type != "" {
			out = append(out, r)
		}
	}
	return out
}

func (m *MockClient) LastReply() protocol.WSResponse {
	replies := m.Replies()
	if len(replies) == 0 {
		return protocol.WSResponse{}
	}
	return replies[len(replies)-1]
}

// Events returns every message that is not a reply, in order.
func (m *MockClient) Events() []string {
	var out []string
	for _, raw := range m.all() {
		var r protocol.WSResponse
		if json.Unmarshal(raw, &r) == nil && r.Type != "" {
			continue
		}
		out = append(out, string(raw))
	}
	return out
}

func (m *MockClient) IsClosed() bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Closed
}

func (m *MockClient) all() [][]byte {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return append([][]byte(nil), m.Sent...)
}

// MockFeed records upstream subscriptions and lets tests push events.
type MockFeed struct {
	SubscribedChannels map[string]int // symbol -> count
	Snapshots          map[string]string
	Mu                 sync.Mutex

	// BeforeSnapshot, when set, runs at the start of every GetSnapshots call.
	BeforeSnapshot func()

	onMessage func(symbol, payload string)
	ready     chan struct{}
}

func NewMockFeed() *MockFeed {
	return &MockFeed{
		SubscribedChannels: make(map[string]int),
		Snapshots:          make(map[string]string),
		ready:              make(chan struct{}),
	}
}

func (m *MockFeed) GetSnapshots(ctx context.Context, symbols []string) ([]string, error) {
	if m.BeforeSnapshot != nil {
		m.BeforeSnapshot()
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	var out []string
	for _, s := range symbols {
		if snap, ok := m.Snapshots[s]; ok {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (m *MockFeed) SubscribeToFeed(ctx context.Context, symbol string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.SubscribedChannels[symbol]++
	return nil
}

func (m *MockFeed) UnsubscribeFromFeed(ctx context.Context, symbol string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.SubscribedChannels[symbol]--
	if m.SubscribedChannels[symbol] <= 0 {
		delete(m.SubscribedChannels, symbol)
	}
	return nil
}

func (m *MockFeed) RunPubSub(ctx context.Context, onMessage func(symbol string, payload string)) {
	m.Mu.Lock()
	m.onMessage = onMessage
	m.Mu.Unlock()
	close(m.ready)
	<-ctx.Done()
}

// Publish delivers an event to the hub once RunPubSub is running.
func (m *MockFeed) Publish(symbol, payload string) {
	<-m.ready
	m.Mu.Lock()
	fn := m.onMessage
	m.Mu.Unlock()
	fn(symbol, payload)
}

func (m *MockFeed) Subscribed(symbol string) int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.SubscribedChannels[symbol]
}

func (m *MockFeed) Close() error { return nil }
