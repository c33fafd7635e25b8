package hub_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/hub"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/protocol"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/testutils"
)

var symbols = []string{"BTC", "ETH", "USDT", "XRP", "BNB"}

func setup(t *testing.T) (*hub.Hub, *testutils.MockFeed) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	feed := testutils.NewMockFeed()
	return hub.New(ctx, feed, symbols, zap.NewNop()), feed
}

func subscribe(id string, syms ...string) protocol.WSRequest {
	return protocol.WSRequest{Action: protocol.ActionSubscribe, Payload: protocol.RequestPayload{Symbols: syms}, ID: id}
}

func unsubscribe(id string, syms ...string) protocol.WSRequest {
	return protocol.WSRequest{Action: protocol.ActionUnsubscribe, Payload: protocol.RequestPayload{Symbols: syms}, ID: id}
}

func TestHub_Subscribe_Success(t *testing.T) {
	h, feed := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("req-1", "BTC"))

	got := client.LastReply()
	assert.Equal(t, protocol.TypeAck, got.Type)
	assert.Equal(t, "req-1", got.ID)
	assert.Equal(t, 1, feed.Subscribed("BTC"))
	assert.Equal(t, 1, h.Subscribers("BTC"))
}

func TestHub_Subscribe_NormalizesSymbols(t *testing.T) {
	h, _ := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("n", " eth ", "Btc"))

	assert.Equal(t, protocol.StatusSuccess, client.LastReply().Status)
	assert.Equal(t, 1, h.Subscribers("ETH"))
	assert.Equal(t, 1, h.Subscribers("BTC"))
}

func TestHub_Subscribe_SendsSnapshotAfterAck(t *testing.T) {
	h, feed := setup(t)
	feed.Snapshots["ETH"] = `{"symbol":"ETH","price":1802.46}`
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("s", "ETH"))

	require.Len(t, client.Sent, 2)
	assert.Contains(t, string(client.Sent[0]), `"type":"ack"`)
	assert.Equal(t, []string{`{"symbol":"ETH","price":1802.46}`}, client.Events())
}

func TestHub_Subscribe_LiveEventNeverOvertakesSnapshot(t *testing.T) {
	h, feed := setup(t)
	snapshot := `{"symbol":"BTC","seq_id":3}`
	live := `{"symbol":"BTC","seq_id":4}`
	feed.Snapshots["BTC"] = snapshot

	// an update lands while the snapshot is being read
	feed.BeforeSnapshot = func() {
		go feed.Publish("BTC", live)
		time.Sleep(20 * time.Millisecond)
	}

	client := testutils.NewMockClient("c1")
	h.HandleCommand(client, subscribe("s", "BTC"))

	require.Eventually(t, func() bool { return len(client.Events()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{snapshot, live}, client.Events())
}

func TestHub_Subscribe_MixedValidity(t *testing.T) {
	h, _ := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("req-2", "BTC", "DOGE"))

	lastMsg := client.LastReply()
	assert.Equal(t, protocol.StatusSuccess, lastMsg.Status)
	assert.Contains(t, lastMsg.Message, "BTC")
	assert.NotContains(t, lastMsg.Message, "DOGE")
}

func TestHub_Subscribe_NothingValid(t *testing.T) {
	h, feed := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("", "DOGE"))

	assert.Equal(t, protocol.TypeError, client.LastReply().Type)
	assert.Empty(t, feed.SubscribedChannels)
}

func TestHub_Subscribe_Idempotency(t *testing.T) {
	h, feed := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("", "BTC", "BTC"))
	h.HandleCommand(client, subscribe("", "BTC"))

	assert.Equal(t, 1, feed.Subscribed("BTC"), "feed should only subscribe once per unique symbol")
	assert.Equal(t, 1, h.Subscribers("BTC"))
	assert.Equal(t, protocol.TypeError, client.LastReply().Type)
}

func TestHub_SubscribeAll(t *testing.T) {
	h, feed := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{Action: protocol.ActionSubscribeAll, ID: "all"})

	reply := client.LastReply()
	require.Equal(t, protocol.StatusSuccess, reply.Status)
	assert.Equal(t, "Subscribed to [BTC ETH USDT XRP BNB]", reply.Message)
	for _, sym := range symbols {
		assert.Equal(t, 1, feed.Subscribed(sym), sym)
	}
	assert.Equal(t, symbols, h.Symbols())
}

func TestHub_SharedUpstream(t *testing.T) {
	h, feed := setup(t)
	c1 := testutils.NewMockClient("c1")
	c2 := testutils.NewMockClient("c2")

	h.HandleCommand(c1, subscribe("", "XRP"))
	h.HandleCommand(c2, subscribe("", "XRP"))
	h.Unregister(c1)

	assert.Equal(t, 1, feed.Subscribed("XRP"), "upstream must stay open while c2 watches XRP")
	assert.True(t, c1.IsClosed())

	h.Unregister(c2)
	assert.Equal(t, 0, feed.Subscribed("XRP"))
	assert.Equal(t, 0, h.Subscribers("XRP"))
}

func TestHub_Unsubscribe(t *testing.T) {
	h, feed := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("", "BTC", "ETH"))
	h.HandleCommand(client, unsubscribe("u", "btc"))

	assert.Equal(t, "Unsubscribed from [BTC]", client.LastReply().Message)
	assert.Equal(t, 0, feed.Subscribed("BTC"))
	assert.Equal(t, 1, feed.Subscribed("ETH"))
}

func TestHub_Unsubscribe_NotSubscribed(t *testing.T) {
	h, _ := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, unsubscribe("err-check", "BNB"))

	reply := client.LastReply()
	assert.Equal(t, protocol.TypeError, reply.Type)
	assert.Equal(t, "err-check", reply.ID)
}

func TestHub_UnsubscribeAll(t *testing.T) {
	h, feed := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, subscribe("", "BTC", "ETH"))
	h.HandleCommand(client, protocol.WSRequest{Action: protocol.ActionUnsubscribeAll})

	assert.Empty(t, feed.SubscribedChannels)
	assert.False(t, client.IsClosed(), "client stays connected")

	// and can subscribe again
	h.HandleCommand(client, subscribe("", "BTC"))
	assert.Equal(t, 1, h.Subscribers("BTC"))
}

func TestHub_UnknownAction(t *testing.T) {
	h, _ := setup(t)
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{Action: "sell", ID: "x"})

	msg := client.LastReply()
	assert.Equal(t, protocol.TypeError, msg.Type)
	assert.Contains(t, msg.Message, "sell")
}

func TestHub_BroadcastBySymbol(t *testing.T) {
	h, feed := setup(t)
	btc := testutils.NewMockClient("btc")
	eth := testutils.NewMockClient("eth")

	h.HandleCommand(btc, subscribe("", "BTC"))
	h.HandleCommand(eth, subscribe("", "ETH"))

	feed.Publish("BTC", `{"symbol":"BTC","price":94000}`)

	assert.Equal(t, []string{`{"symbol":"BTC","price":94000}`}, btc.Events())
	assert.Empty(t, eth.Events())
}

func TestHub_RaceCondition(t *testing.T) {
	// Run with `go test -race ./...`
	h, feed := setup(t)
	client := testutils.NewMockClient("c1")

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		h.HandleCommand(client, subscribe("", "BTC"))
	}()
	go func() {
		defer wg.Done()
		h.HandleCommand(client, unsubscribe("", "BTC"))
	}()
	go func() {
		defer wg.Done()
		feed.Publish("BTC", `{}`)
	}()
	go func() {
		defer wg.Done()
		h.Unregister(client)
	}()
	wg.Wait()
}
