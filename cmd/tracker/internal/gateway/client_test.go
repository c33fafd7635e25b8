package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/gateway"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/hub"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/protocol"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/testutils"
)

// connect returns the browser end of a pipe whose server end is served by a Client.
func connect(t *testing.T) (net.Conn, *hub.Hub, *testutils.MockFeed) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	feed := testutils.NewMockFeed()
	h := hub.New(ctx, feed, []string{"BTC", "ETH"}, zap.NewNop())

	server, browser := net.Pipe()
	t.Cleanup(func() { browser.Close() })

	gateway.NewClient(server, h, zap.NewNop()).Start()
	browser.SetDeadline(time.Now().Add(2 * time.Second))
	return browser, h, feed
}

func readReply(t *testing.T, conn net.Conn) protocol.WSResponse {
	t.Helper()
	msg, op, err := wsutil.ReadServerData(conn)
	require.NoError(t, err)
	require.Equal(t, ws.OpText, op)

	var r protocol.WSResponse
	require.NoError(t, json.Unmarshal(msg, &r))
	return r
}

func TestClient_SubscribeAndReceive(t *testing.T) {
	conn, h, feed := connect(t)

	require.NoError(t, wsutil.WriteClientText(conn, []byte(`{"action":"subscribe","payload":{"symbols":["btc"]},"id":"1"}`)))
	reply := readReply(t, conn)
	assert.Equal(t, protocol.TypeAck, reply.Type)
	assert.Equal(t, "1", reply.ID)
	assert.Equal(t, 1, h.Subscribers("BTC"))

	go feed.Publish("BTC", `{"symbol":"BTC","price":1}`)

	msg, _, err := wsutil.ReadServerData(conn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"BTC","price":1}`, string(msg))
}

func TestClient_InvalidJSON(t *testing.T) {
	conn, _, _ := connect(t)

	require.NoError(t, wsutil.WriteClientText(conn, []byte(`{ "action": "subsc`)))

	reply := readReply(t, conn)
	assert.Equal(t, protocol.TypeError, reply.Type)
	assert.Equal(t, "Invalid JSON", reply.Message)
}

func TestClient_AnswersPing(t *testing.T) {
	conn, _, _ := connect(t)

	require.NoError(t, wsutil.WriteClientMessage(conn, ws.OpPing, []byte("hi")))

	frame, err := ws.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, ws.OpPong, frame.Header.OpCode)
	assert.Equal(t, "hi", string(frame.Payload))
}

func TestClient_OversizedFrameDisconnects(t *testing.T) {
	conn, _, _ := connect(t)

	// only the header is read before the server hangs up
	hdr := ws.Header{Fin: true, OpCode: ws.OpText, Length: 600 * 1024, Masked: true, Mask: ws.NewMask()}
	require.NoError(t, ws.WriteHeader(conn, hdr))

	for {
		frame, err := ws.ReadFrame(conn)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				t.Fatal("Server kept the connection open")
			}
			return
		}
		assert.Equal(t, ws.OpClose, frame.Header.OpCode)
	}
}

func TestClient_CloseUnregisters(t *testing.T) {
	conn, h, feed := connect(t)

	require.NoError(t, wsutil.WriteClientText(conn, []byte(`{"action":"subscribe_all"}`)))
	readReply(t, conn)
	require.Equal(t, 1, feed.Subscribed("ETH"))

	conn.Close()

	require.Eventually(t, func() bool { return h.Subscribers("ETH") == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, feed.Subscribed("ETH"))
}
