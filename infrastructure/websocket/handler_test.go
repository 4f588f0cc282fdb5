package websocket_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"whisperwall/auth"
	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/infrastructure/websocket"
	"whisperwall/repositories"
	"whisperwall/runtime"
	"whisperwall/services"
)

type fixture struct {
	server *httptest.Server
	relay  *runtime.Relay
	tokens auth.TokenManager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	relay := runtime.NewRelay(log, nil, 64)
	go func() { _ = relay.Run(ctx) }()

	tokens := auth.NewTokenManager([]byte("secret"), time.Hour)
	chat := services.NewChatService(log, relay, repositories.NewConversationRepository(db, log, nil), nil, time.Second)
	router := gin.New()
	router.GET("/ws", websocket.NewHandler(log, chat, tokens, 16).ServeWS)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		server.Close()
		chat.Wait()
		_ = db.Close()
	})
	return fixture{server: server, relay: relay, tokens: tokens}
}

func (f fixture) dial(t *testing.T, code domain.Code) *gorilla.Conn {
	t.Helper()
	token, err := f.tokens.Generate(code)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func write(t *testing.T, conn *gorilla.Conn, frame any) {
	t.Helper()
	data, err := websocket.EncodeFrame(frame)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, data))
}

func read(t *testing.T, conn *gorilla.Conn) event.Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	evt, err := websocket.DecodeEvent(data)
	require.NoError(t, err)
	return evt
}

func (f fixture) waitMembers(t *testing.T, room domain.ConversationKey, count int) {
	t.Helper()
	require.Eventually(t, func() bool {
		snapshot, err := f.relay.Snapshot(context.Background())
		return err == nil && len(snapshot.Rooms[room]) == count
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocket_Relays_Between_Two_Endpoints(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.dial(t, "1234")
	bob := f.dial(t, "5678")

	// Given both endpoints joined the pair room
	write(t, alice, websocket.JoinRoom{Room: "1234:5678"})
	write(t, bob, websocket.JoinRoom{Room: "1234:5678"})
	f.waitMembers(t, "1234:5678", 2)

	// When alice sends a message pretending to be someone else
	write(t, alice, websocket.SendMessage{Text: "hello bob", Time: "10:42", From: "0000", To: "5678", Room: "1234:5678"})

	// Then bob receives it live, from alice's code
	received := read(t, bob)
	message, ok := received.(event.MessageReceived)
	req.True(ok, "got %#v", received)
	req.Equal("hello bob", message.Text)
	req.Equal("1234", message.From)
	req.Equal("10:42", message.Time)

	// And alice is told the message was stored
	status, ok := read(t, alice).(event.DeliveryStatus)
	req.True(ok)
	req.True(status.OK)
	req.Equal(message.ID, status.ID)
}

func TestWebsocket_Relays_Longest_Multibyte_Text(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.dial(t, "1234")
	bob := f.dial(t, "5678")
	write(t, alice, websocket.JoinRoom{Room: "1234:5678"})
	write(t, bob, websocket.JoinRoom{Room: "1234:5678"})
	f.waitMembers(t, "1234:5678", 2)

	// When alice sends 2000 four-byte characters, far above 4 KiB on the wire
	text := strings.Repeat("😀", 2000)
	write(t, alice, websocket.SendMessage{Text: text, To: "5678", Room: "1234:5678"})

	// Then bob receives the whole text
	message, ok := read(t, bob).(event.MessageReceived)
	req.True(ok)
	req.Equal(text, message.Text)

	// And alice stays connected and gets the store status
	status, ok := read(t, alice).(event.DeliveryStatus)
	req.True(ok)
	req.True(status.OK)
	write(t, alice, websocket.LeaveRoom{Room: "1234:5678"})
	f.waitMembers(t, "1234:5678", 1)
}

func TestWebsocket_Send_Before_Join_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.dial(t, "1234")

	write(t, alice, websocket.SendMessage{Text: "anyone?", To: "5678", Room: "1234:5678"})

	// Then the sender gets a rejection and, independently, the store status
	kinds := []string{read(t, alice).Kind(), read(t, alice).Kind()}
	req.ElementsMatch([]string{event.SendRejectedKind, event.StatusKind}, kinds)
}

func TestWebsocket_Malformed_Frame_Keeps_Connection(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.dial(t, "1234")

	req.NoError(alice.WriteMessage(gorilla.TextMessage, []byte(`{"type":"shout"}`)))

	protocolError, ok := read(t, alice).(event.ProtocolError)
	req.True(ok)
	req.Contains(protocolError.Reason, "unknown frame type")

	// And the connection still works
	write(t, alice, websocket.JoinRoom{Room: "1234:5678"})
	f.waitMembers(t, "1234:5678", 1)
}

func TestWebsocket_Disconnect_Cleans_Registry(t *testing.T) {
	f := newFixture(t)
	alice := f.dial(t, "1234")
	write(t, alice, websocket.JoinRoom{Room: "1234:5678"})
	f.waitMembers(t, "1234:5678", 1)

	_ = alice.Close()

	f.waitMembers(t, "1234:5678", 0)
}

func TestWebsocket_Requires_Token(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=nope"

	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)

	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}
