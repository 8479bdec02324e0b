package wsrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingInput struct {
	Value int `json:"value"`
}

func serve(t *testing.T, r *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		_ = r.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestRouterDispatchesTypedPayload(t *testing.T) {
	r := New()

	var (
		mu     sync.Mutex
		values []int
		order  []string
	)
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			mu.Lock()
			order = append(order, "outer:"+GetMessageTypeFromCtx(ctx))
			mu.Unlock()
			return next(ctx, conn, payload)
		}
	})
	Handle(r, "PING", func(ctx context.Context, conn *websocket.Conn, input pingInput) error {
		mu.Lock()
		values = append(values, input.Value)
		order = append(order, "handler")
		mu.Unlock()
		return conn.WriteJSON(map[string]int{"pong": input.Value})
	})

	conn := serve(t, r)

	for i := 1; i <= 3; i++ {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "PING", "payload": map[string]int{"value": i}}))

		var resp map[string]int
		require.NoError(t, conn.ReadJSON(&resp))
		assert.Equal(t, i, resp["pong"])
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, values)
	assert.Equal(t, []string{"outer:PING", "handler"}, order[:2])
}

func TestRouterErrors(t *testing.T) {
	r := New()

	errCh := make(chan error, 3)
	r.OnError(func(ctx context.Context, conn *websocket.Conn, err error) {
		errCh <- err
	})
	Handle(r, "PING", func(ctx context.Context, conn *websocket.Conn, input pingInput) error {
		return errors.New("handler failed")
	})

	conn := serve(t, r)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "NOPE"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PING", "payload": "not an object"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PING"}))

	receive := func() error {
		select {
		case err := <-errCh:
			return err
		case <-time.After(time.Second):
			t.Fatal("no error reported")
			return nil
		}
	}

	assert.ErrorIs(t, receive(), ErrUnknownMessageType)
	assert.ErrorIs(t, receive(), ErrInvalidPayload)
	assert.EqualError(t, receive(), "handler failed")
}

func TestGetMessageTypeFromEmptyCtx(t *testing.T) {
	assert.Empty(t, GetMessageTypeFromCtx(context.Background()))
}
