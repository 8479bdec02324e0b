package controller

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/looper/internal/embed"
)

const writeWait = 10 * time.Second

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// peer is one player page. Writes come from message handlers and replay timers, so they
// are serialized.
type peer struct {
	id     string
	conn   *websocket.Conn
	remote *embed.Remote

	mu     sync.Mutex
	closed bool
}

func (c controller) newPeer(conn *websocket.Conn) *peer {
	p := &peer{
		id:   c.generateTimeBasedId(),
		conn: conn,
	}
	p.remote = embed.NewRemote(func(cmd embed.Command) error {
		return p.write(&Output{Type: cmd.Type, Payload: cmd.Payload})
	}, c.logger.With("peer_id", p.id))

	return p
}

// write sends out to the page. Writes after close are dropped.
func (p *peer) write(out *Output) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(out)
}

func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
}
