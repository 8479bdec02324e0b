package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sharetube/looper/internal/player"
	"github.com/sharetube/looper/internal/repository/session"
)

// repo keeps the player sessions of every connection, one per surface.
type repo struct {
	sessions map[*websocket.Conn]map[string]*player.Controller
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		sessions: make(map[*websocket.Conn]map[string]*player.Controller),
	}
}

func (r *repo) Add(conn *websocket.Conn, surfaceID string, c *player.Controller) error {
	funcName := "session.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "surface_id", surfaceID)
	surfaces, ok := r.sessions[conn]
	if !ok {
		surfaces = make(map[string]*player.Controller)
		r.sessions[conn] = surfaces
	}

	if _, ok := surfaces[surfaceID]; ok {
		slog.Info(funcName, "error", session.ErrSessionExists)
		return session.ErrSessionExists
	}

	surfaces[surfaceID] = c
	return nil
}

func (r *repo) Get(conn *websocket.Conn, surfaceID string) (*player.Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sessions[conn][surfaceID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}

	return c, nil
}

func (r *repo) Remove(conn *websocket.Conn, surfaceID string) (*player.Controller, error) {
	funcName := "session.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "surface_id", surfaceID)
	surfaces := r.sessions[conn]
	c, ok := surfaces[surfaceID]
	if !ok {
		slog.Info(funcName, "error", session.ErrSessionNotFound)
		return nil, session.ErrSessionNotFound
	}

	delete(surfaces, surfaceID)
	if len(surfaces) == 0 {
		delete(r.sessions, conn)
	}

	return c, nil
}

// RemoveByConn drops every session of conn and returns them.
func (r *repo) RemoveByConn(conn *websocket.Conn) []*player.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	surfaces := r.sessions[conn]
	delete(r.sessions, conn)

	controllers := make([]*player.Controller, 0, len(surfaces))
	for _, c := range surfaces {
		controllers = append(controllers, c)
	}

	slog.Debug("session.inmemory.RemoveByConn", "removed", len(controllers))
	return controllers
}

// Count returns the number of sessions over all connections.
func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, surfaces := range r.sessions {
		count += len(surfaces)
	}

	return count
}
