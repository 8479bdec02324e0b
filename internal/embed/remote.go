package embed

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sharetube/looper/internal/player"
)

const APIScriptURL = "https://www.youtube.com/iframe_api"

var ErrHandleDestroyed = errors.New("player handle destroyed")

// Command types sent to the page.
const (
	TypeLoadEmbedAPI    = "LOAD_EMBED_API"
	TypeConstructPlayer = "CONSTRUCT_PLAYER"
	TypePlayVideo       = "PLAY_VIDEO"
	TypePauseVideo      = "PAUSE_VIDEO"
	TypeSeekTo          = "SEEK_TO"
	TypeLoadVideoByID   = "LOAD_VIDEO_BY_ID"
	TypeCueVideoByID    = "CUE_VIDEO_BY_ID"
	TypeDestroyPlayer   = "DESTROY_PLAYER"
)

type Command struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type SendFunc func(Command) error

type PlayerVars struct {
	PlaysInline int  `json:"playsinline"`
	Autoplay    int  `json:"autoplay"`
	Start       int  `json:"start"`
	End         *int `json:"end,omitempty"`
}

type ConstructPayload struct {
	HandleID   string     `json:"handle_id"`
	SurfaceID  string     `json:"surface_id"`
	VideoID    string     `json:"video_id"`
	PlayerVars PlayerVars `json:"player_vars"`
}

type VideoPayload struct {
	HandleID     string `json:"handle_id"`
	VideoID      string `json:"video_id"`
	StartSeconds int    `json:"start_seconds"`
	EndSeconds   *int   `json:"end_seconds,omitempty"`
}

type SeekPayload struct {
	HandleID       string `json:"handle_id"`
	Seconds        int    `json:"seconds"`
	AllowSeekAhead bool   `json:"allow_seek_ahead"`
}

type HandlePayload struct {
	HandleID string `json:"handle_id"`
}

// Remote is a player.Embed whose players live in a browser page reached through send.
// Notifications from the page are fed back with Ready, StateChange and Error.
type Remote struct {
	send   SendFunc
	logger *slog.Logger
	loader *player.Loader

	mu      sync.Mutex
	handles map[string]player.Callbacks
}

func NewRemote(send SendFunc, logger *slog.Logger) *Remote {
	r := &Remote{
		send:    send,
		logger:  logger,
		handles: make(map[string]player.Callbacks),
	}
	r.loader = player.NewLoader(func() error {
		return r.send(Command{
			Type:    TypeLoadEmbedAPI,
			Payload: map[string]string{"src": APIScriptURL},
		})
	})

	return r
}

// Loader is shared by every session on this page.
func (r *Remote) Loader() *player.Loader {
	return r.loader
}

func (r *Remote) Construct(surfaceID string, cfg player.LoopConfig, cb player.Callbacks) (player.Handle, error) {
	h := &handle{remote: r, id: uuid.NewString()}

	vars := PlayerVars{
		PlaysInline: 1,
		Start:       cfg.StartTime,
		End:         cfg.EndTime,
	}
	if cfg.Autoplay {
		vars.Autoplay = 1
	}

	r.mu.Lock()
	r.handles[h.id] = cb
	r.mu.Unlock()

	if err := r.send(Command{
		Type: TypeConstructPlayer,
		Payload: ConstructPayload{
			HandleID:   h.id,
			SurfaceID:  surfaceID,
			VideoID:    cfg.VideoID,
			PlayerVars: vars,
		},
	}); err != nil {
		r.forget(h.id)
		return nil, fmt.Errorf("failed to send construct: %w", err)
	}

	return h, nil
}

func (r *Remote) Ready(handleID string) {
	if cb, ok := r.callbacks(handleID); ok && cb.OnReady != nil {
		cb.OnReady()
	}
}

func (r *Remote) StateChange(handleID string, state player.State) {
	if cb, ok := r.callbacks(handleID); ok && cb.OnStateChange != nil {
		cb.OnStateChange(state)
	}
}

func (r *Remote) Error(handleID string, code player.ErrorCode) {
	if cb, ok := r.callbacks(handleID); ok && cb.OnError != nil {
		cb.OnError(code)
	}
}

// Live returns the number of handles that were constructed and not destroyed.
func (r *Remote) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles)
}

func (r *Remote) callbacks(handleID string) (player.Callbacks, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.handles[handleID]
	if !ok {
		r.logger.Debug("notification for unknown player dropped", "handle_id", handleID)
	}

	return cb, ok
}

func (r *Remote) forget(handleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[handleID]; !ok {
		return false
	}
	delete(r.handles, handleID)

	return true
}

func (r *Remote) alive(handleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.handles[handleID]
	return ok
}

type handle struct {
	remote *Remote
	id     string
}

func (h *handle) command(typ string, payload any) error {
	if !h.remote.alive(h.id) {
		return ErrHandleDestroyed
	}

	return h.remote.send(Command{Type: typ, Payload: payload})
}

func (h *handle) Play() error {
	return h.command(TypePlayVideo, HandlePayload{HandleID: h.id})
}

func (h *handle) Pause() error {
	return h.command(TypePauseVideo, HandlePayload{HandleID: h.id})
}

func (h *handle) Seek(seconds int, allowSeekAhead bool) error {
	return h.command(TypeSeekTo, SeekPayload{
		HandleID:       h.id,
		Seconds:        seconds,
		AllowSeekAhead: allowSeekAhead,
	})
}

func (h *handle) LoadByID(cfg player.LoopConfig) error {
	return h.command(TypeLoadVideoByID, h.videoPayload(cfg))
}

func (h *handle) CueByID(cfg player.LoopConfig) error {
	return h.command(TypeCueVideoByID, h.videoPayload(cfg))
}

func (h *handle) Destroy() error {
	if !h.remote.forget(h.id) {
		return ErrHandleDestroyed
	}

	return h.remote.send(Command{Type: TypeDestroyPlayer, Payload: HandlePayload{HandleID: h.id}})
}

func (h *handle) videoPayload(cfg player.LoopConfig) VideoPayload {
	return VideoPayload{
		HandleID:     h.id,
		VideoID:      cfg.VideoID,
		StartSeconds: cfg.StartTime,
		EndSeconds:   cfg.EndTime,
	}
}
