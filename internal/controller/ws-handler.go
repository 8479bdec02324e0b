package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sharetube/looper/internal/metrics"
	"github.com/sharetube/looper/internal/player"
	"github.com/sharetube/looper/internal/repository/session"
	"github.com/sharetube/looper/pkg/ctxlogger"
	pkgvalidator "github.com/sharetube/looper/pkg/validator"
	"github.com/sharetube/looper/pkg/wsrouter"
	"github.com/sharetube/looper/pkg/ytid"
)

type validationError struct {
	errors []pkgvalidator.ValidationError
}

func (e *validationError) Error() string {
	messages := make([]string, 0, len(e.errors))
	for _, err := range e.errors {
		messages = append(messages, err.Message)
	}

	return "validation failed: " + strings.Join(messages, "; ")
}

func (c controller) servePlayer(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	p := c.newPeer(conn)
	metrics.PlayerConnections.Inc()
	defer metrics.PlayerConnections.Dec()

	ctx := context.WithValue(r.Context(), peerCtxKey, p)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("peer_id", p.id))
	defer c.disconnect(ctx, p)

	c.logger.InfoContext(ctx, "player connected")
	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.InfoContext(ctx, "failed to serve conn", "error", err)
		}
	}
}

// disconnect unmounts every session of the peer.
func (c controller) disconnect(ctx context.Context, p *peer) {
	p.close()

	sessions := c.sessionRepo.RemoveByConn(p.conn)
	for _, s := range sessions {
		s.Unmount()
	}
	c.observeSessions()

	if live := p.remote.Live(); live > 0 {
		c.logger.WarnContext(ctx, "players left alive after disconnect", "live", live)
	}

	c.logger.InfoContext(ctx, "player disconnected", "sessions", len(sessions))
}

func (c controller) observeSessions() {
	metrics.PlayerSessions.Set(float64(c.sessionRepo.Count()))
}

func (c controller) newSession(p *peer, surfaceID string) *player.Controller {
	return player.NewController(p.remote, p.remote.Loader(),
		player.WithReplayDelay(c.replayDelay),
		player.WithLogger(c.logger.With("peer_id", p.id)),
		player.WithOnChange(func(v player.View) {
			if err := p.write(&Output{
				Type: "SESSION_UPDATED",
				Payload: sessionUpdatedPayload{
					SurfaceID:    surfaceID,
					Status:       v.Status,
					ErrorMessage: v.ErrorMessage,
					Seq:          v.Seq,
				},
			}); err != nil {
				c.logger.Info("failed to write session update", "peer_id", p.id, "error", err)
			}
		}),
	)
}

type sessionUpdatedPayload struct {
	SurfaceID    string        `json:"surface_id"`
	Status       player.Status `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Seq          uint64        `json:"seq"`
}

type errorPayload struct {
	MessageType string                         `json:"message_type,omitempty"`
	Message     string                         `json:"message"`
	Errors      []pkgvalidator.ValidationError `json:"errors,omitempty"`
}

func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	c.logger.InfoContext(ctx, "websocket message failed", "error", err)

	p := c.getPeerFromCtx(ctx)
	if p == nil {
		return
	}

	payload := errorPayload{
		MessageType: wsrouter.GetMessageTypeFromCtx(ctx),
		Message:     err.Error(),
	}
	var vErr *validationError
	if errors.As(err, &vErr) {
		payload.Errors = vErr.errors
	}

	if err := p.write(&Output{Type: "ERROR", Payload: payload}); err != nil {
		c.logger.InfoContext(ctx, "failed to write error", "error", err)
	}
}

type LoopInput struct {
	SurfaceID string `json:"surface_id" validate:"required,max=64"`
	Video     string `json:"video" validate:"omitempty,ytid"`
	StartTime int    `json:"start_time" validate:"gte=0"`
	EndTime   *int   `json:"end_time" validate:"omitempty,gte=0"`
	Autoplay  bool   `json:"autoplay"`
}

// loopConfig validates input. An empty video gives the zero config.
func (c controller) loopConfig(input *LoopInput) (player.LoopConfig, error) {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return player.LoopConfig{}, &validationError{errors: validationErrors}
	}

	if input.Video == "" {
		return player.LoopConfig{}, nil
	}

	videoID, err := ytid.Resolve(input.Video)
	if err != nil {
		return player.LoopConfig{}, err
	}

	return player.NewLoopConfig(videoID, input.StartTime, input.EndTime, input.Autoplay)
}

func (c controller) handleMount(ctx context.Context, conn *websocket.Conn, input LoopInput) error {
	cfg, err := c.loopConfig(&input)
	if err != nil {
		return err
	}

	s, err := c.sessionRepo.Get(conn, input.SurfaceID)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			return fmt.Errorf("failed to get session: %w", err)
		}

		s = c.newSession(c.getPeerFromCtx(ctx), input.SurfaceID)
		if err := c.sessionRepo.Add(conn, input.SurfaceID, s); err != nil {
			return fmt.Errorf("failed to add session: %w", err)
		}
		c.observeSessions()
	}

	if err := s.Mount(input.SurfaceID, cfg); err != nil {
		return fmt.Errorf("failed to mount: %w", err)
	}

	return nil
}

func (c controller) handleConfigure(_ context.Context, conn *websocket.Conn, input LoopInput) error {
	cfg, err := c.loopConfig(&input)
	if err != nil {
		return err
	}

	s, err := c.sessionRepo.Get(conn, input.SurfaceID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if err := s.ConfigChange(cfg); err != nil {
		return fmt.Errorf("failed to configure: %w", err)
	}

	return nil
}

type SurfaceInput struct {
	SurfaceID string `json:"surface_id" validate:"required,max=64"`
}

func (c controller) surface(conn *websocket.Conn, input *SurfaceInput) (*player.Controller, error) {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return nil, &validationError{errors: validationErrors}
	}

	s, err := c.sessionRepo.Get(conn, input.SurfaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

func (c controller) handleUnmount(_ context.Context, conn *websocket.Conn, input SurfaceInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &validationError{errors: validationErrors}
	}

	s, err := c.sessionRepo.Remove(conn, input.SurfaceID)
	if err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	c.observeSessions()

	s.Unmount()
	return nil
}

func (c controller) handleTogglePlayPause(_ context.Context, conn *websocket.Conn, input SurfaceInput) error {
	s, err := c.surface(conn, &input)
	if err != nil {
		return err
	}

	if err := s.TogglePlayPause(); err != nil {
		return fmt.Errorf("failed to toggle play pause: %w", err)
	}

	return nil
}

func (c controller) handleGetSession(ctx context.Context, conn *websocket.Conn, input SurfaceInput) error {
	s, err := c.surface(conn, &input)
	if err != nil {
		return err
	}

	if err := c.getPeerFromCtx(ctx).write(&Output{Type: "SESSION", Payload: s.View()}); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

type EmbedAPIFailedInput struct {
	Message string `json:"message"`
}

func (c controller) handleEmbedAPIReady(ctx context.Context, _ *websocket.Conn, _ struct{}) error {
	c.getPeerFromCtx(ctx).remote.Loader().Resolve(nil)
	return nil
}

func (c controller) handleEmbedAPIFailed(ctx context.Context, _ *websocket.Conn, input EmbedAPIFailedInput) error {
	message := input.Message
	if message == "" {
		message = "script failed to load"
	}

	c.getPeerFromCtx(ctx).remote.Loader().Resolve(errors.New(message))
	return nil
}

type PlayerReadyInput struct {
	HandleID string `json:"handle_id" validate:"required"`
}

func (c controller) handlePlayerReady(ctx context.Context, _ *websocket.Conn, input PlayerReadyInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &validationError{errors: validationErrors}
	}

	c.getPeerFromCtx(ctx).remote.Ready(input.HandleID)
	return nil
}

type PlayerStateChangedInput struct {
	HandleID string       `json:"handle_id" validate:"required"`
	State    player.State `json:"state"`
}

func (c controller) handlePlayerStateChanged(ctx context.Context, _ *websocket.Conn, input PlayerStateChangedInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &validationError{errors: validationErrors}
	}

	c.getPeerFromCtx(ctx).remote.StateChange(input.HandleID, input.State)
	return nil
}

type PlayerErrorInput struct {
	HandleID string           `json:"handle_id" validate:"required"`
	Code     player.ErrorCode `json:"code"`
}

func (c controller) handlePlayerError(ctx context.Context, _ *websocket.Conn, input PlayerErrorInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &validationError{errors: validationErrors}
	}

	c.getPeerFromCtx(ctx).remote.Error(input.HandleID, input.Code)
	return nil
}
