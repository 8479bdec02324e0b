package player

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/looper/internal/metrics"
)

const DefaultReplayDelay = 100 * time.Millisecond

var ErrNotMounted = errors.New("player is not mounted")

// View is the read-only projection of a session used for rendering.
type View struct {
	SurfaceID    string      `json:"surface_id"`
	Status       Status      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Config       *LoopConfig `json:"config,omitempty"`
	Loops        int         `json:"loops"`
	Seq          uint64      `json:"seq"` // grows with every change of status, error message or surface
	Err          error       `json:"-"`
}

type Option func(*Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithReplayDelay sets the pause between the seek and the play of the loop action.
// Zero plays right after the seek.
func WithReplayDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.replayDelay = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithOnChange registers fn to be called whenever the status or the error message changes.
// Calls are delivered one at a time in Seq order, without the controller lock held. fn must
// not mount, configure or unmount the Controller it observes.
func WithOnChange(fn func(View)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller is a single player session: it owns at most one live Handle and loops the
// configured segment on it. Every callback from the embed carries the generation of the handle
// it was registered for; callbacks from an older generation are dropped.
type Controller struct {
	embed       Embed
	loader      *Loader
	clock       Clock
	replayDelay time.Duration
	logger      *slog.Logger
	onChange    func(View)

	// notifyMu is taken before mu is released so that onChange calls keep their order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	surfaceID string
	status    Status
	err       error
	cfg       *LoopConfig
	handle    Handle
	handleCfg LoopConfig
	gen       uint64
	replay    Timer
	replaySeq uint64
	loops     int
	seq       uint64
}

func NewController(embed Embed, loader *Loader, opts ...Option) *Controller {
	c := &Controller{
		embed:       embed,
		loader:      loader,
		clock:       realClock{},
		replayDelay: DefaultReplayDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Mount binds the session to surfaceID and starts loading cfg. A session that is already
// mounted is torn down first. An empty video id mounts the surface without constructing a player.
func (c *Controller) Mount(surfaceID string, cfg LoopConfig) error {
	if surfaceID == "" {
		return fmt.Errorf("%w: surface id is empty", ErrInvalidConfig)
	}

	if cfg.VideoID != "" {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var (
		gen   uint64
		start bool
	)
	c.update(func() {
		c.teardownLocked()
		c.surfaceID = surfaceID
		if cfg.VideoID == "" {
			c.cfg = nil
			return
		}

		gen, start = c.loadLocked(cfg), true
	})

	if start {
		c.awaitAPI(gen)
	}

	return nil
}

// ConfigChange applies cfg to the mounted session. The same video id reuses the live handle
// through load (autoplay) or cue; a different video id restarts the session.
func (c *Controller) ConfigChange(cfg LoopConfig) error {
	if cfg.VideoID != "" {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var (
		gen     uint64
		restart bool
		err     error
	)
	c.update(func() {
		if c.surfaceID == "" {
			err = ErrNotMounted
			return
		}

		if c.cfg != nil && c.cfg.VideoID == cfg.VideoID {
			next := cfg.clone()
			c.cfg = &next
			if c.handle != nil && c.isActiveLocked() && !next.Equal(c.handleCfg) {
				c.applyConfigLocked()
			}
			return
		}

		c.teardownLocked()
		if cfg.VideoID == "" {
			c.cfg = nil
			return
		}

		gen, restart = c.loadLocked(cfg), true
	})
	if err != nil {
		return err
	}

	if restart {
		c.awaitAPI(gen)
	}

	return nil
}

// Unmount destroys the live handle and cancels a pending replay.
func (c *Controller) Unmount() {
	c.update(func() {
		c.teardownLocked()
		c.cfg = nil
		c.surfaceID = ""
	})
}

func (c *Controller) TogglePlayPause() error {
	var err error
	c.update(func() {
		if c.handle == nil || !c.isActiveLocked() {
			err = fmt.Errorf("%w: status is %s", ErrNotReady, c.status)
			return
		}

		h := c.handle
		if c.status == StatusPlaying {
			err = c.call(h.Pause)
		} else {
			err = c.call(h.Play)
		}

		if err != nil {
			c.failLocked(ErrPlayback, err)
			err = c.err
		}
	})

	return err
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.viewLocked()
}

func (c *Controller) awaitAPI(gen uint64) {
	c.loader.Await(func(err error) {
		c.embedAPIReady(gen, err)
	})
}

func (c *Controller) embedAPIReady(gen uint64, err error) {
	c.update(func() {
		if gen != c.gen || c.status != StatusLoading {
			return
		}

		if err != nil {
			c.failLocked(ErrAPILoad, err)
			return
		}

		if c.cfg == nil {
			return
		}

		c.constructLocked()
	})
}

func (c *Controller) onReady(gen uint64) {
	c.update(func() {
		if gen != c.gen || c.status != StatusLoading {
			return
		}

		c.status = StatusReady
		c.logger.Debug("player ready", "surface_id", c.surfaceID, "video_id", c.cfg.VideoID)

		if !c.cfg.Equal(c.handleCfg) {
			c.applyConfigLocked()
			return
		}

		if c.cfg.Autoplay {
			c.status = StatusPlaying
		}
	})
}

func (c *Controller) onStateChange(gen uint64, state State) {
	c.update(func() {
		if gen != c.gen || c.handle == nil || !c.isActiveLocked() {
			return
		}

		switch state {
		case StatePlaying:
			c.status = StatusPlaying
		case StatePaused:
			c.status = StatusPaused
		case StateEnded:
			c.status = StatusPaused
			c.loopLocked()
		}
	})
}

func (c *Controller) onError(gen uint64, code ErrorCode) {
	c.update(func() {
		if gen != c.gen || c.status == StatusUninitialized || c.status == StatusError {
			return
		}

		c.failLocked(ErrPlayback, fmt.Errorf("code %d: %s", code, code.Message()))
	})
}

// loopLocked seeks back to the start of the segment and schedules the replay.
func (c *Controller) loopLocked() {
	h := c.handle
	start := c.cfg.StartTime
	if err := c.call(func() error { return h.Seek(start, true) }); err != nil {
		c.failLocked(ErrPlayback, err)
		return
	}

	c.loops++
	metrics.LoopRestarts.Inc()
	c.logger.Debug("segment ended, restarting", "surface_id", c.surfaceID, "start_time", start, "loops", c.loops)

	c.cancelReplayLocked()
	if c.replayDelay <= 0 {
		c.playLocked()
		return
	}

	gen, seq := c.gen, c.replaySeq
	c.replay = c.clock.AfterFunc(c.replayDelay, func() {
		c.replayAfterSeek(gen, seq)
	})
}

func (c *Controller) replayAfterSeek(gen, seq uint64) {
	c.update(func() {
		if gen != c.gen || seq != c.replaySeq || c.replay == nil || c.handle == nil {
			return
		}

		c.replay = nil
		if c.status == StatusError {
			return
		}

		c.playLocked()
	})
}

func (c *Controller) playLocked() {
	if err := c.call(c.handle.Play); err != nil {
		c.failLocked(ErrPlayback, err)
	}
}

// loadLocked stores cfg and enters Loading. It returns the generation to await the api with.
func (c *Controller) loadLocked(cfg LoopConfig) uint64 {
	next := cfg.clone()
	c.cfg = &next
	c.status = StatusLoading

	return c.gen
}

func (c *Controller) constructLocked() {
	c.destroyHandleLocked()
	c.gen++

	gen := c.gen
	cfg := c.cfg.clone()
	cb := Callbacks{
		OnReady:       func() { c.onReady(gen) },
		OnStateChange: func(state State) { c.onStateChange(gen, state) },
		OnError:       func(code ErrorCode) { c.onError(gen, code) },
	}

	var h Handle
	err := c.call(func() error {
		var err error
		h, err = c.embed.Construct(c.surfaceID, cfg, cb)
		return err
	})
	if err == nil && h == nil {
		err = errors.New("embed returned no player")
	}
	if err != nil {
		c.failLocked(ErrPlayerInit, err)
		return
	}

	c.handle = h
	c.handleCfg = cfg
	metrics.LiveHandles.Inc()
	c.logger.Debug("player constructed", "surface_id", c.surfaceID, "video_id", cfg.VideoID)
}

func (c *Controller) applyConfigLocked() {
	h := c.handle
	cfg := c.cfg.clone()

	var err error
	if cfg.Autoplay {
		err = c.call(func() error { return h.LoadByID(cfg) })
	} else {
		err = c.call(func() error { return h.CueByID(cfg) })
	}
	if err != nil {
		c.failLocked(ErrPlayback, err)
		return
	}

	c.cancelReplayLocked()
	c.handleCfg = cfg
	if cfg.Autoplay {
		c.status = StatusPlaying
	} else {
		c.status = StatusReady
	}
}

func (c *Controller) teardownLocked() {
	c.cancelReplayLocked()
	c.destroyHandleLocked()
	c.gen++
	c.status = StatusUninitialized
	c.err = nil
	c.loops = 0
}

func (c *Controller) destroyHandleLocked() {
	if c.handle == nil {
		return
	}

	h := c.handle
	c.handle = nil
	c.handleCfg = LoopConfig{}
	metrics.LiveHandles.Dec()

	if err := c.call(h.Destroy); err != nil {
		c.logger.Warn("failed to destroy player", "surface_id", c.surfaceID, "error", err)
	}
}

func (c *Controller) cancelReplayLocked() {
	c.replaySeq++
	if c.replay == nil {
		return
	}

	c.replay.Stop()
	c.replay = nil
}

func (c *Controller) failLocked(kind, cause error) {
	c.cancelReplayLocked()
	c.status = StatusError

	switch {
	case cause == nil:
		c.err = kind
	case errors.Is(cause, kind):
		c.err = cause
	default:
		c.err = fmt.Errorf("%w: %w", kind, cause)
	}

	metrics.PlayerErrors.WithLabelValues(errorKind(kind)).Inc()
	c.logger.Warn("player session failed", "surface_id", c.surfaceID, "error", c.err)
}

func (c *Controller) isActiveLocked() bool {
	return c.status == StatusReady || c.status == StatusPlaying || c.status == StatusPaused
}

// call runs an embed interaction, converting a panic into an error.
func (c *Controller) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("embed panicked: %v", r)
		}
	}()

	return fn()
}

func (c *Controller) update(fn func()) {
	c.mu.Lock()
	before := c.viewLocked()
	fn()
	after := c.viewLocked()

	if before.Status == after.Status && before.ErrorMessage == after.ErrorMessage && before.SurfaceID == after.SurfaceID {
		c.mu.Unlock()
		return
	}

	c.seq++
	after.Seq = c.seq
	if c.onChange == nil {
		c.mu.Unlock()
		return
	}

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	c.onChange(after)
}

func (c *Controller) viewLocked() View {
	v := View{
		SurfaceID: c.surfaceID,
		Status:    c.status,
		Loops:     c.loops,
		Seq:       c.seq,
		Err:       c.err,
	}

	if c.err != nil {
		v.ErrorMessage = c.err.Error()
	}

	if c.cfg != nil {
		cfg := c.cfg.clone()
		v.Config = &cfg
	}

	return v
}

func errorKind(kind error) string {
	switch {
	case errors.Is(kind, ErrAPILoad):
		return "api_load"
	case errors.Is(kind, ErrPlayerInit):
		return "player_init"
	default:
		return "playback"
	}
}
