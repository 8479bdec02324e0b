package player

import (
	"fmt"
	"sync"
	"time"
)

type fakeEmbed struct {
	mu           sync.Mutex
	handles      []*fakeHandle
	constructErr error
	panics       bool
}

func (e *fakeEmbed) Construct(surfaceID string, cfg LoopConfig, cb Callbacks) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.panics {
		panic("player constructor blew up")
	}

	if e.constructErr != nil {
		return nil, e.constructErr
	}

	h := &fakeHandle{surfaceID: surfaceID, cfg: cfg, cb: cb}
	e.handles = append(e.handles, h)

	return h, nil
}

func (e *fakeEmbed) constructed() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.handles)
}

func (e *fakeEmbed) live() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, h := range e.handles {
		if !h.isDestroyed() {
			n++
		}
	}

	return n
}

func (e *fakeEmbed) last() *fakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.handles) == 0 {
		return nil
	}

	return e.handles[len(e.handles)-1]
}

type fakeHandle struct {
	mu           sync.Mutex
	surfaceID    string
	cfg          LoopConfig
	cb           Callbacks
	commands     []string
	afterDestroy []string
	destroyed    bool
	playErr      error
	seekPanics   bool
}

func (h *fakeHandle) record(cmd string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.destroyed {
		h.afterDestroy = append(h.afterDestroy, cmd)
		return
	}

	h.commands = append(h.commands, cmd)
}

func (h *fakeHandle) Play() error {
	h.record("play")
	return h.playErr
}

func (h *fakeHandle) Pause() error {
	h.record("pause")
	return nil
}

func (h *fakeHandle) Seek(seconds int, allowSeekAhead bool) error {
	if h.seekPanics {
		panic("seek on a broken player")
	}

	h.record(fmt.Sprintf("seek:%d:%t", seconds, allowSeekAhead))
	return nil
}

func (h *fakeHandle) LoadByID(cfg LoopConfig) error {
	h.record(fmt.Sprintf("load:%s:%d", cfg.VideoID, cfg.StartTime))
	return nil
}

func (h *fakeHandle) CueByID(cfg LoopConfig) error {
	h.record(fmt.Sprintf("cue:%s:%d", cfg.VideoID, cfg.StartTime))
	return nil
}

func (h *fakeHandle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.destroyed = true
	return nil
}

func (h *fakeHandle) isDestroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.destroyed
}

func (h *fakeHandle) history() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.commands...)
}

func (h *fakeHandle) historyAfterDestroy() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.afterDestroy...)
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}

	t.stopped = true
	return true
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)

	return t
}

// fire runs every timer that is neither stopped nor fired.
func (c *fakeClock) fire() int {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()

	n := 0
	for _, t := range timers {
		t.mu.Lock()
		run := !t.stopped && !t.fired
		t.fired = true
		t.mu.Unlock()

		if run {
			t.f()
			n++
		}
	}

	return n
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			n++
		}
		t.mu.Unlock()
	}

	return n
}

func (c *fakeClock) lastTimer() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.timers) == 0 {
		return nil
	}

	return c.timers[len(c.timers)-1]
}
