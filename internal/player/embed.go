package player

// Embed constructs players on a mounted surface. Implementations must not invoke callbacks
// synchronously from Construct or from any Handle method.
type Embed interface {
	Construct(surfaceID string, cfg LoopConfig, cb Callbacks) (Handle, error)
}

// Handle is one live embedded player. It is owned by exactly one Controller.
type Handle interface {
	Play() error
	Pause() error
	Seek(seconds int, allowSeekAhead bool) error
	LoadByID(cfg LoopConfig) error
	CueByID(cfg LoopConfig) error
	Destroy() error
}

type Callbacks struct {
	OnReady       func()
	OnStateChange func(State)
	OnError       func(ErrorCode)
}
