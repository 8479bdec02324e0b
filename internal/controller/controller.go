package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/looper/internal/player"
	"github.com/sharetube/looper/internal/service/loop"
	"github.com/sharetube/looper/pkg/validator"
	"github.com/sharetube/looper/pkg/wsrouter"
)

type iLoopService interface {
	CreateLoop(context.Context, *loop.CreateLoopParams) (loop.Loop, error)
	ListLoops(context.Context, string) ([]loop.Loop, error)
	ListTrash(context.Context, string) ([]loop.Loop, error)
	GetLoop(context.Context, *loop.LoopParams) (loop.Loop, error)
	DeleteLoop(context.Context, *loop.LoopParams) error
	RestoreLoop(context.Context, *loop.LoopParams) (loop.Loop, error)
	PurgeLoop(context.Context, *loop.LoopParams) error
	PlayLoop(context.Context, *loop.LoopParams) (loop.Loop, error)
}

type iSessionRepo interface {
	Add(*websocket.Conn, string, *player.Controller) error
	Get(*websocket.Conn, string) (*player.Controller, error)
	Remove(*websocket.Conn, string) (*player.Controller, error)
	RemoveByConn(*websocket.Conn) []*player.Controller
	Count() int
}

type Config struct {
	Secret      string
	ReplayDelay time.Duration
	// RateLimit is the number of REST requests allowed per client per minute. Zero disables it.
	RateLimit int
}

type controller struct {
	loopService iLoopService
	sessionRepo iSessionRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter
	secret      []byte
	replayDelay time.Duration
	rateLimit   int
}

func NewController(loopService iLoopService, sessionRepo iSessionRepo, logger *slog.Logger, cfg *Config) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		loopService: loopService,
		sessionRepo: sessionRepo,
		validate:    validator.NewValidator(),
		logger:      logger,
		secret:      []byte(cfg.Secret),
		replayDelay: cfg.ReplayDelay,
		rateLimit:   cfg.RateLimit,
	}
	c.wsmux = c.getWSRouter()

	return c
}
