package loop

import (
	"context"
	"errors"
	"time"

	"github.com/sharetube/looper/internal/repository/loop"
	"github.com/sharetube/looper/pkg/ytvideodata"
)

var (
	ErrLoopNotFound = errors.New("loop not found")
	ErrInvalidLoop  = errors.New("invalid loop")
)

type iLoopRepo interface {
	SetLoop(context.Context, *loop.SetLoopParams) error
	GetLoop(context.Context, string) (loop.Loop, error)
	GetLoopIds(context.Context, string) ([]string, error)
	GetTrashIds(context.Context, string) ([]string, error)
	SoftDeleteLoop(context.Context, *loop.SoftDeleteLoopParams) error
	RestoreLoop(context.Context, *loop.RestoreLoopParams) error
	RemoveLoop(context.Context, *loop.RemoveLoopParams) error
	IncrLoopPlayCount(context.Context, string) (int, error)
}

type iVideoData interface {
	Get(ctx context.Context, videoID string) (*ytvideodata.VideoData, error)
}

type service struct {
	loopRepo        iLoopRepo
	videoData       iVideoData
	metadataTimeout time.Duration
	now             func() time.Time
}

func NewService(loopRepo iLoopRepo, videoData iVideoData, metadataTimeout time.Duration) *service {
	return &service{
		loopRepo:        loopRepo,
		videoData:       videoData,
		metadataTimeout: metadataTimeout,
		now:             time.Now,
	}
}
