package loop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sharetube/looper/internal/metrics"
	"github.com/sharetube/looper/internal/player"
	"github.com/sharetube/looper/internal/repository/loop"
	"github.com/sharetube/looper/pkg/ytid"
	"github.com/sharetube/looper/pkg/ytvideodata"
)

func (s service) CreateLoop(ctx context.Context, params *CreateLoopParams) (_ Loop, err error) {
	defer func() { metrics.ObserveLoopOperation("create", err) }()

	videoID, err := ytid.Resolve(params.Video)
	if err != nil {
		return Loop{}, fmt.Errorf("%w: %w", ErrInvalidLoop, err)
	}

	cfg, err := player.NewLoopConfig(videoID, params.StartTime, params.EndTime, false)
	if err != nil {
		return Loop{}, fmt.Errorf("%w: %w", ErrInvalidLoop, err)
	}

	setLoopParams := loop.SetLoopParams{
		LoopID:       uuid.NewString(),
		UserID:       params.UserID,
		VideoID:      cfg.VideoID,
		StartTime:    cfg.StartTime,
		EndTime:      cfg.EndTime,
		Title:        params.Title,
		Description:  params.Description,
		ThumbnailURL: ytvideodata.ThumbnailURL(cfg.VideoID),
		IsPublic:     params.IsPublic,
	}
	s.fillMetadata(ctx, &setLoopParams)

	now := s.now().UnixMilli()
	setLoopParams.CreatedAt = now
	setLoopParams.UpdatedAt = now

	if err := s.loopRepo.SetLoop(ctx, &setLoopParams); err != nil {
		slog.InfoContext(ctx, "failed to set loop", "err", err)
		return Loop{}, err
	}

	l, err := s.loopRepo.GetLoop(ctx, setLoopParams.LoopID)
	if err != nil {
		slog.InfoContext(ctx, "failed to get loop", "err", err)
		return Loop{}, s.mapRepoErr(err)
	}

	return s.mapLoop(l, params.UserID), nil
}

// fillMetadata completes the title and author from oEmbed. Lookup failures are not fatal.
func (s service) fillMetadata(ctx context.Context, params *loop.SetLoopParams) {
	if s.videoData == nil {
		return
	}

	if s.metadataTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.metadataTimeout)
		defer cancel()
	}

	data, err := s.videoData.Get(ctx, params.VideoID)
	if err != nil {
		metrics.MetadataLookups.WithLabelValues("failure").Inc()
		slog.WarnContext(ctx, "failed to get video metadata", "video_id", params.VideoID, "err", err)
		return
	}
	metrics.MetadataLookups.WithLabelValues("success").Inc()

	if params.Title == "" {
		params.Title = data.Title
	}
	params.AuthorName = data.AuthorName
	if data.ThumbnailUrl != "" {
		params.ThumbnailURL = data.ThumbnailUrl
	}
}

func (s service) ListLoops(ctx context.Context, userID string) ([]Loop, error) {
	loopIDs, err := s.loopRepo.GetLoopIds(ctx, userID)
	if err != nil {
		slog.InfoContext(ctx, "failed to get loop ids", "err", err)
		return nil, err
	}

	return s.getLoops(ctx, userID, loopIDs)
}

func (s service) ListTrash(ctx context.Context, userID string) ([]Loop, error) {
	loopIDs, err := s.loopRepo.GetTrashIds(ctx, userID)
	if err != nil {
		slog.InfoContext(ctx, "failed to get trash ids", "err", err)
		return nil, err
	}

	return s.getLoops(ctx, userID, loopIDs)
}

// GetLoop returns an active loop owned by the user or any public active loop.
func (s service) GetLoop(ctx context.Context, params *LoopParams) (Loop, error) {
	l, err := s.loopRepo.GetLoop(ctx, params.LoopID)
	if err != nil {
		return Loop{}, s.mapRepoErr(err)
	}

	if l.DeletedAt != nil || (l.UserID != params.UserID && !l.IsPublic) {
		return Loop{}, ErrLoopNotFound
	}

	return s.mapLoop(l, params.UserID), nil
}

func (s service) DeleteLoop(ctx context.Context, params *LoopParams) (err error) {
	defer func() { metrics.ObserveLoopOperation("delete", err) }()

	err = s.loopRepo.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{
		LoopID:    params.LoopID,
		UserID:    params.UserID,
		DeletedAt: s.now().UnixMilli(),
	})
	if err != nil {
		slog.InfoContext(ctx, "failed to soft delete loop", "loop_id", params.LoopID, "err", err)
		return s.mapRepoErr(err)
	}

	return nil
}

func (s service) RestoreLoop(ctx context.Context, params *LoopParams) (_ Loop, err error) {
	defer func() { metrics.ObserveLoopOperation("restore", err) }()

	err = s.loopRepo.RestoreLoop(ctx, &loop.RestoreLoopParams{
		LoopID:    params.LoopID,
		UserID:    params.UserID,
		UpdatedAt: s.now().UnixMilli(),
	})
	if err != nil {
		slog.InfoContext(ctx, "failed to restore loop", "loop_id", params.LoopID, "err", err)
		return Loop{}, s.mapRepoErr(err)
	}

	l, err := s.loopRepo.GetLoop(ctx, params.LoopID)
	if err != nil {
		return Loop{}, s.mapRepoErr(err)
	}

	return s.mapLoop(l, params.UserID), nil
}

func (s service) PurgeLoop(ctx context.Context, params *LoopParams) (err error) {
	defer func() { metrics.ObserveLoopOperation("purge", err) }()

	err = s.loopRepo.RemoveLoop(ctx, &loop.RemoveLoopParams{
		LoopID: params.LoopID,
		UserID: params.UserID,
	})
	if err != nil {
		slog.InfoContext(ctx, "failed to remove loop", "loop_id", params.LoopID, "err", err)
		return s.mapRepoErr(err)
	}

	return nil
}

// PlayLoop counts a play of a loop visible to the user.
func (s service) PlayLoop(ctx context.Context, params *LoopParams) (_ Loop, err error) {
	defer func() { metrics.ObserveLoopOperation("play", err) }()

	l, err := s.GetLoop(ctx, params)
	if err != nil {
		return Loop{}, err
	}

	playCount, err := s.loopRepo.IncrLoopPlayCount(ctx, params.LoopID)
	if err != nil {
		slog.InfoContext(ctx, "failed to increment play count", "loop_id", params.LoopID, "err", err)
		return Loop{}, s.mapRepoErr(err)
	}

	l.PlayCount = playCount
	return l, nil
}
