package loop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/looper/internal/repository/loop"
)

func (s service) mapLoop(l loop.Loop, userID string) Loop {
	resp := Loop{
		ID:           l.ID,
		VideoID:      l.VideoID,
		StartTime:    l.StartTime,
		EndTime:      l.EndTime,
		Title:        l.Title,
		Description:  l.Description,
		AuthorName:   l.AuthorName,
		ThumbnailURL: l.ThumbnailURL,
		IsPublic:     l.IsPublic,
		IsOwner:      l.UserID == userID,
		PlayCount:    l.PlayCount,
		CreatedAt:    time.UnixMilli(l.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(l.UpdatedAt).UTC(),
	}

	if l.DeletedAt != nil {
		deletedAt := time.UnixMilli(*l.DeletedAt).UTC()
		resp.DeletedAt = &deletedAt
	}

	return resp
}

func (s service) getLoops(ctx context.Context, userID string, loopIDs []string) ([]Loop, error) {
	loops := make([]Loop, 0, len(loopIDs))
	for _, loopID := range loopIDs {
		l, err := s.loopRepo.GetLoop(ctx, loopID)
		if err != nil {
			if errors.Is(err, loop.ErrLoopNotFound) {
				slog.WarnContext(ctx, "skipping listed loop without data", "loop_id", loopID)
				continue
			}

			return nil, s.mapRepoErr(err)
		}

		loops = append(loops, s.mapLoop(l, userID))
	}

	return loops, nil
}

func (s service) mapRepoErr(err error) error {
	if errors.Is(err, loop.ErrLoopNotFound) {
		return ErrLoopNotFound
	}

	return err
}
