package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/looper/internal/repository/loop"
)

func (r repo) getLoopKey(loopId string) string {
	return "loop:" + loopId
}

func (r repo) getUserLoopsKey(userId string) string {
	return "user:" + userId + ":loops"
}

func (r repo) getUserTrashKey(userId string) string {
	return "user:" + userId + ":trash"
}

func (r repo) SetLoop(ctx context.Context, params *loop.SetLoopParams) error {
	loopKey := r.getLoopKey(params.LoopID)
	exists, err := r.rc.Exists(ctx, loopKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check if loop exists: %w", err)
	}

	if exists > 0 {
		return loop.ErrLoopExists
	}

	pipe := r.rc.TxPipeline()
	if err := r.hSetStruct(ctx, pipe, loopKey, params); err != nil {
		return err
	}
	pipe.HSet(ctx, loopKey, "play_count", 0)
	pipe.ZAdd(ctx, r.getUserLoopsKey(params.UserID), redis.Z{
		Score:  float64(params.CreatedAt),
		Member: params.LoopID,
	})

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set loop: %w", err)
	}

	return nil
}

func (r repo) GetLoop(ctx context.Context, loopId string) (loop.Loop, error) {
	fields, err := r.rc.HGetAll(ctx, r.getLoopKey(loopId)).Result()
	if err != nil {
		return loop.Loop{}, fmt.Errorf("failed to get loop: %w", err)
	}

	if len(fields) == 0 {
		return loop.Loop{}, loop.ErrLoopNotFound
	}

	return loop.Loop{
		ID:           fields["id"],
		UserID:       fields["user_id"],
		VideoID:      fields["video_id"],
		StartTime:    r.fieldToInt(fields["start_time"]),
		EndTime:      r.fieldToIntPtr(fields, "end_time"),
		Title:        fields["title"],
		Description:  fields["description"],
		AuthorName:   fields["author_name"],
		ThumbnailURL: fields["thumbnail_url"],
		IsPublic:     r.fieldToBool(fields["is_public"]),
		PlayCount:    r.fieldToInt(fields["play_count"]),
		CreatedAt:    r.fieldToInt64(fields["created_at"]),
		UpdatedAt:    r.fieldToInt64(fields["updated_at"]),
		DeletedAt:    r.fieldToInt64Ptr(fields, "deleted_at"),
	}, nil
}

// GetLoopIds returns the ids of the active loops of a user, newest first.
func (r repo) GetLoopIds(ctx context.Context, userId string) ([]string, error) {
	loopIds, err := r.rc.ZRevRange(ctx, r.getUserLoopsKey(userId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get loop ids: %w", err)
	}

	return loopIds, nil
}

// GetTrashIds returns the ids of the soft deleted loops of a user, most recently deleted first.
func (r repo) GetTrashIds(ctx context.Context, userId string) ([]string, error) {
	loopIds, err := r.rc.ZRevRange(ctx, r.getUserTrashKey(userId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get trash ids: %w", err)
	}

	return loopIds, nil
}

// SoftDeleteLoop moves an active loop of the user to the trash.
func (r repo) SoftDeleteLoop(ctx context.Context, params *loop.SoftDeleteLoopParams) error {
	keys := []string{
		r.getUserLoopsKey(params.UserID),
		r.getUserTrashKey(params.UserID),
		r.getLoopKey(params.LoopID),
	}
	if err := r.evalMove(ctx, r.softDeleteScript, keys, params.LoopID, params.DeletedAt); err != nil {
		return fmt.Errorf("failed to soft delete loop: %w", err)
	}

	return nil
}

// RestoreLoop moves a loop of the user back from the trash, at its original position.
func (r repo) RestoreLoop(ctx context.Context, params *loop.RestoreLoopParams) error {
	keys := []string{
		r.getUserTrashKey(params.UserID),
		r.getUserLoopsKey(params.UserID),
		r.getLoopKey(params.LoopID),
	}
	if err := r.evalMove(ctx, r.restoreScript, keys, params.LoopID, params.UpdatedAt); err != nil {
		return fmt.Errorf("failed to restore loop: %w", err)
	}

	return nil
}

// RemoveLoop deletes a loop that is in the trash for good.
func (r repo) RemoveLoop(ctx context.Context, params *loop.RemoveLoopParams) error {
	keys := []string{
		r.getUserTrashKey(params.UserID),
		r.getLoopKey(params.LoopID),
	}
	if err := r.evalMove(ctx, r.removeScript, keys, params.LoopID); err != nil {
		return fmt.Errorf("failed to remove loop: %w", err)
	}

	return nil
}

// IncrLoopPlayCount never creates the loop hash, so a removed loop stays removed.
func (r repo) IncrLoopPlayCount(ctx context.Context, loopId string) (int, error) {
	playCount, err := r.rc.EvalSha(ctx, r.incrPlayCountScript, []string{r.getLoopKey(loopId)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to increment play count: %w", err)
	}

	if playCount < 0 {
		return 0, loop.ErrLoopNotFound
	}

	return int(playCount), nil
}

// evalMove runs one of the move scripts, which return 0 when the loop is not where it should be.
func (r repo) evalMove(ctx context.Context, script string, keys []string, args ...interface{}) error {
	moved, err := r.rc.EvalSha(ctx, script, keys, args...).Int64()
	if err != nil {
		return err
	}

	if moved == 0 {
		return loop.ErrLoopNotFound
	}

	return nil
}
