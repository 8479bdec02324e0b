package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/looper/internal/repository/loop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc), s
}

func setTestLoop(t *testing.T, r *repo, id string, createdAt int64, end *int) {
	t.Helper()
	err := r.SetLoop(context.Background(), &loop.SetLoopParams{
		LoopID:    id,
		UserID:    "user1",
		VideoID:   "dQw4w9WgXcQ",
		StartTime: 10,
		EndTime:   end,
		Title:     "title " + id,
		IsPublic:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestSetAndGetLoop(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()
	end := 20

	setTestLoop(t, r, "a", 1000, &end)

	l, err := r.GetLoop(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", l.ID)
	assert.Equal(t, "user1", l.UserID)
	assert.Equal(t, "dQw4w9WgXcQ", l.VideoID)
	assert.Equal(t, 10, l.StartTime)
	require.NotNil(t, l.EndTime)
	assert.Equal(t, 20, *l.EndTime)
	assert.True(t, l.IsPublic)
	assert.Equal(t, 0, l.PlayCount)
	assert.Equal(t, int64(1000), l.CreatedAt)
	assert.Nil(t, l.DeletedAt)

	score, err := s.ZScore("user:user1:loops", "a")
	require.NoError(t, err)
	assert.Equal(t, float64(1000), score)
}

func TestSetLoopWithoutEndTime(t *testing.T) {
	r, s := newTestRepo(t)

	setTestLoop(t, r, "a", 1000, nil)

	assert.Empty(t, s.HGet("loop:a", "end_time"))
	l, err := r.GetLoop(context.Background(), "a")
	require.NoError(t, err)
	assert.Nil(t, l.EndTime)
}

func TestSetLoopTwice(t *testing.T) {
	r, _ := newTestRepo(t)

	setTestLoop(t, r, "a", 1000, nil)
	err := r.SetLoop(context.Background(), &loop.SetLoopParams{LoopID: "a", UserID: "user1"})
	assert.ErrorIs(t, err, loop.ErrLoopExists)
}

func TestGetMissingLoop(t *testing.T) {
	r, _ := newTestRepo(t)

	_, err := r.GetLoop(context.Background(), "missing")
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)
}

func TestGetLoopIdsNewestFirst(t *testing.T) {
	r, _ := newTestRepo(t)

	setTestLoop(t, r, "a", 1000, nil)
	setTestLoop(t, r, "b", 3000, nil)
	setTestLoop(t, r, "c", 2000, nil)

	ids, err := r.GetLoopIds(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	ids, err = r.GetLoopIds(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSoftDeleteAndRestoreLoop(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	setTestLoop(t, r, "a", 1000, nil)
	setTestLoop(t, r, "b", 2000, nil)

	err := r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: 5000})
	require.NoError(t, err)

	ids, err := r.GetLoopIds(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	trash, err := r.GetTrashIds(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, trash)

	l, err := r.GetLoop(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, l.DeletedAt)
	assert.Equal(t, int64(5000), *l.DeletedAt)
	assert.Equal(t, int64(5000), l.UpdatedAt)

	err = r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: 6000})
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)

	err = r.RestoreLoop(ctx, &loop.RestoreLoopParams{LoopID: "a", UserID: "user1", UpdatedAt: 7000})
	require.NoError(t, err)

	ids, err = r.GetLoopIds(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	trash, err = r.GetTrashIds(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, trash)

	l, err = r.GetLoop(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, l.DeletedAt)
	assert.Equal(t, int64(7000), l.UpdatedAt)
}

func TestSoftDeleteOtherUsersLoop(t *testing.T) {
	r, _ := newTestRepo(t)

	setTestLoop(t, r, "a", 1000, nil)

	err := r.SoftDeleteLoop(context.Background(), &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user2", DeletedAt: 5000})
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)
}

func TestRestoreLoopNotInTrash(t *testing.T) {
	r, _ := newTestRepo(t)

	setTestLoop(t, r, "a", 1000, nil)

	err := r.RestoreLoop(context.Background(), &loop.RestoreLoopParams{LoopID: "a", UserID: "user1", UpdatedAt: 2000})
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)
}

func TestRemoveLoop(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	setTestLoop(t, r, "a", 1000, nil)

	err := r.RemoveLoop(ctx, &loop.RemoveLoopParams{LoopID: "a", UserID: "user1"})
	assert.ErrorIs(t, err, loop.ErrLoopNotFound, "active loop must be trashed first")

	err = r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: 5000})
	require.NoError(t, err)

	err = r.RemoveLoop(ctx, &loop.RemoveLoopParams{LoopID: "a", UserID: "user1"})
	require.NoError(t, err)
	assert.False(t, s.Exists("loop:a"))

	_, err = r.GetLoop(ctx, "a")
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)
}

func TestIncrLoopPlayCount(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	setTestLoop(t, r, "a", 1000, nil)

	count, err := r.IncrLoopPlayCount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = r.IncrLoopPlayCount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = r.IncrLoopPlayCount(ctx, "missing")
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)
}

func TestIncrLoopPlayCountAfterRemoveDoesNotRecreateLoop(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	setTestLoop(t, r, "a", 1000, nil)
	require.NoError(t, r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: 5000}))
	require.NoError(t, r.RemoveLoop(ctx, &loop.RemoveLoopParams{LoopID: "a", UserID: "user1"}))

	_, err := r.IncrLoopPlayCount(ctx, "a")
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)
	assert.False(t, s.Exists("loop:a"), "play count must not leave a stub hash behind")
}

func TestRestoreAndRemoveRace(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		setTestLoop(t, r, "a", 1000, nil)
		require.NoError(t, r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: 5000}))

		var (
			wg                    sync.WaitGroup
			restoreErr, removeErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			restoreErr = r.RestoreLoop(ctx, &loop.RestoreLoopParams{LoopID: "a", UserID: "user1", UpdatedAt: 7000})
		}()
		go func() {
			defer wg.Done()
			removeErr = r.RemoveLoop(ctx, &loop.RemoveLoopParams{LoopID: "a", UserID: "user1"})
		}()
		wg.Wait()

		ids, err := r.GetLoopIds(ctx, "user1")
		require.NoError(t, err)
		trash, err := r.GetTrashIds(ctx, "user1")
		require.NoError(t, err)
		assert.Empty(t, trash)

		if restoreErr == nil {
			assert.ErrorIs(t, removeErr, loop.ErrLoopNotFound)
			assert.Equal(t, []string{"a"}, ids)
			assert.True(t, s.Exists("loop:a"))

			require.NoError(t, r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: 5000}))
			require.NoError(t, r.RemoveLoop(ctx, &loop.RemoveLoopParams{LoopID: "a", UserID: "user1"}))
		} else {
			assert.ErrorIs(t, restoreErr, loop.ErrLoopNotFound)
			require.NoError(t, removeErr)
			assert.Empty(t, ids, "removed loop must not be listed")
			assert.False(t, s.Exists("loop:a"))
		}
	}
}

func TestConcurrentSoftDeleteMovesOnce(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	setTestLoop(t, r, "a", 1000, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(deletedAt int64) {
			defer wg.Done()
			err := r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: deletedAt})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, loop.ErrLoopNotFound)
		}(int64(5000 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)

	trash, err := r.GetTrashIds(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, trash)
}

func TestMoveDropsDanglingMember(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	setTestLoop(t, r, "a", 1000, nil)
	s.Del("loop:a")

	err := r.SoftDeleteLoop(ctx, &loop.SoftDeleteLoopParams{LoopID: "a", UserID: "user1", DeletedAt: 5000})
	assert.ErrorIs(t, err, loop.ErrLoopNotFound)

	ids, err := r.GetLoopIds(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	trash, err := r.GetTrashIds(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, trash)
	assert.False(t, s.Exists("loop:a"))
}
