package embed

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/sharetube/looper/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	commands []Command
	err      error
}

func (r *recorder) send(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.commands = append(r.commands, cmd)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		types = append(types, cmd.Type)
	}

	return types
}

func (r *recorder) last() Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.commands[len(r.commands)-1]
}

func TestRemoteDrivesLoop(t *testing.T) {
	rec := &recorder{}
	remote := NewRemote(rec.send, slog.Default())
	c := player.NewController(remote, remote.Loader(), player.WithReplayDelay(0))

	end := 30
	require.NoError(t, c.Mount("surface-1", player.LoopConfig{VideoID: "dQw4w9WgXcQ", StartTime: 15, EndTime: &end, Autoplay: true}))
	assert.Equal(t, []string{TypeLoadEmbedAPI}, rec.types())

	remote.Loader().Resolve(nil)
	require.Equal(t, []string{TypeLoadEmbedAPI, TypeConstructPlayer}, rec.types())

	construct, ok := rec.last().Payload.(ConstructPayload)
	require.True(t, ok)
	assert.Equal(t, "surface-1", construct.SurfaceID)
	assert.Equal(t, "dQw4w9WgXcQ", construct.VideoID)
	assert.Equal(t, 1, construct.PlayerVars.Autoplay)
	assert.Equal(t, 1, construct.PlayerVars.PlaysInline)
	assert.Equal(t, 15, construct.PlayerVars.Start)
	require.NotNil(t, construct.PlayerVars.End)
	assert.Equal(t, 30, *construct.PlayerVars.End)
	assert.Equal(t, 1, remote.Live())

	remote.Ready(construct.HandleID)
	assert.Equal(t, player.StatusPlaying, c.View().Status)

	remote.StateChange(construct.HandleID, player.StateEnded)
	types := rec.types()
	assert.Equal(t, []string{TypeSeekTo, TypePlayVideo}, types[len(types)-2:])

	c.Unmount()
	assert.Equal(t, TypeDestroyPlayer, rec.last().Type)
	assert.Equal(t, 0, remote.Live())

	count := len(rec.types())
	remote.StateChange(construct.HandleID, player.StateEnded)
	remote.Ready(construct.HandleID)
	assert.Len(t, rec.types(), count, "notifications for destroyed players must be dropped")
}

func TestRemoteLoadsAPIOncePerPage(t *testing.T) {
	rec := &recorder{}
	remote := NewRemote(rec.send, slog.Default())

	for _, surface := range []string{"a", "b", "c"} {
		c := player.NewController(remote, remote.Loader())
		require.NoError(t, c.Mount(surface, player.LoopConfig{VideoID: "dQw4w9WgXcQ"}))
	}

	assert.Equal(t, []string{TypeLoadEmbedAPI}, rec.types())

	remote.Loader().Resolve(nil)
	assert.Equal(t, 3, remote.Live())
}

func TestRemoteConstructSendFailure(t *testing.T) {
	rec := &recorder{}
	remote := NewRemote(rec.send, slog.Default())
	remote.Loader().Resolve(nil)
	rec.err = errors.New("connection closed")

	c := player.NewController(remote, remote.Loader())
	require.NoError(t, c.Mount("surface-1", player.LoopConfig{VideoID: "dQw4w9WgXcQ"}))

	assert.Equal(t, player.StatusError, c.View().Status)
	assert.ErrorIs(t, c.View().Err, player.ErrPlayerInit)
	assert.Equal(t, 0, remote.Live())
}

func TestHandleAfterDestroy(t *testing.T) {
	rec := &recorder{}
	remote := NewRemote(rec.send, slog.Default())

	h, err := remote.Construct("surface-1", player.LoopConfig{VideoID: "dQw4w9WgXcQ"}, player.Callbacks{})
	require.NoError(t, err)
	require.NoError(t, h.Destroy())

	assert.ErrorIs(t, h.Play(), ErrHandleDestroyed)
	assert.ErrorIs(t, h.Seek(1, true), ErrHandleDestroyed)
	assert.ErrorIs(t, h.Destroy(), ErrHandleDestroyed)
	assert.Equal(t, []string{TypeConstructPlayer, TypeDestroyPlayer}, rec.types())
}

func TestCueAndLoadPayload(t *testing.T) {
	rec := &recorder{}
	remote := NewRemote(rec.send, slog.Default())

	h, err := remote.Construct("surface-1", player.LoopConfig{VideoID: "dQw4w9WgXcQ"}, player.Callbacks{})
	require.NoError(t, err)

	require.NoError(t, h.CueByID(player.LoopConfig{VideoID: "dQw4w9WgXcQ", StartTime: 4}))
	cue, ok := rec.last().Payload.(VideoPayload)
	require.True(t, ok)
	assert.Equal(t, TypeCueVideoByID, rec.last().Type)
	assert.Equal(t, 4, cue.StartSeconds)
	assert.Nil(t, cue.EndSeconds)

	require.NoError(t, h.LoadByID(player.LoopConfig{VideoID: "dQw4w9WgXcQ", StartTime: 6}))
	assert.Equal(t, TypeLoadVideoByID, rec.last().Type)
}
