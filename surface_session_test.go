package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, config SessionConfig) (*SurfaceSession, *MemorySurface) {
	t.Helper()
	allocator := config.Allocator.(*MemoryAllocator)
	surface, id, err := allocator.Allocate(4, 4)
	require.NoError(t, err)
	return NewSurfaceSession(id, surface, config), surface.(*MemorySurface)
}

func TestSessionKeepsFrameOnFailedDecode(t *testing.T) {
	session, surface := newTestSession(t, softwareConfig(NewMemoryAllocator(), colorDecoder(image4x4)))

	results := make(chan RenderResult, 2)
	require.True(t, session.Render(colorRequest("green"), replyTo(results)))
	require.True(t, session.Render(colorRequest("missing"), replyTo(results)))

	for i := 0; i < 2; i++ {
		result := awaitResult(t, results)
		assert.NoError(t, result.Err)
		assert.Equal(t, session.ID(), result.SurfaceID)
	}
	assertSolid(t, surface.Frame(), green)
	assert.Equal(t, 2, surface.Presents())

	require.NoError(t, session.Dispose())
	assert.True(t, surface.Released())
}

func TestSessionInitFailure(t *testing.T) {
	config := softwareConfig(NewMemoryAllocator(), colorDecoder(image4x4))
	var driver *recordingDriver
	config.Driver = func() Driver {
		driver = newRecordingDriver("MakeCurrent")
		return driver
	}
	session, surface := newTestSession(t, config)

	<-session.Ready()
	assert.ErrorIs(t, session.Err(), ErrContextInit)

	results := make(chan RenderResult, 2)
	for _, path := range []string{"red", "blue"} {
		require.True(t, session.Render(colorRequest(path), replyTo(results)))
		result := awaitResult(t, results)
		assert.ErrorIs(t, result.Err, ErrSessionFailed)
		assert.Equal(t, session.ID(), result.SurfaceID)
	}
	assert.Zero(t, surface.Presents())

	driver.Reset()
	require.NoError(t, session.Dispose())
	assert.Equal(t, []string{"DestroySurface", "DestroyContext", "Terminate"}, driver.Calls())
	assert.True(t, surface.Released())
}

func TestSessionDispose(t *testing.T) {
	session, surface := newTestSession(t, softwareConfig(NewMemoryAllocator(), colorDecoder(image4x4)))

	results := make(chan RenderResult, 1)
	session.Render(colorRequest("red"), replyTo(results))

	require.NoError(t, session.Dispose())
	assert.Equal(t, 1, surface.Presents(), "pending render runs before teardown")
	assert.True(t, surface.Released())
	awaitResult(t, results)

	assert.False(t, session.Render(colorRequest("blue"), replyTo(results)))
	assert.NoError(t, session.Dispose())
}

type recordingPoster struct {
	looper *Looper
	posts  int
}

func (p *recordingPoster) Post(task func()) bool {
	p.posts++
	return p.looper.Post(task)
}

func TestSessionRepliesOnControl(t *testing.T) {
	control := &recordingPoster{looper: NewLooper("control", false)}
	config := softwareConfig(NewMemoryAllocator(), colorDecoder(image4x4))
	config.Control = control
	session, _ := newTestSession(t, config)

	results := make(chan RenderResult, 1)
	session.Render(colorRequest("red"), replyTo(results))
	awaitResult(t, results)
	require.NoError(t, session.Dispose())

	control.looper.QuitSafely()
	control.looper.Join()
	assert.Equal(t, 1, control.posts)
}
