package push

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	writeErr error
	closed   bool

	busy    atomic.Bool
	overlap atomic.Bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if !c.busy.CompareAndSwap(false, true) {
		c.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	defer c.busy.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestSendToUserDeliversToAllConnections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	first := &fakeConn{}
	second := &fakeConn{}
	other := &fakeConn{}
	hub.Register("user-1", first)
	hub.Register("user-1", second)
	hub.Register("user-2", other)

	require.NoError(t, hub.SendToUser("user-1", map[string]any{"ticket_id": "tk-1"}))

	require.Equal(t, 1, first.frameCount())
	require.Equal(t, 1, second.frameCount())
	assert.Equal(t, 0, other.frameCount())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(first.frames[0], &payload))
	assert.Equal(t, "tk-1", payload["ticket_id"])
}

func TestSendToUserOfflineIsNoError(t *testing.T) {
	hub := NewHub(zap.NewNop())
	require.NoError(t, hub.SendToUser("user-missing", map[string]any{"x": 1}))
}

func TestSendToUserClosesFailedConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	broken := &fakeConn{writeErr: errors.New("broken pipe")}
	healthy := &fakeConn{}
	hub.Register("user-1", broken)
	hub.Register("user-1", healthy)

	require.NoError(t, hub.SendToUser("user-1", map[string]any{"x": 1}))
	assert.True(t, broken.closed)
	assert.Equal(t, 1, healthy.frameCount())

	// The broken connection was dropped from the registry.
	require.NoError(t, hub.SendToUser("user-1", map[string]any{"x": 2}))
	assert.Equal(t, 2, healthy.frameCount())
}

func TestConcurrentSendsAreSerializedPerConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := &fakeConn{}
	hub.Register("user-1", conn)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = hub.SendToUser("user-1", map[string]any{"x": 1})
		}()
	}
	wg.Wait()

	assert.False(t, conn.overlap.Load())
	assert.Equal(t, 8, conn.frameCount())
}

func TestUnregisterLastConnectionRemovesUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := &fakeConn{}
	hub.Register("user-1", conn)
	hub.Unregister("user-1", conn)

	require.NoError(t, hub.SendToUser("user-1", map[string]any{"x": 1}))
	assert.Equal(t, 0, conn.frameCount())
}
