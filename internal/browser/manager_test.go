package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
)

// The allocator is lazy: no Chrome process starts until a session runs
// actions, so manager lifecycle is testable without a browser binary.

func TestNewManagerStartsEmpty(t *testing.T) {
	cfg := config.Get()
	m, err := NewManager(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	defer m.Shutdown()

	assert.Equal(t, 0, m.ActiveSessions())
}

func TestShutdownIsIdempotent(t *testing.T) {
	m, err := NewManager(context.Background(), zap.NewNop(), config.Get())
	require.NoError(t, err)

	m.Shutdown()
	m.Shutdown()
}

func TestNewSessionAfterShutdownFails(t *testing.T) {
	m, err := NewManager(context.Background(), zap.NewNop(), config.Get())
	require.NoError(t, err)
	m.Shutdown()

	// A freed slot still exists, but the closed flag must win.
	_, err = m.NewSession(context.Background(), profileFixture())
	require.Error(t, err)
}

func TestAllocatorOptionsReflectConfig(t *testing.T) {
	cfg := config.Get()
	m := &Manager{logger: zap.NewNop(), cfg: cfg}
	base := len(m.allocatorOptions())

	cfg2 := config.Get()
	cfg2.Browser.ChromePath = "/usr/bin/chromium"
	cfg2.Browser.ProxyAddress = "127.0.0.1:8080"
	m2 := &Manager{logger: zap.NewNop(), cfg: cfg2}

	assert.Equal(t, base+3, len(m2.allocatorOptions()))
}

func TestCancelledNavigationTearsDownSession(t *testing.T) {
	cfg := config.Get()
	cfg.Browser.SessionCap = 1
	m, err := NewManager(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	defer m.Shutdown()

	// Register a session by hand; opening a real one would launch Chrome.
	require.NoError(t, m.slots.Acquire(context.Background(), 1))
	sctx, scancel := context.WithCancel(context.Background())
	s := &Session{
		ID:      "cancelled-nav",
		ctx:     sctx,
		cancel:  scancel,
		manager: m,
		logger:  zap.NewNop(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Navigate(ctx, "https://terabox.com/s/1abc")
	require.Error(t, err)
	assert.Equal(t, schemas.FailTimeout, schemas.KindOf(err))

	s.Close()
	assert.True(t, s.Closed())
	assert.Equal(t, 0, m.ActiveSessions())

	// The pool slot must be free again.
	acquireCtx, acancel := context.WithTimeout(context.Background(), time.Second)
	defer acancel()
	require.NoError(t, m.slots.Acquire(acquireCtx, 1))
	m.slots.Release(1)
}

func TestTruncateURLStripsQuery(t *testing.T) {
	assert.Equal(t, "https://terabox.com/s/abc?...", truncateURL("https://terabox.com/s/abc?sign=deadbeef&time=1"))
	assert.Equal(t, "https://terabox.com/s/abc", truncateURL("https://terabox.com/s/abc"))
}
