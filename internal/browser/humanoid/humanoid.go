// Package humanoid simulates human pointer and keyboard behavior for a
// browser session. Pointer movement follows eased bezier curves with perlin
// drift and gaussian tremor; typing follows a normally distributed rhythm
// with word-boundary pauses.
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// jitterPx is the tremor magnitude applied to intermediate path points.
const jitterPx = 1.2

// Humanoid tracks the virtual pointer position for one browser session.
// All methods serialize through the internal mutex.
type Humanoid struct {
	mu       sync.Mutex
	rng      *rand.Rand
	noiseX   *perlin.Perlin
	noiseY   *perlin.Perlin
	pos      Vector2D
	executor Executor
	logger   *zap.Logger
}

// New returns a simulator seeded from the wall clock.
func New(executor Executor, logger *zap.Logger) *Humanoid {
	return newSeeded(executor, logger, time.Now().UnixNano())
}

// NewTestHumanoid returns a deterministic simulator for tests.
func NewTestHumanoid(executor Executor, seed int64) *Humanoid {
	return newSeeded(executor, zap.NewNop(), seed)
}

func newSeeded(executor Executor, logger *zap.Logger, seed int64) *Humanoid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Humanoid{
		rng:      rand.New(rand.NewSource(seed)),
		noiseX:   perlin.NewPerlin(2, 2, 3, seed),
		noiseY:   perlin.NewPerlin(2, 2, 3, seed+1),
		executor: executor,
		logger:   logger,
	}
}

// MoveTo walks the pointer from its current position to (x, y) along a
// generated path, dispatching a move event per point.
func (h *Humanoid) MoveTo(ctx context.Context, x, y float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.moveTo(ctx, Vector2D{X: x, Y: y})
}

func (h *Humanoid) moveTo(ctx context.Context, target Vector2D) error {
	path := pointerPath(h.pos, target, h.rng, h.noiseX, h.noiseY, jitterPx)
	for _, p := range path {
		if err := h.executor.DispatchMouseEvent(ctx, MouseEvent{Type: MouseMove, X: p.X, Y: p.Y}); err != nil {
			return err
		}
		h.pos = p
		// ~120-190Hz event rate with jitter so intervals never repeat exactly.
		if err := h.executor.Sleep(ctx, time.Duration(5+h.rng.Intn(4))*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// Click moves to (x, y) and presses the primary button with a human dwell
// time between press and release.
func (h *Humanoid) Click(ctx context.Context, x, y float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.moveTo(ctx, Vector2D{X: x, Y: y}); err != nil {
		return err
	}
	// Brief settle before the press, as a hand would.
	if err := h.executor.Sleep(ctx, h.pause(80, 40)); err != nil {
		return err
	}
	if err := h.executor.DispatchMouseEvent(ctx, MouseEvent{Type: MousePress, X: h.pos.X, Y: h.pos.Y, ClickCount: 1}); err != nil {
		return err
	}
	if err := h.executor.Sleep(ctx, h.pause(70, 25)); err != nil {
		return err
	}
	return h.executor.DispatchMouseEvent(ctx, MouseEvent{Type: MouseRelease, X: h.pos.X, Y: h.pos.Y, ClickCount: 1})
}

// TypeText emits text one keystroke at a time following a typing trace.
func (h *Humanoid) TypeText(ctx context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delays := typingTrace(text, h.rng)
	for i, r := range []rune(text) {
		if err := h.executor.Sleep(ctx, delays[i]); err != nil {
			return err
		}
		if err := h.executor.DispatchKeyEvent(ctx, KeyEvent{Char: true, Text: string(r)}); err != nil {
			return err
		}
	}
	return nil
}

// ScrollBy scrolls vertically by total pixels, broken into uneven wheel
// ticks with reading pauses between them.
func (h *Humanoid) ScrollBy(ctx context.Context, total float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining := total
	for remaining != 0 {
		step := 80 + h.rng.Float64()*60
		if remaining < 0 {
			step = -step
		}
		if (remaining > 0 && step > remaining) || (remaining < 0 && step < remaining) {
			step = remaining
		}
		ev := MouseEvent{Type: MouseWheel, X: h.pos.X, Y: h.pos.Y, DeltaY: step}
		if err := h.executor.DispatchMouseEvent(ctx, ev); err != nil {
			return err
		}
		remaining -= step
		if err := h.executor.Sleep(ctx, h.pause(120, 60)); err != nil {
			return err
		}
	}
	return nil
}

// Hesitate idles for a normally distributed duration around mean, honoring
// context cancellation.
func (h *Humanoid) Hesitate(ctx context.Context, mean, stddev time.Duration) error {
	h.mu.Lock()
	d := h.pause(float64(mean/time.Millisecond), float64(stddev/time.Millisecond))
	h.mu.Unlock()
	return h.executor.Sleep(ctx, d)
}

// pause samples a positive normally distributed millisecond duration.
func (h *Humanoid) pause(meanMs, stddevMs float64) time.Duration {
	ms := meanMs + h.rng.NormFloat64()*stddevMs
	if ms < 10 {
		ms = 10
	}
	return time.Duration(ms * float64(time.Millisecond))
}
