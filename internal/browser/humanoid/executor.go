package humanoid

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// MouseEventType mirrors the CDP mouse event kinds the simulator dispatches.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseEvent is one pointer event to dispatch against the page.
type MouseEvent struct {
	Type       MouseEventType
	X, Y       float64
	ClickCount int64
	DeltaY     float64
}

// KeyEvent is one keystroke. Text carries the produced character for char
// events; Key names special keys like "Enter".
type KeyEvent struct {
	Down bool
	Char bool
	Key  string
	Text string
}

// Executor abstracts the transport the simulator drives. The production
// implementation speaks CDP; tests substitute a recorder.
type Executor interface {
	DispatchMouseEvent(ctx context.Context, ev MouseEvent) error
	DispatchKeyEvent(ctx context.Context, ev KeyEvent) error
	Sleep(ctx context.Context, d time.Duration) error
}

// CDPExecutor dispatches events over an active chromedp session context.
type CDPExecutor struct{}

func (CDPExecutor) DispatchMouseEvent(ctx context.Context, ev MouseEvent) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		switch ev.Type {
		case MousePress:
			return input.DispatchMouseEvent(input.MousePressed, ev.X, ev.Y).
				WithButton(input.Left).
				WithClickCount(ev.ClickCount).
				Do(ctx)
		case MouseRelease:
			return input.DispatchMouseEvent(input.MouseReleased, ev.X, ev.Y).
				WithButton(input.Left).
				WithClickCount(ev.ClickCount).
				Do(ctx)
		case MouseWheel:
			return input.DispatchMouseEvent(input.MouseWheel, ev.X, ev.Y).
				WithDeltaX(0).
				WithDeltaY(ev.DeltaY).
				Do(ctx)
		default:
			return input.DispatchMouseEvent(input.MouseMoved, ev.X, ev.Y).Do(ctx)
		}
	}))
}

func (CDPExecutor) DispatchKeyEvent(ctx context.Context, ev KeyEvent) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if ev.Char {
			return input.DispatchKeyEvent(input.KeyChar).WithText(ev.Text).Do(ctx)
		}
		kind := input.KeyUp
		if ev.Down {
			kind = input.KeyDown
		}
		return input.DispatchKeyEvent(kind).WithKey(ev.Key).Do(ctx)
	}))
}

func (CDPExecutor) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
