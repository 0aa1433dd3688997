package idle

import (
	"context"
	"sync"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
)

// DefaultFrameInterval matches a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// LoopOptions configures a Loop.
type LoopOptions struct {
	// FrameInterval is the length of one frame. Idle callbacks get whatever
	// is left of the frame after posted tasks ran.
	FrameInterval time.Duration
	// Clock measures deadlines. Nil means SystemClock.
	Clock Clock
}

// Loop is a single-goroutine frame loop. Tasks posted from other goroutines
// and idle callbacks all run on the goroutine that calls Run, so the work
// they do never overlaps.
type Loop struct {
	opts LoopOptions

	mu        sync.Mutex
	callbacks []Callback
	posted    []func()
	wake      chan struct{}
	frames    int
}

// NewLoop creates a loop with the given options.
func NewLoop(opts LoopOptions) *Loop {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &Loop{
		opts: opts,
		wake: make(chan struct{}, 1),
	}
}

// RequestIdleCallback registers cb for the next frame's idle period.
func (l *Loop) RequestIdleCallback(cb Callback) {
	if cb == nil {
		return
	}
	l.mu.Lock()
	l.callbacks = append(l.callbacks, cb)
	l.mu.Unlock()
}

// Post schedules fn to run on the loop goroutine before the next idle
// period. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drives frames until ctx is cancelled. Posted tasks run as soon as the
// loop wakes; idle callbacks run once per frame tick.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.runPosted()
		case <-ticker.C:
			l.Frame()
		}
	}
}

// Frame runs one frame synchronously: posted tasks first, then the idle
// callbacks registered before the frame started, sharing one deadline at
// the end of the frame.
func (l *Loop) Frame() {
	start := l.opts.Clock.Now()
	l.runPosted()

	l.mu.Lock()
	callbacks := l.callbacks
	l.callbacks = nil
	l.frames++
	l.mu.Unlock()

	deadline := Until(l.opts.Clock, start.Add(l.opts.FrameInterval))
	for _, cb := range callbacks {
		l.runCallback(cb, deadline)
	}
}

// Frames returns the number of frames run so far.
func (l *Loop) Frames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *Loop) runPosted() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		l.runTask(fn)
	}
}

func (l *Loop) runTask(fn func()) {
	defer errors.Recover("idle.Loop.Post")
	fn()
}

func (l *Loop) runCallback(cb Callback, d Deadline) {
	defer errors.Recover("idle.Loop.Frame")
	cb(d)
}
