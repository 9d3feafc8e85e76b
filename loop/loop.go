// Package loop runs every room command and scheduled task on one
// goroutine, one at a time.
package loop

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/flowerzone/logger"
)

var ErrStopped = errors.New("event loop stopped")

// Timers is the part of timer.TimerManager the loop drives.
type Timers interface {
	Fire(now time.Time) int
}

type Loop struct {
	inbox      chan func()
	timers     Timers
	resolution time.Duration
	done       chan struct{}
	onFault    func()
}

// New creates a loop that fires timers every resolution and buffers up to
// queue posted functions.
func New(timers Timers, resolution time.Duration, queue int) *Loop {
	if resolution <= 0 {
		resolution = 20 * time.Millisecond
	}
	if queue <= 0 {
		queue = 1024
	}
	return &Loop{
		inbox:      make(chan func(), queue),
		timers:     timers,
		resolution: resolution,
		done:       make(chan struct{}),
	}
}

// OnFault registers a callback for recovered panics. Call before Run.
func (l *Loop) OnFault(fn func()) {
	l.onFault = fn
}

// Post queues fn. It blocks while the queue is full and returns
// ErrStopped once the loop has exited.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.inbox <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	err := l.Post(func() {
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes posted functions and due timers until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.resolution)
	defer func() {
		ticker.Stop()
		close(l.done)
	}()

	for {
		select {
		case fn := <-l.inbox:
			l.run(fn)
		case now := <-ticker.C:
			l.run(func() { l.timers.Fire(now) })
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Errorf("event loop recovered: %v", rec)
			if l.onFault != nil {
				l.onFault()
			}
		}
	}()
	fn()
}
