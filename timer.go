/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"time"
)

var errStaleTick = errors.New("tick from a stopped timer")

// timerTick is delivered to the hub once per interval while a round timer
// runs. gen identifies the timer that produced it, so ticks still in flight
// from a cancelled timer can be told apart from the live one.
type timerTick struct {
	gen uint64
}

// roundTimer counts a round down one second at a time. It only produces
// ticks; remaining is mutated by advance, which the hub calls from its
// event loop.
type roundTimer struct {
	seconds   int
	interval  time.Duration
	ticks     chan<- timerTick
	remaining int
	gen       uint64
	cancel    context.CancelFunc
}

func newRoundTimer(seconds int, ticks chan<- timerTick) *roundTimer {
	return &roundTimer{
		seconds:  seconds,
		interval: time.Second,
		ticks:    ticks,
	}
}

func (t *roundTimer) running() bool {
	return t.cancel != nil
}

// start replaces any running countdown. A timer configured with zero
// seconds never starts.
func (t *roundTimer) start() {
	t.stop()

	if t.seconds <= 0 {
		return
	}

	t.gen++
	t.remaining = t.seconds

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go emitTicks(ctx, t.interval, t.gen, t.ticks)
}

func (t *roundTimer) stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.remaining = 0
}

// advance consumes one tick and reports the new remaining time. expired is
// true exactly once per started countdown.
func (t *roundTimer) advance(tick timerTick) (remaining int, expired bool, err error) {
	if !t.running() || tick.gen != t.gen {
		return 0, false, errStaleTick
	}

	t.remaining--
	if t.remaining <= 0 {
		t.stop()
		return 0, true, nil
	}

	return t.remaining, false, nil
}

func emitTicks(ctx context.Context, interval time.Duration, gen uint64, ticks chan<- timerTick) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case ticks <- timerTick{gen: gen}:
			case <-ctx.Done():
				return
			}
		}
	}
}
