// ABOUTME: Experiment timing clocks
// ABOUTME: Monotonic wall clock, resettable clock and countdown timer in seconds
package clock

import (
	"sync"
	"time"
)

// MonotonicClock measures elapsed time in seconds from a fixed origin.
// It cannot be reset, which makes it suitable as an experiment-wide
// timebase.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock with its origin at the current time.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// GetTime returns the seconds elapsed since the clock's origin.
func (c *MonotonicClock) GetTime() float64 {
	return time.Since(c.start).Seconds()
}

// globalClock is the experiment-wide timebase, started at import time.
var globalClock = NewMonotonicClock()

// GetTime returns the seconds elapsed since the process-wide time
// origin. All stimulus timestamps share this timebase.
func GetTime() float64 {
	return globalClock.GetTime()
}

// Clock is a resettable clock. The zero value is not usable; create one
// with NewClock.
type Clock struct {
	mu    sync.Mutex
	start time.Time
}

// NewClock creates a clock reading 0.0 at the current time.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// GetTime returns the seconds elapsed since the last reset.
func (c *Clock) GetTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start).Seconds()
}

// Reset sets the clock so that it currently reads newT seconds.
func (c *Clock) Reset(newT float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now().Add(-time.Duration(newT * float64(time.Second)))
}

// AddTime advances the reported time by t seconds.
func (c *Clock) AddTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.start.Add(-time.Duration(t * float64(time.Second)))
}

// CountdownTimer counts down from a starting value and reads negative
// once the period has elapsed.
type CountdownTimer struct {
	clock    *Clock
	duration float64
}

// NewCountdownTimer creates a timer with start seconds remaining.
func NewCountdownTimer(start float64) *CountdownTimer {
	return &CountdownTimer{clock: NewClock(), duration: start}
}

// GetTime returns the seconds remaining. Negative means the countdown
// has elapsed.
func (t *CountdownTimer) GetTime() float64 {
	return t.duration - t.clock.GetTime()
}

// AddTime extends the countdown by t seconds.
func (t *CountdownTimer) AddTime(secs float64) {
	t.duration += secs
}

// Reset restarts the countdown. If secs is >= 0 it also becomes the new
// countdown duration.
func (t *CountdownTimer) Reset(secs float64) {
	if secs >= 0 {
		t.duration = secs
	}
	t.clock.Reset(0.0)
}

// Wait blocks the calling goroutine for secs seconds.
func Wait(secs float64) {
	time.Sleep(time.Duration(secs * float64(time.Second)))
}
