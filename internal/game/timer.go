package game

import "time"

// turnTimer is the one countdown a room may have. It is plain data owned by
// the room goroutine and driven by the lobby's shared ticker; starting a new
// countdown overwrites the previous one, so two can never run at once.
type turnTimer struct {
	holder    string
	deadline  time.Time
	active    bool
	announced int
}

func (t *turnTimer) Start(holder string, duration time.Duration, now time.Time) {
	t.holder = holder
	t.deadline = now.Add(duration)
	t.active = true
	t.announced = -1
}

func (t *turnTimer) Cancel() {
	t.active = false
	t.holder = ""
}

func (t *turnTimer) Active() bool   { return t.active }
func (t *turnTimer) Holder() string { return t.holder }

// Tick advances the countdown. announce is true when a new whole-second
// value should be broadcast; expired is true exactly once, after which the
// timer has self-cancelled.
func (t *turnTimer) Tick(now time.Time) (remaining int, announce bool, expired bool) {
	if !t.active {
		return 0, false, false
	}

	left := t.deadline.Sub(now)
	if left <= 0 {
		t.Cancel()
		return 0, false, true
	}

	remaining = int((left + time.Second - 1) / time.Second)
	if remaining != t.announced {
		t.announced = remaining
		return remaining, true, false
	}
	return remaining, false, false
}
