package combat

import "sync"

// SlowTracker owns the movement slows applied to the targets of one world.
//
// Slow reduces target's speed by factor of its unslowed speed and returns the
// func that ends this slow. Slows do not stack: while any slow on a target is
// held, the target moves at the most recent factor, and its speed comes back
// when the last one is released.
type SlowTracker interface {
	Slow(target Slowable, factor float64) (release func())
}

type slowState struct {
	original float64
	slowed   float64
	holds    int
}

// SlowTable is the standard SlowTracker. The zero value is not usable; call
// NewSlowTable.
type SlowTable struct {
	mu     sync.Mutex
	active map[Slowable]*slowState
}

// NewSlowTable creates an empty table.
func NewSlowTable() *SlowTable {
	return &SlowTable{active: make(map[Slowable]*slowState)}
}

// Slow implements SlowTracker. If something else changed the target's speed
// since the last slow, that speed becomes the new unslowed speed.
func (t *SlowTable) Slow(target Slowable, factor float64) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.active[target]
	if !ok || target.GetSpeed() != st.slowed {
		st = &slowState{original: target.GetSpeed()}
		t.active[target] = st
	}
	st.holds++
	st.slowed = st.original * (1 - factor)
	target.SetSpeed(st.slowed)

	var once sync.Once
	return func() {
		once.Do(func() { t.release(target, st) })
	}
}

// Active returns how many targets are currently slowed.
func (t *SlowTable) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func (t *SlowTable) release(target Slowable, st *slowState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[target] != st {
		return
	}
	st.holds--
	if st.holds > 0 {
		return
	}
	delete(t.active, target)
	if target.IsAlive() && target.GetSpeed() == st.slowed {
		target.SetSpeed(st.original)
	}
}
