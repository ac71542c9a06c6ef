package demo

// taskRegistry tracks every timer the engine owns, keyed by invoice id
// (or batch id for upload delays). It is guarded by the engine mutex.
type taskRegistry struct {
	byKey map[string][]Timer
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{byKey: make(map[string][]Timer)}
}

func (r *taskRegistry) Add(key string, t Timer) {
	r.byKey[key] = append(r.byKey[key], t)
}

// Cancel stops every timer registered under key and forgets them
func (r *taskRegistry) Cancel(key string) int {
	timers := r.byKey[key]
	for _, t := range timers {
		t.Stop()
	}
	delete(r.byKey, key)
	return len(timers)
}

// CancelAll stops every tracked timer
func (r *taskRegistry) CancelAll() int {
	n := 0
	for key := range r.byKey {
		n += r.Cancel(key)
	}
	return n
}

// Keys returns the number of keys with live timers
func (r *taskRegistry) Keys() int {
	return len(r.byKey)
}
