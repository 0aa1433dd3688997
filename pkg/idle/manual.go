package idle

// Manual is a Scheduler that only runs callbacks when Step is called.
// It is not safe for concurrent use.
type Manual struct {
	pending []Callback
	steps   int
}

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// RequestIdleCallback queues cb for the next Step.
func (m *Manual) RequestIdleCallback(cb Callback) {
	if cb == nil {
		return
	}
	m.pending = append(m.pending, cb)
}

// Step runs every callback that was pending when Step was called, passing
// each the same deadline. Callbacks registered during the step wait for the
// next one. It returns the number of callbacks run.
func (m *Manual) Step(d Deadline) int {
	if d == nil {
		d = Unlimited
	}
	callbacks := m.pending
	m.pending = nil
	m.steps++
	for _, cb := range callbacks {
		cb(d)
	}
	return len(callbacks)
}

// Pending returns the number of queued callbacks.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// Steps returns how many times Step has been called.
func (m *Manual) Steps() int {
	return m.steps
}
