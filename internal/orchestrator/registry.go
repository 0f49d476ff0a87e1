package orchestrator

import "sync"

// Registry is the set of users currently inside the merge pipeline.
// Membership check and insertion are one atomic step so that two
// simultaneous triggers for the same user cannot both enter.
type Registry struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		active: make(map[int64]struct{}),
	}
}

// TryAcquire reports whether the user's slot was free and, if so, takes
// it in the same step.
func (r *Registry) TryAcquire(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.active[userID]; held {
		return false
	}
	r.active[userID] = struct{}{}
	return true
}

func (r *Registry) Release(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, userID)
}

func (r *Registry) Active(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.active[userID]
	return held
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
