package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AuthCacheHits   uint64
	AuthCacheMisses uint64
	UsersRegistered uint64
	LoginSuccesses  uint64
	LoginFailures   uint64
	TodosCreated    uint64
	TodosUpdated    uint64
	TodosDeleted    uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	authCacheHits   uint64
	authCacheMisses uint64
	usersRegistered uint64
	loginSuccesses  uint64
	loginFailures   uint64
	todosCreated    uint64
	todosUpdated    uint64
	todosDeleted    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		AuthCacheHits:   atomic.LoadUint64(&m.authCacheHits),
		AuthCacheMisses: atomic.LoadUint64(&m.authCacheMisses),
		UsersRegistered: atomic.LoadUint64(&m.usersRegistered),
		LoginSuccesses:  atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:   atomic.LoadUint64(&m.loginFailures),
		TodosCreated:    atomic.LoadUint64(&m.todosCreated),
		TodosUpdated:    atomic.LoadUint64(&m.todosUpdated),
		TodosDeleted:    atomic.LoadUint64(&m.todosDeleted),
	}
}

// IncAuthCacheHit increments the auth cache hit counter.
func (m *InMemoryRecorder) IncAuthCacheHit() {
	atomic.AddUint64(&m.authCacheHits, 1)
}

// IncAuthCacheMiss increments the auth cache miss counter.
func (m *InMemoryRecorder) IncAuthCacheMiss() {
	atomic.AddUint64(&m.authCacheMisses, 1)
}

// IncUserRegistered increments the registered users counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLoginSuccess increments the successful logins counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the failed logins counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncTodoCreated increments the created todos counter.
func (m *InMemoryRecorder) IncTodoCreated() {
	atomic.AddUint64(&m.todosCreated, 1)
}

// IncTodoUpdated increments the updated todos counter.
func (m *InMemoryRecorder) IncTodoUpdated() {
	atomic.AddUint64(&m.todosUpdated, 1)
}

// IncTodoDeleted increments the deleted todos counter.
func (m *InMemoryRecorder) IncTodoDeleted() {
	atomic.AddUint64(&m.todosDeleted, 1)
}
