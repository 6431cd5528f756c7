package tasks

import (
	"sync"
	"time"

	"github.com/Nightfall2318/text-summary-app/internal/models"
	"github.com/google/uuid"
)

type RegistryOption func(*Registry)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry holds every live task record. Each record is written by the worker
// running its task and read by any number of pollers.
type Registry struct {
	mu     sync.RWMutex
	tasks  map[string]*models.TaskRecord
	expiry time.Duration
	now    func() time.Time
}

func NewRegistry(expiry time.Duration, opts ...RegistryOption) *Registry {
	r := &Registry{
		tasks:  make(map[string]*models.TaskRecord),
		expiry: expiry,
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create registers a new processing task at progress 0 and returns its id.
func (r *Registry) Create() string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = &models.TaskRecord{
		ID:        id,
		Status:    models.StatusProcessing,
		CreatedAt: r.now(),
	}
	return id
}

// SetProgress raises the progress of a processing task. Lower values and
// terminal tasks are ignored.
func (r *Registry) SetProgress(id string, progress int) {
	progress = min(max(progress, 0), 100)

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tasks[id]
	if !ok || rec.Status.Terminal() || progress <= rec.Progress {
		return
	}
	rec.Progress = progress
}

// Complete marks the task completed with result. It reports false when the
// task is unknown or already terminal.
func (r *Registry) Complete(id, result string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tasks[id]
	if !ok || rec.Status.Terminal() {
		return false
	}
	rec.Result = result
	rec.Progress = 100
	rec.Status = models.StatusCompleted
	return true
}

// Fail marks the task errored. Progress keeps its last value.
func (r *Registry) Fail(id string, err error) bool {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tasks[id]
	if !ok || rec.Status.Terminal() {
		return false
	}
	rec.Error = msg
	rec.Status = models.StatusError
	return true
}

// Get returns a snapshot of the task. The first observation of a terminal
// task starts its expiry window.
func (r *Registry) Get(id string) (models.TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tasks[id]
	if !ok {
		return models.TaskRecord{}, ErrTaskNotFound
	}
	if rec.Status.Terminal() && rec.ExpiresAt == nil {
		at := r.now().Add(r.expiry)
		rec.ExpiresAt = &at
	}

	snap := *rec
	if rec.ExpiresAt != nil {
		at := *rec.ExpiresAt
		snap.ExpiresAt = &at
	}
	return snap, nil
}

// Remove drops a task regardless of its state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Sweep deletes every task whose expiry has passed and returns how many.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, rec := range r.tasks {
		if rec.ExpiresAt != nil && now.After(*rec.ExpiresAt) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
