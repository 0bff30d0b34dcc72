package jobs

import (
	"errors"
	"fmt"
	"sync"

	"document-converter/internal/domain"
)

// ErrJobExists is returned when starting a job id that is already tracked.
var ErrJobExists = errors.New("job already exists")

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Manager tracks conversion jobs and their transitions. Several jobs may be
// active at once; each follows its own state machine.
type Manager struct {
	mu    sync.RWMutex
	jobs  map[string]*domain.Job
	order []string
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{jobs: make(map[string]*domain.Job)}
}

// Start registers a job in queued state.
func (m *Manager) Start(id, action, input string) error {
	if id == "" {
		return fmt.Errorf("start: empty job id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, id)
	}
	m.jobs[id] = &domain.Job{
		ID:     id,
		Action: action,
		Input:  input,
		Status: domain.JobStatusQueued,
	}
	m.order = append(m.order, id)
	return nil
}

// Transition validates and applies a state transition for one job.
func (m *Manager) Transition(id string, status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if status == job.Status {
		return nil
	}
	if !isValidTransition(job.Status, status) {
		return fmt.Errorf("invalid transition for %s: %s -> %s", id, job.Status, status)
	}

	job.Status = status
	return nil
}

// Fail moves a job to failed and records the cause.
func (m *Manager) Fail(id string, cause error) error {
	if err := m.Transition(id, domain.JobStatusFailed); err != nil {
		return err
	}
	if cause == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id].Error = cause.Error()
	return nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// List returns snapshots of every job in start order.
func (m *Manager) List() []domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.jobs[id])
	}
	return out
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusQueued:
		return to == domain.JobStatusRunning || to == domain.JobStatusFailed || to == domain.JobStatusCancelled
	case domain.JobStatusRunning:
		return to == domain.JobStatusDone || to == domain.JobStatusFailed || to == domain.JobStatusCancelled
	default:
		return false
	}
}
