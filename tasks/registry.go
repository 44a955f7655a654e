package tasks

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an ingestion task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrTaskNotFound is returned when a task id is unknown or already purged.
var ErrTaskNotFound = errors.New("task not found")

// Task tracks one file's journey through the ingestion pipeline. tasks are
// process-local and ephemeral; they are never persisted
type Task struct {
	ID               string    `json:"id"`
	Status           Status    `json:"status"`
	Message          string    `json:"message"`
	ResultURL        string    `json:"result_url,omitempty"`
	OriginalFileName string    `json:"original_file_name"`
	AlbumID          uint      `json:"album_id"`
	StartedAt        time.Time `json:"started_at"`
}

// Registry is an in-memory table of in-flight ingestion tasks keyed by
// opaque id. it is safe for concurrent use. state is process-local: a
// multi-instance deployment must pin polling clients to the instance that
// accepted the upload, or swap this for an external store
type Registry struct {
	mu        sync.Mutex
	tasks     map[string]*Task
	retention time.Duration
}

// NewRegistry creates a registry whose terminal tasks are purged after the
// given retention delay
func NewRegistry(retention time.Duration) *Registry {
	return &Registry{
		tasks:     make(map[string]*Task),
		retention: retention,
	}
}

// Create registers a new pending task and returns it
func (r *Registry) Create(originalFileName string, albumID uint) Task {
	task := &Task{
		ID:               uuid.NewString(),
		Status:           StatusPending,
		Message:          "queued for processing",
		OriginalFileName: originalFileName,
		AlbumID:          albumID,
		StartedAt:        time.Now(),
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.mu.Unlock()

	return *task
}

// Get returns a snapshot of the task, or ErrTaskNotFound once purged
func (r *Registry) Get(id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return *task, nil
}

// SetProcessing transitions a task to processing with a progress message
func (r *Registry) SetProcessing(id, message string) {
	r.mu.Lock()
	if task, ok := r.tasks[id]; ok {
		task.Status = StatusProcessing
		task.Message = message
	}
	r.mu.Unlock()
}

// Complete marks the task completed with its public URL and schedules purge
func (r *Registry) Complete(id, resultURL string) {
	r.mu.Lock()
	if task, ok := r.tasks[id]; ok {
		task.Status = StatusCompleted
		task.Message = "upload complete"
		task.ResultURL = resultURL
	}
	r.mu.Unlock()
	r.schedulePurge(id)
}

// Fail marks the task failed with an error message and schedules purge
func (r *Registry) Fail(id, message string) {
	r.mu.Lock()
	if task, ok := r.tasks[id]; ok {
		task.Status = StatusFailed
		task.Message = message
	}
	r.mu.Unlock()
	r.schedulePurge(id)
}

// schedulePurge removes the task after the retention delay, whether or not
// any client ever polled it
func (r *Registry) schedulePurge(id string) {
	time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		delete(r.tasks, id)
		r.mu.Unlock()
		log.Printf("tasks: purged task %s from registry", id)
	})
}

// Len reports the number of registered tasks
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
