// internal/services/progress_service.go
package services

import (
	"sync"
	"time"

	"github.com/Corphon/VeoPromptStudio/internal/models"
)

// ProgressUpdate is one snapshot pushed to subscribers
type ProgressUpdate struct {
	Progress int              `json:"progress"` // 0-100
	Message  string           `json:"message"`
	Status   models.JobStatus `json:"status"`
}

// Finished reports whether no further updates will follow
func (u ProgressUpdate) Finished() bool {
	return u.Status == models.JobStatusCompleted || u.Status == models.JobStatusFailed
}

// ProgressTracker follows one background job
type ProgressTracker struct {
	TaskID     string
	StartTime  time.Time
	Done       chan struct{}
	progress   int
	message    string
	status     models.JobStatus
	updateTime time.Time

	subscribers map[chan ProgressUpdate]struct{}
	mutex       sync.Mutex
}

// ProgressService owns every live tracker
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

func NewProgressService() *ProgressService {
	return &ProgressService{
		trackers: make(map[string]*ProgressTracker),
	}
}

// CreateTracker returns the tracker for taskID, creating it at 0%
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	now := time.Now()
	tracker := &ProgressTracker{
		TaskID:      taskID,
		StartTime:   now,
		Done:        make(chan struct{}),
		message:     "queued",
		status:      models.JobStatusRunning,
		updateTime:  now,
		subscribers: make(map[chan ProgressUpdate]struct{}),
	}
	s.trackers[taskID] = tracker
	return tracker
}

func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// Snapshot current state
func (t *ProgressTracker) Snapshot() ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.snapshotLocked()
}

func (t *ProgressTracker) snapshotLocked() ProgressUpdate {
	return ProgressUpdate{Progress: t.progress, Message: t.message, Status: t.status}
}

// broadcastLocked never blocks; a full subscriber misses intermediate updates
func (t *ProgressTracker) broadcastLocked() {
	update := t.snapshotLocked()
	for subscriber := range t.subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

// UpdateProgress progress only moves forward; updates after completion are ignored
func (t *ProgressTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.status != models.JobStatusRunning {
		return
	}
	if progress > t.progress {
		t.progress = min(progress, 100)
	}
	if message != "" {
		t.message = message
	}
	t.updateTime = time.Now()
	t.broadcastLocked()
}

// Complete marks the job done at 100%
func (t *ProgressTracker) Complete(message string) {
	if message == "" {
		message = "done"
	}
	t.finish(models.JobStatusCompleted, 100, message)
}

// Fail keeps the progress reached so far
func (t *ProgressTracker) Fail(errorMsg string) {
	t.finish(models.JobStatusFailed, -1, errorMsg)
}

func (t *ProgressTracker) finish(status models.JobStatus, progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.status != models.JobStatusRunning {
		return
	}
	t.status = status
	if progress >= 0 {
		t.progress = progress
	}
	t.message = message
	t.updateTime = time.Now()
	t.broadcastLocked()
	close(t.Done)
}

// Subscribe returns a channel primed with the current state.
// Callers must Unsubscribe when done.
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subscriber := make(chan ProgressUpdate, 10)
	t.subscribers[subscriber] = struct{}{}
	subscriber <- t.snapshotLocked()
	return subscriber
}

func (t *ProgressTracker) Unsubscribe(subscriber chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.subscribers[subscriber]; !ok {
		return
	}
	delete(t.subscribers, subscriber)
	close(subscriber)
}

// CleanupCompletedTasks drops finished trackers idle for longer than maxAge
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		finished := tracker.status != models.JobStatusRunning
		old := now.Sub(tracker.updateTime) > maxAge
		tracker.mutex.Unlock()

		if finished && old {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}
