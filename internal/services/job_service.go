// internal/services/job_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

// JobRetention how long a finished job stays queryable
const JobRetention = time.Hour

// VeoGenerator is the part of GeneratorService a job runs
type VeoGenerator interface {
	GenerateVeoWithProgress(ctx context.Context, req models.GenerationRequest, report ProgressFunc) (*models.VeoResult, error)
}

// JobService runs Veo generations in the background
type JobService struct {
	generator VeoGenerator
	progress  *ProgressService
	jobs      *gocache.Cache // id -> *models.Job
	mu        sync.Mutex     // guards the Job values stored in jobs
	wg        sync.WaitGroup
	metrics   *utils.MetricsCollector
}

func NewJobService(generator VeoGenerator, progress *ProgressService) *JobService {
	if progress == nil {
		progress = NewProgressService()
	}
	return &JobService{
		generator: generator,
		progress:  progress,
		jobs:      gocache.New(JobRetention, 10*time.Minute),
		metrics:   utils.GetMetricsCollector(),
	}
}

// Start validates req and launches the generation. A blank idea is rejected
// here so no job and no model call is created for it.
func (s *JobService) Start(ctx context.Context, req models.GenerationRequest) (*models.Job, error) {
	if !req.HasIdea() {
		return nil, apperrors.NewInputMissingError(apperrors.MsgVeoInputMissing)
	}

	now := time.Now()
	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.JobStatusRunning,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs.Set(job.ID, job, gocache.NoExpiration)
	tracker := s.progress.CreateTracker(job.ID)

	s.metrics.IncGauge(utils.MetricActiveJobs)
	s.wg.Add(1)
	// the job outlives the HTTP request that started it
	go s.run(context.WithoutCancel(ctx), job.ID, req, tracker)

	return s.snapshot(job), nil
}

func (s *JobService) run(ctx context.Context, id string, req models.GenerationRequest, tracker *ProgressTracker) {
	defer s.wg.Done()
	defer s.metrics.DecGauge(utils.MetricActiveJobs)

	result, err := s.generator.GenerateVeoWithProgress(ctx, req, tracker.UpdateProgress)

	s.mu.Lock()
	value, ok := s.jobs.Get(id)
	if ok {
		job := value.(*models.Job)
		job.UpdatedAt = time.Now()
		if err != nil {
			job.Status = models.JobStatusFailed
			job.Error = err.Error()
		} else {
			job.Status = models.JobStatusCompleted
			job.Result = result
		}
		s.jobs.SetDefault(id, job)
	}
	s.mu.Unlock()

	if err != nil {
		utils.GetLogger().Warn("veo job failed", map[string]interface{}{
			"job_id": id,
			"error":  err.Error(),
		})
		tracker.Fail(err.Error())
		return
	}
	utils.GetLogger().Info("veo job completed", map[string]interface{}{
		"job_id": id,
		"scenes": len(result.Scenes),
	})
	tracker.Complete("done")
}

// Get returns a copy of the job
func (s *JobService) Get(id string) (*models.Job, error) {
	value, ok := s.jobs.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("job not found: "+id, nil)
	}
	return s.snapshot(value.(*models.Job)), nil
}

// Tracker gives access to live progress for streaming
func (s *JobService) Tracker(id string) (*ProgressTracker, error) {
	tracker, ok := s.progress.GetTracker(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("job not found: "+id, nil)
	}
	return tracker, nil
}

func (s *JobService) snapshot(job *models.Job) *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	return &cp
}

// StartCleanup prunes finished trackers every interval until ctx is done
func (s *JobService) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.progress.CleanupCompletedTasks(JobRetention); n > 0 {
					utils.GetLogger().Debug("pruned finished job trackers", map[string]interface{}{
						"count": n,
					})
				}
			}
		}
	}()
}

// Wait blocks until every running job has finished
func (s *JobService) Wait() {
	s.wg.Wait()
}
