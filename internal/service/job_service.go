package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/axiomflow/api/internal/model"
)

const (
	TaskTypeParse     = "parse:process"
	TaskTypeTranslate = "translate:process"
)

const jobTTL = 24 * time.Hour

// JobService handles job records and queueing
type JobService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewJobService(redisClient *redis.Client, asynqClient *asynq.Client) *JobService {
	return &JobService{
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// CreateTranslateJob queues a new translate job for a document
func (s *JobService) CreateTranslateJob(ctx context.Context, req *model.TranslateJobCreateRequest) (*model.TranslateJobCreatedResponse, error) {
	payload := &model.TranslateJobPayload{
		DocumentID:         req.DocumentID,
		LangIn:             req.LangIn,
		LangOut:            req.LangOut,
		Provider:           req.Provider,
		UseContext:         req.UseContext,
		ContextWindowSize:  req.ContextWindowSize,
		UseTermConsistency: req.UseTermConsistency,
		UseSmartBatching:   req.UseSmartBatching,
	}
	if payload.LangIn == "" {
		payload.LangIn = "en"
	}
	if payload.LangOut == "" {
		payload.LangOut = "zh"
	}
	if payload.Provider == "" {
		payload.Provider = "google"
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job, err := s.createJob(ctx, model.JobTypeTranslate, req.DocumentID, payloadBytes)
	if err != nil {
		return nil, err
	}

	if err := s.enqueue(job.ID, TaskTypeTranslate, "translate", payloadBytes); err != nil {
		return nil, err
	}

	return &model.TranslateJobCreatedResponse{
		JobID:     job.ID,
		Stage:     job.Stage,
		CreatedAt: job.CreatedAt,
	}, nil
}

// CreateParseJob queues a parse job for a freshly uploaded document
func (s *JobService) CreateParseJob(ctx context.Context, documentID, sourcePath string) (*model.Job, error) {
	payload := &model.ParseJobPayload{
		DocumentID: documentID,
		SourcePath: sourcePath,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job, err := s.createJob(ctx, model.JobTypeParse, documentID, payloadBytes)
	if err != nil {
		return nil, err
	}

	if err := s.enqueue(job.ID, TaskTypeParse, "parse", payloadBytes); err != nil {
		return nil, err
	}

	return job, nil
}

func (s *JobService) createJob(ctx context.Context, jobType, documentID string, payload []byte) (*model.Job, error) {
	now := time.Now()
	job := &model.Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		DocumentID: documentID,
		Stage:      model.JobStagePending,
		Control:    model.JobControlRunning,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := s.redis.SAdd(ctx, fmt.Sprintf("docjobs:%s", documentID), job.ID).Err(); err != nil {
		return nil, fmt.Errorf("failed to index job: %w", err)
	}
	s.redis.Expire(ctx, fmt.Sprintf("docjobs:%s", documentID), jobTTL)

	return job, nil
}

func (s *JobService) enqueue(jobID, taskType, queue string, payload []byte) error {
	taskPayload := map[string]interface{}{
		"job_id":  jobID,
		"payload": json.RawMessage(payload),
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.Enqueue(asynq.NewTask(taskType, data),
		asynq.Queue(queue),
		asynq.MaxRetry(3),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// GetJob returns the current state of a job
func (s *JobService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("job:%s", jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("job not found")
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

// GetJobsForDocument lists the jobs recorded for a document
func (s *JobService) GetJobsForDocument(ctx context.Context, documentID string) ([]*model.Job, error) {
	ids, err := s.redis.SMembers(ctx, fmt.Sprintf("docjobs:%s", documentID)).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.GetJob(ctx, id)
		if err != nil {
			continue // expired job records are fine to skip
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Pause asks the worker to hold between blocks
func (s *JobService) Pause(ctx context.Context, jobID string) (*model.Job, error) {
	return s.setControl(ctx, jobID, model.JobControlPaused)
}

// Resume lets a paused worker continue
func (s *JobService) Resume(ctx context.Context, jobID string) (*model.Job, error) {
	return s.setControl(ctx, jobID, model.JobControlRunning)
}

// Cancel marks the job canceled; the worker aborts at the next block boundary
func (s *JobService) Cancel(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job.Control = model.JobControlCanceled
	job.Stage = model.JobStageCanceled
	job.Message = "canceled"
	if err := s.saveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Retry reuses the same job ID: progress is reset and the task re-queued
func (s *JobService) Retry(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(job.Payload) == 0 {
		return nil, fmt.Errorf("no payload to retry")
	}

	job.Stage = model.JobStagePending
	job.Progress = 0
	job.Done = nil
	job.Total = nil
	job.EtaS = nil
	job.Message = "requeued"
	job.Control = model.JobControlRunning
	if err := s.saveJob(ctx, job); err != nil {
		return nil, err
	}

	taskType := TaskTypeTranslate
	queue := "translate"
	if job.Type == model.JobTypeParse {
		taskType = TaskTypeParse
		queue = "parse"
	}
	if err := s.enqueue(job.ID, taskType, queue, job.Payload); err != nil {
		return nil, err
	}

	return job, nil
}

func (s *JobService) setControl(ctx context.Context, jobID string, control model.JobControl) (*model.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.Control = control
	if err := s.saveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateProgress is called by workers between units of work. A job that
// already reached a terminal stage keeps it: a late progress report from a
// worker mid-block must not resurrect a canceled job.
func (s *JobService) UpdateProgress(ctx context.Context, jobID string, stage model.JobStage, progress float64, done, total *int, etaS *float64, message string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Stage.Terminal() {
		return nil
	}

	job.Stage = stage
	job.Progress = progress
	job.Done = done
	job.Total = total
	job.EtaS = etaS
	job.Message = message

	return s.saveJob(ctx, job)
}

// CompleteJob marks a job successful. A cancel that landed during the last
// block wins over the completion.
func (s *JobService) CompleteJob(ctx context.Context, jobID, message string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Stage == model.JobStageCanceled || job.Control == model.JobControlCanceled {
		job.Stage = model.JobStageCanceled
		return s.saveJob(ctx, job)
	}

	job.Stage = model.JobStageSuccess
	job.Progress = 1.0
	job.EtaS = nil
	job.Message = message

	return s.saveJob(ctx, job)
}

// FailJob marks a job failed, unless it was already canceled
func (s *JobService) FailJob(ctx context.Context, jobID, errMsg string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Stage == model.JobStageCanceled {
		return nil
	}

	job.Stage = model.JobStageFailed
	job.Message = errMsg

	return s.saveJob(ctx, job)
}

// Control returns the current control flag for a running job
func (s *JobService) Control(ctx context.Context, jobID string) (model.JobControl, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.Control == "" {
		return model.JobControlRunning, nil
	}
	return job.Control, nil
}

func (s *JobService) saveJob(ctx context.Context, job *model.Job) error {
	job.UpdatedAt = time.Now()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fmt.Sprintf("job:%s", job.ID), data, jobTTL).Err()
}
