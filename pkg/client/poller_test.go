package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/axiomflow/api/internal/model"
)

func jobServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL)
}

func writeJob(t *testing.T, w http.ResponseWriter, job *model.Job) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(job); err != nil {
		t.Errorf("failed to encode job: %v", err)
	}
}

func fastOpts(maxAttempts int) *PollOptions {
	return &PollOptions{Interval: time.Millisecond, MaxAttempts: maxAttempts}
}

func TestPollJobStopsOnSuccess(t *testing.T) {
	var calls int32
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		stage := model.JobStageTranslating
		if n >= 3 {
			stage = model.JobStageSuccess
		}
		writeJob(t, w, &model.Job{ID: "j1", Stage: stage, Progress: float64(n) / 3})
	})

	job, err := c.PollJob(context.Background(), "j1", fastOpts(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Stage != model.JobStageSuccess {
		t.Errorf("expected success, got %s", job.Stage)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected polling to stop at the terminal snapshot, got %d calls", got)
	}
}

func TestPollJobStopsOnFailed(t *testing.T) {
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJob(t, w, &model.Job{ID: "j1", Stage: model.JobStageFailed, Message: "provider down"})
	})

	job, err := c.PollJob(context.Background(), "j1", fastOpts(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Stage != model.JobStageFailed {
		t.Errorf("expected failed, got %s", job.Stage)
	}
	if job.Message != "provider down" {
		t.Errorf("expected failure message, got %q", job.Message)
	}
}

func TestPollJobStopsOnCanceled(t *testing.T) {
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJob(t, w, &model.Job{ID: "j1", Stage: model.JobStageCanceled})
	})

	job, err := c.PollJob(context.Background(), "j1", fastOpts(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Stage != model.JobStageCanceled {
		t.Errorf("expected canceled, got %s", job.Stage)
	}
}

func TestPollJobExhaustsAttempts(t *testing.T) {
	var calls int32
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJob(t, w, &model.Job{ID: "j1", Stage: model.JobStageTranslating})
	})

	job, err := c.PollJob(context.Background(), "j1", fastOpts(5))
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if job != nil {
		t.Errorf("expected nil job on timeout, got %+v", job)
	}
	if got := atomic.LoadInt32(&calls); got != 5 {
		t.Errorf("expected exactly 5 attempts, got %d", got)
	}
}

func TestPollJobSwallowsTransientErrors(t *testing.T) {
	var calls int32
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 4 {
			// transient server trouble
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		writeJob(t, w, &model.Job{ID: "j1", Stage: model.JobStageSuccess, Progress: 1})
	})

	job, err := c.PollJob(context.Background(), "j1", fastOpts(100))
	if err != nil {
		t.Fatalf("expected transient errors to be swallowed, got %v", err)
	}
	if job.Stage != model.JobStageSuccess {
		t.Errorf("expected success, got %s", job.Stage)
	}
}

func TestPollJobErrorsCountAsAttempts(t *testing.T) {
	var calls int32
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})

	_, err := c.PollJob(context.Background(), "j1", fastOpts(4))
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("a dead API must not poll forever: expected 4 attempts, got %d", got)
	}
}

func TestPollJobHonorsContext(t *testing.T) {
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJob(t, w, &model.Job{ID: "j1", Stage: model.JobStageTranslating})
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.PollJob(ctx, "j1", &PollOptions{Interval: 10 * time.Millisecond, MaxAttempts: 10000})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPollJobReportsUpdates(t *testing.T) {
	var calls int32
	_, c := jobServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		stage := model.JobStageTranslating
		if n >= 2 {
			stage = model.JobStageSuccess
		}
		writeJob(t, w, &model.Job{ID: "j1", Stage: stage})
	})

	var seen []model.JobStage
	opts := fastOpts(100)
	opts.OnUpdate = func(job *model.Job) {
		seen = append(seen, job.Stage)
	}

	if _, err := c.PollJob(context.Background(), "j1", opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 2 || seen[0] != model.JobStageTranslating || seen[1] != model.JobStageSuccess {
		t.Errorf("expected updates for every snapshot including the terminal one, got %v", seen)
	}
}

func TestPollJobDefaults(t *testing.T) {
	if DefaultPollInterval != 800*time.Millisecond {
		t.Errorf("unexpected default interval: %v", DefaultPollInterval)
	}
	if DefaultMaxPollAttempts != 240 {
		t.Errorf("unexpected default attempt bound: %d", DefaultMaxPollAttempts)
	}
}
