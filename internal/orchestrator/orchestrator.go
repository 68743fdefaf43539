// Package orchestrator composes resolution, rate limiting, the
// duplicate guard and byte transfer into a single request → result
// flow shared by every caller surface.
package orchestrator

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"

	"mediadl/internal/fetcher"
	"mediadl/internal/limiter"
	"mediadl/internal/models"
	"mediadl/internal/resolver"
	"mediadl/internal/storage"
	"mediadl/internal/transcode"
)

// Orchestrator owns all process-wide pipeline state. The resolver and
// the fetcher never touch the guard or the scheduler directly.
type Orchestrator struct {
	resolver  *resolver.Resolver
	fetcher   *fetcher.Fetcher
	scheduler *limiter.Scheduler
	guard     *Guard
	jobs      *storage.JobRepository // nil disables job history
}

func New(res *resolver.Resolver, f *fetcher.Fetcher, s *limiter.Scheduler, jobs *storage.JobRepository) *Orchestrator {
	return &Orchestrator{
		resolver:  res,
		fetcher:   f,
		scheduler: s,
		guard:     NewGuard(),
		jobs:      jobs,
	}
}

// Guard exposes the duplicate guard, mainly for tests.
func (o *Orchestrator) Guard() *Guard { return o.guard }

// Info resolves a page URL without starting a transfer.
func (o *Orchestrator) Info(ctx context.Context, pageURL string) (*resolver.MediaDescriptor, error) {
	return limiter.Run(ctx, o.scheduler, func(ctx context.Context) (*resolver.MediaDescriptor, error) {
		return o.resolver.Resolve(ctx, pageURL)
	})
}

// DownloadRequest is one resolve+fetch request.
type DownloadRequest struct {
	URL          string
	QualityIndex int    // index into Qualities; out of range falls back to 0
	QualityID    string // takes precedence over QualityIndex when set
	Dir          string // destination folder; empty means the default
}

// Job is a resolved download that passed the duplicate check and is
// ready to transfer exactly once, via SaveTo or StreamTo.
type Job struct {
	ID         string
	Descriptor *resolver.MediaDescriptor
	Quality    resolver.Quality

	orch *Orchestrator
	req  DownloadRequest
	done bool
}

// Prepare runs the resolution phase and the duplicate check. Within a
// job resolution strictly precedes the check, which strictly precedes
// any transfer.
func (o *Orchestrator) Prepare(ctx context.Context, req DownloadRequest) (*Job, error) {
	jobID := o.recordCreate(ctx, req.URL)

	desc, err := limiter.Run(ctx, o.scheduler, func(ctx context.Context) (*resolver.MediaDescriptor, error) {
		return o.resolver.Resolve(ctx, req.URL)
	})
	if err != nil {
		o.recordFinish(ctx, jobID, models.JobStatusFailed, err)
		return nil, err
	}

	if err := o.guard.Check(desc.ID); err != nil {
		o.recordFinish(ctx, jobID, models.JobStatusRejected, err)
		return nil, err
	}

	quality := desc.SelectQuality(req.QualityIndex)
	if req.QualityID != "" {
		quality = desc.QualityByID(req.QualityID)
	}

	if o.jobs != nil {
		if err := o.jobs.MarkTransferring(ctx, jobID, desc.ID, desc.Title, quality.Label); err != nil {
			log.Printf("orchestrator: record job %s: %v", jobID, err)
		}
	}

	return &Job{
		ID:         jobID,
		Descriptor: desc,
		Quality:    quality,
		orch:       o,
		req:        req,
	}, nil
}

// SaveTo transfers the media to the job's destination folder and
// returns the final path.
func (j *Job) SaveTo(ctx context.Context) (string, error) {
	path, err := limiter.Run(ctx, j.orch.scheduler, func(ctx context.Context) (string, error) {
		return j.orch.fetcher.SaveToDir(ctx, j.Quality.URL, j.req.Dir, j.Descriptor.Filename())
	})
	if err != nil {
		j.fail(ctx, err)
		return "", err
	}
	j.succeed(ctx, path)
	return path, nil
}

// StreamTo pipes the media into an HTTP response.
func (j *Job) StreamTo(ctx context.Context, w http.ResponseWriter) error {
	err := j.orch.scheduler.Schedule(ctx, func(ctx context.Context) error {
		return j.orch.fetcher.Stream(ctx, j.Quality.URL, j.Descriptor.Filename(), w)
	})
	if err != nil {
		j.fail(ctx, err)
		return err
	}
	j.succeed(ctx, "")
	return nil
}

// succeed updates the guard as the side effect of entering the
// succeeded state.
func (j *Job) succeed(ctx context.Context, path string) {
	if j.done {
		return
	}
	j.done = true
	j.orch.guard.Remember(j.Descriptor.ID)
	if j.orch.jobs != nil {
		if err := j.orch.jobs.Complete(ctx, j.ID, path); err != nil {
			log.Printf("orchestrator: record job %s: %v", j.ID, err)
		}
	}
}

func (j *Job) fail(ctx context.Context, cause error) {
	if j.done {
		return
	}
	j.done = true
	j.orch.recordFinish(ctx, j.ID, models.JobStatusFailed, cause)
}

// DownloadResult is the terminal state of a succeeded disk download.
type DownloadResult struct {
	JobID      string
	Descriptor *resolver.MediaDescriptor
	Quality    resolver.Quality
	Path       string
}

// Download runs the full resolve → duplicate check → transfer-to-disk
// flow. Nothing is retried here; retries are a caller decision.
func (o *Orchestrator) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	job, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	path, err := job.SaveTo(ctx)
	if err != nil {
		return nil, err
	}
	return &DownloadResult{
		JobID:      job.ID,
		Descriptor: job.Descriptor,
		Quality:    job.Quality,
		Path:       path,
	}, nil
}

// ConvertMP3 delegates audio extraction to the external transcoder.
func (o *Orchestrator) ConvertMP3(ctx context.Context, videoPath string) (string, error) {
	return transcode.ExtractMP3(ctx, videoPath)
}

func (o *Orchestrator) recordCreate(ctx context.Context, sourceURL string) string {
	job := &models.DownloadJob{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		Status:    models.JobStatusResolving,
	}
	if o.jobs != nil {
		if err := o.jobs.Create(ctx, job); err != nil {
			log.Printf("orchestrator: record job: %v", err)
		}
	}
	return job.ID
}

func (o *Orchestrator) recordFinish(ctx context.Context, jobID, status string, cause error) {
	if o.jobs == nil {
		return
	}
	var err error
	if status == models.JobStatusRejected {
		err = o.jobs.Reject(ctx, jobID, cause.Error())
	} else {
		err = o.jobs.Fail(ctx, jobID, cause.Error())
	}
	if err != nil {
		log.Printf("orchestrator: record job %s: %v", jobID, err)
	}
}
