package async

import (
	"context"
	"time"
)

// Job is one file waiting to go through the pipeline.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// Handler processes a single job.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
