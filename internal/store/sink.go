package store

import (
    "context"
    "sync"
    "time"

    "github.com/rs/zerolog/log"
)

// StatusStore persists externally visible job status. RedisStatus satisfies
// it; the sink never reads status back.
type StatusStore interface {
    Set(ctx context.Context, jobID string, st Status) error
}

// JobSink adapts a StatusStore to the export pipeline's StatusSink contract,
// counting finished pages for one job. Best-effort: store errors are logged
// and never fail the export.
type JobSink struct {
    store StatusStore
    jobID string

    mu     sync.Mutex
    status Status
}

// NewJobSink registers a new running job and returns its sink.
func NewJobSink(ctx context.Context, store StatusStore, jobID string, totalPages int) *JobSink {
    start := time.Now()
    s := &JobSink{
        store: store,
        jobID: jobID,
        status: Status{
            Status:     "processing",
            PagesTotal: totalPages,
            Message:    "export started",
            Start:      &start,
        },
    }
    s.push(ctx)
    return s
}

// PageFinished records one page's completion.
func (s *JobSink) PageFinished(ctx context.Context, page int, failed bool) {
    s.mu.Lock()
    if failed {
        s.status.PagesFailed++
        s.status.Message = "page failed"
    } else {
        s.status.PagesDone++
        s.status.Message = "page done"
    }
    s.mu.Unlock()
    s.push(ctx)
}

// Finish marks the job complete or cancelled.
func (s *JobSink) Finish(ctx context.Context, state string) {
    now := time.Now()
    s.mu.Lock()
    s.status.Status = state
    s.status.Message = state
    s.status.End = &now
    s.mu.Unlock()
    s.push(ctx)
}

func (s *JobSink) push(ctx context.Context) {
    s.mu.Lock()
    st := s.status
    s.mu.Unlock()
    if err := s.store.Set(ctx, s.jobID, st); err != nil {
        log.Warn().Err(err).Str("job_id", s.jobID).Msg("status update failed")
    }
}
