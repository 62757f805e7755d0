package store

import (
    "context"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Status describes an export job's externally visible progress.
type Status struct {
    Status     string     `json:"status"`
    PagesTotal int        `json:"pages_total"`
    PagesDone  int        `json:"pages_done"`
    PagesFailed int       `json:"pages_failed"`
    Message    string     `json:"message"`
    Start      *time.Time `json:"start_time,omitempty"`
    End        *time.Time `json:"end_time,omitempty"`
}

// RedisStatus persists export job status in Redis so dashboards can follow
// long exports. The pipeline itself never reads it back.
type RedisStatus struct {
    client *redis.Client
    keyNS  string
}

func NewRedisStatus(redisURL string) (*RedisStatus, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    return &RedisStatus{client: c, keyNS: "export"}, nil
}

func (s *RedisStatus) key(jobID string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, jobID) }

func (s *RedisStatus) Set(ctx context.Context, jobID string, st Status) error {
    m := map[string]interface{}{
        "status":       st.Status,
        "pages_total":  st.PagesTotal,
        "pages_done":   st.PagesDone,
        "pages_failed": st.PagesFailed,
        "message":      st.Message,
    }
    if st.Start != nil { m["start"] = st.Start.Format(time.RFC3339Nano) }
    if st.End != nil { m["end"] = st.End.Format(time.RFC3339Nano) }
    return s.client.HSet(ctx, s.key(jobID), m).Err()
}

func (s *RedisStatus) Close() error { return s.client.Close() }
