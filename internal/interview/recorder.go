package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/npezzotti/go-interview/internal/database"
	"github.com/npezzotti/go-interview/internal/stats"
	"github.com/npezzotti/go-interview/internal/types"
	"github.com/rs/zerolog"
)

const (
	defaultQueueSize    = 256
	defaultWorkers      = 4
	defaultWriteTimeout = 5 * time.Second
)

type auditEntry struct {
	interviewID string
	log         database.SessionLog
}

type RecorderConfig struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

// Recorder writes session facts to the interview record. The synchronous
// methods serve HTTP callers; RecordAsync serves the real-time loop, which
// must never wait on storage.
type Recorder struct {
	repo  database.InterviewRepository
	log   zerolog.Logger
	stats stats.StatsProvider
	now   func() time.Time

	writeTimeout time.Duration
	shards       []chan auditEntry
	wg           sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

func NewRecorder(repo database.InterviewRepository, logger zerolog.Logger, su stats.StatsProvider, cfg RecorderConfig) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	r := &Recorder{
		repo:         repo,
		log:          logger.With().Str("component", "recorder").Logger(),
		stats:        su,
		now:          func() time.Time { return time.Now().UTC() },
		writeTimeout: cfg.WriteTimeout,
		shards:       make([]chan auditEntry, cfg.Workers),
	}
	for i := range r.shards {
		r.shards[i] = make(chan auditEntry, cfg.QueueSize)
	}

	su.RegisterMetric(stats.AuditFailures)
	su.RegisterMetric(stats.AuditDropped)

	return r
}

func (r *Recorder) AppendSessionLog(ctx context.Context, interviewID, action, userName string, details types.Details) (types.Interview, error) {
	if interviewID == "" || action == "" || userName == "" {
		return types.Interview{}, fmt.Errorf("%w: missing required fields: interviewID, action, userName", ErrInvalidInput)
	}

	iv, err := r.repo.AppendSessionLog(ctx, interviewID, r.newEntry(action, userName, details))
	if err != nil {
		return types.Interview{}, err
	}

	r.log.Debug().Str("interview_id", interviewID).Str("action", action).Str("user", userName).Msg("session log appended")

	return ToInterview(iv), nil
}

func (r *Recorder) UpdateCodeSnapshot(ctx context.Context, interviewID, code string) (types.Interview, error) {
	if interviewID == "" {
		return types.Interview{}, fmt.Errorf("%w: missing required field: interviewID", ErrInvalidInput)
	}

	iv, err := r.repo.UpdateCodeSnapshot(ctx, interviewID, code)
	if err != nil {
		return types.Interview{}, err
	}

	return ToInterview(iv), nil
}

func (r *Recorder) SaveFinalQuestions(ctx context.Context, interviewID string, questions []any) (types.Interview, error) {
	if interviewID == "" {
		return types.Interview{}, fmt.Errorf("%w: missing required field: interviewID", ErrInvalidInput)
	}

	iv, err := r.repo.SaveFinalQuestions(ctx, interviewID, questions)
	if err != nil {
		return types.Interview{}, err
	}

	return ToInterview(iv), nil
}

// RecordAsync queues a session log append and returns without waiting.
// Entries for one interview are written in the order they were queued.
// It reports whether the entry was accepted.
func (r *Recorder) RecordAsync(interviewID, action, userName string, details types.Details) bool {
	if interviewID == "" || action == "" {
		return false
	}
	if userName == "" {
		userName = "anonymous"
	}

	entry := auditEntry{
		interviewID: interviewID,
		log:         r.newEntry(action, userName, details),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.log.Warn().Str("interview_id", interviewID).Str("action", action).Msg("recorder stopped, dropping audit entry")
		return false
	}

	select {
	case r.shards[r.shardFor(interviewID)] <- entry:
		return true
	default:
		r.log.Error().Str("interview_id", interviewID).Str("action", action).Msg("audit queue full, dropping entry")
		r.stats.Incr(stats.AuditDropped)
		return false
	}
}

func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.closed {
		return
	}
	r.started = true

	for _, ch := range r.shards {
		r.wg.Add(1)
		go r.worker(ch)
	}
}

// Stop refuses new entries and waits for queued ones to be written.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	for _, ch := range r.shards {
		close(ch)
	}
	r.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) worker(ch <-chan auditEntry) {
	defer r.wg.Done()

	for entry := range ch {
		r.write(entry)
	}
}

func (r *Recorder) write(entry auditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	_, err := r.repo.AppendSessionLog(ctx, entry.interviewID, entry.log)
	switch {
	case err == nil:
		r.log.Debug().Str("interview_id", entry.interviewID).Str("action", entry.log.Action).Msg("audit entry written")
	case errors.Is(err, database.ErrNotFound):
		// rooms are not required to correspond to interviews
		r.log.Debug().Str("interview_id", entry.interviewID).Msg("no interview for room, audit entry skipped")
	default:
		r.log.Error().Err(err).Str("interview_id", entry.interviewID).Str("action", entry.log.Action).Msg("audit write failed")
		r.stats.Incr(stats.AuditFailures)
	}
}

func (r *Recorder) shardFor(interviewID string) int {
	return int(xxhash.Sum64String(interviewID) % uint64(len(r.shards)))
}

func (r *Recorder) newEntry(action, userName string, details types.Details) database.SessionLog {
	d := map[string]any(details)
	if d == nil {
		d = map[string]any{}
	}

	return database.SessionLog{
		Timestamp: r.now(),
		Action:    action,
		UserName:  userName,
		Details:   d,
	}
}
