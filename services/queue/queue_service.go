package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/tasks"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/security"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sqlc-dev/pqtype"
	"golang.org/x/sync/errgroup"
)

// QueueJob row statuses.
const (
	StatusCreated   = "created"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const reaperTaskID = "queue-lease-reaper"

type Options struct {
	Prefix       string
	Workers      int
	MaxAttempts  int
	BackoffUnit  time.Duration
	Lease        time.Duration
	PollInterval time.Duration
	ReapInterval time.Duration
	Location     *time.Location
	// Clock overrides time.Now, mostly for tests.
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = "swiftfiat"
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 5
	}
	if o.BackoffUnit <= 0 {
		o.BackoffUnit = time.Second
	}
	if o.Lease <= 0 {
		o.Lease = 5 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.ReapInterval <= 0 {
		o.ReapInterval = 30 * time.Second
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// QueueService owns the durable queues, the handler registry and the
// QueueJob records behind recurring schedules.
type QueueService struct {
	queues   map[QueueName]*Queue
	order    []QueueName
	registry *Registry
	store    db.TxStore
	protocol *security.Protocol
	tasks    *tasks.TaskScheduler
	logger   *logging.Logger
	opts     Options
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewQueueService(rdb *redis.Client, store db.TxStore, protocol *security.Protocol, registry *Registry, scheduler *tasks.TaskScheduler, logger *logging.Logger, opts Options) *QueueService {
	opts = opts.withDefaults()
	s := &QueueService{
		queues:   make(map[QueueName]*Queue),
		registry: registry,
		store:    store,
		protocol: protocol,
		tasks:    scheduler,
		logger:   logger,
		opts:     opts,
		now:      opts.Clock,
	}
	for _, name := range []QueueName{Transactions, TopUps, Notifications} {
		q := NewQueue(rdb, opts.Prefix, name, opts.Location)
		q.now = opts.Clock
		s.queues[name] = q
		s.order = append(s.order, name)
	}
	return s
}

func (s *QueueService) Registry() *Registry {
	return s.registry
}

func (s *QueueService) queue(name QueueName) (*Queue, error) {
	q, ok := s.queues[name]
	if !ok {
		return nil, models.Wrap(string(name), ErrUnknownQueue)
	}
	return q, nil
}

type CreateJobParams struct {
	Queue          QueueName
	JobID          string
	JobName        string
	JobTime        string
	Schedule       Schedule
	Envelope       Envelope
	UserID         int64
	Amount         decimal.Decimal
	ReferenceData  json.RawMessage
	ReplacePayload bool
}

type JobHandle struct {
	JobID        string       `json:"jobId"`
	RepeatJobKey string       `json:"repeatJobKey,omitempty"`
	RunAt        time.Time    `json:"runAt"`
	Record       *db.QueueJob `json:"record,omitempty"`
}

// CreateJob schedules p.Envelope. One-shot jobs are deduplicated by JobID.
// Cron schedules also persist a signed QueueJob row; at most one row and one
// live schedule exist per repeat key.
func (s *QueueService) CreateJob(ctx context.Context, p CreateJobParams) (*JobHandle, error) {
	q, err := s.queue(p.Queue)
	if err != nil {
		return nil, err
	}
	if p.JobID == "" {
		return nil, models.Validation("job id is required")
	}
	if err := p.Schedule.validate(); err != nil {
		return nil, err
	}
	if p.Envelope.Kind == "" {
		return nil, models.Validation("job payload needs a kind")
	}

	data, err := s.protocol.EncryptJSON(p.Envelope)
	if err != nil {
		return nil, fmt.Errorf("encrypt %s payload: %w", p.Envelope.Kind, err)
	}

	log := s.logger.WithFields(logrus.Fields{"queue": p.Queue, "job_id": p.JobID, "kind": p.Envelope.Kind})

	if !p.Schedule.Recurring() {
		runAt := s.now().Add(p.Schedule.Delay)
		added, err := q.Add(ctx, Job{
			ID:          p.JobID,
			Name:        string(p.Envelope.Kind),
			Data:        data,
			MaxAttempts: s.opts.MaxAttempts,
			RunAt:       runAt,
		})
		if err != nil {
			return nil, err
		}
		if !added {
			log.Debug("job already queued")
		}
		return &JobHandle{JobID: p.JobID, RunAt: runAt}, nil
	}

	handle := &JobHandle{JobID: p.JobID, RepeatJobKey: p.JobID}
	if p.Schedule.Pattern != "" {
		rec, err := s.upsertRecord(ctx, p, data)
		if err != nil {
			return nil, err
		}
		data = rec.Data
		handle.Record = rec
	}

	sch, err := q.UpsertScheduler(ctx, SchedulerSpec{
		Key:         p.JobID,
		Name:        p.JobName,
		Schedule:    p.Schedule,
		Data:        data,
		MaxAttempts: s.opts.MaxAttempts,
	}, p.ReplacePayload)
	if err != nil {
		return nil, err
	}
	handle.RunAt = sch.NextRunAt

	log.WithField("next_run_at", sch.NextRunAt).Info("recurring job scheduled")
	return handle, nil
}

func (s *QueueService) upsertRecord(ctx context.Context, p CreateJobParams, data string) (*db.QueueJob, error) {
	existing, err := s.store.GetQueueJobByRepeatKey(ctx, p.JobID)
	if errors.Is(err, sql.ErrNoRows) {
		sig, err := s.protocol.SignRSA(s.protocol.QueueJobMessage(p.JobTime, p.JobName, p.Amount, p.JobID))
		if err != nil {
			return nil, err
		}
		var ref pqtype.NullRawMessage
		if len(p.ReferenceData) > 0 {
			ref = pqtype.NullRawMessage{RawMessage: p.ReferenceData, Valid: true}
		}
		rec, err := s.store.CreateQueueJob(ctx, db.CreateQueueJobParams{
			JobID:         p.JobID,
			RepeatJobKey:  p.JobID,
			UserID:        p.UserID,
			JobName:       p.JobName,
			QueueType:     p.Queue.RecordType(),
			JobTime:       p.JobTime,
			Amount:        p.Amount,
			Status:        StatusActive,
			Data:          data,
			ReferenceData: ref,
			Signature:     sig,
		})
		if err == nil {
			return &rec, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, err
		}
		// lost a race with a concurrent create, update the winner instead
		if existing, err = s.store.GetQueueJobByRepeatKey(ctx, p.JobID); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	amount := existing.Amount
	if p.ReplacePayload {
		amount = p.Amount
	} else {
		data = existing.Data
	}
	sig, err := s.protocol.SignRSA(s.protocol.QueueJobMessage(p.JobTime, p.JobName, amount, p.JobID))
	if err != nil {
		return nil, err
	}
	rec, err := s.store.UpdateQueueJobSchedule(ctx, db.UpdateQueueJobScheduleParams{
		RepeatJobKey: p.JobID,
		JobName:      p.JobName,
		JobTime:      p.JobTime,
		Amount:       amount,
		Data:         data,
		Signature:    sig,
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RemoveJob stops the schedule for repeatJobKey and moves its record to
// finalStatus. Every status but cancelled counts as a run.
func (s *QueueService) RemoveJob(ctx context.Context, queue QueueName, repeatJobKey, finalStatus string) (*db.QueueJob, error) {
	q, err := s.queue(queue)
	if err != nil {
		return nil, err
	}
	removed, err := q.RemoveScheduler(ctx, repeatJobKey)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.Wrap(repeatJobKey, ErrJobNotFound)
	}

	rec, err := s.store.UpdateQueueJobStatus(ctx, db.UpdateQueueJobStatusParams{
		RepeatJobKey:  repeatJobKey,
		Status:        finalStatus,
		IncrementRuns: finalStatus != StatusCancelled,
	})
	if errors.Is(err, sql.ErrNoRows) {
		// interval schedules have no record
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"queue": queue, "repeat_job_key": repeatJobKey, "status": finalStatus}).Info("recurring job removed")
	return &rec, nil
}

// UpdateJob moves an existing recurring job to a new cadence under newJobID,
// keeping its stored payload.
func (s *QueueService) UpdateJob(ctx context.Context, queue QueueName, repeatJobKey, title, when, newJobID string) (*JobHandle, error) {
	rec, err := s.store.GetQueueJobByRepeatKey(ctx, repeatJobKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.Wrap(repeatJobKey, ErrQueueJobMissing)
	}
	if err != nil {
		return nil, err
	}
	sched, err := ResolveCadence(title, when)
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := s.protocol.DecryptJSON(rec.Data, &env); err != nil {
		return nil, err
	}

	if _, err := s.RemoveJob(ctx, queue, repeatJobKey, StatusCancelled); err != nil && !errors.Is(err, ErrJobNotFound) {
		return nil, err
	}

	return s.CreateJob(ctx, CreateJobParams{
		Queue:         queue,
		JobID:         newJobID,
		JobName:       title,
		JobTime:       when,
		Schedule:      sched,
		Envelope:      env,
		UserID:        rec.UserID,
		Amount:        rec.Amount,
		ReferenceData: rec.ReferenceData.RawMessage,
	})
}

// LoadRecurring returns the active record for repeatJobKey after checking
// its server signature, plus its decrypted payload.
func (s *QueueService) LoadRecurring(ctx context.Context, repeatJobKey string) (*db.QueueJob, Envelope, error) {
	rec, err := s.store.GetQueueJobByRepeatKey(ctx, repeatJobKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Envelope{}, models.Wrap(repeatJobKey, ErrQueueJobMissing)
	}
	if err != nil {
		return nil, Envelope{}, err
	}
	if rec.Status != StatusActive {
		return nil, Envelope{}, models.Wrap(repeatJobKey, ErrQueueJobStopped)
	}

	msg := s.protocol.QueueJobMessage(rec.JobTime, rec.JobName, rec.Amount, rec.RepeatJobKey)
	if err := s.protocol.VerifyRSA(msg, rec.Signature); err != nil {
		s.logger.Tampering(logrus.Fields{"repeat_job_key": repeatJobKey, "user_id": rec.UserID}, "queue record signature rejected")
		return nil, Envelope{}, models.Wrap(repeatJobKey, err)
	}

	var env Envelope
	if err := s.protocol.DecryptJSON(rec.Data, &env); err != nil {
		return nil, Envelope{}, models.Wrap(repeatJobKey, err)
	}
	return &rec, env, nil
}

// RecordRun counts occurrenceID against the recurring job. An occurrence is
// counted once however often it is delivered.
func (s *QueueService) RecordRun(ctx context.Context, repeatJobKey, occurrenceID string) (*db.QueueJob, error) {
	rec, err := s.store.IncrementQueueJobRepeatedCount(ctx, db.IncrementQueueJobRepeatedCountParams{
		RepeatJobKey: repeatJobKey,
		OccurrenceID: occurrenceID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		rec, err = s.store.GetQueueJobByRepeatKey(ctx, repeatJobKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.Wrap(repeatJobKey, ErrQueueJobMissing)
		}
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type RecurringJob struct {
	RepeatJobKey  string          `json:"repeatJobKey"`
	JobName       string          `json:"jobName"`
	JobTime       string          `json:"jobTime"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	RepeatedCount int32           `json:"repeatedCount"`
	ReferenceData json.RawMessage `json:"referenceData,omitempty"`
	NextRunAt     *time.Time      `json:"nextRunAt,omitempty"`
}

func (s *QueueService) ListRecurring(ctx context.Context, userID int64, queue QueueName) ([]RecurringJob, error) {
	q, err := s.queue(queue)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListQueueJobsByUser(ctx, db.ListQueueJobsByUserParams{UserID: userID, QueueType: queue.RecordType()})
	if err != nil {
		return nil, err
	}
	out := make([]RecurringJob, 0, len(rows))
	for _, r := range rows {
		j := RecurringJob{
			RepeatJobKey:  r.RepeatJobKey,
			JobName:       r.JobName,
			JobTime:       r.JobTime,
			Amount:        r.Amount,
			Status:        r.Status,
			RepeatedCount: r.RepeatedCount,
			ReferenceData: r.ReferenceData.RawMessage,
		}
		sch, err := q.Scheduler(ctx, r.RepeatJobKey)
		if err != nil {
			return nil, err
		}
		if sch != nil {
			next := sch.NextRunAt
			j.NextRunAt = &next
		}
		out = append(out, j)
	}
	return out, nil
}

// Job looks up a queued or failed job by id.
func (s *QueueService) Job(ctx context.Context, queue QueueName, id string) (*Job, error) {
	q, err := s.queue(queue)
	if err != nil {
		return nil, err
	}
	job, err := q.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, models.Wrap(id, ErrJobNotFound)
	}
	return job, nil
}

type QueueView struct {
	Name       QueueName   `json:"name"`
	Stats      Stats       `json:"stats"`
	Schedulers []Scheduler `json:"schedulers"`
	Failed     []Job       `json:"failed"`
}

// Inspect lists every queue with its live recurring schedules and up to
// failedLimit of the most recently parked jobs.
func (s *QueueService) Inspect(ctx context.Context, failedLimit int64) ([]QueueView, error) {
	out := make([]QueueView, 0, len(s.order))
	for _, name := range s.order {
		q := s.queues[name]
		st, err := q.Stats(ctx)
		if err != nil {
			return nil, err
		}
		scheds, err := q.Schedulers(ctx)
		if err != nil {
			return nil, err
		}
		failed, err := q.FailedJobs(ctx, failedLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, QueueView{Name: name, Stats: st, Schedulers: scheds, Failed: failed})
	}
	return out, nil
}

// DropFailedJob deletes a job parked after its last attempt.
func (s *QueueService) DropFailedJob(ctx context.Context, queue QueueName, id string) error {
	q, err := s.queue(queue)
	if err != nil {
		return err
	}
	job, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return models.Wrap(id, ErrJobNotFound)
	}
	parked, err := q.Parked(ctx, id)
	if err != nil {
		return err
	}
	if !parked {
		return models.Wrap(id, ErrJobNotParked)
	}
	if err := q.Remove(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"queue": queue, "job_id": id, "last_error": job.LastError}).Info("failed job dropped")
	return nil
}

func (s *QueueService) Stats(ctx context.Context) (map[QueueName]Stats, error) {
	out := make(map[QueueName]Stats, len(s.queues))
	for _, name := range s.order {
		st, err := s.queues[name].Stats(ctx)
		if err != nil {
			return nil, err
		}
		out[name] = st
	}
	return out, nil
}

// Dispatch runs one worker iteration on queue. It reports whether a job was
// claimed.
func (s *QueueService) Dispatch(ctx context.Context, queue QueueName) (bool, error) {
	q, err := s.queue(queue)
	if err != nil {
		return false, err
	}
	job, err := q.Claim(ctx, s.opts.Lease)
	if err != nil || job == nil {
		return false, err
	}
	if job.MaxAttempts < 1 {
		job.MaxAttempts = s.opts.MaxAttempts
	}

	log := s.logger.WithFields(logrus.Fields{"queue": queue, "job_id": job.ID, "attempt": job.Attempts + 1})

	if job.RepeatJobKey != "" {
		// the next occurrence is produced before this one runs so a failing
		// run never stalls the schedule
		if err := q.Advance(ctx, *job); err != nil {
			log.WithError(err).Error("could not schedule next occurrence")
		}
	}

	runErr := s.run(ctx, job)
	return true, s.settle(context.WithoutCancel(ctx), q, job, runErr, log)
}

func (s *QueueService) run(ctx context.Context, job *Job) (err error) {
	var env Envelope
	if err := s.protocol.DecryptJSON(job.Data, &env); err != nil {
		return err
	}
	h, ok := s.registry.Lookup(env.Kind)
	if !ok {
		return models.Wrap(string(env.Kind), ErrNoHandler)
	}

	hctx, cancel := context.WithTimeout(ctx, s.opts.Lease)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", env.Kind, r)
		}
	}()
	return h(hctx, &Delivery{Job: *job, Envelope: env})
}

func (s *QueueService) settle(ctx context.Context, q *Queue, job *Job, runErr error, log *logrus.Entry) error {
	if runErr == nil {
		log.Debug("job completed")
		return q.Complete(ctx, job.ID)
	}

	job.Attempts++
	job.LastError = runErr.Error()

	if models.KindOf(runErr) == models.KindSignatureInvalid {
		s.logger.Tampering(logrus.Fields{"queue": q.Name(), "job_id": job.ID}, runErr.Error())
	}

	if models.IsRetryable(runErr) && job.Attempts < job.MaxAttempts {
		job.RunAt = s.now().Add(time.Duration(job.Attempts) * s.opts.BackoffUnit)
		log.WithError(runErr).WithField("retry_at", job.RunAt).Warn("job failed, retrying")
		return q.Retry(ctx, *job)
	}

	log.WithError(runErr).WithField("kind", models.KindOf(runErr).String()).Error("job failed permanently")
	return q.Fail(ctx, *job)
}

func (s *QueueService) reap(ctx context.Context) error {
	for _, name := range s.order {
		n, err := s.queues[name].ReapExpired(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.WithFields(logrus.Fields{"queue": name, "jobs": n}).Warn("re-queued jobs with expired leases")
		}
	}
	return nil
}

// Start launches Workers goroutines per queue plus the lease reaper.
func (s *QueueService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("queue service already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range s.order {
		name := name
		for i := 0; i < s.opts.Workers; i++ {
			g.Go(func() error {
				s.work(gctx, name)
				return nil
			})
		}
	}
	if s.tasks != nil {
		if _, err := s.tasks.AddTask(reaperTaskID, "re-queue expired leases", s.reap, s.opts.ReapInterval); err != nil {
			cancel()
			return err
		}
	}

	s.cancel = cancel
	s.group = g
	s.logger.WithFields(logrus.Fields{"workers": s.opts.Workers, "handlers": s.registry.Kinds()}).Info("queue workers started")
	return nil
}

func (s *QueueService) work(ctx context.Context, queue QueueName) {
	for ctx.Err() == nil {
		processed, err := s.Dispatch(ctx, queue)
		if err != nil && ctx.Err() == nil {
			s.logger.WithError(err).WithField("queue", queue).Error("dispatch failed")
		}
		if processed && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.PollInterval):
		}
	}
}

// Stop cancels the workers and waits for in-flight jobs to settle.
func (s *QueueService) Stop() {
	s.mu.Lock()
	cancel, g := s.cancel, s.group
	s.cancel, s.group = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = g.Wait()
	if s.tasks != nil {
		_ = s.tasks.RemoveTask(reaperTaskID)
	}
	s.logger.Info("queue workers stopped")
}
