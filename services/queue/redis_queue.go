package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/redis/go-redis/v9"
)

// Redis layout per queue:
//
//	<prefix>:<queue>:jobs        HASH  id -> Job JSON
//	<prefix>:<queue>:wait        ZSET  id scored by run-at (ms)
//	<prefix>:<queue>:active      ZSET  id scored by lease deadline (ms)
//	<prefix>:<queue>:failed      ZSET  id scored by failure time (ms)
//	<prefix>:<queue>:schedulers  HASH  repeatJobKey -> Scheduler JSON
type queueKeys struct {
	jobs, wait, active, failed, schedulers string
}

func newQueueKeys(prefix string, name QueueName) queueKeys {
	base := fmt.Sprintf("%s:%s", prefix, name)
	return queueKeys{
		jobs:       base + ":jobs",
		wait:       base + ":wait",
		active:     base + ":active",
		failed:     base + ":failed",
		schedulers: base + ":schedulers",
	}
}

var addScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
return 1
`)

var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #ids == 0 then
  return false
end
local id = ids[1]
redis.call('ZREM', KEYS[1], id)
local data = redis.call('HGET', KEYS[3], id)
if not data then
  return {id, ''}
end
redis.call('ZADD', KEYS[2], ARGV[2], id)
return {id, data}
`)

var reapScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
  redis.call('ZREM', KEYS[1], id)
  redis.call('ZADD', KEYS[2], ARGV[1], id)
end
return #ids
`)

// advanceScript swaps the scheduler record only if it is still the one the
// caller read, then enqueues the next occurrence.
var advanceScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if (not cur) or cur ~= ARGV[2] then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
if redis.call('HEXISTS', KEYS[2], ARGV[4]) == 0 then
  redis.call('HSET', KEYS[2], ARGV[4], ARGV[5])
  redis.call('ZADD', KEYS[3], ARGV[6], ARGV[4])
end
return 1
`)

var removeSchedulerScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then
  return -1
end
if cur ~= ARGV[2] then
  return 0
end
redis.call('HDEL', KEYS[1], ARGV[1])
if ARGV[3] ~= '' and redis.call('ZREM', KEYS[3], ARGV[3]) == 1 then
  redis.call('HDEL', KEYS[2], ARGV[3])
end
return 1
`)

// Scheduler is a live recurring schedule. Exactly one occurrence job exists
// for it at any time: NextJobID.
type Scheduler struct {
	Key         string        `json:"key"`
	Name        string        `json:"name"`
	Pattern     string        `json:"pattern,omitempty"`
	Every       time.Duration `json:"every,omitempty"`
	Data        string        `json:"data"`
	MaxAttempts int           `json:"maxAttempts"`
	NextJobID   string        `json:"nextJobId"`
	NextRunAt   time.Time     `json:"nextRunAt"`
	Iterations  int64         `json:"iterations"`
}

func (s *Scheduler) schedule() Schedule {
	return Schedule{Pattern: s.Pattern, Every: s.Every}
}

func (s *Scheduler) occurrence(queue QueueName, now time.Time) Job {
	return Job{
		ID:           s.NextJobID,
		Queue:        queue,
		Name:         s.Name,
		Data:         s.Data,
		RepeatJobKey: s.Key,
		MaxAttempts:  s.MaxAttempts,
		RunAt:        s.NextRunAt,
		CreatedAt:    now,
	}
}

func occurrenceID(key string, at time.Time) string {
	return fmt.Sprintf("repeat:%s:%d", key, at.UnixMilli())
}

type SchedulerSpec struct {
	Key         string
	Name        string
	Schedule    Schedule
	Data        string
	MaxAttempts int
}

type Stats struct {
	Waiting    int64 `json:"waiting"`
	Delayed    int64 `json:"delayed"`
	Active     int64 `json:"active"`
	Failed     int64 `json:"failed"`
	Schedulers int64 `json:"schedulers"`
}

// Queue is one durable, Redis-backed job queue.
type Queue struct {
	name QueueName
	rdb  *redis.Client
	keys queueKeys
	loc  *time.Location
	now  func() time.Time
}

func NewQueue(rdb *redis.Client, prefix string, name QueueName, loc *time.Location) *Queue {
	if loc == nil {
		loc = time.UTC
	}
	return &Queue{
		name: name,
		rdb:  rdb,
		keys: newQueueKeys(prefix, name),
		loc:  loc,
		now:  time.Now,
	}
}

func (q *Queue) Name() QueueName {
	return q.name
}

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// Add enqueues job to run at job.RunAt. A job id that already exists is
// ignored and Add reports false.
func (q *Queue) Add(ctx context.Context, job Job) (bool, error) {
	job.Queue = q.name
	if job.CreatedAt.IsZero() {
		job.CreatedAt = q.now()
	}
	if job.RunAt.IsZero() {
		job.RunAt = job.CreatedAt
	}
	b, err := json.Marshal(job)
	if err != nil {
		return false, err
	}
	n, err := addScript.Run(ctx, q.rdb, []string{q.keys.jobs, q.keys.wait}, job.ID, string(b), score(job.RunAt)).Int()
	if err != nil {
		return false, models.Transient("queue.add", err)
	}
	return n == 1, nil
}

func (q *Queue) Get(ctx context.Context, id string) (*Job, error) {
	raw, err := q.rdb.HGet(ctx, q.keys.jobs, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, models.Transient("queue.get", err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Claim moves the next due job to active with a lease. It returns nil when
// nothing is due.
func (q *Queue) Claim(ctx context.Context, lease time.Duration) (*Job, error) {
	for i := 0; i < 3; i++ {
		now := q.now()
		res, err := claimScript.Run(ctx, q.rdb,
			[]string{q.keys.wait, q.keys.active, q.keys.jobs},
			score(now), score(now.Add(lease)),
		).Slice()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, models.Transient("queue.claim", err)
		}
		if len(res) != 2 {
			return nil, fmt.Errorf("claim returned %d values", len(res))
		}
		data, _ := res[1].(string)
		if data == "" {
			// orphaned id with no body, already dropped from wait
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return nil, fmt.Errorf("decode job %v: %w", res[0], err)
		}
		return &job, nil
	}
	return nil, nil
}

// Complete deletes a finished job.
func (q *Queue) Complete(ctx context.Context, id string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.keys.active, id)
		pipe.HDel(ctx, q.keys.jobs, id)
		return nil
	})
	if err != nil {
		return models.Transient("queue.complete", err)
	}
	return nil
}

// Retry puts an active job back to wait, due at job.RunAt.
func (q *Queue) Retry(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.keys.active, job.ID)
		pipe.HSet(ctx, q.keys.jobs, job.ID, string(b))
		pipe.ZAdd(ctx, q.keys.wait, redis.Z{Score: float64(job.RunAt.UnixMilli()), Member: job.ID})
		return nil
	})
	if err != nil {
		return models.Transient("queue.retry", err)
	}
	return nil
}

// Fail parks a job in the failed set. It stays inspectable there.
func (q *Queue) Fail(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.keys.active, job.ID)
		pipe.HSet(ctx, q.keys.jobs, job.ID, string(b))
		pipe.ZAdd(ctx, q.keys.failed, redis.Z{Score: float64(q.now().UnixMilli()), Member: job.ID})
		return nil
	})
	if err != nil {
		return models.Transient("queue.fail", err)
	}
	return nil
}

// Parked reports whether id sits in the failed set.
func (q *Queue) Parked(ctx context.Context, id string) (bool, error) {
	_, err := q.rdb.ZScore(ctx, q.keys.failed, id).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, models.Transient("queue.parked", err)
	}
	return true, nil
}

func (q *Queue) Remove(ctx context.Context, id string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.keys.wait, id)
		pipe.ZRem(ctx, q.keys.active, id)
		pipe.ZRem(ctx, q.keys.failed, id)
		pipe.HDel(ctx, q.keys.jobs, id)
		return nil
	})
	if err != nil {
		return models.Transient("queue.remove", err)
	}
	return nil
}

// ReapExpired returns jobs whose lease ran out to wait, due immediately.
func (q *Queue) ReapExpired(ctx context.Context) (int, error) {
	n, err := reapScript.Run(ctx, q.rdb, []string{q.keys.active, q.keys.wait}, score(q.now())).Int()
	if err != nil {
		return 0, models.Transient("queue.reap", err)
	}
	return n, nil
}

func (q *Queue) schedulerRaw(ctx context.Context, key string) (string, *Scheduler, error) {
	raw, err := q.rdb.HGet(ctx, q.keys.schedulers, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, models.Transient("queue.scheduler", err)
	}
	var s Scheduler
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return "", nil, fmt.Errorf("decode scheduler %s: %w", key, err)
	}
	return raw, &s, nil
}

// Scheduler returns the live scheduler for key, or nil.
func (q *Queue) Scheduler(ctx context.Context, key string) (*Scheduler, error) {
	_, s, err := q.schedulerRaw(ctx, key)
	return s, err
}

func (q *Queue) Schedulers(ctx context.Context) ([]Scheduler, error) {
	all, err := q.rdb.HGetAll(ctx, q.keys.schedulers).Result()
	if err != nil {
		return nil, models.Transient("queue.schedulers", err)
	}
	out := make([]Scheduler, 0, len(all))
	for key, raw := range all {
		var s Scheduler
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("decode scheduler %s: %w", key, err)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// UpsertScheduler creates or reschedules a recurring schedule. An existing
// schedule keeps its payload unless replacePayload is set.
func (q *Queue) UpsertScheduler(ctx context.Context, spec SchedulerSpec, replacePayload bool) (*Scheduler, error) {
	if !spec.Schedule.Recurring() {
		return nil, models.Validation("scheduler needs a pattern or an interval")
	}
	if err := spec.Schedule.validate(); err != nil {
		return nil, err
	}

	existing, err := q.Scheduler(ctx, spec.Key)
	if err != nil {
		return nil, err
	}

	data := spec.Data
	var iterations int64
	if existing != nil {
		if !replacePayload {
			data = existing.Data
		}
		iterations = existing.Iterations
		if err := q.dropWaiting(ctx, existing.NextJobID); err != nil {
			return nil, err
		}
	}

	now := q.now()
	next, err := nextRun(spec.Schedule, now, q.loc)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		Key:         spec.Key,
		Name:        spec.Name,
		Pattern:     spec.Schedule.Pattern,
		Every:       spec.Schedule.Every,
		Data:        data,
		MaxAttempts: spec.MaxAttempts,
		NextJobID:   occurrenceID(spec.Key, next),
		NextRunAt:   next,
		Iterations:  iterations,
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if _, err := q.Add(ctx, s.occurrence(q.name, now)); err != nil {
		return nil, err
	}
	if err := q.rdb.HSet(ctx, q.keys.schedulers, spec.Key, string(b)).Err(); err != nil {
		return nil, models.Transient("queue.upsertScheduler", err)
	}
	return s, nil
}

func (q *Queue) dropWaiting(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	removed, err := q.rdb.ZRem(ctx, q.keys.wait, id).Result()
	if err != nil {
		return models.Transient("queue.dropWaiting", err)
	}
	if removed == 1 {
		if err := q.rdb.HDel(ctx, q.keys.jobs, id).Err(); err != nil {
			return models.Transient("queue.dropWaiting", err)
		}
	}
	return nil
}

// RemoveScheduler deletes the schedule and its pending occurrence. It reports
// false when no scheduler exists for key.
func (q *Queue) RemoveScheduler(ctx context.Context, key string) (bool, error) {
	for i := 0; i < 5; i++ {
		raw, s, err := q.schedulerRaw(ctx, key)
		if err != nil {
			return false, err
		}
		if s == nil {
			return false, nil
		}
		res, err := removeSchedulerScript.Run(ctx, q.rdb,
			[]string{q.keys.schedulers, q.keys.jobs, q.keys.wait},
			key, raw, s.NextJobID,
		).Int()
		if err != nil {
			return false, models.Transient("queue.removeScheduler", err)
		}
		switch res {
		case 1:
			return true, nil
		case -1:
			return false, nil
		}
		// record changed underneath us, read it again
	}
	return false, models.Transient("queue.removeScheduler", fmt.Errorf("scheduler %s kept changing", key))
}

// Advance produces the occurrence after fired. It is a no-op if the
// scheduler was removed or already advanced past fired.
func (q *Queue) Advance(ctx context.Context, fired Job) error {
	if fired.RepeatJobKey == "" {
		return nil
	}
	raw, s, err := q.schedulerRaw(ctx, fired.RepeatJobKey)
	if err != nil || s == nil {
		return err
	}
	if s.NextJobID != fired.ID {
		return nil
	}

	now := q.now()
	next, err := nextRun(s.schedule(), fired.RunAt, q.loc)
	if err != nil {
		return err
	}
	if !next.After(now) {
		// fired late, skip the missed occurrences
		if next, err = nextRun(s.schedule(), now, q.loc); err != nil {
			return err
		}
	}

	s.NextRunAt = next
	s.NextJobID = occurrenceID(s.Key, next)
	s.Iterations++
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	job := s.occurrence(q.name, now)
	jb, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = advanceScript.Run(ctx, q.rdb,
		[]string{q.keys.schedulers, q.keys.jobs, q.keys.wait},
		s.Key, raw, string(b), job.ID, string(jb), score(next),
	).Err()
	if err != nil {
		return models.Transient("queue.advance", err)
	}
	return nil
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	now := score(q.now())
	var waiting, delayed, active, failed *redis.IntCmd
	var schedulers *redis.IntCmd
	_, err := q.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		waiting = pipe.ZCount(ctx, q.keys.wait, "-inf", now)
		delayed = pipe.ZCount(ctx, q.keys.wait, "("+now, "+inf")
		active = pipe.ZCard(ctx, q.keys.active)
		failed = pipe.ZCard(ctx, q.keys.failed)
		schedulers = pipe.HLen(ctx, q.keys.schedulers)
		return nil
	})
	if err != nil {
		return Stats{}, models.Transient("queue.stats", err)
	}
	return Stats{
		Waiting:    waiting.Val(),
		Delayed:    delayed.Val(),
		Active:     active.Val(),
		Failed:     failed.Val(),
		Schedulers: schedulers.Val(),
	}, nil
}

// FailedJobs lists up to limit parked jobs, newest first.
func (q *Queue) FailedJobs(ctx context.Context, limit int64) ([]Job, error) {
	ids, err := q.rdb.ZRevRange(ctx, q.keys.failed, 0, limit-1).Result()
	if err != nil {
		return nil, models.Transient("queue.failedJobs", err)
	}
	out := make([]Job, 0, len(ids))
	for _, id := range ids {
		job, err := q.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job != nil {
			out = append(out, *job)
		}
	}
	return out, nil
}
