package queue

import "github.com/SwiftFiat/SwiftFiat-Queue/models"

var (
	ErrJobNotFound     = models.NotFound("job not found")
	ErrUnknownQueue    = models.Validation("unknown queue")
	ErrNoHandler       = models.Validation("no handler registered for job kind")
	ErrQueueJobMissing = models.NotFound("queue record not found")
	ErrQueueJobStopped = models.NotFound("queue record is not active")
	ErrJobNotParked    = models.Validation("job is waiting or running, only failed jobs can be dropped")
)
