package api

import (
	"encoding/json"

	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/gin-gonic/gin"
)

type removeJobParams struct {
	Queue        queue.QueueName `json:"queue" validate:"oneof=transactions topups"`
	RepeatJobKey string          `json:"repeatJobKey" validate:"required"`
	Status       string          `json:"status" validate:"omitempty,oneof=completed cancelled"`
}

func (s *Server) removeJob(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p removeJobParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = queue.StatusCancelled
	}
	rec, err := s.queue.RemoveJob(ctx.Request.Context(), p.Queue, p.RepeatJobKey, p.Status)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return gin.H{"repeatJobKey": p.RepeatJobKey, "status": p.Status}, nil
	}
	return rec, nil
}

type updateJobParams struct {
	Queue        queue.QueueName `json:"queue" validate:"oneof=transactions topups"`
	RepeatJobKey string          `json:"repeatJobKey" validate:"required"`
	JobName      string          `json:"jobName" validate:"required"`
	JobTime      string          `json:"jobTime" validate:"required"`
}

// updateJob moves a recurrence to another cadence. The job gets a new key,
// which is returned to the caller.
func (s *Server) updateJob(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p updateJobParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	newID := utils.RecurringJobID(p.JobName, p.JobTime, s.ids.New())
	return s.queue.UpdateJob(ctx.Request.Context(), p.Queue, p.RepeatJobKey, p.JobName, p.JobTime, newID)
}

type recurringJobsParams struct {
	UserID int64           `json:"userId" validate:"required"`
	Queue  queue.QueueName `json:"queue" validate:"oneof=transactions topups"`
}

func (s *Server) getRecurringJobs(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p recurringJobsParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return s.queue.ListRecurring(ctx.Request.Context(), p.UserID, p.Queue)
}

func (s *Server) getQueues(ctx *gin.Context, _ json.RawMessage) (interface{}, error) {
	return s.queue.Stats(ctx.Request.Context())
}

// failedJobsShown caps the parked jobs listed per queue.
const failedJobsShown = 50

func (s *Server) getQueuesWithJobs(ctx *gin.Context, _ json.RawMessage) (interface{}, error) {
	return s.queue.Inspect(ctx.Request.Context(), failedJobsShown)
}

type jobRefParams struct {
	Queue queue.QueueName `json:"queue" validate:"oneof=transactions topups notifications"`
	JobID string          `json:"jobId" validate:"required"`
}

func (s *Server) getJob(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p jobRefParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return s.queue.Job(ctx.Request.Context(), p.Queue, p.JobID)
}

func (s *Server) dropFailedJob(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p jobRefParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := s.queue.DropFailedJob(ctx.Request.Context(), p.Queue, p.JobID); err != nil {
		return nil, err
	}
	return gin.H{"jobId": p.JobID, "dropped": true}, nil
}

type ledgerParams struct {
	TransactionID string `json:"transactionId" validate:"required"`
}

func (s *Server) getLedgerEntries(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p ledgerParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx.Request.Context(), p.TransactionID)
}
