package transaction

import (
	"context"

	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
)

// enqueue validates body and puts it on the transactions queue under a job id
// derived from txID, so a resubmitted request lands on the same job.
func (s *TransactionService) enqueue(ctx context.Context, kind queue.Kind, txID string, body interface{}) (*queue.JobHandle, error) {
	if err := validate(body); err != nil {
		return nil, err
	}
	env, err := queue.NewEnvelope(kind, body)
	if err != nil {
		return nil, err
	}
	return s.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:    queue.Transactions,
		JobID:    utils.JobID(string(kind), s.tokens.Derive(txID)),
		JobName:  string(kind),
		Envelope: env,
	})
}

func (s *TransactionService) QueueTransaction(ctx context.Context, req QueuedTransfer) (*queue.JobHandle, error) {
	return s.enqueue(ctx, queue.KindQueueTransaction, req.Transaction.TransactionID, req)
}

func (s *TransactionService) QueueRequestTransaction(ctx context.Context, req QueuedTransfer) (*queue.JobHandle, error) {
	return s.enqueue(ctx, queue.KindQueueRequestTransaction, req.Transaction.TransactionID, req)
}

func (s *TransactionService) QueuePayRequest(ctx context.Context, req PayRequest) (*queue.JobHandle, error) {
	return s.enqueue(ctx, queue.KindPayRequestTransaction, req.TransactionID, req)
}

func (s *TransactionService) QueueCancelRequest(ctx context.Context, req CancelRequest) (*queue.JobHandle, error) {
	return s.enqueue(ctx, queue.KindCancelRequestedTransaction, req.TransactionID, req)
}

func (s *TransactionService) QueueBankingTransaction(ctx context.Context, req BankingTransfer) (*queue.JobHandle, error) {
	return s.enqueue(ctx, queue.KindCreateBankingTransaction, req.TransactionID, req)
}
