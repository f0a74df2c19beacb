package db

import (
	"context"
	"time"

	"github.com/sqlc-dev/pqtype"
)

type Querier interface {
	CountTrainingTransactions(ctx context.Context, after time.Time) (int64, error)
	CreateBankingTransaction(ctx context.Context, arg CreateBankingTransactionParams) (BankingTransaction, error)
	CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) (LedgerEntry, error)
	CreateQueueJob(ctx context.Context, arg CreateQueueJobParams) (QueueJob, error)
	CreateTopUp(ctx context.Context, arg CreateTopUpParams) (Topup, error)
	CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error)
	GetAccountByID(ctx context.Context, id int64) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (Account, error)
	GetBankingTransaction(ctx context.Context, transactionID string) (BankingTransaction, error)
	GetEarliestTransactionByFeatures(ctx context.Context, features pqtype.NullRawMessage) (Transaction, error)
	GetLastTransactionFromAccount(ctx context.Context, arg GetLastTransactionFromAccountParams) (Transaction, error)
	GetQueueJobByRepeatKey(ctx context.Context, repeatJobKey string) (QueueJob, error)
	GetTopUpByReference(ctx context.Context, referenceID string) (Topup, error)
	GetTopUpCompany(ctx context.Context, id int64) (TopupsCompany, error)
	GetTransactionByTransactionID(ctx context.Context, transactionID string) (Transaction, error)
	GetUser(ctx context.Context, id int64) (User, error)
	IncrementQueueJobRepeatedCount(ctx context.Context, arg IncrementQueueJobRepeatedCountParams) (QueueJob, error)
	ListActiveNotificationTokens(ctx context.Context, arg ListActiveNotificationTokensParams) ([]string, error)
	ListLedgerEntriesByTransaction(ctx context.Context, transactionID string) ([]LedgerEntry, error)
	ListQueueJobsByUser(ctx context.Context, arg ListQueueJobsByUserParams) ([]QueueJob, error)
	ListTrainingTransactions(ctx context.Context, arg ListTrainingTransactionsParams) ([]Transaction, error)
	TransitionTopUpStatus(ctx context.Context, arg TransitionTopUpStatusParams) (Topup, error)
	TransitionTransactionStatus(ctx context.Context, arg TransitionTransactionStatusParams) (Transaction, error)
	UpdateAccountBalances(ctx context.Context, arg UpdateAccountBalancesParams) (Account, error)
	UpdateAccountStatus(ctx context.Context, arg UpdateAccountStatusParams) (Account, error)
	UpdateQueueJobSchedule(ctx context.Context, arg UpdateQueueJobScheduleParams) (QueueJob, error)
	UpdateQueueJobStatus(ctx context.Context, arg UpdateQueueJobStatusParams) (QueueJob, error)
	UpdateTransactionFraud(ctx context.Context, arg UpdateTransactionFraudParams) (Transaction, error)
	UpdateTransactionLocation(ctx context.Context, arg UpdateTransactionLocationParams) error
	UpsertTopUpPhone(ctx context.Context, arg UpsertTopUpPhoneParams) (TopupsPhone, error)
}

var _ Querier = (*Queries)(nil)
