package testutil

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

type memState struct {
	users        map[int64]db.User
	sessions     []db.Session
	accounts     map[int64]db.Account
	transactions []db.Transaction
	ledger       []db.LedgerEntry
	queueJobs    map[string]db.QueueJob
	banking      map[string]db.BankingTransaction
	companies    map[int64]db.TopupsCompany
	phones       []db.TopupsPhone
	topups       []db.Topup
	seq          int64
}

func newMemState() *memState {
	return &memState{
		users:     make(map[int64]db.User),
		accounts:  make(map[int64]db.Account),
		queueJobs: make(map[string]db.QueueJob),
		banking:   make(map[string]db.BankingTransaction),
		companies: make(map[int64]db.TopupsCompany),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		users:        make(map[int64]db.User, len(s.users)),
		sessions:     append([]db.Session(nil), s.sessions...),
		accounts:     make(map[int64]db.Account, len(s.accounts)),
		transactions: append([]db.Transaction(nil), s.transactions...),
		ledger:       append([]db.LedgerEntry(nil), s.ledger...),
		queueJobs:    make(map[string]db.QueueJob, len(s.queueJobs)),
		banking:      make(map[string]db.BankingTransaction, len(s.banking)),
		companies:    make(map[int64]db.TopupsCompany, len(s.companies)),
		phones:       append([]db.TopupsPhone(nil), s.phones...),
		topups:       append([]db.Topup(nil), s.topups...),
		seq:          s.seq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.queueJobs {
		c.queueJobs[k] = v
	}
	for k, v := range s.banking {
		c.banking[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	return c
}

func (s *memState) nextID() int64 {
	s.seq++
	return s.seq
}

// MemStore is an in-memory db.TxStore. ExecTx works on a copy of the data
// and swaps it in on success, so a failing callback leaves no trace.
type MemStore struct {
	mu    sync.Mutex
	state *memState

	failMu sync.Mutex
	fail   map[string]error

	Now func() time.Time
}

var _ db.TxStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		state: newMemState(),
		fail:  make(map[string]error),
		Now:   time.Now,
	}
}

// FailOn makes every call to the named query return err until cleared.
func (m *MemStore) FailOn(method string, err error) {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.fail[method] = err
}

func (m *MemStore) ClearFailures() {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.fail = make(map[string]error)
}

func (m *MemStore) injected(method string) error {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	return m.fail[method]
}

func (m *MemStore) ExecTx(ctx context.Context, fn func(q db.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("ExecTx"); err != nil {
		return err
	}
	work := m.state.clone()
	if err := fn(&memQueries{m: m, st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemStore) q() (*memQueries, func()) {
	m.mu.Lock()
	return &memQueries{m: m, st: m.state}, m.mu.Unlock
}

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: db.DuplicateEntry, Constraint: constraint, Message: "duplicate key value violates unique constraint"}
}

// Seeding and inspection helpers.

func (m *MemStore) AddUser(u db.User) db.User {
	q, done := m.q()
	defer done()
	if u.ID == 0 {
		u.ID = q.st.nextID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.Now()
	}
	q.st.users[u.ID] = u
	return u
}

func (m *MemStore) AddSession(s db.Session) db.Session {
	q, done := m.q()
	defer done()
	s.ID = q.st.nextID()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.Now()
	}
	q.st.sessions = append(q.st.sessions, s)
	return s
}

// AddAccount stores a, filling defaults for limits, flags, status and
// currency when they are left zero.
func (m *MemStore) AddAccount(a db.Account) db.Account {
	q, done := m.q()
	defer done()
	if a.ID == 0 {
		a.ID = q.st.nextID()
	}
	limit := decimal.NewFromInt(50000)
	for _, l := range []*decimal.Decimal{&a.SendLimit, &a.ReceiveLimit, &a.WithdrawLimit, &a.DepositLimit} {
		if l.IsZero() {
			*l = limit
		}
	}
	if a.Status == "" {
		a.Status = "active"
	}
	if a.Currency == "" {
		a.Currency = "DOP"
	}
	if a.Version == 0 {
		a.Version = 1
	}
	a.CreatedAt, a.UpdatedAt = m.Now(), m.Now()
	q.st.accounts[a.ID] = a
	return a
}

func (m *MemStore) AddCompany(c db.TopupsCompany) db.TopupsCompany {
	q, done := m.q()
	defer done()
	if c.ID == 0 {
		c.ID = q.st.nextID()
	}
	q.st.companies[c.ID] = c
	return c
}

// AddTransaction stores t as is, keeping CreatedAt when set.
func (m *MemStore) AddTransaction(t db.Transaction) db.Transaction {
	q, done := m.q()
	defer done()
	t.ID = q.st.nextID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.Now()
	}
	t.UpdatedAt = t.CreatedAt
	q.st.transactions = append(q.st.transactions, t)
	return t
}

func (m *MemStore) Account(id int64) db.Account {
	q, done := m.q()
	defer done()
	return q.st.accounts[id]
}

func (m *MemStore) Transaction(transactionID string) (db.Transaction, bool) {
	q, done := m.q()
	defer done()
	for _, t := range q.st.transactions {
		if t.TransactionID == transactionID {
			return t, true
		}
	}
	return db.Transaction{}, false
}

func (m *MemStore) Transactions() []db.Transaction {
	q, done := m.q()
	defer done()
	return append([]db.Transaction(nil), q.st.transactions...)
}

func (m *MemStore) Ledger() []db.LedgerEntry {
	q, done := m.q()
	defer done()
	return append([]db.LedgerEntry(nil), q.st.ledger...)
}

func (m *MemStore) QueueJobs() []db.QueueJob {
	q, done := m.q()
	defer done()
	out := make([]db.QueueJob, 0, len(q.st.queueJobs))
	for _, j := range q.st.queueJobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemStore) TopUps() []db.Topup {
	q, done := m.q()
	defer done()
	return append([]db.Topup(nil), q.st.topups...)
}

func (m *MemStore) Phones() []db.TopupsPhone {
	q, done := m.q()
	defer done()
	return append([]db.TopupsPhone(nil), q.st.phones...)
}

func (m *MemStore) BankingTransactions() []db.BankingTransaction {
	q, done := m.q()
	defer done()
	out := make([]db.BankingTransaction, 0, len(q.st.banking))
	for _, b := range q.st.banking {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Querier methods outside a transaction.

func (m *MemStore) CountTrainingTransactions(ctx context.Context, after time.Time) (int64, error) {
	q, done := m.q()
	defer done()
	return q.CountTrainingTransactions(ctx, after)
}

func (m *MemStore) CreateBankingTransaction(ctx context.Context, arg db.CreateBankingTransactionParams) (db.BankingTransaction, error) {
	q, done := m.q()
	defer done()
	return q.CreateBankingTransaction(ctx, arg)
}

func (m *MemStore) CreateLedgerEntry(ctx context.Context, arg db.CreateLedgerEntryParams) (db.LedgerEntry, error) {
	q, done := m.q()
	defer done()
	return q.CreateLedgerEntry(ctx, arg)
}

func (m *MemStore) CreateQueueJob(ctx context.Context, arg db.CreateQueueJobParams) (db.QueueJob, error) {
	q, done := m.q()
	defer done()
	return q.CreateQueueJob(ctx, arg)
}

func (m *MemStore) CreateTopUp(ctx context.Context, arg db.CreateTopUpParams) (db.Topup, error) {
	q, done := m.q()
	defer done()
	return q.CreateTopUp(ctx, arg)
}

func (m *MemStore) CreateTransaction(ctx context.Context, arg db.CreateTransactionParams) (db.Transaction, error) {
	q, done := m.q()
	defer done()
	return q.CreateTransaction(ctx, arg)
}

func (m *MemStore) GetAccountByID(ctx context.Context, id int64) (db.Account, error) {
	q, done := m.q()
	defer done()
	return q.GetAccountByID(ctx, id)
}

func (m *MemStore) GetAccountByUsername(ctx context.Context, username string) (db.Account, error) {
	q, done := m.q()
	defer done()
	return q.GetAccountByUsername(ctx, username)
}

func (m *MemStore) GetAccountForUpdate(ctx context.Context, id int64) (db.Account, error) {
	q, done := m.q()
	defer done()
	return q.GetAccountForUpdate(ctx, id)
}

func (m *MemStore) GetBankingTransaction(ctx context.Context, transactionID string) (db.BankingTransaction, error) {
	q, done := m.q()
	defer done()
	return q.GetBankingTransaction(ctx, transactionID)
}

func (m *MemStore) GetEarliestTransactionByFeatures(ctx context.Context, features pqtype.NullRawMessage) (db.Transaction, error) {
	q, done := m.q()
	defer done()
	return q.GetEarliestTransactionByFeatures(ctx, features)
}

func (m *MemStore) GetLastTransactionFromAccount(ctx context.Context, arg db.GetLastTransactionFromAccountParams) (db.Transaction, error) {
	q, done := m.q()
	defer done()
	return q.GetLastTransactionFromAccount(ctx, arg)
}

func (m *MemStore) GetQueueJobByRepeatKey(ctx context.Context, repeatJobKey string) (db.QueueJob, error) {
	q, done := m.q()
	defer done()
	return q.GetQueueJobByRepeatKey(ctx, repeatJobKey)
}

func (m *MemStore) GetTopUpByReference(ctx context.Context, referenceID string) (db.Topup, error) {
	q, done := m.q()
	defer done()
	return q.GetTopUpByReference(ctx, referenceID)
}

func (m *MemStore) GetTopUpCompany(ctx context.Context, id int64) (db.TopupsCompany, error) {
	q, done := m.q()
	defer done()
	return q.GetTopUpCompany(ctx, id)
}

func (m *MemStore) GetTransactionByTransactionID(ctx context.Context, transactionID string) (db.Transaction, error) {
	q, done := m.q()
	defer done()
	return q.GetTransactionByTransactionID(ctx, transactionID)
}

func (m *MemStore) GetUser(ctx context.Context, id int64) (db.User, error) {
	q, done := m.q()
	defer done()
	return q.GetUser(ctx, id)
}

func (m *MemStore) IncrementQueueJobRepeatedCount(ctx context.Context, arg db.IncrementQueueJobRepeatedCountParams) (db.QueueJob, error) {
	q, done := m.q()
	defer done()
	return q.IncrementQueueJobRepeatedCount(ctx, arg)
}

func (m *MemStore) ListActiveNotificationTokens(ctx context.Context, arg db.ListActiveNotificationTokensParams) ([]string, error) {
	q, done := m.q()
	defer done()
	return q.ListActiveNotificationTokens(ctx, arg)
}

func (m *MemStore) ListLedgerEntriesByTransaction(ctx context.Context, transactionID string) ([]db.LedgerEntry, error) {
	q, done := m.q()
	defer done()
	return q.ListLedgerEntriesByTransaction(ctx, transactionID)
}

func (m *MemStore) ListQueueJobsByUser(ctx context.Context, arg db.ListQueueJobsByUserParams) ([]db.QueueJob, error) {
	q, done := m.q()
	defer done()
	return q.ListQueueJobsByUser(ctx, arg)
}

func (m *MemStore) ListTrainingTransactions(ctx context.Context, arg db.ListTrainingTransactionsParams) ([]db.Transaction, error) {
	q, done := m.q()
	defer done()
	return q.ListTrainingTransactions(ctx, arg)
}

func (m *MemStore) TransitionTopUpStatus(ctx context.Context, arg db.TransitionTopUpStatusParams) (db.Topup, error) {
	q, done := m.q()
	defer done()
	return q.TransitionTopUpStatus(ctx, arg)
}

func (m *MemStore) TransitionTransactionStatus(ctx context.Context, arg db.TransitionTransactionStatusParams) (db.Transaction, error) {
	q, done := m.q()
	defer done()
	return q.TransitionTransactionStatus(ctx, arg)
}

func (m *MemStore) UpdateAccountBalances(ctx context.Context, arg db.UpdateAccountBalancesParams) (db.Account, error) {
	q, done := m.q()
	defer done()
	return q.UpdateAccountBalances(ctx, arg)
}

func (m *MemStore) UpdateAccountStatus(ctx context.Context, arg db.UpdateAccountStatusParams) (db.Account, error) {
	q, done := m.q()
	defer done()
	return q.UpdateAccountStatus(ctx, arg)
}

func (m *MemStore) UpdateQueueJobSchedule(ctx context.Context, arg db.UpdateQueueJobScheduleParams) (db.QueueJob, error) {
	q, done := m.q()
	defer done()
	return q.UpdateQueueJobSchedule(ctx, arg)
}

func (m *MemStore) UpdateQueueJobStatus(ctx context.Context, arg db.UpdateQueueJobStatusParams) (db.QueueJob, error) {
	q, done := m.q()
	defer done()
	return q.UpdateQueueJobStatus(ctx, arg)
}

func (m *MemStore) UpdateTransactionFraud(ctx context.Context, arg db.UpdateTransactionFraudParams) (db.Transaction, error) {
	q, done := m.q()
	defer done()
	return q.UpdateTransactionFraud(ctx, arg)
}

func (m *MemStore) UpdateTransactionLocation(ctx context.Context, arg db.UpdateTransactionLocationParams) error {
	q, done := m.q()
	defer done()
	return q.UpdateTransactionLocation(ctx, arg)
}

func (m *MemStore) UpsertTopUpPhone(ctx context.Context, arg db.UpsertTopUpPhoneParams) (db.TopupsPhone, error) {
	q, done := m.q()
	defer done()
	return q.UpsertTopUpPhone(ctx, arg)
}

// memQueries implements db.Querier against one memState. The caller holds
// the store lock.
type memQueries struct {
	m  *MemStore
	st *memState
}

var _ db.Querier = (*memQueries)(nil)

func trainable(t db.Transaction) bool {
	return t.Status == "completed" || t.Status == "suspicious"
}

func (q *memQueries) CountTrainingTransactions(ctx context.Context, after time.Time) (int64, error) {
	if err := q.m.injected("CountTrainingTransactions"); err != nil {
		return 0, err
	}
	var n int64
	for _, t := range q.st.transactions {
		if trainable(t) && t.CreatedAt.After(after) {
			n++
		}
	}
	return n, nil
}

func (q *memQueries) CreateBankingTransaction(ctx context.Context, arg db.CreateBankingTransactionParams) (db.BankingTransaction, error) {
	if err := q.m.injected("CreateBankingTransaction"); err != nil {
		return db.BankingTransaction{}, err
	}
	if _, exists := q.st.banking[arg.TransactionID]; exists {
		return db.BankingTransaction{}, uniqueViolation("banking_transactions_transaction_id_key")
	}
	b := db.BankingTransaction{
		ID:              q.st.nextID(),
		TransactionID:   arg.TransactionID,
		AccountID:       arg.AccountID,
		UserID:          arg.UserID,
		CardID:          arg.CardID,
		Amount:          arg.Amount,
		TransactionType: arg.TransactionType,
		Currency:        arg.Currency,
		Status:          arg.Status,
		Location:        arg.Location,
		Data:            arg.Data,
		Signature:       arg.Signature,
		CreatedAt:       q.m.Now(),
	}
	q.st.banking[arg.TransactionID] = b
	return b, nil
}

func (q *memQueries) CreateLedgerEntry(ctx context.Context, arg db.CreateLedgerEntryParams) (db.LedgerEntry, error) {
	if err := q.m.injected("CreateLedgerEntry"); err != nil {
		return db.LedgerEntry{}, err
	}
	e := db.LedgerEntry{
		ID:            q.st.nextID(),
		AccountID:     arg.AccountID,
		TransactionID: arg.TransactionID,
		Amount:        arg.Amount,
		Currency:      arg.Currency,
		Type:          arg.Type,
		Status:        arg.Status,
		BeforeBalance: arg.BeforeBalance,
		AfterBalance:  arg.AfterBalance,
		Fee:           arg.Fee,
		Latitude:      arg.Latitude,
		Longitude:     arg.Longitude,
		Anomalies:     arg.Anomalies,
		Notes:         arg.Notes,
		CreatedAt:     q.m.Now(),
	}
	q.st.ledger = append(q.st.ledger, e)
	return e, nil
}

func (q *memQueries) CreateQueueJob(ctx context.Context, arg db.CreateQueueJobParams) (db.QueueJob, error) {
	if err := q.m.injected("CreateQueueJob"); err != nil {
		return db.QueueJob{}, err
	}
	if _, exists := q.st.queueJobs[arg.RepeatJobKey]; exists {
		return db.QueueJob{}, uniqueViolation("queues_repeat_job_key_key")
	}
	now := q.m.Now()
	j := db.QueueJob{
		ID:            q.st.nextID(),
		JobID:         arg.JobID,
		RepeatJobKey:  arg.RepeatJobKey,
		UserID:        arg.UserID,
		JobName:       arg.JobName,
		QueueType:     arg.QueueType,
		JobTime:       arg.JobTime,
		Amount:        arg.Amount,
		Status:        arg.Status,
		Data:          arg.Data,
		ReferenceData: arg.ReferenceData,
		Signature:     arg.Signature,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	q.st.queueJobs[arg.RepeatJobKey] = j
	return j, nil
}

func (q *memQueries) CreateTopUp(ctx context.Context, arg db.CreateTopUpParams) (db.Topup, error) {
	if err := q.m.injected("CreateTopUp"); err != nil {
		return db.Topup{}, err
	}
	for _, t := range q.st.topups {
		if t.ReferenceID == arg.ReferenceID {
			return db.Topup{}, uniqueViolation("topups_reference_id_key")
		}
	}
	now := q.m.Now()
	t := db.Topup{
		ID:          q.st.nextID(),
		ReferenceID: arg.ReferenceID,
		PhoneID:     arg.PhoneID,
		CompanyID:   arg.CompanyID,
		UserID:      arg.UserID,
		Amount:      arg.Amount,
		Status:      arg.Status,
		Location:    arg.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	q.st.topups = append(q.st.topups, t)
	return t, nil
}

func (q *memQueries) CreateTransaction(ctx context.Context, arg db.CreateTransactionParams) (db.Transaction, error) {
	if err := q.m.injected("CreateTransaction"); err != nil {
		return db.Transaction{}, err
	}
	for _, t := range q.st.transactions {
		if t.TransactionID == arg.TransactionID {
			return db.Transaction{}, uniqueViolation("transactions_transaction_id_key")
		}
	}
	now := q.m.Now()
	t := db.Transaction{
		ID:               q.st.nextID(),
		TransactionID:    arg.TransactionID,
		FromAccount:      arg.FromAccount,
		ToAccount:        arg.ToAccount,
		SenderFullName:   arg.SenderFullName,
		ReceiverFullName: arg.ReceiverFullName,
		Amount:           arg.Amount,
		DeliveredAmount:  arg.DeliveredAmount,
		VoidedAmount:     decimal.Zero,
		TransactionType:  arg.TransactionType,
		Currency:         arg.Currency,
		Status:           arg.Status,
		Location:         arg.Location,
		Signature:        arg.Signature,
		DeviceID:         arg.DeviceID,
		IpAddress:        arg.IpAddress,
		SessionID:        arg.SessionID,
		Platform:         arg.Platform,
		IsRecurring:      arg.IsRecurring,
		PreviousBalance:  arg.PreviousBalance,
		FraudScore:       arg.FraudScore,
		Speed:            arg.Speed,
		Distance:         arg.Distance,
		Features:         arg.Features,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	q.st.transactions = append(q.st.transactions, t)
	return t, nil
}

func (q *memQueries) GetAccountByID(ctx context.Context, id int64) (db.Account, error) {
	if err := q.m.injected("GetAccountByID"); err != nil {
		return db.Account{}, err
	}
	a, ok := q.st.accounts[id]
	if !ok {
		return db.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (q *memQueries) GetAccountByUsername(ctx context.Context, username string) (db.Account, error) {
	if err := q.m.injected("GetAccountByUsername"); err != nil {
		return db.Account{}, err
	}
	for _, a := range q.st.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return db.Account{}, sql.ErrNoRows
}

func (q *memQueries) GetAccountForUpdate(ctx context.Context, id int64) (db.Account, error) {
	if err := q.m.injected("GetAccountForUpdate"); err != nil {
		return db.Account{}, err
	}
	return q.GetAccountByID(ctx, id)
}

func (q *memQueries) GetBankingTransaction(ctx context.Context, transactionID string) (db.BankingTransaction, error) {
	if err := q.m.injected("GetBankingTransaction"); err != nil {
		return db.BankingTransaction{}, err
	}
	b, ok := q.st.banking[transactionID]
	if !ok {
		return db.BankingTransaction{}, sql.ErrNoRows
	}
	return b, nil
}

func (q *memQueries) GetEarliestTransactionByFeatures(ctx context.Context, features pqtype.NullRawMessage) (db.Transaction, error) {
	if err := q.m.injected("GetEarliestTransactionByFeatures"); err != nil {
		return db.Transaction{}, err
	}
	var best *db.Transaction
	for i := range q.st.transactions {
		t := &q.st.transactions[i]
		if !t.Features.Valid || string(t.Features.RawMessage) != string(features.RawMessage) {
			continue
		}
		if best == nil || t.CreatedAt.Before(best.CreatedAt) || (t.CreatedAt.Equal(best.CreatedAt) && t.ID < best.ID) {
			best = t
		}
	}
	if best == nil {
		return db.Transaction{}, sql.ErrNoRows
	}
	return *best, nil
}

func (q *memQueries) GetLastTransactionFromAccount(ctx context.Context, arg db.GetLastTransactionFromAccountParams) (db.Transaction, error) {
	if err := q.m.injected("GetLastTransactionFromAccount"); err != nil {
		return db.Transaction{}, err
	}
	var best *db.Transaction
	for i := range q.st.transactions {
		t := &q.st.transactions[i]
		if t.FromAccount != arg.FromAccount || t.CreatedAt.Before(arg.Since) {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) || (t.CreatedAt.Equal(best.CreatedAt) && t.ID > best.ID) {
			best = t
		}
	}
	if best == nil {
		return db.Transaction{}, sql.ErrNoRows
	}
	return *best, nil
}

func (q *memQueries) GetQueueJobByRepeatKey(ctx context.Context, repeatJobKey string) (db.QueueJob, error) {
	if err := q.m.injected("GetQueueJobByRepeatKey"); err != nil {
		return db.QueueJob{}, err
	}
	j, ok := q.st.queueJobs[repeatJobKey]
	if !ok {
		return db.QueueJob{}, sql.ErrNoRows
	}
	return j, nil
}

func (q *memQueries) GetTopUpByReference(ctx context.Context, referenceID string) (db.Topup, error) {
	if err := q.m.injected("GetTopUpByReference"); err != nil {
		return db.Topup{}, err
	}
	for _, t := range q.st.topups {
		if t.ReferenceID == referenceID {
			return t, nil
		}
	}
	return db.Topup{}, sql.ErrNoRows
}

func (q *memQueries) GetTopUpCompany(ctx context.Context, id int64) (db.TopupsCompany, error) {
	if err := q.m.injected("GetTopUpCompany"); err != nil {
		return db.TopupsCompany{}, err
	}
	c, ok := q.st.companies[id]
	if !ok {
		return db.TopupsCompany{}, sql.ErrNoRows
	}
	return c, nil
}

func (q *memQueries) GetTransactionByTransactionID(ctx context.Context, transactionID string) (db.Transaction, error) {
	if err := q.m.injected("GetTransactionByTransactionID"); err != nil {
		return db.Transaction{}, err
	}
	for _, t := range q.st.transactions {
		if t.TransactionID == transactionID {
			return t, nil
		}
	}
	return db.Transaction{}, sql.ErrNoRows
}

func (q *memQueries) GetUser(ctx context.Context, id int64) (db.User, error) {
	if err := q.m.injected("GetUser"); err != nil {
		return db.User{}, err
	}
	u, ok := q.st.users[id]
	if !ok {
		return db.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (q *memQueries) IncrementQueueJobRepeatedCount(ctx context.Context, arg db.IncrementQueueJobRepeatedCountParams) (db.QueueJob, error) {
	if err := q.m.injected("IncrementQueueJobRepeatedCount"); err != nil {
		return db.QueueJob{}, err
	}
	j, ok := q.st.queueJobs[arg.RepeatJobKey]
	if !ok || j.LastOccurrenceID == arg.OccurrenceID {
		return db.QueueJob{}, sql.ErrNoRows
	}
	j.RepeatedCount++
	j.LastOccurrenceID = arg.OccurrenceID
	j.UpdatedAt = q.m.Now()
	q.st.queueJobs[arg.RepeatJobKey] = j
	return j, nil
}

func (q *memQueries) ListActiveNotificationTokens(ctx context.Context, arg db.ListActiveNotificationTokensParams) ([]string, error) {
	if err := q.m.injected("ListActiveNotificationTokens"); err != nil {
		return nil, err
	}
	out := []string{}
	for _, s := range q.st.sessions {
		if s.UserID == arg.UserID && s.Verified && s.Expires.After(arg.Now) && s.ExpoNotificationToken.Valid {
			out = append(out, s.ExpoNotificationToken.String)
		}
	}
	return out, nil
}

func (q *memQueries) ListLedgerEntriesByTransaction(ctx context.Context, transactionID string) ([]db.LedgerEntry, error) {
	if err := q.m.injected("ListLedgerEntriesByTransaction"); err != nil {
		return nil, err
	}
	out := []db.LedgerEntry{}
	for _, e := range q.st.ledger {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (q *memQueries) ListQueueJobsByUser(ctx context.Context, arg db.ListQueueJobsByUserParams) ([]db.QueueJob, error) {
	if err := q.m.injected("ListQueueJobsByUser"); err != nil {
		return nil, err
	}
	out := []db.QueueJob{}
	for _, j := range q.st.queueJobs {
		if j.UserID == arg.UserID && j.QueueType == arg.QueueType && j.Status == "active" {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (q *memQueries) ListTrainingTransactions(ctx context.Context, arg db.ListTrainingTransactionsParams) ([]db.Transaction, error) {
	if err := q.m.injected("ListTrainingTransactions"); err != nil {
		return nil, err
	}
	out := []db.Transaction{}
	for i := len(q.st.transactions) - 1; i >= 0; i-- {
		t := q.st.transactions[i]
		if trainable(t) && t.CreatedAt.After(arg.After) && t.Features.Valid {
			out = append(out, t)
		}
		if int32(len(out)) >= arg.Limit {
			break
		}
	}
	return out, nil
}

func (q *memQueries) TransitionTopUpStatus(ctx context.Context, arg db.TransitionTopUpStatusParams) (db.Topup, error) {
	if err := q.m.injected("TransitionTopUpStatus"); err != nil {
		return db.Topup{}, err
	}
	for i, t := range q.st.topups {
		if t.ReferenceID == arg.ReferenceID && t.Status == arg.FromStatus {
			t.Status = arg.ToStatus
			t.UpdatedAt = q.m.Now()
			q.st.topups[i] = t
			return t, nil
		}
	}
	return db.Topup{}, sql.ErrNoRows
}

func (q *memQueries) TransitionTransactionStatus(ctx context.Context, arg db.TransitionTransactionStatusParams) (db.Transaction, error) {
	if err := q.m.injected("TransitionTransactionStatus"); err != nil {
		return db.Transaction{}, err
	}
	for i, t := range q.st.transactions {
		if t.TransactionID == arg.TransactionID && t.Status == arg.FromStatus {
			t.Status = arg.ToStatus
			t.UpdatedAt = q.m.Now()
			q.st.transactions[i] = t
			return t, nil
		}
	}
	return db.Transaction{}, sql.ErrNoRows
}

func (q *memQueries) UpdateAccountBalances(ctx context.Context, arg db.UpdateAccountBalancesParams) (db.Account, error) {
	if err := q.m.injected("UpdateAccountBalances"); err != nil {
		return db.Account{}, err
	}
	a, ok := q.st.accounts[arg.ID]
	if !ok || a.Version != arg.Version {
		return db.Account{}, sql.ErrNoRows
	}
	if arg.Balance.IsNegative() {
		return db.Account{}, &pq.Error{Code: db.CheckViolation, Constraint: "accounts_balance_check"}
	}
	a.Balance = arg.Balance
	a.PendingBalance = arg.PendingBalance
	a.Version++
	a.UpdatedAt = q.m.Now()
	q.st.accounts[arg.ID] = a
	return a, nil
}

func (q *memQueries) UpdateAccountStatus(ctx context.Context, arg db.UpdateAccountStatusParams) (db.Account, error) {
	if err := q.m.injected("UpdateAccountStatus"); err != nil {
		return db.Account{}, err
	}
	a, ok := q.st.accounts[arg.ID]
	if !ok {
		return db.Account{}, sql.ErrNoRows
	}
	a.Status = arg.Status
	a.Version++
	a.UpdatedAt = q.m.Now()
	q.st.accounts[arg.ID] = a
	return a, nil
}

func (q *memQueries) UpdateQueueJobSchedule(ctx context.Context, arg db.UpdateQueueJobScheduleParams) (db.QueueJob, error) {
	if err := q.m.injected("UpdateQueueJobSchedule"); err != nil {
		return db.QueueJob{}, err
	}
	j, ok := q.st.queueJobs[arg.RepeatJobKey]
	if !ok {
		return db.QueueJob{}, sql.ErrNoRows
	}
	j.JobName = arg.JobName
	j.JobTime = arg.JobTime
	j.Amount = arg.Amount
	j.Data = arg.Data
	j.Signature = arg.Signature
	j.Status = "active"
	j.UpdatedAt = q.m.Now()
	q.st.queueJobs[arg.RepeatJobKey] = j
	return j, nil
}

func (q *memQueries) UpdateQueueJobStatus(ctx context.Context, arg db.UpdateQueueJobStatusParams) (db.QueueJob, error) {
	if err := q.m.injected("UpdateQueueJobStatus"); err != nil {
		return db.QueueJob{}, err
	}
	j, ok := q.st.queueJobs[arg.RepeatJobKey]
	if !ok {
		return db.QueueJob{}, sql.ErrNoRows
	}
	j.Status = arg.Status
	if arg.IncrementRuns {
		j.RepeatedCount++
	}
	j.UpdatedAt = q.m.Now()
	q.st.queueJobs[arg.RepeatJobKey] = j
	return j, nil
}

func (q *memQueries) UpdateTransactionFraud(ctx context.Context, arg db.UpdateTransactionFraudParams) (db.Transaction, error) {
	if err := q.m.injected("UpdateTransactionFraud"); err != nil {
		return db.Transaction{}, err
	}
	for i, t := range q.st.transactions {
		if t.TransactionID == arg.TransactionID {
			t.Status = arg.Status
			t.FraudScore = arg.FraudScore
			t.Features = arg.Features
			t.UpdatedAt = q.m.Now()
			q.st.transactions[i] = t
			return t, nil
		}
	}
	return db.Transaction{}, sql.ErrNoRows
}

func (q *memQueries) UpdateTransactionLocation(ctx context.Context, arg db.UpdateTransactionLocationParams) error {
	if err := q.m.injected("UpdateTransactionLocation"); err != nil {
		return err
	}
	for i, t := range q.st.transactions {
		if t.TransactionID == arg.TransactionID {
			t.Location = arg.Location
			t.UpdatedAt = q.m.Now()
			q.st.transactions[i] = t
		}
	}
	return nil
}

func (q *memQueries) UpsertTopUpPhone(ctx context.Context, arg db.UpsertTopUpPhoneParams) (db.TopupsPhone, error) {
	if err := q.m.injected("UpsertTopUpPhone"); err != nil {
		return db.TopupsPhone{}, err
	}
	for i, p := range q.st.phones {
		if p.Phone == arg.Phone && p.UserID == arg.UserID {
			p.CompanyID = arg.CompanyID
			p.FullName = arg.FullName
			p.LastUpdated = q.m.Now()
			q.st.phones[i] = p
			return p, nil
		}
	}
	p := db.TopupsPhone{
		ID:          q.st.nextID(),
		UserID:      arg.UserID,
		CompanyID:   arg.CompanyID,
		FullName:    arg.FullName,
		Phone:       arg.Phone,
		LastUpdated: q.m.Now(),
	}
	q.st.phones = append(q.st.phones, p)
	return p, nil
}
