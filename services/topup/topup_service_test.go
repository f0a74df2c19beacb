package topup_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/internal/testutil"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/account"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/ledger"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/redis"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/topup"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
)

type fixture struct {
	svc     *topup.TopUpService
	store   *testutil.MemStore
	queue   *queue.QueueService
	redis   *miniredis.Miniredis
	now     time.Time
	sender  db.Account
	house   db.Account
	company db.TopupsCompany
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, rdb := testutil.Redis(t)
	logger, _ := testutil.Logger(t)
	now := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := testutil.NewMemStore()
	store.Now = clock
	registry := queue.NewRegistry()
	qs := queue.NewQueueService(rdb, store, testutil.Protocol(t), registry, nil, logger, queue.Options{Clock: clock})
	tokens, err := utils.NewTokenGenerator("topup-tests")
	if err != nil {
		t.Fatalf("NewTokenGenerator() error = %v", err)
	}

	svc := topup.NewTopUpService(topup.Deps{
		Store:        store,
		Queue:        qs,
		Accounts:     account.NewAccountService(logger),
		Ledger:       ledger.NewLedgerService(store, logger),
		Cache:        redis.Wrap(rdb),
		Tokens:       tokens,
		Logger:       logger,
		HouseAccount: "$binomia",
	})
	if err := svc.Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	return &fixture{
		svc:   svc,
		store: store,
		queue: qs,
		redis: mr,
		now:   now,
		sender: store.AddAccount(db.Account{
			UserID: 5, Username: "$ana", FullName: "Ana Gomez",
			Balance: decimal.NewFromInt(500), PendingBalance: decimal.NewFromInt(500),
			AllowSend: true, AllowReceive: true,
		}),
		house: store.AddAccount(db.Account{
			UserID: 1, Username: "$binomia", FullName: "Binomia",
			AllowReceive: true,
		}),
		company: store.AddCompany(db.TopupsCompany{Name: "Claro", Logo: "https://cdn.example.com/claro.png", Status: "active"}),
	}
}

func (f *fixture) request(ref, amount string) topup.Request {
	amt, _ := decimal.NewFromString(amount)
	return topup.Request{
		ReferenceID:    ref,
		UserID:         f.sender.UserID,
		SenderUsername: f.sender.Username,
		FullName:       "Mama",
		PhoneNumber:    "8095551234",
		CompanyID:      f.company.ID,
		Amount:         amt,
	}
}

func TestCreateTopUp_GivenFunds_ThenSenderChargedAndSettlementScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.redis.Set(redis.QueuedTopUpsKey(f.sender.UserID), `[{"referenceId":"ref-1"},{"referenceId":"ref-2"}]`)

	out, err := f.svc.CreateTopUp(ctx, f.request("ref-1", "150"))
	if err != nil {
		t.Fatalf("CreateTopUp() error = %v", err)
	}
	if out.TopUp.Status != topup.StatusPending || out.Replayed {
		t.Fatalf("outcome = %+v", out)
	}
	if got := f.store.Account(f.sender.ID).Balance; !got.Equal(decimal.NewFromInt(350)) {
		t.Errorf("sender balance = %s, want 350", got)
	}
	if got := f.store.Account(f.house.ID).PendingBalance; !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("house pending = %s, want 150", got)
	}
	if n := len(f.store.Ledger()); n != 2 {
		t.Errorf("ledger entries = %d, want 2", n)
	}
	if phones := f.store.Phones(); len(phones) != 1 || phones[0].Phone != "8095551234" {
		t.Errorf("phones = %+v", phones)
	}

	if out.Settlement == nil || !out.Settlement.RunAt.Equal(f.now.Add(30*time.Minute)) {
		t.Errorf("settlement = %+v, want 30 minutes out", out.Settlement)
	}
	cached, _ := f.redis.Get(redis.QueuedTopUpsKey(f.sender.UserID))
	if cached != `[{"referenceId":"ref-2"}]` {
		t.Errorf("queued cache = %s", cached)
	}
}

func TestCreateTopUp_GivenSameReferenceTwice_ThenChargedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := f.svc.CreateTopUp(ctx, f.request("ref-dup", "100")); err != nil {
			t.Fatalf("run %d: CreateTopUp() error = %v", i+1, err)
		}
	}
	if got := f.store.Account(f.sender.ID).Balance; !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("sender balance = %s, want 400", got)
	}
	if n := len(f.store.TopUps()); n != 1 {
		t.Errorf("top-ups = %d, want 1", n)
	}
}

func TestCreateTopUp_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture, r *topup.Request)
		wantErr error
	}{
		{name: "insufficient funds", mutate: func(f *fixture, r *topup.Request) { r.Amount = decimal.NewFromInt(900) }, wantErr: account.ErrInsufficientFunds},
		{name: "unknown company", mutate: func(f *fixture, r *topup.Request) { r.CompanyID = 999 }, wantErr: topup.ErrCompanyNotFound},
		{name: "someone else's account", mutate: func(f *fixture, r *topup.Request) { r.UserID = 77 }, wantErr: topup.ErrAccountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request("ref-x", "100")
			tt.mutate(f, &req)
			if _, err := f.svc.CreateTopUp(context.Background(), req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if n := len(f.store.TopUps()); n != 0 {
				t.Errorf("top-ups = %d, want 0", n)
			}
			if got := f.store.Account(f.sender.ID).Balance; !got.Equal(decimal.NewFromInt(500)) {
				t.Errorf("sender balance = %s, want untouched", got)
			}
		})
	}
}

func TestPendingTopUp_GivenPending_ThenCompletedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateTopUp(ctx, f.request("ref-p", "50")); err != nil {
		t.Fatalf("CreateTopUp() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		status, err := f.svc.PendingTopUp(ctx, "ref-p")
		if err != nil || status != topup.StatusCompleted {
			t.Fatalf("run %d: PendingTopUp() = %q, %v", i+1, status, err)
		}
	}
	if _, err := f.svc.PendingTopUp(ctx, "missing"); !errors.Is(err, topup.ErrTopUpNotFound) {
		t.Errorf("missing reference error = %v", err)
	}
}

func TestProcessTopUp_GivenOccurrence_ThenFreshPendingTopUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request("ref-monthly", "100")
	req.Recurrence = topup.Recurrence{Title: "monthly", Time: "everyFifteenth"}

	out, err := f.svc.CreateTopUp(ctx, req)
	if err != nil {
		t.Fatalf("CreateTopUp() error = %v", err)
	}
	if out.Recurrence == nil || !strings.HasPrefix(out.Recurrence.RepeatJobKey, "monthly@everyFifteenth@") {
		t.Fatalf("recurrence = %+v", out.Recurrence)
	}
	records := f.store.QueueJobs()
	if len(records) != 1 || records[0].QueueType != "topUp" || !strings.Contains(string(records[0].ReferenceData.RawMessage), "claro.png") {
		t.Fatalf("queue records = %+v", records)
	}

	key := out.Recurrence.RepeatJobKey
	for i := 0; i < 2; i++ {
		run, err := f.svc.ProcessTopUp(ctx, key, "repeat:"+key+":1710478860000")
		if err != nil {
			t.Fatalf("run %d: ProcessTopUp() error = %v", i+1, err)
		}
		if run.TopUp.Status != topup.StatusPending || run.Recurrence != nil {
			t.Errorf("run %d: outcome = %+v", i+1, run)
		}
	}
	if n := len(f.store.TopUps()); n != 2 {
		t.Errorf("top-ups = %d, want 2", n)
	}
	if got := f.store.Account(f.sender.ID).Balance; !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("sender balance = %s, want 300", got)
	}
	if got := f.store.QueueJobs()[0].RepeatedCount; got != 1 {
		t.Errorf("repeatedCount = %d, want 1", got)
	}
}

func TestCreateTopUp_GivenWeeklyRecurrence_ThenSettlementAndScheduleQueued(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request("ref-weekly", "50")
	req.Recurrence = topup.Recurrence{Title: "weekly", Time: "everyMonday"}

	out, err := f.svc.CreateTopUp(ctx, req)
	if err != nil {
		t.Fatalf("CreateTopUp() error = %v", err)
	}
	if out.Settlement == nil || !strings.HasPrefix(out.Settlement.JobID, "pendingTopUp@") {
		t.Fatalf("settlement = %+v", out.Settlement)
	}
	job, err := f.queue.Job(ctx, queue.TopUps, out.Settlement.JobID)
	if err != nil {
		t.Fatalf("Job() error = %v", err)
	}
	if !job.RunAt.Equal(f.now.Add(30 * time.Minute)) {
		t.Errorf("settlement runs at %v, want 30 minutes out", job.RunAt)
	}
	if out.Recurrence == nil || !strings.HasPrefix(out.Recurrence.RepeatJobKey, "weekly@") || !strings.Contains(out.Recurrence.RepeatJobKey, "everyMonday") {
		t.Fatalf("recurrence = %+v", out.Recurrence)
	}

	stats, err := f.queue.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	// the settlement plus the first weekly occurrence
	if st := stats[queue.TopUps]; st.Delayed != 2 || st.Schedulers != 1 {
		t.Errorf("topups queue = %+v", st)
	}
	records := f.store.QueueJobs()
	if len(records) != 1 || records[0].JobName != "weekly" || records[0].JobTime != "everyMonday" {
		t.Errorf("queue records = %+v", records)
	}
}

func TestProcessTopUp_GivenCrashBeforeRunCounted_ThenRedeliveryCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request("ref-monthly", "100")
	req.Recurrence = topup.Recurrence{Title: "monthly", Time: "everyFifteenth"}
	out, err := f.svc.CreateTopUp(ctx, req)
	if err != nil {
		t.Fatalf("CreateTopUp() error = %v", err)
	}
	key := out.Recurrence.RepeatJobKey
	occurrence := "repeat:" + key + ":1710478860000"

	f.store.FailOn("IncrementQueueJobRepeatedCount", errors.New("connection reset"))
	if _, err := f.svc.ProcessTopUp(ctx, key, occurrence); err == nil {
		t.Fatal("ProcessTopUp() error = nil, want the count failure")
	}
	f.store.ClearFailures()

	run, err := f.svc.ProcessTopUp(ctx, key, occurrence)
	if err != nil {
		t.Fatalf("redelivered ProcessTopUp() error = %v", err)
	}
	if !run.Replayed {
		t.Error("redelivery charged again")
	}
	if got := f.store.Account(f.sender.ID).Balance; !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("sender balance = %s, want 300", got)
	}
	if got := f.store.QueueJobs()[0].RepeatedCount; got != 1 {
		t.Errorf("repeatedCount = %d, want 1", got)
	}
}

func TestProcessTopUp_GivenStoppedRecord_ThenNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ProcessTopUp(context.Background(), "weekly@everyMonday@gone", "repeat:gone:1")
	if models.KindOf(err) != models.KindNotFound {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestQueueTopUp_GivenDispatched_ThenCharged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.QueueTopUp(ctx, f.request("ref-q", "20")); err != nil {
		t.Fatalf("QueueTopUp() error = %v", err)
	}
	if ok, err := f.queue.Dispatch(ctx, queue.TopUps); err != nil || !ok {
		t.Fatalf("Dispatch() = %v, %v", ok, err)
	}
	if got := f.store.Account(f.sender.ID).Balance; !got.Equal(decimal.NewFromInt(480)) {
		t.Errorf("sender balance = %s, want 480", got)
	}
}
