package topup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/account"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/ledger"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/redis"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/sirupsen/logrus"
	"github.com/sqlc-dev/pqtype"
)

const DefaultSettlementDelay = 30 * time.Minute

type Deps struct {
	Store           db.TxStore
	Queue           *queue.QueueService
	Accounts        *account.AccountService
	Ledger          *ledger.LedgerService
	Cache           *redis.RedisService
	Tokens          *utils.TokenGenerator
	Logger          *logging.Logger
	HouseAccount    string
	SettlementDelay time.Duration
}

// TopUpService charges phone top-ups to the sender and credits the house
// account that buys the airtime.
type TopUpService struct {
	store    db.TxStore
	queue    *queue.QueueService
	accounts *account.AccountService
	ledger   *ledger.LedgerService
	cache    *redis.RedisService
	tokens   *utils.TokenGenerator
	logger   *logging.Logger
	house    string
	delay    time.Duration
}

func NewTopUpService(d Deps) *TopUpService {
	if d.SettlementDelay <= 0 {
		d.SettlementDelay = DefaultSettlementDelay
	}
	return &TopUpService{
		store:    d.Store,
		queue:    d.Queue,
		accounts: d.Accounts,
		ledger:   d.Ledger,
		cache:    d.Cache,
		tokens:   d.Tokens,
		logger:   d.Logger,
		house:    d.HouseAccount,
		delay:    d.SettlementDelay,
	}
}

func (s *TopUpService) log(ref string) *logrus.Entry {
	return s.logger.WithField("reference_id", ref)
}

func (s *TopUpService) getTopUp(ctx context.Context, q db.Querier, ref string) (db.Topup, error) {
	t, err := q.GetTopUpByReference(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Topup{}, ErrTopUpNotFound
	}
	return t, err
}

// CreateTopUp charges req to the sender and records the top-up as pending.
// A reference that was already charged only repeats the follow-up steps.
func (s *TopUpService) CreateTopUp(ctx context.Context, req Request) (*Outcome, error) {
	out, company, err := s.charge(ctx, req)
	if err != nil {
		return nil, err
	}

	if out.TopUp.Status == StatusPending {
		if out.Settlement, err = s.scheduleSettlement(ctx, req.ReferenceID); err != nil {
			return nil, err
		}
	}
	if req.Recurrence.Scheduled() {
		if out.Recurrence, err = s.scheduleRecurrence(ctx, req, company); err != nil {
			return nil, err
		}
	}
	if s.cache != nil {
		if err := s.cache.DropQueuedTopUp(ctx, req.UserID, req.ReferenceID); err != nil {
			s.log(req.ReferenceID).WithError(err).Warn("could not update queued top-ups cache")
		}
	}
	return out, nil
}

// charge moves the money for req and stores the top-up, once per reference.
func (s *TopUpService) charge(ctx context.Context, req Request) (*Outcome, db.TopupsCompany, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, db.TopupsCompany{}, models.Validation(err.Error())
	}
	if req.Recurrence.Scheduled() {
		if _, err := queue.ResolveCadence(req.Recurrence.Title, req.Recurrence.Time); err != nil {
			return nil, db.TopupsCompany{}, err
		}
	}

	company, err := s.store.GetTopUpCompany(ctx, req.CompanyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, company, ErrCompanyNotFound
	}
	if err != nil {
		return nil, company, err
	}

	existing, err := s.getTopUp(ctx, s.store, req.ReferenceID)
	if err == nil {
		s.log(req.ReferenceID).WithField("status", existing.Status).Info("top-up already charged")
		return &Outcome{TopUp: existing, Replayed: true}, company, nil
	}
	if !errors.Is(err, ErrTopUpNotFound) {
		return nil, company, err
	}

	sender, err := s.accounts.GetByUsername(ctx, s.store, req.SenderUsername)
	if err != nil {
		return nil, company, err
	}
	if sender.UserID != req.UserID {
		return nil, company, ErrAccountMismatch
	}
	house, err := s.accounts.GetByUsername(ctx, s.store, s.house)
	if err != nil {
		return nil, company, err
	}

	amount, err := account.Amount(req.Amount)
	if err != nil {
		return nil, company, err
	}
	if err := account.Check(sender, account.Delta{AccountID: sender.ID, Action: account.ActionSend, Amount: amount, Fields: account.FieldBoth}); err != nil {
		return nil, company, err
	}
	if err := account.Allows(house, account.ActionReceive); err != nil {
		return nil, company, err
	}

	loc, err := json.Marshal(req.Location)
	if err != nil {
		return nil, company, err
	}

	var created db.Topup
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		phone, err := q.UpsertTopUpPhone(ctx, db.UpsertTopUpPhoneParams{
			UserID:    req.UserID,
			CompanyID: req.CompanyID,
			FullName:  req.FullName,
			Phone:     req.PhoneNumber,
		})
		if err != nil {
			return err
		}
		created, err = q.CreateTopUp(ctx, db.CreateTopUpParams{
			ReferenceID: req.ReferenceID,
			PhoneID:     phone.ID,
			CompanyID:   req.CompanyID,
			UserID:      req.UserID,
			Amount:      amount,
			Status:      StatusPending,
			Location:    pqtype.NullRawMessage{RawMessage: loc, Valid: true},
		})
		if err != nil {
			return err
		}
		if _, err := s.accounts.LockAccounts(ctx, q, sender.ID, house.ID); err != nil {
			return err
		}
		sm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: sender.ID, Action: account.ActionSend, Amount: amount, Fields: account.FieldBoth})
		if err != nil {
			return err
		}
		hm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: house.ID, Action: account.ActionReceive, Amount: amount, Fields: account.FieldBoth})
		if err != nil {
			return err
		}
		_, _, err = s.ledger.WritePair(ctx, q, ledger.Pair{
			TransactionID: req.ReferenceID,
			Amount:        amount,
			Currency:      utils.CurrencyDOP,
			Status:        ledger.StatusExecuted,
			Sender:        ledger.Side{AccountID: sender.ID, Before: sm.BalanceBefore, After: sm.BalanceAfter},
			Receiver:      ledger.Side{AccountID: house.ID, Before: hm.BalanceBefore, After: hm.BalanceAfter},
			Latitude:      req.Location.Latitude,
			Longitude:     req.Location.Longitude,
			Notes:         "top-up " + company.Name + " " + req.PhoneNumber,
		})
		return err
	})
	if err != nil {
		return nil, company, models.Wrap("createTopUp", err)
	}

	s.log(req.ReferenceID).WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"company_id": req.CompanyID,
		"amount":     amount.String(),
	}).Info("top-up charged")
	return &Outcome{TopUp: created}, company, nil
}

func (s *TopUpService) scheduleSettlement(ctx context.Context, ref string) (*queue.JobHandle, error) {
	env, err := queue.NewEnvelope(queue.KindPendingTopUp, SettlementRef{ReferenceID: ref})
	if err != nil {
		return nil, err
	}
	return s.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:    queue.TopUps,
		JobID:    utils.JobID(string(queue.KindPendingTopUp), s.tokens.Derive(ref)),
		JobName:  string(queue.KindPendingTopUp),
		Schedule: queue.Schedule{Delay: s.delay},
		Envelope: env,
	})
}

type referenceData struct {
	FullName string `json:"fullName"`
	Logo     string `json:"logo,omitempty"`
}

func (s *TopUpService) scheduleRecurrence(ctx context.Context, req Request, company db.TopupsCompany) (*queue.JobHandle, error) {
	r := req.Recurrence
	sched, err := queue.ResolveCadence(r.Title, r.Time)
	if err != nil {
		return nil, err
	}
	env, err := queue.NewEnvelope(queue.KindRecurringTopUp, req)
	if err != nil {
		return nil, err
	}
	ref, err := json.Marshal(referenceData{FullName: req.FullName, Logo: company.Logo})
	if err != nil {
		return nil, err
	}
	return s.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:         queue.TopUps,
		JobID:         utils.RecurringJobID(r.Title, r.Time, s.tokens.Derive("recurring|"+req.ReferenceID)),
		JobName:       r.Title,
		JobTime:       r.Time,
		Schedule:      sched,
		Envelope:      env,
		UserID:        req.UserID,
		Amount:        account.Round(req.Amount),
		ReferenceData: ref,
	})
}

// PendingTopUp marks a charged top-up completed. Completed ones are left
// as they are.
func (s *TopUpService) PendingTopUp(ctx context.Context, ref string) (string, error) {
	t, err := s.getTopUp(ctx, s.store, ref)
	if err != nil {
		return "", err
	}
	switch t.Status {
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusPending:
	default:
		return "", models.Wrap(t.Status, ErrInvalidStatus)
	}

	_, err = s.store.TransitionTopUpStatus(ctx, db.TransitionTopUpStatusParams{
		ReferenceID: ref,
		FromStatus:  StatusPending,
		ToStatus:    StatusCompleted,
	})
	if errors.Is(err, sql.ErrNoRows) {
		current, err := s.getTopUp(ctx, s.store, ref)
		if err != nil {
			return "", err
		}
		if current.Status != StatusCompleted {
			return "", models.Wrap(current.Status, ErrInvalidStatus)
		}
		return StatusCompleted, nil
	}
	if err != nil {
		return "", models.Wrap("pendingTopUp", err)
	}
	s.log(ref).Info("top-up completed")
	return StatusCompleted, nil
}

// ProcessTopUp runs one occurrence of a recurring top-up. The sender is
// charged like a new top-up, without scheduling another recurrence.
func (s *TopUpService) ProcessTopUp(ctx context.Context, repeatJobKey, occurrenceID string) (*Outcome, error) {
	if repeatJobKey == "" {
		return nil, ErrNotRecurring
	}
	rec, env, err := s.queue.LoadRecurring(ctx, repeatJobKey)
	if err != nil {
		return nil, err
	}
	if env.Kind != queue.KindRecurringTopUp {
		return nil, models.Wrap(string(env.Kind), ErrNotRecurring)
	}
	var req Request
	if err := env.Decode(&req); err != nil {
		return nil, err
	}
	req.ReferenceID = s.tokens.Derive(occurrenceID)
	req.Recurrence = Recurrence{}

	out, err := s.CreateTopUp(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.queue.RecordRun(ctx, repeatJobKey, occurrenceID); err != nil {
		return nil, err
	}
	s.log(req.ReferenceID).WithFields(logrus.Fields{
		"repeat_job_key": repeatJobKey,
		"user_id":        rec.UserID,
	}).Info("recurring top-up processed")
	return out, nil
}

// QueueTopUp puts req on the top-ups queue under a job id derived from its
// reference.
func (s *TopUpService) QueueTopUp(ctx context.Context, req Request) (*queue.JobHandle, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, models.Validation(err.Error())
	}
	env, err := queue.NewEnvelope(queue.KindQueueTopUp, req)
	if err != nil {
		return nil, err
	}
	return s.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:    queue.TopUps,
		JobID:    utils.JobID(string(queue.KindQueueTopUp), s.tokens.Derive(req.ReferenceID)),
		JobName:  string(queue.KindQueueTopUp),
		Envelope: env,
	})
}

// Register installs the top-up job handlers.
func (s *TopUpService) Register(r *queue.Registry) error {
	if err := r.Register(queue.KindQueueTopUp, func(ctx context.Context, d *queue.Delivery) error {
		var req Request
		if err := d.Envelope.Decode(&req); err != nil {
			return err
		}
		_, err := s.CreateTopUp(ctx, req)
		return err
	}); err != nil {
		return err
	}
	if err := r.Register(queue.KindPendingTopUp, func(ctx context.Context, d *queue.Delivery) error {
		var ref SettlementRef
		if err := d.Envelope.Decode(&ref); err != nil {
			return err
		}
		_, err := s.PendingTopUp(ctx, ref.ReferenceID)
		return err
	}); err != nil {
		return err
	}
	return r.Register(queue.KindRecurringTopUp, func(ctx context.Context, d *queue.Delivery) error {
		_, err := s.ProcessTopUp(ctx, d.Job.RepeatJobKey, d.Job.ID)
		return err
	})
}
