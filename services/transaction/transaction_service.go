package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/anomaly"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/geocoding"
	provider "github.com/SwiftFiat/SwiftFiat-Queue/providers/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/account"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/fraud"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/ledger"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/security"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sqlc-dev/pqtype"
)

const DefaultSettlementDelay = 30 * time.Minute

// Geocoder resolves coordinates into a readable area.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*geocoding.Location, error)
}

type Deps struct {
	Store           db.TxStore
	Queue           *queue.QueueService
	Protocol        *security.Protocol
	Accounts        *account.AccountService
	Ledger          *ledger.LedgerService
	Fraud           *fraud.FraudService
	Notifier        *notification.NotificationService
	Geocoder        Geocoder
	Tokens          *utils.TokenGenerator
	Logger          *logging.Logger
	SettlementDelay time.Duration
	Clock           func() time.Time
}

type TransactionService struct {
	store    db.TxStore
	queue    *queue.QueueService
	protocol *security.Protocol
	accounts *account.AccountService
	ledger   *ledger.LedgerService
	fraud    *fraud.FraudService
	notifier *notification.NotificationService
	geocoder Geocoder
	tokens   *utils.TokenGenerator
	logger   *logging.Logger
	delay    time.Duration
	now      func() time.Time
}

func NewTransactionService(d Deps) *TransactionService {
	if d.SettlementDelay <= 0 {
		d.SettlementDelay = DefaultSettlementDelay
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &TransactionService{
		store:    d.Store,
		queue:    d.Queue,
		protocol: d.Protocol,
		accounts: d.Accounts,
		ledger:   d.Ledger,
		fraud:    d.Fraud,
		notifier: d.Notifier,
		geocoder: d.Geocoder,
		tokens:   d.Tokens,
		logger:   d.Logger,
		delay:    d.SettlementDelay,
		now:      d.Clock,
	}
}

func validate(v interface{}) error {
	if err := utils.ValidateStruct(v); err != nil {
		return models.Validation(err.Error())
	}
	return nil
}

func checkCurrency(c string) error {
	if !strings.EqualFold(c, utils.CurrencyDOP) {
		return ErrUnsupportedCurrency
	}
	return nil
}

func (s *TransactionService) getTransaction(ctx context.Context, q db.Querier, txID string) (db.Transaction, error) {
	tx, err := q.GetTransactionByTransactionID(ctx, txID)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Transaction{}, ErrTransactionNotFound
	}
	return tx, err
}

func locationJSON(loc geocoding.Location) (pqtype.NullRawMessage, error) {
	raw, err := json.Marshal(loc)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

func (s *TransactionService) log(txID string) *logrus.Entry {
	return s.logger.WithField("transaction_id", txID)
}

// CreateTransaction moves money between two accounts at once. It skips the
// fraud check and settles both balances in the same store transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, req DirectTransfer) (*db.Transaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkCurrency(req.Currency); err != nil {
		return nil, err
	}
	sender, err := s.accounts.GetByUsername(ctx, s.store, req.Sender)
	if err != nil {
		return nil, err
	}
	receiver, err := s.accounts.GetByUsername(ctx, s.store, req.Receiver)
	if err != nil {
		return nil, err
	}

	amount, err := account.Amount(req.Amount)
	if err != nil {
		return nil, err
	}
	txID := s.tokens.New()
	sig, err := s.protocol.SignRSA(s.protocol.TransferMessage(receiver.Username, sender.Username, amount))
	if err != nil {
		return nil, err
	}
	loc, err := locationJSON(req.Location)
	if err != nil {
		return nil, err
	}

	var created db.Transaction
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		created, err = q.CreateTransaction(ctx, db.CreateTransactionParams{
			TransactionID:    txID,
			FromAccount:      sender.ID,
			ToAccount:        receiver.ID,
			SenderFullName:   sender.FullName,
			ReceiverFullName: receiver.FullName,
			Amount:           amount,
			DeliveredAmount:  amount,
			TransactionType:  req.TransactionType,
			Currency:         utils.CurrencyDOP,
			Status:           StatusCompleted,
			Location:         loc,
			Signature:        sig,
			PreviousBalance:  sender.Balance,
		})
		if err != nil {
			return err
		}
		if _, err := s.accounts.LockAccounts(ctx, q, sender.ID, receiver.ID); err != nil {
			return err
		}
		sm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: sender.ID, Action: account.ActionSend, Amount: amount, Fields: account.FieldBoth})
		if err != nil {
			return err
		}
		rm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: receiver.ID, Action: account.ActionReceive, Amount: amount, Fields: account.FieldBoth})
		if err != nil {
			return err
		}
		_, _, err = s.ledger.WritePair(ctx, q, ledger.Pair{
			TransactionID: txID,
			Amount:        amount,
			Currency:      utils.CurrencyDOP,
			Status:        ledger.StatusCompleted,
			Sender:        ledger.Side{AccountID: sender.ID, Before: sm.BalanceBefore, After: sm.BalanceAfter},
			Receiver:      ledger.Side{AccountID: receiver.ID, Before: rm.BalanceBefore, After: rm.BalanceAfter},
			Latitude:      req.Location.Latitude,
			Longitude:     req.Location.Longitude,
		})
		return err
	})
	if err != nil {
		return nil, models.Wrap("createTransaction", err)
	}
	s.log(txID).WithField("amount", amount.String()).Info("direct transfer completed")

	for _, channel := range []string{provider.ChannelTransactionCreated, provider.ChannelTransactionCreatedFromQueue} {
		s.emit(ctx, txID, channel, sender.Username, receiver.Username, created)
	}
	return &created, nil
}

// emit queues a socket event. The money already moved, so a failure is only
// logged.
func (s *TransactionService) emit(ctx context.Context, seed, channel, from, to string, data interface{}) {
	ev, err := notification.Event(channel, from, to, data)
	if err == nil {
		err = s.notifier.EmitSocket(ctx, seed, ev)
	}
	if err != nil {
		s.log(seed).WithError(err).WithField("channel", channel).Error("could not queue socket event")
	}
}

func (s *TransactionService) push(ctx context.Context, seed string, userID int64, message string) {
	if err := s.notifier.PushToUser(ctx, seed, userID, message); err != nil {
		s.log(seed).WithError(err).WithField("user_id", userID).Error("could not queue push notification")
	}
}

// CreateQueuedTransaction runs the fraud checked transfer. A suspicious
// transfer is recorded and the sender flagged without moving any money.
// Running it again for a stored transaction id only repeats the steps that
// follow the commit.
func (s *TransactionService) CreateQueuedTransaction(ctx context.Context, req QueuedTransfer) (*Outcome, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	d := req.Transaction
	txID := d.TransactionID
	log := s.log(txID)

	sender, err := s.accounts.GetByUsername(ctx, s.store, req.Sender.Username)
	if err != nil {
		return nil, err
	}
	receiver, err := s.accounts.GetByUsername(ctx, s.store, req.ReceiverUsername)
	if err != nil {
		return nil, err
	}

	if err := s.protocol.VerifyECC(s.protocol.TransferMessage(receiver.Username, sender.Username, d.Amount), d.Signature); err != nil {
		return nil, models.Wrap("queueTransaction", err)
	}
	amount, err := account.Amount(d.Amount)
	if err != nil {
		return nil, err
	}

	existing, err := s.getTransaction(ctx, s.store, txID)
	switch {
	case err == nil:
		if !recordedAs(existing, TypeTransfer, sender.ID, receiver.ID, amount) {
			return nil, models.Wrap(txID, ErrReplayMismatch)
		}
		log.WithField("status", existing.Status).Info("transfer already recorded, replaying follow-ups")
		if existing.Status == StatusSuspicious {
			s.emit(ctx, txID, provider.ChannelNotificationTransactionCreated, sender.Username, sender.Username, existing)
			return &Outcome{Transaction: existing, Suspicious: true, Replayed: true}, nil
		}
		out, err := s.afterQueued(ctx, req, sender, receiver, existing)
		if out != nil {
			out.Replayed = true
		}
		return out, err
	case !errors.Is(err, ErrTransactionNotFound):
		return nil, err
	}

	if err := checkCurrency(d.Currency); err != nil {
		return nil, err
	}
	if d.Recurrence.Scheduled() {
		if _, err := queue.ResolveCadence(d.Recurrence.Title, d.Recurrence.Time); err != nil {
			return nil, err
		}
	}

	if err := account.Allows(sender, account.ActionSend); err != nil {
		return nil, err
	}
	if err := account.Allows(receiver, account.ActionReceive); err != nil {
		return nil, err
	}
	if account.Round(sender.Balance).LessThan(amount) {
		return nil, account.ErrInsufficientFunds
	}

	features, verdict, err := s.fraud.Evaluate(ctx, sender.ID, fraud.Input{
		Location:        fraud.Point{Latitude: d.Location.Latitude, Longitude: d.Location.Longitude},
		Amount:          amount,
		Currency:        d.Currency,
		TransactionType: d.TransactionType,
		Platform:        req.Device.Platform,
		IsRecurring:     d.IsRecurring,
		At:              s.now(),
	})
	if err != nil {
		return nil, err
	}
	if verdict.WantsRetrain() {
		s.scheduleRetrain(ctx, txID, verdict.LastTransactionFeatures)
	}

	storedFeatures, err := featureJSON(features, verdict)
	if err != nil {
		return nil, err
	}
	loc, err := locationJSON(d.Location)
	if err != nil {
		return nil, err
	}
	params := db.CreateTransactionParams{
		TransactionID:    txID,
		FromAccount:      sender.ID,
		ToAccount:        receiver.ID,
		SenderFullName:   sender.FullName,
		ReceiverFullName: receiver.FullName,
		Amount:           amount,
		DeliveredAmount:  amount,
		TransactionType:  TypeTransfer,
		Currency:         utils.CurrencyDOP,
		Status:           StatusPending,
		Location:         loc,
		Signature:        d.Signature,
		DeviceID:         req.Device.DeviceID,
		IpAddress:        req.Device.IPAddress,
		SessionID:        req.Device.SessionID,
		Platform:         req.Device.Platform,
		IsRecurring:      d.IsRecurring,
		PreviousBalance:  sender.Balance,
		Speed:            features.Speed,
		Distance:         features.Distance,
	}

	if verdict.IsFraud {
		return s.recordSuspicious(ctx, params, sender, verdict.FraudScore, storedFeatures)
	}

	if err := account.Check(sender, account.Delta{AccountID: sender.ID, Action: account.ActionSend, Amount: amount, Fields: account.FieldBoth}); err != nil {
		return nil, err
	}
	if err := account.Check(receiver, account.Delta{AccountID: receiver.ID, Action: account.ActionReceive, Amount: amount, Fields: account.FieldBoth}); err != nil {
		return nil, err
	}

	var created db.Transaction
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		if _, err := q.CreateTransaction(ctx, params); err != nil {
			return err
		}
		created, err = q.UpdateTransactionFraud(ctx, db.UpdateTransactionFraudParams{
			TransactionID: txID,
			Status:        StatusPending,
			FraudScore:    verdict.FraudScore,
			Features:      storedFeatures,
		})
		if err != nil {
			return err
		}
		if _, err := s.accounts.LockAccounts(ctx, q, sender.ID, receiver.ID); err != nil {
			return err
		}
		sm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: sender.ID, Action: account.ActionSend, Amount: amount, Fields: account.FieldPending})
		if err != nil {
			return err
		}
		rm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: receiver.ID, Action: account.ActionReceive, Amount: amount, Fields: account.FieldBalance})
		if err != nil {
			return err
		}

		pair := ledger.Pair{
			TransactionID: txID,
			Amount:        amount,
			Currency:      utils.CurrencyDOP,
			Status:        ledger.StatusExecuted,
			Sender:        ledger.Side{AccountID: sender.ID, Before: sm.PendingBefore, After: sm.PendingAfter},
			Receiver:      ledger.Side{AccountID: receiver.ID, Before: rm.BalanceBefore, After: rm.BalanceAfter},
			Latitude:      d.Location.Latitude,
			Longitude:     d.Location.Longitude,
			Anomalies:     verdict.Features,
		}
		if _, _, err := s.ledger.WritePair(ctx, q, pair); err != nil {
			return err
		}

		// what settlement will move once the delay is over
		pair.Status = ledger.StatusPending
		pair.Sender.Before, pair.Sender.After = sm.BalanceAfter, account.Round(sm.BalanceAfter.Sub(amount))
		pair.Receiver.Before, pair.Receiver.After = rm.PendingAfter, account.Round(rm.PendingAfter.Add(amount))
		if _, _, err := s.ledger.WritePair(ctx, q, pair); err != nil {
			return err
		}

		if d.Recurrence.Scheduled() {
			pair.Status = ledger.StatusRecurring
			pair.Notes = fmt.Sprintf("%s %s", d.Recurrence.Title, d.Recurrence.Time)
			if _, _, err := s.ledger.WritePair(ctx, q, pair); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, models.Wrap("queueTransaction", err)
	}
	log.WithFields(logrus.Fields{"amount": amount.String(), "fraud_score": verdict.FraudScore}).Info("transfer reserved")

	return s.afterQueued(ctx, req, sender, receiver, created)
}

// recordedAs reports whether a stored row is the transaction a redelivered
// payload describes.
func recordedAs(tx db.Transaction, txType string, from, to int64, amount decimal.Decimal) bool {
	return tx.TransactionType == txType && tx.FromAccount == from && tx.ToAccount == to && tx.Amount.Equal(amount)
}

func featureJSON(f fraud.Features, verdict *anomaly.Detection) (pqtype.NullRawMessage, error) {
	if len(verdict.Features) > 0 {
		return pqtype.NullRawMessage{RawMessage: verdict.Features, Valid: true}, nil
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

func (s *TransactionService) recordSuspicious(ctx context.Context, params db.CreateTransactionParams, sender db.Account, score float64, features pqtype.NullRawMessage) (*Outcome, error) {
	var flagged db.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		if _, err := q.CreateTransaction(ctx, params); err != nil {
			return err
		}
		var err error
		flagged, err = q.UpdateTransactionFraud(ctx, db.UpdateTransactionFraudParams{
			TransactionID: params.TransactionID,
			Status:        StatusSuspicious,
			FraudScore:    score,
			Features:      features,
		})
		if err != nil {
			return err
		}
		_, err = s.accounts.Flag(ctx, q, sender.ID)
		return err
	})
	if err != nil {
		return nil, models.Wrap("queueTransaction", err)
	}

	s.log(params.TransactionID).WithFields(logrus.Fields{
		"account_id":  sender.ID,
		"fraud_score": score,
	}).Warn("transfer marked suspicious, sender flagged")
	s.emit(ctx, params.TransactionID, provider.ChannelNotificationTransactionCreated, sender.Username, sender.Username, flagged)
	return &Outcome{Transaction: flagged, Suspicious: true}, nil
}

func (s *TransactionService) scheduleRetrain(ctx context.Context, txID string, last json.RawMessage) {
	env, err := queue.NewEnvelope(queue.KindTrainFraudModel, TrainRequest{LastTransactionFeatures: last})
	if err == nil {
		_, err = s.queue.CreateJob(ctx, queue.CreateJobParams{
			Queue:    queue.Transactions,
			JobID:    utils.JobID(string(queue.KindTrainFraudModel), s.tokens.Derive("train|"+txID)),
			JobName:  string(queue.KindTrainFraudModel),
			Envelope: env,
		})
	}
	if err != nil {
		s.log(txID).WithError(err).Error("could not queue model retrain")
	}
}

// scheduleSettlement queues the pendingTransaction job for txID. The job id is
// derived from txID, so repeated calls leave one job.
func (s *TransactionService) scheduleSettlement(ctx context.Context, txID string) (*queue.JobHandle, error) {
	env, err := queue.NewEnvelope(queue.KindPendingTransaction, SettlementRef{TransactionID: txID})
	if err != nil {
		return nil, err
	}
	return s.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:    queue.Transactions,
		JobID:    utils.JobID(string(queue.KindPendingTransaction), s.tokens.Derive(txID)),
		JobName:  string(queue.KindPendingTransaction),
		Schedule: queue.Schedule{Delay: s.delay},
		Envelope: env,
	})
}

// scheduleRecurrence stores the transfer as the template of a cron job.
func (s *TransactionService) scheduleRecurrence(ctx context.Context, req QueuedTransfer, sender, receiver db.Account) (*queue.JobHandle, error) {
	r := req.Transaction.Recurrence
	sched, err := queue.ResolveCadence(r.Title, r.Time)
	if err != nil {
		return nil, err
	}
	env, err := queue.NewEnvelope(queue.KindRecurringTransaction, req)
	if err != nil {
		return nil, err
	}
	ref, err := s.referenceData(ctx, receiver)
	if err != nil {
		return nil, err
	}
	return s.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:         queue.Transactions,
		JobID:         utils.RecurringJobID(r.Title, r.Time, s.tokens.Derive("recurring|"+req.Transaction.TransactionID)),
		JobName:       r.Title,
		JobTime:       r.Time,
		Schedule:      sched,
		Envelope:      env,
		UserID:        sender.UserID,
		Amount:        account.Round(req.Transaction.Amount),
		ReferenceData: ref,
	})
}

type referenceData struct {
	FullName string `json:"fullName"`
	Logo     string `json:"logo,omitempty"`
}

// referenceData is what the app shows next to a recurring transfer.
func (s *TransactionService) referenceData(ctx context.Context, receiver db.Account) (json.RawMessage, error) {
	ref := referenceData{FullName: receiver.FullName}
	u, err := s.store.GetUser(ctx, receiver.UserID)
	switch {
	case err == nil:
		ref.FullName = u.FullName
		ref.Logo = u.ProfileImageUrl.String
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	return json.Marshal(ref)
}

// afterQueued runs every step that follows a committed transfer. Each step
// is keyed on the transaction id, so it is safe to run again.
func (s *TransactionService) afterQueued(ctx context.Context, req QueuedTransfer, sender, receiver db.Account, tx db.Transaction) (*Outcome, error) {
	out := &Outcome{Transaction: tx}
	if tx.Status == StatusPending {
		h, err := s.scheduleSettlement(ctx, tx.TransactionID)
		if err != nil {
			return nil, err
		}
		out.Settlement = h
	}
	if req.Transaction.Recurrence.Scheduled() {
		h, err := s.scheduleRecurrence(ctx, req, sender, receiver)
		if err != nil {
			return nil, err
		}
		out.Recurrence = h
	}

	s.emit(ctx, tx.TransactionID, provider.ChannelNotificationTransactionCreated, sender.Username, receiver.Username, tx)
	s.push(ctx, tx.TransactionID, receiver.UserID, notification.TransferMessage(sender.FullName, tx.Amount))
	return out, nil
}

var errAlreadySettled = errors.New("already settled")

// PendingTransaction settles a reserved transfer: the payer's balance and the
// payee's pending balance catch up with the reservation. A settled transfer is
// left alone.
func (s *TransactionService) PendingTransaction(ctx context.Context, txID string) (string, error) {
	tx, err := s.getTransaction(ctx, s.store, txID)
	if err != nil {
		return "", err
	}
	log := s.log(txID)
	switch tx.Status {
	case StatusCompleted:
		log.Debug("transfer already settled")
		return StatusCompleted, nil
	case StatusPending:
	default:
		return "", models.Wrap(tx.Status, ErrInvalidStatus)
	}

	var resolved pqtype.NullRawMessage
	point, hasPoint := fraud.PointFrom(tx.Location.RawMessage)
	if hasPoint && s.geocoder != nil {
		loc, err := s.geocoder.Reverse(ctx, point.Latitude, point.Longitude)
		if err != nil {
			log.WithError(err).Warn("reverse geocoding failed, keeping stored coordinates")
		} else if resolved, err = locationJSON(*loc); err != nil {
			return "", err
		}
	}

	payer, payee := tx.FromAccount, tx.ToAccount
	if tx.TransactionType == TypeRequest {
		payer, payee = payee, payer
	}

	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		_, err := q.TransitionTransactionStatus(ctx, db.TransitionTransactionStatusParams{
			TransactionID: txID,
			FromStatus:    StatusPending,
			ToStatus:      StatusCompleted,
		})
		if errors.Is(err, sql.ErrNoRows) {
			current, err := s.getTransaction(ctx, q, txID)
			if err != nil {
				return err
			}
			if current.Status == StatusCompleted {
				return errAlreadySettled
			}
			return models.Wrap(current.Status, ErrInvalidStatus)
		}
		if err != nil {
			return err
		}

		if _, err := s.accounts.LockAccounts(ctx, q, payer, payee); err != nil {
			return err
		}
		dm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: payer, Action: account.ActionSettleDebit, Amount: tx.Amount, Fields: account.FieldBalance})
		if err != nil {
			return err
		}
		cm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: payee, Action: account.ActionSettleCredit, Amount: tx.Amount, Fields: account.FieldPending})
		if err != nil {
			return err
		}
		if _, _, err := s.ledger.WritePair(ctx, q, ledger.Pair{
			TransactionID: txID,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
			Status:        ledger.StatusCompleted,
			Sender:        ledger.Side{AccountID: payer, Before: dm.BalanceBefore, After: dm.BalanceAfter},
			Receiver:      ledger.Side{AccountID: payee, Before: cm.PendingBefore, After: cm.PendingAfter, Status: ledger.StatusExecuted},
			Latitude:      point.Latitude,
			Longitude:     point.Longitude,
		}); err != nil {
			return err
		}
		if resolved.Valid {
			return q.UpdateTransactionLocation(ctx, db.UpdateTransactionLocationParams{TransactionID: txID, Location: resolved})
		}
		return nil
	})
	if errors.Is(err, errAlreadySettled) {
		return StatusCompleted, nil
	}
	if err != nil {
		return "", models.Wrap("pendingTransaction", err)
	}
	log.WithField("amount", tx.Amount.String()).Info("transfer settled")
	return StatusCompleted, nil
}

// features for a request: no movement to measure yet.
func requestFeatures(amount decimal.Decimal, platform string) (pqtype.NullRawMessage, error) {
	f := fraud.Build(fraud.Input{Amount: amount, Currency: "dop", TransactionType: TypeRequest, Platform: platform}, nil)
	raw, err := json.Marshal([][]float64{f.Vector()})
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}
