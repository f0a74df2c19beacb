package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
)

type QueueName string

const (
	Transactions  QueueName = "transactions"
	TopUps        QueueName = "topups"
	Notifications QueueName = "notifications"
)

// RecordType is the queue_type stored on QueueJob rows.
func (q QueueName) RecordType() string {
	switch q {
	case Transactions:
		return "transaction"
	case TopUps:
		return "topUp"
	default:
		return string(q)
	}
}

// Kind tags a job payload and selects its handler.
type Kind string

const (
	KindQueueTransaction           Kind = "queueTransaction"
	KindQueueRequestTransaction    Kind = "queueRequestTransaction"
	KindPendingTransaction         Kind = "pendingTransaction"
	KindPayRequestTransaction      Kind = "payRequestTransaction"
	KindCancelRequestedTransaction Kind = "cancelRequestedTransaction"
	KindCreateBankingTransaction   Kind = "createBankingTransaction"
	KindTrainFraudModel            Kind = "trainTransactionFraudDetectionModel"
	KindRecurringTransaction       Kind = "processQueuedTransaction"

	KindQueueTopUp     Kind = "queueTopUp"
	KindPendingTopUp   Kind = "pendingTopUp"
	KindRecurringTopUp Kind = "processTopUp"

	KindSocketEvent      Kind = "socketEvent"
	KindPushNotification Kind = "pushNotification"
)

const CurrentVersion = 1

// Envelope is the tagged union every job carries, encrypted at rest.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Version int             `json:"version"`
	Body    json.RawMessage `json:"body"`
}

func NewEnvelope(kind Kind, body interface{}) (Envelope, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s body: %w", kind, err)
	}
	return Envelope{Kind: kind, Version: CurrentVersion, Body: b}, nil
}

// Decode unmarshals the body into v and runs struct validation on it.
func (e Envelope) Decode(v interface{}) error {
	if e.Version > CurrentVersion {
		return models.Validation(fmt.Sprintf("%s payload version %d is not supported", e.Kind, e.Version))
	}
	if err := json.Unmarshal(e.Body, v); err != nil {
		return models.Validation(fmt.Sprintf("%s payload is malformed: %v", e.Kind, err))
	}
	if err := utils.ValidateStruct(v); err != nil {
		return models.Validation(fmt.Sprintf("%s payload is invalid: %v", e.Kind, err))
	}
	return nil
}

// Job is the unit stored in Redis. Data is the encrypted Envelope.
type Job struct {
	ID           string    `json:"id"`
	Queue        QueueName `json:"queue"`
	Name         string    `json:"name"`
	Data         string    `json:"data"`
	RepeatJobKey string    `json:"repeatJobKey,omitempty"`
	Attempts     int       `json:"attempts"`
	MaxAttempts  int       `json:"maxAttempts"`
	RunAt        time.Time `json:"runAt"`
	CreatedAt    time.Time `json:"createdAt"`
	LastError    string    `json:"lastError,omitempty"`
}

// Delivery is what a handler sees: the job plus its decrypted payload.
type Delivery struct {
	Job      Job
	Envelope Envelope
}

type Handler func(ctx context.Context, d *Delivery) error

// Schedule is exactly one of a cron pattern, a fixed-delay repeat or a
// one-shot delay.
type Schedule struct {
	Pattern string
	Every   time.Duration
	Delay   time.Duration
}

func (s Schedule) Recurring() bool {
	return s.Pattern != "" || s.Every > 0
}

func (s Schedule) validate() error {
	set := 0
	if s.Pattern != "" {
		set++
	}
	if s.Every > 0 {
		set++
	}
	if s.Delay > 0 {
		set++
	}
	if set > 1 {
		return models.Validation("schedule must be one of pattern, every or delay")
	}
	if s.Every < 0 || s.Delay < 0 {
		return models.Validation("schedule durations must not be negative")
	}
	return nil
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]Handler)}
}

func (r *Registry) Register(kind Kind, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("handler for %s already registered", kind)
	}
	r.handlers[kind] = h
	return nil
}

func (r *Registry) Lookup(kind Kind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
