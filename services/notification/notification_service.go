package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	provider "github.com/SwiftFiat/SwiftFiat-Queue/providers/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender is the notification server as seen by the queue handlers.
type Sender interface {
	EmitSocketEvent(ctx context.Context, ev provider.SocketEvent) error
	Push(ctx context.Context, batch provider.PushBatch) error
}

// NotificationService turns socket events and pushes into jobs on the
// notifications queue, so a slow notification server never holds up
// settlement.
type NotificationService struct {
	queue  *queue.QueueService
	store  db.Querier
	sender Sender
	tokens *utils.TokenGenerator
	logger *logging.Logger
	now    func() time.Time
}

func NewNotificationService(q *queue.QueueService, store db.Querier, sender Sender, tokens *utils.TokenGenerator, logger *logging.Logger) *NotificationService {
	return &NotificationService{
		queue:  q,
		store:  store,
		sender: sender,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// Event builds a socket event for channel between two socket rooms.
func Event(channel, senderRoom, recipientRoom string, data interface{}) (provider.SocketEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return provider.SocketEvent{}, fmt.Errorf("encode %s event: %w", channel, err)
	}
	return provider.SocketEvent{
		Data:                raw,
		Channel:             channel,
		SenderSocketRoom:    senderRoom,
		RecipientSocketRoom: recipientRoom,
	}, nil
}

// EmitSocket queues ev. seed should identify the caller's step (usually the
// transaction id) so a redelivered step reuses the same job id.
func (n *NotificationService) EmitSocket(ctx context.Context, seed string, ev provider.SocketEvent) error {
	env, err := queue.NewEnvelope(queue.KindSocketEvent, ev)
	if err != nil {
		return err
	}
	jobSeed := fmt.Sprintf("%s|%s|%s", seed, ev.Channel, ev.RecipientSocketRoom)
	_, err = n.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:    queue.Notifications,
		JobID:    utils.JobID(string(queue.KindSocketEvent), n.tokens.Derive(jobSeed)),
		JobName:  string(queue.KindSocketEvent),
		Envelope: env,
	})
	return err
}

// PushToUser queues message for every verified, unexpired session of userID
// that holds a valid Expo token. Users without one are skipped silently.
func (n *NotificationService) PushToUser(ctx context.Context, seed string, userID int64, message string) error {
	tokens, err := n.store.ListActiveNotificationTokens(ctx, db.ListActiveNotificationTokensParams{
		UserID: userID,
		Now:    n.now(),
	})
	if err != nil {
		return err
	}

	batch := provider.PushBatch{}
	for _, t := range tokens {
		token, err := expo.NewExponentPushToken(t)
		if err != nil {
			n.logger.WithFields(logrus.Fields{"user_id": userID}).Warn("skipping malformed push token")
			continue
		}
		batch.Data = append(batch.Data, provider.PushMessage{Token: string(token), Message: message})
	}
	if len(batch.Data) == 0 {
		n.logger.WithField("user_id", userID).Debug("no push targets")
		return nil
	}

	env, err := queue.NewEnvelope(queue.KindPushNotification, batch)
	if err != nil {
		return err
	}
	_, err = n.queue.CreateJob(ctx, queue.CreateJobParams{
		Queue:    queue.Notifications,
		JobID:    utils.JobID(string(queue.KindPushNotification), n.tokens.Derive(fmt.Sprintf("%s|%d", seed, userID))),
		JobName:  string(queue.KindPushNotification),
		Envelope: env,
	})
	return err
}

// Register installs the delivery handlers for notification jobs.
func (n *NotificationService) Register(r *queue.Registry) error {
	if err := r.Register(queue.KindSocketEvent, n.deliverSocketEvent); err != nil {
		return err
	}
	return r.Register(queue.KindPushNotification, n.deliverPush)
}

func (n *NotificationService) deliverSocketEvent(ctx context.Context, d *queue.Delivery) error {
	var ev provider.SocketEvent
	if err := d.Envelope.Decode(&ev); err != nil {
		return err
	}
	return n.sender.EmitSocketEvent(ctx, ev)
}

func (n *NotificationService) deliverPush(ctx context.Context, d *queue.Delivery) error {
	var batch provider.PushBatch
	if err := d.Envelope.Decode(&batch); err != nil {
		return err
	}
	return n.sender.Push(ctx, batch)
}

// TransferMessage is the push text a receiver gets for an incoming transfer.
func TransferMessage(senderFullName string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s te ha enviado %s pesos", utils.ShortenName(senderFullName), utils.FormatCurrency(amount))
}

// RequestMessage is the push text a payer gets for a payment request.
func RequestMessage(requesterFullName string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s te ha solicitado %s pesos", utils.ShortenName(requesterFullName), utils.FormatCurrency(amount))
}
