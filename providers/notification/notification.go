package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/sirupsen/logrus"
)

// NotificationProvider delivers socket events and Expo pushes through the
// notification server.
type NotificationProvider struct {
	providers.BaseProvider
}

func NewNotificationProvider(c *utils.Config, logger *logging.Logger) *NotificationProvider {
	return &NotificationProvider{
		BaseProvider: providers.BaseProvider{
			Name:    providers.Notification,
			BaseURL: c.NotificationServerURL,
			Client: &http.Client{
				Timeout: time.Second * 10,
			},
			Logger: logger,
		},
	}
}

func (p *NotificationProvider) EmitSocketEvent(ctx context.Context, ev SocketEvent) error {
	if err := p.Call(ctx, MethodSocketEvent, ev, nil); err != nil {
		return transient(err)
	}
	p.Logger.WithFields(logrus.Fields{
		"channel":   ev.Channel,
		"sender":    ev.SenderSocketRoom,
		"recipient": ev.RecipientSocketRoom,
	}).Debug("socket event emitted")
	return nil
}

func (p *NotificationProvider) Push(ctx context.Context, batch PushBatch) error {
	if len(batch.Data) == 0 {
		return nil
	}
	if err := p.Call(ctx, MethodPush, batch, nil); err != nil {
		return transient(err)
	}
	p.Logger.WithField("tokens", len(batch.Data)).Debug("push notifications sent")
	return nil
}

func transient(err error) error {
	if models.KindOf(err) == models.KindTransient {
		return err
	}
	return models.Transient(providers.Notification, err)
}
