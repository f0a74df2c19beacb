package notification

import "encoding/json"

const (
	MethodSocketEvent = "socketEventEmitter"
	MethodPush        = "newTransactionNotification"
)

// Socket channels the mobile app subscribes to.
const (
	ChannelTransactionCreated             = "TRANSACTION_CREATED"
	ChannelTransactionCreatedFromQueue    = "TRANSACTION_CREATED_FROM_QUEUE"
	ChannelNotificationTransactionCreated = "NOTIFICATION_TRANSACTION_CREATED"
	ChannelNotificationQueueTransaction   = "NOTIFICATION_QUEUE_TRANSACTION_CREATED"
	ChannelNotificationRequestPaid        = "NOTIFICATION_TRANSACTION_REQUEST_PAIED"
	ChannelNotificationRequestCanceled    = "NOTIFICATION_TRANSACTION_REQUEST_CANCELED"
	ChannelNotificationBankingTransaction = "NOTIFICATION_BANKING_TRANSACTION_CREATED"
)

type SocketEvent struct {
	Data                json.RawMessage `json:"data" validate:"required"`
	Channel             string          `json:"channel" validate:"required"`
	SenderSocketRoom    string          `json:"senderSocketRoom" validate:"required"`
	RecipientSocketRoom string          `json:"recipientSocketRoom" validate:"required"`
}

type PushMessage struct {
	Token   string `json:"token" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type PushBatch struct {
	Data []PushMessage `json:"data" validate:"required,min=1,dive"`
}
