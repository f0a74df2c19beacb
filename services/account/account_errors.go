package account

import (
	"errors"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
)

var (
	ErrAccountNotFound    = models.NotFound("account not found")
	ErrInvalidAmount      = models.Validation("amount must be greater than zero")
	ErrInsufficientFunds  = models.Validation("insufficient funds")
	ErrLimitExceeded      = models.Validation("amount exceeds the account limit")
	ErrAccountBlocked     = models.Validation("account is blacklisted")
	ErrSendNotAllowed     = models.Validation("account is not allowed to send")
	ErrReceiveNotAllowed  = models.Validation("account is not allowed to receive")
	ErrWithdrawNotAllowed = models.Validation("account is not allowed to withdraw")
	ErrDepositNotAllowed  = models.Validation("account is not allowed to deposit")
	ErrRequestNotAllowed  = models.Validation("account does not accept payment requests")
	ErrUnknownAction      = models.Validation("unknown balance action")

	// The row moved between the locked read and the update; the job retries.
	ErrConcurrentUpdate = models.Transient("account.update", errors.New("account version changed"))
)
