package transaction

import "github.com/SwiftFiat/SwiftFiat-Queue/models"

var (
	ErrTransactionNotFound = models.NotFound("transaction not found")
	ErrUnsupportedCurrency = models.Validation("only DOP transactions are supported")
	ErrInvalidStatus       = models.Validation("transaction status does not allow this step")
	ErrAccountMismatch     = models.Validation("account does not belong to user")
	ErrNotRecurring        = models.Validation("job is not a recurring transaction occurrence")
	ErrReplayMismatch      = models.Validation("transaction id already used for a different transaction")
)
