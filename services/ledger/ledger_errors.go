package ledger

import "github.com/SwiftFiat/SwiftFiat-Queue/models"

var (
	ErrInvalidEntry   = models.Validation("ledger entry needs a transaction and a positive amount")
	ErrSameAccount    = models.Validation("ledger pair needs two distinct accounts")
	ErrNoEntriesFound = models.NotFound("no ledger entries for transaction")
)
