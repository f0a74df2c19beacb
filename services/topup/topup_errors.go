package topup

import "github.com/SwiftFiat/SwiftFiat-Queue/models"

var (
	ErrTopUpNotFound   = models.NotFound("top-up not found")
	ErrCompanyNotFound = models.NotFound("top-up company not found")
	ErrAccountMismatch = models.Validation("sender account does not belong to user")
	ErrInvalidStatus   = models.Validation("top-up status does not allow this step")
	ErrNotRecurring    = models.Validation("job is not a recurring top-up occurrence")
)
