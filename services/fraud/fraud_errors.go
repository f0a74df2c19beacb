package fraud

import "github.com/SwiftFiat/SwiftFiat-Queue/models"

var (
	ErrUnknownFeature = models.Validation("feature value is not recognized")
)
