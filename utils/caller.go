package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CallerKey is where the auth middleware leaves the verified token.
const CallerKey = "caller"

func GetCaller(ctx *gin.Context) (TokenObject, error) {
	value, exists := ctx.Get(CallerKey)
	if !exists {
		return TokenObject{}, fmt.Errorf("not authorized to access this resource")
	}

	caller, ok := value.(TokenObject)
	if !ok {
		return TokenObject{}, fmt.Errorf("unexpected caller type %T", value)
	}

	return caller, nil
}
