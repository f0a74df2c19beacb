package api

import (
	"net/http"
	"strings"

	"github.com/SwiftFiat/SwiftFiat-Queue/api/apistrings"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/gin-gonic/gin"
)

func unauthorized(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.RPCResponse{
		JSONRPC: models.JSONRPCVersion,
		Error:   &models.RPCError{Code: apistrings.UnauthorizedCode, Message: msg},
		Version: utils.REVISION,
	})
}

// AuthenticatedMiddleware admits calls carrying a bearer token issued with
// the server's signing key. The calling service is kept on the context.
func AuthenticatedMiddleware(tokens *utils.JWTToken) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.GetHeader("Authorization")
		if token == "" {
			unauthorized(ctx, apistrings.Unauthorized)
			return
		}

		tokenSplit := strings.Split(token, " ")
		if len(tokenSplit) != 2 || strings.ToLower(tokenSplit[0]) != "bearer" {
			unauthorized(ctx, apistrings.InvalidBearer)
			return
		}

		caller, err := tokens.VerifyToken(tokenSplit[1])
		if err != nil {
			unauthorized(ctx, err.Error())
			return
		}

		ctx.Set(utils.CallerKey, caller)
		ctx.Next()
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {

		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST,HEAD,OPTIONS,GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
