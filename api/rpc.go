package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SwiftFiat/SwiftFiat-Queue/api/apistrings"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type rpcMethod func(ctx *gin.Context, params json.RawMessage) (interface{}, error)

func (s *Server) rpcMethods() map[string]rpcMethod {
	return map[string]rpcMethod{
		"createTransaction":          s.createTransaction,
		"queueTransaction":           s.queueTransaction,
		"queueRequestTransaction":    s.queueRequestTransaction,
		"payRequestTransaction":      s.payRequestTransaction,
		"cancelRequestedTransaction": s.cancelRequestedTransaction,
		"createBankingTransaction":   s.createBankingTransaction,
		"createTopUp":                s.createTopUp,
		"removeJob":                  s.removeJob,
		"updateJob":                  s.updateJob,
		"getRecurringJobs":           s.getRecurringJobs,
		"getQueues":                  s.getQueues,
		"getQueuesWithJobs":          s.getQueuesWithJobs,
		"getJob":                     s.getJob,
		"dropFailedJob":              s.dropFailedJob,
		"getLedgerEntries":           s.getLedgerEntries,
	}
}

func rpcFailure(id interface{}, e *models.RPCError) models.RPCResponse {
	return models.RPCResponse{
		JSONRPC: models.JSONRPCVersion,
		Error:   e,
		ID:      id,
		Version: utils.REVISION,
	}
}

func (s *Server) handleRPC(ctx *gin.Context) {
	var req models.RPCRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, rpcFailure(nil, &models.RPCError{Code: models.RPCParseError, Message: apistrings.ParseError}))
		return
	}
	if req.JSONRPC != models.JSONRPCVersion {
		ctx.JSON(http.StatusBadRequest, rpcFailure(req.ID, &models.RPCError{Code: models.RPCInvalidRequest, Message: apistrings.InvalidVersion}))
		return
	}

	method, ok := s.methods[req.Method]
	if !ok {
		ctx.JSON(http.StatusBadRequest, rpcFailure(req.ID, &models.RPCError{
			Code:    models.RPCMethodNotFound,
			Message: fmt.Sprintf("%s: %s", apistrings.MethodNotFound, req.Method),
		}))
		return
	}

	result, err := method(ctx, req.Params)
	if err != nil {
		rpcErr := models.RPCErrorFor(err)
		fields := logrus.Fields{"rpc_method": req.Method, "kind": models.KindOf(err).String()}
		if caller, cerr := utils.GetCaller(ctx); cerr == nil {
			fields["caller"] = caller.Service
		}
		log := s.logger.WithFields(fields).WithError(err)
		if rpcErr.Code == models.RPCInternalError {
			log.Error("rpc call failed")
		} else {
			log.Warn("rpc call rejected")
		}
		ctx.JSON(http.StatusBadRequest, rpcFailure(req.ID, rpcErr))
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, rpcFailure(req.ID, &models.RPCError{Code: models.RPCInternalError, Message: apistrings.EncodingFailure}))
		return
	}
	ctx.JSON(http.StatusOK, models.RPCResponse{
		JSONRPC: models.JSONRPCVersion,
		Result:  raw,
		ID:      req.ID,
		Version: utils.REVISION,
	})
}

// bindParams decodes params into out and runs the struct validators.
func bindParams(params json.RawMessage, out interface{}) error {
	if len(bytes.TrimSpace(params)) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		return models.Validation(apistrings.MissingParams)
	}
	if err := json.Unmarshal(params, out); err != nil {
		return models.Validation(fmt.Sprintf("%s: %v", apistrings.InvalidParams, err))
	}
	if err := utils.ValidateStruct(out); err != nil {
		return models.Validation(err.Error())
	}
	return nil
}
