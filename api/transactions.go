package api

import (
	"encoding/json"

	"github.com/SwiftFiat/SwiftFiat-Queue/services/topup"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/transaction"
	"github.com/gin-gonic/gin"
)

// createTransaction is the only synchronous money movement on the surface.
// Everything else is accepted onto a queue and answered with its job.
func (s *Server) createTransaction(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var req transaction.DirectTransfer
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return s.transactions.CreateTransaction(ctx.Request.Context(), req)
}

func (s *Server) queueTransaction(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var req transaction.QueuedTransfer
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return s.transactions.QueueTransaction(ctx.Request.Context(), req)
}

func (s *Server) queueRequestTransaction(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var req transaction.QueuedTransfer
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return s.transactions.QueueRequestTransaction(ctx.Request.Context(), req)
}

func (s *Server) payRequestTransaction(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var req transaction.PayRequest
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return s.transactions.QueuePayRequest(ctx.Request.Context(), req)
}

func (s *Server) cancelRequestedTransaction(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var req transaction.CancelRequest
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return s.transactions.QueueCancelRequest(ctx.Request.Context(), req)
}

func (s *Server) createBankingTransaction(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var req transaction.BankingTransfer
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return s.transactions.QueueBankingTransaction(ctx.Request.Context(), req)
}

func (s *Server) createTopUp(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var req topup.Request
	if err := bindParams(params, &req); err != nil {
		return nil, err
	}
	return s.topups.QueueTopUp(ctx.Request.Context(), req)
}
