package models

import (
	"encoding/json"

	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
)

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Version string      `json:"version"`
}

type ErrorResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Version string   `json:"version"`
}

func NewError(msg string) *ErrorResponse {
	return &ErrorResponse{
		Status:  "failed",
		Message: msg,
		Version: utils.REVISION,
	}
}

func NewSuccess(msg string, data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Status:  "successful",
		Message: msg,
		Data:    data,
		Version: utils.REVISION,
	}
}

// JSON-RPC 2.0 envelopes used by the /rpc endpoint and by the outbound
// clients for the anomaly and notification servers.

const JSONRPCVersion = "2.0"

type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method" binding:"required"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
	Version string          `json:"version,omitempty"`
}

const (
	RPCParseError     = -32700
	RPCInvalidRequest = -32600
	RPCMethodNotFound = -32601
	RPCInvalidParams  = -32602
	RPCInternalError  = -32603

	// application range
	RPCNotFound         = -32004
	RPCSignatureInvalid = -32010
	RPCUnavailable      = -32020
)

// RPCErrorFor maps an error onto the JSON-RPC error space by kind.
func RPCErrorFor(err error) *RPCError {
	kind := KindOf(err)
	e := &RPCError{Message: err.Error(), Data: map[string]string{"kind": kind.String()}}
	switch kind {
	case KindNotFound:
		e.Code = RPCNotFound
	case KindValidation:
		e.Code = RPCInvalidParams
	case KindSignatureInvalid:
		e.Code = RPCSignatureInvalid
	case KindTransient:
		e.Code = RPCUnavailable
	default:
		e.Code = RPCInternalError
		e.Message = InternalErrorUnknown.Error().Error()
	}
	return e
}
