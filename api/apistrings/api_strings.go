package apistrings

const (
	/// Transport
	Welcome         = "SwiftFiat queue server is running"
	Unauthorized    = "Unauthorized"
	InvalidBearer   = "invalid token, expects bearer token"
	ParseError      = "request body is not a JSON-RPC 2.0 call"
	InvalidVersion  = "jsonrpc must be \"2.0\""
	MethodNotFound  = "method not found"
	MissingParams   = "params are required"
	InvalidParams   = "invalid params"
	EncodingFailure = "could not encode result"

	/// Queue Related Strings
	QueueStats    = "queue stats"
	InvalidStatus = "status must be completed or cancelled"
)

// UnauthorizedCode matches what callers of the previous queue server expect.
const UnauthorizedCode = 401
