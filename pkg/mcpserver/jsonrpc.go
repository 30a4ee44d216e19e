package mcpserver

import (
	"context"
	"errors"

	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// request is the JSON-RPC 2.0 envelope every POST /mcp body must decode
// into (spec §4.6, §6.1).
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  params `json:"params"`
}

type params struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// response is the JSON-RPC 2.0 envelope every reply is wrapped in. Exactly
// one of Result/Error is ever populated.
type response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON-RPC standard codes (spec §4.6).
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeApplicationLo  = -32099
	codeApplicationHi  = -32000
)

func newResponse(id any, result any) response {
	return response{JSONRPC: "2.0", ID: id, Result: result}
}

func newErrorResponse(id any, code int, message string, details any) response {
	return response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message, Details: details}}
}

// applicationErrorCode maps the taxonomy in spec §7 onto the
// -32000..-32099 application-error band, one stable code per Code value so
// a client can branch on it without parsing message text.
var applicationErrorCode = map[store.Code]int{
	store.CodeTenantMismatch:       -32001,
	store.CodeValidationError:      -32002,
	store.CodeNotFound:             -32003,
	store.CodeConflict:             -32004,
	store.CodeInvariantViolation:   -32005,
	store.CodeCircularDependency:   -32006,
	store.CodeReferentialIntegrity: -32007,
	store.CodeExpiredCapsule:       -32008,
	store.CodeTemporaryUnavailable: -32009,
	store.CodeDeadlineExceeded:     -32010,
	store.CodePermanentError:       -32011,
	store.CodeUnauthenticated:      -32012,
}

// errorToResponse translates any error returned by a tool handler into a
// JSON-RPC error response. Errors that aren't a *store.Error (a panic
// recovery value, a programmer mistake) get the generic -32099 application
// code and the message "internal error" rather than leaking Go error text verbatim — spec §7 "message is safe to
// display (no secrets)".
func errorToResponse(id any, err error) response {
	code := codeApplicationLo
	message := "internal error"
	var details any

	var se *store.Error
	switch {
	case errors.As(err, &se):
		if mapped, ok := applicationErrorCode[se.Code]; ok {
			code = mapped
		}
		message = se.Error()
		if se.Field != "" {
			details = map[string]string{"field": se.Field}
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// A handler that never wrapped ctx.Err() into a *store.Error
		// (e.g. one that blocked on a non-Store call) still reports as
		// DeadlineExceeded rather than a generic internal error.
		code = applicationErrorCode[store.CodeDeadlineExceeded]
		message = store.NewDeadlineExceeded().Error()
	}

	return newErrorResponse(id, code, message, details)
}
