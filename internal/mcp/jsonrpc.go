// Package mcp implements the JSON-RPC 2.0 tool server: transport framing,
// method dispatch, and the built-in data tools exposed to MCP clients.
package mcp

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request. ID is kept raw so string, number, and
// null ids round-trip unchanged.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Errorf builds an Error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// result builds a success response bound to the request's id.
func result(req *Request, v any) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: v}
}

// errResponse builds an error response bound to the request's id. Non-Error
// errors become internal errors.
func errResponse(req *Request, err error) *Response {
	rpcErr, ok := err.(*Error)
	if !ok {
		rpcErr = Errorf(CodeInternalError, "%s", err.Error())
	}
	var id json.RawMessage
	if req != nil {
		id = req.ID
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: rpcErr}
}
