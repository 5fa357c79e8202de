package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RPCMessage represents a complete message in the RPC protocol.
// Exactly one of Req and Res is set.
type RPCMessage struct {
	Req *RPCData `json:"req,omitempty" validate:"required_without=Res,excluded_with=Res"`
	Res *RPCData `json:"res,omitempty" validate:"required_without=Req,excluded_with=Req"`
}

// ParseRPCMessage parses a JSON string into an RPCMessage
func ParseRPCMessage(data []byte) (RPCMessage, error) {
	var req RPCMessage
	if err := json.Unmarshal(data, &req); err != nil {
		return RPCMessage{}, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

type RPCDataParams = any

// RPCData represents the common structure for both requests and responses
// Format: [request_id, method, params, ts]
type RPCData struct {
	RequestID uint64        `json:"request_id" validate:"required"`
	Method    string        `json:"method" validate:"required"`
	Params    RPCDataParams `json:"params" validate:"required"`
	Timestamp uint64        `json:"ts" validate:"required"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for RPCData
func (m *RPCData) UnmarshalJSON(data []byte) error {
	var rawArr []json.RawMessage
	if err := json.Unmarshal(data, &rawArr); err != nil {
		return fmt.Errorf("error reading RPCData as array: %w", err)
	}
	if len(rawArr) != 4 {
		return errors.New("invalid RPCData: expected 4 elements in array")
	}

	// Element 0: uint64 RequestID
	if err := json.Unmarshal(rawArr[0], &m.RequestID); err != nil {
		return fmt.Errorf("invalid request_id: %w", err)
	}
	// Element 1: string Method
	if err := json.Unmarshal(rawArr[1], &m.Method); err != nil {
		return fmt.Errorf("invalid method: %w", err)
	}
	// Element 2: RPCDataParams Params
	if err := json.Unmarshal(rawArr[2], &m.Params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	// Element 3: uint64 Timestamp
	if err := json.Unmarshal(rawArr[3], &m.Timestamp); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}

	return nil
}

// MarshalJSON for RPCData always emits the array-form [RequestID, Method, Params, Timestamp].
func (m RPCData) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		m.RequestID,
		m.Method,
		m.Params,
		m.Timestamp,
	})
}

// CreateResponse constructs an RPCMessage with a "res" array.
func CreateResponse(id uint64, method string, responseParams RPCDataParams) *RPCMessage {
	return &RPCMessage{
		Res: &RPCData{
			RequestID: id,
			Method:    method,
			Params:    responseParams,
			Timestamp: uint64(time.Now().UnixMilli()),
		},
	}
}

// ErrorResponse is the params payload of an "error" response. Code is a
// stable machine-readable ErrorCode; Error is the human-readable message.
type ErrorResponse struct {
	Code  ErrorCode `json:"code"`
	Error string    `json:"error"`
}

// errorResponseFor converts an error chain into the client-facing payload.
// AppError messages pass through verbatim; anything else is surfaced as an
// internal error with a generic message so database details never leak.
func errorResponseFor(err error, fallbackMessage string) ErrorResponse {
	var appErr AppError
	if errors.As(err, &appErr) {
		return ErrorResponse{Code: appErr.Code, Error: appErr.Message}
	}
	message := fallbackMessage
	if message == "" {
		message = defaultRPCErrorMessage
	}
	return ErrorResponse{Code: CodeInternalError, Error: message}
}
