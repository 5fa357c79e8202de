package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCDataUnmarshalArrayForm(t *testing.T) {
	raw := []byte(`[1001, "get_trial_balance", {"start_date": "2026-01-01"}, 1759000000000]`)

	var data RPCData
	require.NoError(t, json.Unmarshal(raw, &data))

	assert.EqualValues(t, 1001, data.RequestID)
	assert.Equal(t, "get_trial_balance", data.Method)
	assert.EqualValues(t, 1759000000000, data.Timestamp)

	params, ok := data.Params.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-01-01", params["start_date"])
}

func TestRPCDataUnmarshalRejectsBadShapes(t *testing.T) {
	for name, raw := range map[string]string{
		"object":        `{"request_id": 1}`,
		"short array":   `[1, "ping", {}]`,
		"bad method":    `[1, 2, {}, 3]`,
		"bad timestamp": `[1, "ping", {}, "soon"]`,
	} {
		t.Run(name, func(t *testing.T) {
			var data RPCData
			require.Error(t, json.Unmarshal([]byte(raw), &data))
		})
	}
}

func TestRPCDataMarshalRoundTrip(t *testing.T) {
	data := RPCData{
		RequestID: 42,
		Method:    "pong",
		Params:    map[string]any{"ok": true},
		Timestamp: 1759000000000,
	}

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var arr []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &arr))
	require.Len(t, arr, 4)
	assert.Equal(t, `"pong"`, string(arr[1]))
}

func TestParseRPCMessage(t *testing.T) {
	raw := []byte(`{"req": [7, "ping", {}, 1759000000000]}`)

	msg, err := ParseRPCMessage(raw)
	require.NoError(t, err)
	require.NotNil(t, msg.Req)
	assert.Equal(t, "ping", msg.Req.Method)
	assert.Nil(t, msg.Res)

	_, err = ParseRPCMessage([]byte(`not json`))
	require.Error(t, err)
}

func TestErrorResponseFor(t *testing.T) {
	resp := errorResponseFor(AppErrorf(CodeAccountNotFound, "account not found: 7"), "fallback")
	assert.Equal(t, CodeAccountNotFound, resp.Code)
	assert.Equal(t, "account not found: 7", resp.Error)

	// Non-application errors never leak their message.
	resp = errorResponseFor(errors.New("pq: connection refused"), "failed to generate report")
	assert.Equal(t, CodeInternalError, resp.Code)
	assert.Equal(t, "failed to generate report", resp.Error)

	resp = errorResponseFor(errors.New("boom"), "")
	assert.Equal(t, defaultRPCErrorMessage, resp.Error)
}

func newTestRPCContext(method string, params any) *RPCContext {
	return &RPCContext{
		Message: RPCMessage{Req: &RPCData{
			RequestID: 1,
			Method:    method,
			Params:    params,
			Timestamp: 1759000000000,
		}},
	}
}

func TestRPCContextSucceedAndFail(t *testing.T) {
	c := newTestRPCContext("ping", nil)
	c.Succeed("pong", map[string]any{"ok": true})

	require.NotNil(t, c.Message.Res)
	assert.Equal(t, "pong", c.Message.Res.Method)
	assert.EqualValues(t, 1, c.Message.Res.RequestID)

	c = newTestRPCContext("get_accounts", nil)
	c.Fail(AppErrorf(CodeInvalidRequest, "bad params"), "")
	require.NotNil(t, c.Message.Res)
	assert.Equal(t, "error", c.Message.Res.Method)
	errParams, ok := c.Message.Res.Params.(ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidRequest, errParams.Code)
}

func TestAuthMiddleware(t *testing.T) {
	router := &RPCRouter{lg: testLogger()}

	handled := false
	c := newTestRPCContext("create_account", nil)
	c.handlers = []RPCHandler{func(*RPCContext) { handled = true }}
	router.AuthMiddleware(c)
	require.NotNil(t, c.Message.Res)
	assert.Equal(t, "error", c.Message.Res.Method)
	errParams := c.Message.Res.Params.(ErrorResponse)
	assert.Equal(t, CodeAuthRequired, errParams.Code)
	assert.False(t, handled)

	c = newTestRPCContext("create_account", nil)
	c.Actor = "alice"
	c.handlers = []RPCHandler{func(*RPCContext) { handled = true }}
	router.AuthMiddleware(c)
	assert.True(t, handled)
}

func TestParseParamsValidation(t *testing.T) {
	var params TrialBalanceParams
	err := parseParams(map[string]any{
		"start_date": "2026-01-01",
		"end_date":   "2026-12-31",
	}, &params)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", params.StartDate)

	err = parseParams(map[string]any{"start_date": "2026-01-01"}, &TrialBalanceParams{})
	require.Error(t, err)
}

func TestAccountCodeValidation(t *testing.T) {
	type payload struct {
		Code string `validate:"required,accountcode"`
	}

	require.NoError(t, getValidator().Struct(&payload{Code: "110-000-000"}))
	require.Error(t, getValidator().Struct(&payload{Code: "110-000"}))
	require.Error(t, getValidator().Struct(&payload{Code: "abc-def-ghi"}))
}
