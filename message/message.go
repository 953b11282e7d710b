// Package message defines what travels between a bot and the API: the request
// contract every method payload implements, the file values a request can
// carry, and the response envelope every result comes back in.
//
// Envelope is the uniform wrapper of every response:
//
//	{"ok": true,  "result": ...}
//	{"ok": false, "error_code": 429, "description": "...", "parameters": {"retry_after": 5}}
//
// Unwrap turns it into either a decoded result or an *APIError. Anything that
// does not have that shape is a *MalformedResponseError.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Envelope carries a single response.
//
//   - On success: OK is true and Result holds the method's result.
//   - On failure: OK is false and Description, ErrorCode and Parameters describe the error.
type Envelope struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters explains why a request failed and how it may succeed.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"` // the group was upgraded to this supergroup
	RetryAfter      int   `json:"retry_after,omitempty"`        // seconds to wait before repeating the request
}

// wireEnvelope tells a missing "ok" apart from "ok": false.
type wireEnvelope struct {
	OK          *bool               `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	Description string              `json:"description"`
	ErrorCode   int                 `json:"error_code"`
	Parameters  *ResponseParameters `json:"parameters"`
}

var (
	errMissingOK     = errors.New("envelope has no ok field")
	errMissingResult = errors.New("successful envelope has no result")
)

// Unwrap decodes an envelope received with the given HTTP status. On success
// the result is unmarshaled into v; a nil v only checks the envelope.
func Unwrap(statusCode int, data []byte, v any) error {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return newMalformed(statusCode, data, err)
	}
	if env.OK == nil {
		return newMalformed(statusCode, data, errMissingOK)
	}

	if !*env.OK {
		return &APIError{
			Code:        env.ErrorCode,
			Description: env.Description,
			Parameters:  env.Parameters,
		}
	}

	if len(env.Result) == 0 || bytes.Equal(env.Result, []byte("null")) {
		return newMalformed(statusCode, data, errMissingResult)
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, v); err != nil {
		return newMalformed(statusCode, data, err)
	}
	return nil
}

// Decode is Unwrap for a statically known result type.
func Decode[T any](statusCode int, data []byte) (T, error) {
	var result T
	if err := Unwrap(statusCode, data, &result); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Success renders a successful envelope around result.
func Success(result any) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{OK: true, Result: raw})
}

// Failure renders a failed envelope.
func Failure(code int, description string, params *ResponseParameters) ([]byte, error) {
	return json.Marshal(Envelope{ErrorCode: code, Description: description, Parameters: params})
}
