package message

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidUTF8 is reported for text that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// ErrUnplacedUpload is reported when an upload reaches JSON encoding without
// having been turned into a multipart part.
var ErrUnplacedUpload = errors.New("upload is not attached as a part")

// APIError is a failure reported by the API itself (ok=false).
type APIError struct {
	Code        int
	Description string
	Parameters  *ResponseParameters
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("api error %d", e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Description)
}

// RetryAfter is the wait requested by a flood-control error, or zero.
func (e *APIError) RetryAfter() time.Duration {
	if e.Parameters == nil {
		return 0
	}
	return time.Duration(e.Parameters.RetryAfter) * time.Second
}

// MigrateToChatID is the supergroup a group was upgraded to, or zero.
func (e *APIError) MigrateToChatID() int64 {
	if e.Parameters == nil {
		return 0
	}
	return e.Parameters.MigrateToChatID
}

// MalformedResponseError is returned when a response is not a valid envelope
// or its result does not fit the expected type. Body keeps the raw bytes.
type MalformedResponseError struct {
	StatusCode int
	Body       []byte
	Err        error
}

const malformedPreview = 128

func newMalformed(statusCode int, data []byte, err error) *MalformedResponseError {
	body := make([]byte, len(data))
	copy(body, data)
	return &MalformedResponseError{StatusCode: statusCode, Body: body, Err: err}
}

func (e *MalformedResponseError) Error() string {
	preview := e.Body
	suffix := ""
	if len(preview) > malformedPreview {
		preview = preview[:malformedPreview]
		suffix = "..."
	}
	return fmt.Sprintf("malformed response (status %d): %v: %q%s", e.StatusCode, e.Err, preview, suffix)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
