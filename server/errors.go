package server

import (
	"fmt"
	"net/http"

	"mini-botapi/message"
)

// Error is a handler failure reported to the client as ok=false.
// Any other error a handler returns becomes a 500.
type Error struct {
	Code            int
	Description     string
	RetryAfter      int   // seconds, sent in parameters when positive
	MigrateToChatID int64 // sent in parameters when non-zero
}

func (e *Error) Error() string { return fmt.Sprintf("%d %s", e.Code, e.Description) }

func (e *Error) parameters() *message.ResponseParameters {
	if e.RetryAfter <= 0 && e.MigrateToChatID == 0 {
		return nil
	}
	return &message.ResponseParameters{RetryAfter: e.RetryAfter, MigrateToChatID: e.MigrateToChatID}
}

func BadRequest(description string) *Error {
	return &Error{Code: http.StatusBadRequest, Description: "Bad Request: " + description}
}

func NotFound(description string) *Error {
	return &Error{Code: http.StatusNotFound, Description: "Not Found: " + description}
}

// TooManyRequests is the flood-control answer.
func TooManyRequests(retryAfter int) *Error {
	return &Error{
		Code:        http.StatusTooManyRequests,
		Description: fmt.Sprintf("Too Many Requests: retry after %d", retryAfter),
		RetryAfter:  retryAfter,
	}
}

var errUnauthorized = &Error{Code: http.StatusUnauthorized, Description: "Unauthorized"}
