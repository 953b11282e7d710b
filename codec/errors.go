package codec

import (
	"errors"
	"fmt"

	"mini-botapi/message"
)

var (
	ErrInvalidUTF8         = message.ErrInvalidUTF8
	ErrUnplacedUpload      = message.ErrUnplacedUpload
	ErrNonFinite           = errors.New("non-finite number")
	ErrNotObject           = errors.New("request does not encode to a JSON object")
	ErrDuplicateAttachment = errors.New("duplicate attachment field")
)

// EncodingError is a local failure to encode a request. Nothing has been sent
// when it is returned.
type EncodingError struct {
	Endpoint string
	Field    string // JSON path of the offending value, empty when not field specific
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encode %s: field %s: %v", e.Endpoint, e.Field, e.Err)
	}
	return fmt.Sprintf("encode %s: %v", e.Endpoint, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
