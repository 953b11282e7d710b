package message

import "net/http"

// Call is the capability every request value provides to the dispatcher.
// The JSON-visible fields of the value are the request's parameters.
type Call interface {
	Endpoint() string // remote method name, e.g. "sendMessage"
	Method() string   // HTTP verb, fixed per request type
}

// Request is a Call whose successful result decodes into T.
// Returns is a marker and is never called.
type Request[T any] interface {
	Call
	Returns(*T)
}

// Uploader is implemented by requests that carry files the codec cannot find
// on its own, such as uploads nested inside a media group.
type Uploader interface {
	Files() []Attachment
}

// Post is embedded by request types sent with POST.
//
//	type SendMessage struct {
//		message.Post[types.Message]
//		ChatID int64  `json:"chat_id"`
//		Text   string `json:"text"`
//	}
type Post[T any] struct{}

func (Post[T]) Method() string { return http.MethodPost }
func (Post[T]) Returns(*T)     {}

// Get is embedded by request types sent with GET.
type Get[T any] struct{}

func (Get[T]) Method() string { return http.MethodGet }
func (Get[T]) Returns(*T)     {}
