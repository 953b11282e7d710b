// Package codec turns a request into the bytes of an HTTP body and back.
//
// A request without attachments becomes one JSON object. A request with at
// least one attachment becomes multipart/form-data: one text part per JSON
// field in declaration order, with each upload in place of its field.
package codec

import (
	"fmt"
	"mime"

	"mini-botapi/message"
	"mini-botapi/protocol"
)

type CodecType byte

const (
	CodecTypeJSON      CodecType = 0
	CodecTypeMultipart CodecType = 1
)

// Body is an encoded request body and the Content-Type it must be sent with.
type Body struct {
	ContentType string
	Data        []byte
}

type Codec interface {
	Encode(call message.Call) (*Body, error)
	// Decode fills v from body and returns the file parts it could not place.
	Decode(body *Body, v any) ([]Part, error)
	Type() CodecType // 0=JSON, 1=Multipart
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeMultipart {
		return &MultipartCodec{}
	}

	return &JSONCodec{}
}

// ForContentType picks the codec able to read a body of the given Content-Type.
func ForContentType(contentType string) (Codec, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type: %w", err)
	}
	switch mediaType {
	case protocol.MediaTypeJSON:
		return GetCodec(CodecTypeJSON), nil
	case protocol.MediaTypeMultipart:
		return GetCodec(CodecTypeMultipart), nil
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

// Encode encodes call as multipart when it carries attachments and as JSON otherwise.
func Encode(call message.Call) (*Body, error) {
	files, err := Attachments(call)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		return encodeMultipart(call, files)
	}
	return encodeJSON(call)
}

// Decode reads a body produced by Encode into v.
func Decode(body *Body, v any) ([]Part, error) {
	c, err := ForContentType(body.ContentType)
	if err != nil {
		return nil, err
	}
	return c.Decode(body, v)
}
