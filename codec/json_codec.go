package codec

import (
	"encoding/json"
	"reflect"

	"mini-botapi/message"
	"mini-botapi/protocol"
)

// JSONCodec encodes the request fields as a single JSON object.
// Absent optional fields are left out through omitempty, never sent as null.
type JSONCodec struct{}

func (c *JSONCodec) Encode(call message.Call) (*Body, error) {
	return encodeJSON(call)
}

func (c *JSONCodec) Decode(body *Body, v any) ([]Part, error) {
	if len(body.Data) == 0 {
		return nil, nil
	}
	return nil, json.Unmarshal(body.Data, v)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}

func encodeJSON(call message.Call) (*Body, error) {
	data, err := marshalObject(call)
	if err != nil {
		return nil, err
	}
	return &Body{ContentType: protocol.MediaTypeJSON, Data: data}, nil
}

// marshalObject validates call and renders it as a JSON object. Top-level
// uploads are written as attach:// references; the multipart encoder puts the
// file part in their place. An upload that is not attached fails with
// message.ErrUnplacedUpload.
// encoding/json would silently replace invalid UTF-8, so text is checked first.
func marshalObject(call message.Call) ([]byte, error) {
	if ferr := validate(reflect.ValueOf(call), ""); ferr != nil {
		return nil, &EncodingError{Endpoint: call.Endpoint(), Field: ferr.path, Err: ferr.err}
	}
	data, err := json.Marshal(attachRefs(call))
	if err != nil {
		return nil, &EncodingError{Endpoint: call.Endpoint(), Err: err}
	}
	if len(data) == 0 || data[0] != '{' {
		return nil, &EncodingError{Endpoint: call.Endpoint(), Err: ErrNotObject}
	}
	return data, nil
}
