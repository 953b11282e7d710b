package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"mini-botapi/message"
	"mini-botapi/protocol"
)

// MultipartCodec encodes the request as multipart/form-data.
//
// String fields are written as their raw text, every other field as its JSON
// text. Uploads become file parts carrying filename, content type and the
// unmodified bytes, placed where their field is declared.
type MultipartCodec struct{}

func (c *MultipartCodec) Encode(call message.Call) (*Body, error) {
	files, err := Attachments(call)
	if err != nil {
		return nil, err
	}
	return encodeMultipart(call, files)
}

func (c *MultipartCodec) Type() CodecType {
	return CodecTypeMultipart
}

// Part is one decoded part of a multipart body.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Data        []byte
}

func (p Part) IsFile() bool { return p.FileName != "" }

// boundaryToken is swapped in tests.
var boundaryToken = uuid.NewString

type formPart struct {
	name string
	text []byte
	file *message.Attachment
}

func (p formPart) contains(s string) bool {
	if strings.Contains(p.name, s) {
		return true
	}
	if p.file == nil {
		return bytes.Contains(p.text, []byte(s))
	}
	return strings.Contains(p.file.FileName(), s) || bytes.Contains(p.file.Data(), []byte(s))
}

func encodeMultipart(call message.Call, files []message.Attachment) (*Body, error) {
	data, err := marshalObject(call)
	if err != nil {
		return nil, err
	}
	fields, err := splitObject(data)
	if err != nil {
		return nil, &EncodingError{Endpoint: call.Endpoint(), Err: err}
	}

	byField := make(map[string]int, len(files))
	for i, f := range files {
		if !utf8.ValidString(f.Field()) || !utf8.ValidString(f.FileName()) {
			return nil, &EncodingError{Endpoint: call.Endpoint(), Field: f.Field(), Err: ErrInvalidUTF8}
		}
		byField[f.Field()] = i
	}

	used := make([]bool, len(files))
	parts := make([]formPart, 0, len(fields)+len(files))
	for _, f := range fields {
		if i, ok := byField[f.name]; ok {
			parts = append(parts, formPart{name: f.name, file: &files[i]})
			used[i] = true
			continue
		}
		text, err := fieldText(f.raw)
		if err != nil {
			return nil, &EncodingError{Endpoint: call.Endpoint(), Field: f.name, Err: err}
		}
		parts = append(parts, formPart{name: f.name, text: text})
	}
	for i := range files {
		if !used[i] {
			parts = append(parts, formPart{name: files[i].Field(), file: &files[i]})
		}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(newBoundary(parts)); err != nil {
		return nil, &EncodingError{Endpoint: call.Endpoint(), Err: err}
	}
	for _, p := range parts {
		if err := writePart(w, p); err != nil {
			return nil, &EncodingError{Endpoint: call.Endpoint(), Field: p.name, Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &EncodingError{Endpoint: call.Endpoint(), Err: err}
	}

	return &Body{ContentType: w.FormDataContentType(), Data: buf.Bytes()}, nil
}

// newBoundary draws random tokens until one occurs in no part.
func newBoundary(parts []formPart) string {
	for {
		token := boundaryToken()
		clash := false
		for _, p := range parts {
			if p.contains(token) {
				clash = true
				break
			}
		}
		if !clash {
			return token
		}
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writePart(w *multipart.Writer, p formPart) error {
	if p.file == nil {
		return w.WriteField(p.name, string(p.text))
	}

	fileName := p.file.FileName()
	if fileName == "" {
		fileName = p.name
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(p.name), quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", p.file.ContentType())

	pw, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = pw.Write(p.file.Data())
	return err
}

type objectField struct {
	name string
	raw  json.RawMessage
}

// splitObject returns the top-level members of a JSON object in order.
func splitObject(data []byte) ([]objectField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	var out []objectField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, objectField{name: name, raw: raw})
	}
	return out, nil
}

// fieldText renders a JSON value as part content: strings unquoted, anything
// else as JSON text.
func fieldText(raw json.RawMessage) ([]byte, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return raw, nil
}

// ReadMultipart parses a multipart/form-data body into its parts, in order.
func ReadMultipart(body *Body) ([]Part, error) {
	mediaType, params, err := mime.ParseMediaType(body.ContentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type: %w", err)
	}
	if mediaType != protocol.MediaTypeMultipart {
		return nil, fmt.Errorf("not a multipart body: %s", mediaType)
	}

	r := multipart.NewReader(bytes.NewReader(body.Data), params["boundary"])
	var parts []Part
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}
		data, err := io.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", p.FormName(), err)
		}
		parts = append(parts, Part{
			Name:        p.FormName(),
			FileName:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
			Data:        data,
		})
	}
}

// Decode places text parts into the fields of v and returns the file parts.
// A text part is read as JSON unless its target field holds a string or a
// file reference.
func (c *MultipartCodec) Decode(body *Body, v any) ([]Part, error) {
	parts, err := ReadMultipart(body)
	if err != nil {
		return nil, err
	}

	quoted := textFields(reflect.TypeOf(v))
	obj := make(map[string]json.RawMessage)
	var files []Part
	for _, p := range parts {
		if p.IsFile() {
			files = append(files, p)
			continue
		}
		if quoted[p.Name] || !json.Valid(p.Data) {
			s, err := json.Marshal(string(p.Data))
			if err != nil {
				return nil, err
			}
			obj[p.Name] = s
			continue
		}
		obj[p.Name] = json.RawMessage(p.Data)
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return files, nil
}

// textFields names the fields of t whose multipart value is plain text.
func textFields(t reflect.Type) map[string]bool {
	out := make(map[string]bool)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return out
	}
	for _, f := range jsonFields(t) {
		ft := t.FieldByIndex(f.index).Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.String || ft == inputFileType {
			out[f.name] = true
		}
	}
	return out
}
