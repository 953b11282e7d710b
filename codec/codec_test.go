package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"mini-botapi/message"
)

type sendText struct {
	message.Post[int]
	ChatID      int64          `json:"chat_id"`
	Text        string         `json:"text"`
	ParseMode   string         `json:"parse_mode,omitempty"`
	Silent      bool           `json:"disable_notification,omitempty"`
	ReplyTo     *int64         `json:"reply_to_message_id,omitempty"`
	Markup      map[string]any `json:"reply_markup,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
}

func (sendText) Endpoint() string { return "sendMessage" }

type sendPhoto struct {
	message.Post[int]
	ChatID    int64              `json:"chat_id"`
	Photo     message.InputFile  `json:"photo"`
	Caption   string             `json:"caption,omitempty"`
	Thumbnail *message.InputFile `json:"thumbnail,omitempty"`
	Spoiler   bool               `json:"has_spoiler,omitempty"`
}

func (sendPhoto) Endpoint() string { return "sendPhoto" }

type sendAlbum struct {
	message.Post[int]
	ChatID int64               `json:"chat_id"`
	Media  []message.InputFile `json:"media"`
}

func (sendAlbum) Endpoint() string { return "sendAlbum" }

func (s sendAlbum) Files() []message.Attachment {
	var out []message.Attachment
	for i, f := range s.Media {
		out = append(out, f.Part(fmt.Sprintf("file%d", i))...)
	}
	return out
}

// MarshalJSON points uploaded items at the parts Files returns.
func (s sendAlbum) MarshalJSON() ([]byte, error) {
	type plain sendAlbum
	p := plain(s)
	p.Media = make([]message.InputFile, len(s.Media))
	for i, f := range s.Media {
		if f.NeedsUpload() {
			f = message.FileAttach(fmt.Sprintf("file%d", i))
		}
		p.Media[i] = f
	}
	return json.Marshal(p)
}

// PhotoSpec is shared by requests through an embedded pointer.
type PhotoSpec struct {
	Photo   message.InputFile `json:"photo"`
	Caption string            `json:"caption,omitempty"`
}

type sendSpecPhoto struct {
	message.Post[int]
	*PhotoSpec
	ChatID int64 `json:"chat_id"`
}

func (sendSpecPhoto) Endpoint() string { return "sendPhoto" }

// sendBundle nests uploads without placing them as parts.
type sendBundle struct {
	message.Post[int]
	ChatID int64               `json:"chat_id"`
	Items  []message.InputFile `json:"items"`
}

func (sendBundle) Endpoint() string { return "sendBundle" }

func keys(t *testing.T, data []byte) []string {
	t.Helper()
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("body is not a JSON object: %v", err)
	}
	var out []string
	for k := range obj {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestJSONCodecOmitsAbsentFields(t *testing.T) {
	body, err := Encode(sendText{ChatID: 42, Text: "hi"})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if body.ContentType != "application/json" {
		t.Fatalf("expect application/json, got %s", body.ContentType)
	}
	got := strings.Join(keys(t, body.Data), ",")
	if got != "chat_id,text" {
		t.Fatalf("expect keys chat_id,text, got %s", got)
	}
	if bytes.Contains(body.Data, []byte("null")) {
		t.Fatalf("absent fields must not be null: %s", body.Data)
	}

	reply := int64(7)
	body, err = Encode(sendText{ChatID: 42, Text: "hi", ReplyTo: &reply, Silent: true})
	if err != nil {
		t.Fatal(err)
	}
	got = strings.Join(keys(t, body.Data), ",")
	if got != "chat_id,disable_notification,reply_to_message_id,text" {
		t.Fatalf("unexpected keys %s", got)
	}
}

func TestJSONCodecDeterministic(t *testing.T) {
	req := sendText{ChatID: 1, Text: "x", Markup: map[string]any{"b": 1, "a": 2}}
	first, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatalf("expect identical encodings:\n%s\n%s", first.Data, second.Data)
	}
}

func TestEncodingErrors(t *testing.T) {
	cases := []struct {
		name  string
		call  message.Call
		field string
		want  error
	}{
		{"nan", sendText{ChatID: 1, Text: "x", Temperature: math.NaN()}, "temperature", ErrNonFinite},
		{"inf", sendText{ChatID: 1, Text: "x", Temperature: math.Inf(1)}, "temperature", ErrNonFinite},
		{"utf8", sendText{ChatID: 1, Text: "bad \xff"}, "text", ErrInvalidUTF8},
		{"nested utf8", sendText{ChatID: 1, Text: "x", Markup: map[string]any{"k": "\xfe"}}, "reply_markup.k", ErrInvalidUTF8},
		{"upload name", sendPhoto{ChatID: 1, Photo: message.FileUpload("\xffname", []byte{1})}, "photo", ErrInvalidUTF8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.call)
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("expect *EncodingError, got %T: %v", err, err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expect %v, got %v", tc.want, err)
			}
			if encErr.Field != tc.field {
				t.Fatalf("expect field %q, got %q", tc.field, encErr.Field)
			}
			if encErr.Endpoint != tc.call.Endpoint() {
				t.Fatalf("expect endpoint %q, got %q", tc.call.Endpoint(), encErr.Endpoint)
			}
		})
	}
}

func TestEmptyInputFileIsEncodingError(t *testing.T) {
	_, err := Encode(sendPhoto{ChatID: 1})
	var encErr *EncodingError
	if !errors.As(err, &encErr) || encErr.Field != "photo" {
		t.Fatalf("expect encoding error on photo, got %v", err)
	}
}

func TestReferenceFilesStayJSON(t *testing.T) {
	body, err := Encode(sendPhoto{ChatID: 1, Photo: message.FileURL("https://example.com/cat.jpg")})
	if err != nil {
		t.Fatal(err)
	}
	if body.ContentType != "application/json" {
		t.Fatalf("expect JSON for URL photo, got %s", body.ContentType)
	}
	want := `{"chat_id":1,"photo":"https://example.com/cat.jpg"}`
	if string(body.Data) != want {
		t.Fatalf("got %s, want %s", body.Data, want)
	}
}

func TestMultipartLayout(t *testing.T) {
	photo := []byte("\x89PNG\r\n\x1a\nraw image bytes")
	thumb := []byte{0xff, 0xd8, 0xff, 0x00, 0x01}
	req := sendPhoto{
		ChatID:    -100123,
		Photo:     message.FileUpload("cat.png", photo),
		Caption:   "a \"quoted\" cat",
		Thumbnail: &message.InputFile{},
		Spoiler:   true,
	}
	*req.Thumbnail = message.FileUpload("thumb.jpg", thumb)

	body, err := Encode(req)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !strings.HasPrefix(body.ContentType, "multipart/form-data; boundary=") {
		t.Fatalf("unexpected content type %s", body.ContentType)
	}

	parts, err := ReadMultipart(body)
	if err != nil {
		t.Fatalf("ReadMultipart returned error: %v", err)
	}

	want := []struct {
		name string
		file string
		data string
	}{
		{"chat_id", "", "-100123"},
		{"photo", "cat.png", string(photo)},
		{"caption", "", "a \"quoted\" cat"},
		{"thumbnail", "thumb.jpg", string(thumb)},
		{"has_spoiler", "", "true"},
	}
	if len(parts) != len(want) {
		t.Fatalf("expect %d parts, got %d", len(want), len(parts))
	}
	for i, w := range want {
		p := parts[i]
		if p.Name != w.name || p.FileName != w.file || string(p.Data) != w.data {
			t.Errorf("part %d: got (%s, %s, %q), want (%s, %s, %q)", i, p.Name, p.FileName, p.Data, w.name, w.file, w.data)
		}
	}
	if parts[1].ContentType != "image/png" {
		t.Fatalf("expect image/png, got %s", parts[1].ContentType)
	}
	if parts[3].ContentType != "image/jpeg" {
		t.Fatalf("expect image/jpeg, got %s", parts[3].ContentType)
	}
}

func TestMultipartStructuredField(t *testing.T) {
	req := sendAlbum{
		ChatID: 5,
		Media: []message.InputFile{
			message.FileAttach("file0"),
			message.FileAttach("file1"),
		},
	}
	// references only, so JSON
	body, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	if body.ContentType != "application/json" {
		t.Fatalf("expect JSON, got %s", body.ContentType)
	}

	uploads := sendAlbum{ChatID: 5, Media: []message.InputFile{
		message.FileUpload("a.txt", []byte("A")),
		message.FileUpload("b.txt", []byte("B")),
	}}
	body, err = Encode(uploads)
	if err != nil {
		t.Fatal(err)
	}
	parts, err := ReadMultipart(body)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = p.Name
	}
	if strings.Join(names, ",") != "chat_id,media,file0,file1" {
		t.Fatalf("unexpected part order %v", names)
	}
	if string(parts[1].Data) != `["attach://file0","attach://file1"]` {
		t.Fatalf("expect JSON text for structured field, got %s", parts[1].Data)
	}
	if string(parts[2].Data) != "A" || string(parts[3].Data) != "B" {
		t.Fatal("file parts must carry the original bytes")
	}
}

func TestMultipartBoundaryFreshPerEncode(t *testing.T) {
	req := sendPhoto{ChatID: 1, Photo: message.FileUpload("a.bin", []byte("payload"))}

	first, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	if first.ContentType == second.ContentType {
		t.Fatal("expect a fresh boundary per encode")
	}

	p1, err := ReadMultipart(first)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := ReadMultipart(second)
	if err != nil {
		t.Fatal(err)
	}
	if len(p1) != len(p2) {
		t.Fatalf("part count differs: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i].Name != p2[i].Name || !bytes.Equal(p1[i].Data, p2[i].Data) {
			t.Fatalf("part %d differs between encodes", i)
		}
	}
}

func TestMultipartBoundaryAvoidsContent(t *testing.T) {
	tokens := []string{"clash", "clash", "clean-boundary"}
	orig := boundaryToken
	boundaryToken = func() string {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok
	}
	t.Cleanup(func() { boundaryToken = orig })

	req := sendPhoto{ChatID: 1, Photo: message.FileUpload("a.bin", []byte("--clash--"))}
	body, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(body.ContentType, "boundary=clean-boundary") {
		t.Fatalf("expect regenerated boundary, got %s", body.ContentType)
	}
	parts, err := ReadMultipart(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(parts[1].Data) != "--clash--" {
		t.Fatalf("file content corrupted: %q", parts[1].Data)
	}
}

func TestDuplicateAttachment(t *testing.T) {
	req := dupUploads{ChatID: 1, Photo: message.FileUpload("a.png", []byte{1})}
	_, err := Encode(req)
	if !errors.Is(err, ErrDuplicateAttachment) {
		t.Fatalf("expect duplicate attachment error, got %v", err)
	}
}

type dupUploads struct {
	message.Post[int]
	ChatID int64             `json:"chat_id"`
	Photo  message.InputFile `json:"photo"`
}

func (dupUploads) Endpoint() string { return "sendPhoto" }

func (d dupUploads) Files() []message.Attachment {
	return []message.Attachment{message.NewAttachment("photo", "b.png", "", []byte{2})}
}

func TestUploadInEmbeddedPointer(t *testing.T) {
	spec := &PhotoSpec{Photo: message.FileUpload("a.png", []byte("img")), Caption: "hi"}
	req := sendSpecPhoto{PhotoSpec: spec, ChatID: 1}

	body, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	parts, err := ReadMultipart(body)
	if err != nil {
		t.Fatalf("expect multipart body, got %s: %v", body.ContentType, err)
	}
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = p.Name
	}
	if strings.Join(names, ",") != "photo,caption,chat_id" {
		t.Fatalf("unexpected part order %v", names)
	}
	if parts[0].FileName != "a.png" || string(parts[0].Data) != "img" {
		t.Fatalf("photo must be a file part, got %+v", parts[0])
	}

	// the caller's value is not rewritten
	if !spec.Photo.NeedsUpload() {
		t.Fatal("encode changed the caller's request")
	}
}

func TestNilEmbeddedPointer(t *testing.T) {
	body, err := Encode(sendSpecPhoto{ChatID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(body.Data) != `{"chat_id":1}` {
		t.Fatalf("unexpected body %s", body.Data)
	}
}

func TestUnplacedUploadIsEncodingError(t *testing.T) {
	req := sendBundle{ChatID: 1, Items: []message.InputFile{message.FileUpload("a.png", []byte{1})}}
	_, err := Encode(req)
	var encErr *EncodingError
	if !errors.As(err, &encErr) || !errors.Is(err, ErrUnplacedUpload) {
		t.Fatalf("expect EncodingError wrapping ErrUnplacedUpload, got %v", err)
	}
}

func TestMultipartDecode(t *testing.T) {
	req := sendPhoto{ChatID: 99, Photo: message.FileUpload("a.png", []byte("img")), Caption: "123"}
	body, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}

	var args struct {
		ChatID  int64  `json:"chat_id"`
		Caption string `json:"caption"`
	}
	files, err := Decode(body, &args)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if args.ChatID != 99 || args.Caption != "123" {
		t.Fatalf("unexpected args %+v", args)
	}
	if len(files) != 1 || files[0].Name != "photo" || string(files[0].Data) != "img" {
		t.Fatalf("unexpected files %+v", files)
	}
}

func TestGetCodec(t *testing.T) {
	if GetCodec(CodecTypeJSON).Type() != CodecTypeJSON {
		t.Fatal("expect JSON codec")
	}
	if GetCodec(CodecTypeMultipart).Type() != CodecTypeMultipart {
		t.Fatal("expect multipart codec")
	}
	if _, err := ForContentType("text/plain"); err == nil {
		t.Fatal("expect error for text/plain")
	}
	c, err := ForContentType("multipart/form-data; boundary=x")
	if err != nil || c.Type() != CodecTypeMultipart {
		t.Fatalf("expect multipart codec, got %v, %v", c, err)
	}
	c, err = ForContentType("application/json; charset=utf-8")
	if err != nil || c.Type() != CodecTypeJSON {
		t.Fatalf("expect JSON codec, got %v, %v", c, err)
	}
}
