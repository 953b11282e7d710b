package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mini-botapi/protocol"
)

// Attachment is a named binary part of a multipart body.
// It owns a private copy of its bytes and cannot be changed after construction.
type Attachment struct {
	field       string
	fileName    string
	contentType string
	data        []byte
}

// NewAttachment copies data. An empty contentType is derived from the file
// extension, falling back to content sniffing.
func NewAttachment(field, fileName, contentType string, data []byte) Attachment {
	owned := make([]byte, len(data))
	copy(owned, data)
	return newAttachment(field, fileName, contentType, owned)
}

func newAttachment(field, fileName, contentType string, data []byte) Attachment {
	if contentType == "" {
		contentType = detectContentType(fileName, data)
	}
	return Attachment{field: field, fileName: fileName, contentType: contentType, data: data}
}

func (a Attachment) Field() string       { return a.field }
func (a Attachment) FileName() string    { return a.fileName }
func (a Attachment) ContentType() string { return a.contentType }
func (a Attachment) Size() int           { return len(a.data) }

// Data returns the attachment bytes. The slice is shared and must not be modified.
func (a Attachment) Data() []byte { return a.data }

func detectContentType(fileName string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	if len(data) == 0 {
		return protocol.MediaTypeOctetStream
	}
	return http.DetectContentType(data)
}

type fileKind uint8

const (
	fileNone fileKind = iota
	fileURL
	fileID
	fileAttach
	fileUpload
)

// InputFile is a file parameter: a URL the API fetches itself, the id of a
// file already stored by the API, a reference to a part of the same multipart
// body, or bytes uploaded with the request.
//
// Only uploads become multipart parts. The other forms encode as JSON strings.
// An upload encodes as a JSON null placeholder that the multipart codec
// replaces with the file part.
type InputFile struct {
	kind        fileKind
	ref         string
	fileName    string
	contentType string
	data        []byte
}

func FileURL(url string) InputFile { return InputFile{kind: fileURL, ref: url} }

func FileID(id string) InputFile { return InputFile{kind: fileID, ref: id} }

// FileAttach refers to the multipart part named name.
func FileAttach(name string) InputFile { return InputFile{kind: fileAttach, ref: name} }

// FileUpload copies data into a new upload.
func FileUpload(fileName string, data []byte) InputFile {
	owned := make([]byte, len(data))
	copy(owned, data)
	return InputFile{kind: fileUpload, fileName: fileName, data: owned}
}

// FileUploadReader reads r to the end into a new upload.
func FileUploadReader(fileName string, r io.Reader) (InputFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return InputFile{}, fmt.Errorf("read %s: %w", fileName, err)
	}
	return InputFile{kind: fileUpload, fileName: fileName, data: data}, nil
}

// WithContentType overrides the detected content type of an upload.
func (f InputFile) WithContentType(contentType string) InputFile {
	f.contentType = contentType
	return f
}

func (f InputFile) IsZero() bool      { return f.kind == fileNone }
func (f InputFile) NeedsUpload() bool { return f.kind == fileUpload }
func (f InputFile) IsAttach() bool    { return f.kind == fileAttach }
func (f InputFile) IsURL() bool       { return f.kind == fileURL }

// Part returns the upload as an attachment in the given field, or nothing when
// the file is not an upload.
func (f InputFile) Part(field string) []Attachment {
	if !f.NeedsUpload() {
		return nil
	}
	return []Attachment{newAttachment(field, f.fileName, f.contentType, f.data)}
}

var errEmptyFile = errors.New("input file has no value")

// Validate reports strings that cannot be carried in a request.
func (f InputFile) Validate() error {
	if f.kind == fileNone {
		return errEmptyFile
	}
	if !utf8.ValidString(f.ref) || !utf8.ValidString(f.fileName) {
		return ErrInvalidUTF8
	}
	return nil
}

func (f InputFile) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case fileURL, fileID:
		return json.Marshal(f.ref)
	case fileAttach:
		return json.Marshal(protocol.AttachScheme + f.ref)
	case fileUpload:
		return nil, fmt.Errorf("%w: %s", ErrUnplacedUpload, f.fileName)
	default:
		return nil, errEmptyFile
	}
}

// UnmarshalJSON reads the string forms. Uploads never appear in JSON.
func (f *InputFile) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch {
	case strings.HasPrefix(s, protocol.AttachScheme):
		*f = FileAttach(strings.TrimPrefix(s, protocol.AttachScheme))
	case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
		*f = FileURL(s)
	default:
		*f = FileID(s)
	}
	return nil
}

// Ref returns the URL, file id or attach name of a non-upload file.
func (f InputFile) Ref() string { return f.ref }

