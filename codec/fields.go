package codec

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"mini-botapi/message"
)

// jsonField is a struct field as encoding/json sees it.
type jsonField struct {
	name  string
	index []int
}

// jsonFields lists the JSON-visible fields of t in declaration order, with the
// fields of untagged embedded structs and struct pointers promoted.
func jsonFields(t reflect.Type) []jsonField {
	var out []jsonField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if sf.Anonymous && tag == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for _, f := range jsonFields(ft) {
					out = append(out, jsonField{name: f.name, index: append([]int{i}, f.index...)})
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		out = append(out, jsonField{name: name, index: []int{i}})
	}
	return out
}

type validator interface {
	Validate() error
}

var validatorType = reflect.TypeOf((*validator)(nil)).Elem()

type fieldError struct {
	path string
	err  error
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// validate walks v the way encoding/json would and reports the first value
// that cannot be represented on the wire or whose Validate method fails.
func validate(v reflect.Value, path string) *fieldError {
	if !v.IsValid() {
		return nil
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil
	}
	if v.Type().Implements(validatorType) && v.CanInterface() {
		if err := v.Interface().(validator).Validate(); err != nil {
			return &fieldError{path: path, err: err}
		}
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return validate(v.Elem(), path)
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return &fieldError{path: path, err: ErrInvalidUTF8}
		}
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return &fieldError{path: path, err: ErrNonFinite}
		}
	case reflect.Struct:
		for _, f := range jsonFields(v.Type()) {
			fv, err := v.FieldByIndexErr(f.index)
			if err != nil {
				continue // nil embedded pointer, nothing to encode
			}
			if ferr := validate(fv, joinPath(path, f.name)); ferr != nil {
				return ferr
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if ferr := validate(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); ferr != nil {
				return ferr
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			if !utf8.ValidString(key) {
				return &fieldError{path: path, err: ErrInvalidUTF8}
			}
			if ferr := validate(iter.Value(), joinPath(path, key)); ferr != nil {
				return ferr
			}
		}
	}
	return nil
}

var (
	inputFileType    = reflect.TypeOf(message.InputFile{})
	inputFilePtrType = reflect.TypeOf(&message.InputFile{})
)

// topLevelUpload reads the upload held by a top-level field, if any.
func topLevelUpload(v reflect.Value, f jsonField) (message.InputFile, bool) {
	fv, err := v.FieldByIndexErr(f.index)
	if err != nil || !fv.CanInterface() {
		return message.InputFile{}, false
	}
	var in message.InputFile
	switch fv.Type() {
	case inputFileType:
		in = fv.Interface().(message.InputFile)
	case inputFilePtrType:
		if fv.IsNil() {
			return message.InputFile{}, false
		}
		in = *fv.Interface().(*message.InputFile)
	default:
		return message.InputFile{}, false
	}
	return in, in.NeedsUpload()
}

// Attachments collects the uploads of call: every top-level InputFile field
// holding an upload, named after its JSON field, followed by whatever the
// call returns from Files.
func Attachments(call message.Call) ([]message.Attachment, error) {
	var files []message.Attachment

	v := reflect.ValueOf(call)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		for _, f := range jsonFields(v.Type()) {
			if in, ok := topLevelUpload(v, f); ok {
				files = append(files, in.Part(f.name)...)
			}
		}
	}

	if u, ok := call.(message.Uploader); ok {
		files = append(files, u.Files()...)
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Field()] {
			return nil, &EncodingError{Endpoint: call.Endpoint(), Field: f.Field(), Err: ErrDuplicateAttachment}
		}
		seen[f.Field()] = true
	}
	return files, nil
}

// attachRefs returns a copy of call in which every top-level upload refers to
// the part of the same name, so it can go through encoding/json. call itself
// is left untouched. Uploads anywhere else are the call's own business and
// fail to encode unless it rewrites them.
func attachRefs(call message.Call) any {
	v := reflect.ValueOf(call)
	isPtr := v.Kind() == reflect.Pointer
	if isPtr {
		if v.IsNil() {
			return call
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return call
	}

	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	changed := false
	for _, f := range jsonFields(v.Type()) {
		if _, ok := topLevelUpload(v, f); !ok {
			continue
		}
		dst := ownField(cp, f.index)
		if !dst.CanSet() {
			continue
		}
		ref := message.FileAttach(f.name)
		if dst.Type() == inputFilePtrType {
			dst.Set(reflect.ValueOf(&ref))
		} else {
			dst.Set(reflect.ValueOf(ref))
		}
		changed = true
	}

	if !changed {
		return call
	}
	if isPtr {
		return cp.Addr().Interface()
	}
	return cp.Interface()
}

// ownField walks index in v, copying every embedded struct pointer on the way
// so that setting the field does not write through to the caller's value.
func ownField(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			own := reflect.New(v.Type().Elem())
			own.Elem().Set(v.Elem())
			if v.CanSet() {
				v.Set(own)
			}
			v = own.Elem()
		}
		v = v.Field(x)
	}
	return v
}
