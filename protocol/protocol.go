// Package protocol holds the wire conventions of the Bot API shared by the
// client and the fake server: how a method address is laid out, which media
// types a body may carry, and how the bot token is kept out of anything that
// gets printed.
//
// Address layout:
//
//	{base}/{prefix}{token}/{endpoint}       method call
//	{base}/file/{prefix}{token}/{path}      file download
//
// The hosted API uses the prefix "bot". Self-hosted servers that route on the
// bare token can be reached with an empty prefix.
package protocol

import (
	"net/url"
	"strings"
)

const (
	DefaultBaseURL     = "https://api.telegram.org"
	DefaultTokenPrefix = "bot"
	FileSegment        = "file"
)

// Media types carried in Content-Type headers.
const (
	MediaTypeJSON        = "application/json"
	MediaTypeMultipart   = "multipart/form-data"
	MediaTypeOctetStream = "application/octet-stream"
)

// AttachScheme prefixes a reference to a multipart part from inside a JSON value.
const AttachScheme = "attach://"

const redacted = "<redacted>"

// MethodURL builds the address of a single API method.
func MethodURL(base, prefix, token, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + prefix + token + "/" + endpoint
}

// FileURL builds the download address of a file previously returned by getFile.
func FileURL(base, prefix, token, filePath string) string {
	return strings.TrimRight(base, "/") + "/" + FileSegment + "/" + prefix + token + "/" + strings.TrimLeft(filePath, "/")
}

// SplitMethodPath is the inverse of MethodURL for the path part of an address.
// It reports false when the path does not have the form /{prefix}{token}/{endpoint}.
func SplitMethodPath(path, prefix string) (token, endpoint string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	credential, endpoint, found := strings.Cut(trimmed, "/")
	if !found || endpoint == "" || strings.Contains(endpoint, "/") {
		return "", "", false
	}
	if !strings.HasPrefix(credential, prefix) {
		return "", "", false
	}
	token = strings.TrimPrefix(credential, prefix)
	if token == "" {
		return "", "", false
	}
	return token, endpoint, true
}

// CredentialSegment returns the first path segment of an address, which for
// both method and file addresses identifies the bot.
func CredentialSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if rest, ok := strings.CutPrefix(trimmed, FileSegment+"/"); ok {
		trimmed = rest
	}
	segment, _, _ := strings.Cut(trimmed, "/")
	return segment
}

// Redact replaces every occurrence of token in s, in raw or path-escaped form.
func Redact(s, token string) string {
	if token == "" {
		return s
	}
	s = strings.ReplaceAll(s, token, redacted)
	if escaped := url.PathEscape(token); escaped != token {
		s = strings.ReplaceAll(s, escaped, redacted)
	}
	return s
}
