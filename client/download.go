package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mini-botapi/message"
	"mini-botapi/protocol"
	"mini-botapi/transport"
)

// DownloadFile fetches the content of a file by the FilePath returned from
// getFile. A non-2xx answer becomes an *message.APIError.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	filePath = strings.TrimLeft(strings.TrimSpace(filePath), "/")
	if filePath == "" {
		return nil, errors.New("file path is empty")
	}

	req := &transport.Request{
		Method: http.MethodGet,
		URL:    protocol.FileURL(c.baseURL, c.prefix, c.token, filePath),
		Header: http.Header{"User-Agent": {userAgent}},
	}
	resp, err := c.exchange(ctx, protocol.FileSegment, req)
	if err != nil {
		return nil, err
	}
	if resp.IsSuccess() {
		return resp.Body, nil
	}

	// file servers answer with an envelope or with plain text
	var apiErr *message.APIError
	if errors.As(message.Unwrap(resp.StatusCode, resp.Body, nil), &apiErr) {
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		return nil, c.redact(apiErr)
	}
	desc := strings.TrimSpace(string(resp.Body))
	if desc == "" {
		desc = http.StatusText(resp.StatusCode)
	}
	return nil, c.redact(&message.APIError{Code: resp.StatusCode, Description: desc})
}
