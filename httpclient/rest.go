package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DecodeJSON runs req and decodes the response body into T. When the status
// is an error the body is still decoded if it parses, and returned together
// with the status error so callers can read the remote payload.
func DecodeJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var data T
	resp, err := c.Do(ctx, req)
	if resp == nil || len(resp.Body) == 0 {
		return data, err
	}
	if decodeErr := json.Unmarshal(resp.Body, &data); decodeErr != nil && err == nil {
		return data, fmt.Errorf("httpclient: decode response: %w", decodeErr)
	}
	return data, err
}

// PostJSON sends body JSON-encoded to path and decodes the reply into T.
func PostJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return DecodeJSON[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}
