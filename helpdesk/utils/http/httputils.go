// helpdesk/utils/http/httputils.go
package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"helpdesk/helpdesk/utils/apperrors"
)

// DoJSON performs an authenticated JSON request and decodes the response
// into resp (which may be nil). Non-2xx responses are turned back into the
// sentinel errors the server encoded, so callers can errors.Is() on them.
func DoJSON(ctx context.Context, client *http.Client, method, url, token string, body, resp interface{}) error {
	if client == nil {
		client = http.DefaultClient
	}
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r, err := client.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode < 200 || r.StatusCode > 299 {
		return decodeError(r)
	}
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}

func GetJSON(ctx context.Context, client *http.Client, url, token string, resp interface{}) error {
	return DoJSON(ctx, client, http.MethodGet, url, token, nil, resp)
}

func PostJSON(ctx context.Context, client *http.Client, url, token string, body, resp interface{}) error {
	return DoJSON(ctx, client, http.MethodPost, url, token, body, resp)
}

func PutJSON(ctx context.Context, client *http.Client, url, token string, body, resp interface{}) error {
	return DoJSON(ctx, client, http.MethodPut, url, token, body, resp)
}

func DeleteJSON(ctx context.Context, client *http.Client, url, token string) error {
	return DoJSON(ctx, client, http.MethodDelete, url, token, nil, nil)
}

func decodeError(r *http.Response) error {
	var body apperrors.ErrorBody
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Code != "" {
		return apperrors.FromCode(body.Code, body.Error)
	}
	return fmt.Errorf("bad status: %d", r.StatusCode)
}
