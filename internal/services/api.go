// Raw API access for debugging, routed through the dispatcher so it gets
// bearer attachment and token refresh like every other call.
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// APIService performs raw requests against arbitrary API paths.
type APIService struct {
	d *Dispatcher
}

func NewAPIService(d *Dispatcher) *APIService {
	return &APIService{d: d}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to path, which may include a query string.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data)
}

// Do sends method to path. Non-2xx statuses are returned as *APIError.
func (a *APIService) Do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	req := Request{Method: strings.ToUpper(method), Path: path}
	if p, rawQuery, ok := strings.Cut(path, "?"); ok {
		q, err := url.ParseQuery(rawQuery)
		if err != nil {
			return nil, err
		}
		req.Path, req.Query = p, q
	}
	if len(data) > 0 {
		req.Body = json.RawMessage(data)
	}

	resp, err := a.d.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       resp.Body,
	}

	var jsonData any
	if err := json.Unmarshal(resp.Body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}
