package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/session"
	"github.com/desertthunder/stagelog/internal/shared"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second

	refreshPath = "/api/auth/refresh"
)

// Kind tags requests whose 401 must not start a token refresh.
type Kind int

const (
	KindStandard Kind = iota
	KindLogin
	KindSignup
	KindRefresh
)

// Exempt reports whether a 401 on this kind is final.
func (k Kind) Exempt() bool { return k != KindStandard }

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindSignup:
		return "signup"
	case KindRefresh:
		return "refresh"
	default:
		return "standard"
	}
}

// Request describes one API call. Body is JSON-encoded unless it is already
// []byte or [json.RawMessage].
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
	Kind   Kind
}

// Response is a 2xx reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("failed to decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RefreshFunc obtains a new access token using the refresh cookie.
type RefreshFunc func(ctx context.Context) (models.TokenResponse, error)

// SignOutFunc is told to send the user back to the sign-in entry point after
// the session has been cleared.
type SignOutFunc func(ctx context.Context, entry string, cause error)

// DispatcherOpts configures [NewDispatcher]. Zero values fall back to defaults.
type DispatcherOpts struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Jar               http.CookieJar
	Store             *session.Store
	Logger            *log.Logger
	// Refresh replaces the POST /api/auth/refresh call.
	Refresh RefreshFunc
	SignOut SignOutFunc
}

// Dispatcher issues API requests with the current bearer token and hands
// 401 responses to its [RefreshCoordinator] before the caller sees them.
type Dispatcher struct {
	baseURL     string
	timeout     time.Duration
	client      *http.Client
	store       *session.Store
	limiter     *rate.Limiter
	logger      *log.Logger
	coordinator *RefreshCoordinator
}

// NewDispatcher builds a dispatcher and the one coordinator it will use for
// its whole lifetime.
func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Store == nil {
		opts.Store = session.NewStore(nil, opts.Logger)
	}

	client := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client = &c
	}
	if client.Timeout == 0 {
		client.Timeout = opts.Timeout
	}
	if client.Jar == nil && opts.Jar != nil {
		client.Jar = opts.Jar
	}

	d := &Dispatcher{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		client:  client,
		store:   opts.Store,
		logger:  shared.WithLogger(opts.Logger, "component", "dispatcher"),
	}
	if opts.RequestsPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	refresh := opts.Refresh
	if refresh == nil {
		refresh = d.refreshToken
	}
	d.coordinator = newRefreshCoordinator(d, refresh, opts.SignOut, opts.Logger)
	return d
}

func (d *Dispatcher) BaseURL() string                  { return d.baseURL }
func (d *Dispatcher) Store() *session.Store            { return d.store }
func (d *Dispatcher) Coordinator() *RefreshCoordinator { return d.coordinator }

// Send issues req. A 401 on a non-exempt request is recovered by refreshing
// the token once and re-sending; the caller only sees the outcome of the
// re-sent request.
func (d *Dispatcher) Send(ctx context.Context, req Request) (*Response, error) {
	return d.send(ctx, req, attempt{})
}

// attempt is created per dispatch. Replays carry the refreshed token
// explicitly and are never retried again.
type attempt struct {
	retried bool
	token   string
}

func (d *Dispatcher) send(ctx context.Context, req Request, a attempt) (*Response, error) {
	resp, sentWith, err := d.do(ctx, req, a)
	if err == nil {
		return resp, nil
	}

	apiErr, ok := err.(*APIError)
	if !ok || !apiErr.Unauthorized() || req.Kind.Exempt() {
		return nil, err
	}
	if a.retried {
		return nil, d.coordinator.rejected(ctx, sentWith, apiErr)
	}
	return d.coordinator.recover(ctx, req, sentWith)
}

// do performs one HTTP round trip. It returns the token the request carried.
func (d *Dispatcher) do(ctx context.Context, req Request, a attempt) (*Response, string, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, "", &NetworkError{Method: method, Path: req.Path, Err: err}
		}
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to encode request body: %w", shared.ErrInvalidInput, err)
	}

	fullURL := d.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	requestID := shared.GenerateID()
	httpReq.Header.Set("X-Request-ID", requestID)

	token := a.token
	if token == "" {
		token, _ = d.store.Token()
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	} else {
		httpReq.Header.Del("Authorization")
	}

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		d.logger.Debug("request failed", "method", method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, token, &NetworkError{Method: method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, token, &NetworkError{Method: method, Path: req.Path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	d.logger.Debug("request",
		"method", method, "path", req.Path, "status", resp.StatusCode,
		"retried", a.retried, "duration", time.Since(start), "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, token, newAPIError(method, req.Path, resp.StatusCode, data)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, token, nil
}

func encodeBody(v any) (io.Reader, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}

// refreshToken is the default [RefreshFunc]: the refresh cookie rides on the jar.
func (d *Dispatcher) refreshToken(ctx context.Context) (models.TokenResponse, error) {
	var tr models.TokenResponse
	resp, err := d.Send(ctx, Request{Method: http.MethodPost, Path: refreshPath, Kind: KindRefresh})
	if err != nil {
		return tr, err
	}
	if err := resp.Decode(&tr); err != nil {
		return tr, err
	}
	if tr.AccessToken == "" {
		return tr, fmt.Errorf("refresh response carried no access token")
	}
	return tr, nil
}

// call sends req and decodes a JSON reply into T.
func call[T any](ctx context.Context, d *Dispatcher, req Request) (T, error) {
	var out T
	resp, err := d.Send(ctx, req)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
