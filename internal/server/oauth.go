package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

const (
	CallbackPath = "/oauth2/callback"
	// BridgePath matches the backend's refresh cookie path so the browser attaches the cookie.
	BridgePath    = "/api/auth/refresh"
	RefreshCookie = "refresh_token"
)

// CompleteFunc finishes the login once the refresh cookie is in the jar.
// providerErr is the callback's error parameter.
type CompleteFunc func(ctx context.Context, providerErr string) (models.UserInfo, error)

// OAuthResult contains the result of a social login.
type OAuthResult struct {
	User models.UserInfo
	err  error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthCallbackHandler receives the backend's OAuth2 redirect on a local listener.
type OAuthCallbackHandler struct {
	complete CompleteFunc
	adopt    func([]*http.Cookie)
	timeout  time.Duration

	resultChan chan OAuthResult
	once       sync.Once
	mu         sync.Mutex
	callback   bool
	bridged    bool
}

// NewOAuthCallbackHandler returns a handler that passes cookies presented on
// the bridge request to adopt, then calls complete.
func NewOAuthCallbackHandler(complete CompleteFunc, adopt func([]*http.Cookie), timeout time.Duration) *OAuthCallbackHandler {
	if adopt == nil {
		adopt = func([]*http.Cookie) {}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OAuthCallbackHandler{
		complete:   complete,
		adopt:      adopt,
		timeout:    timeout,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthCallbackHandler) Routes() []string {
	return []string{"GET " + CallbackPath, "POST " + BridgePath}
}

func (h *OAuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == BridgePath {
		h.serveBridge(w, r)
		return
	}
	h.serveCallback(w, r)
}

func (h *OAuthCallbackHandler) serveCallback(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callback {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callback = true
	h.mu.Unlock()

	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		_, err := h.complete(r.Context(), providerErr)
		if err == nil {
			err = fmt.Errorf("%w: %s", shared.ErrOAuthDenied, providerErr)
		}
		h.Send(OAuthResult{err: err})
		renderPage(w, http.StatusBadRequest, page{Title: "Login failed", Message: providerErr, Failed: true})
		return
	}

	renderPage(w, http.StatusOK, page{Title: "Finishing login", Message: "One moment…", Bridge: BridgePath})
}

func (h *OAuthCallbackHandler) serveBridge(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if !h.callback || h.bridged {
		h.mu.Unlock()
		http.Error(w, "Unexpected request", http.StatusBadRequest)
		return
	}
	h.bridged = true
	h.mu.Unlock()

	var cookies []*http.Cookie
	for _, c := range r.Cookies() {
		if c.Name == RefreshCookie {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: BridgePath, HttpOnly: true})
		}
	}
	h.adopt(cookies)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	user, err := h.complete(ctx, "")
	h.Send(OAuthResult{User: user, err: err})
	if err != nil {
		http.Error(w, "Login could not be completed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Send delivers the result (only once).
func (h *OAuthCallbackHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthCallbackHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// JarAdopter stores cookies in jar as if baseURL's refresh endpoint had set them.
func JarAdopter(jar http.CookieJar, baseURL string) (func([]*http.Cookie), error) {
	u, err := url.Parse(baseURL + BridgePath)
	if err != nil {
		return nil, fmt.Errorf("%w: base url %q", shared.ErrInvalidConfig, baseURL)
	}
	return func(cookies []*http.Cookie) {
		if len(cookies) > 0 {
			jar.SetCookies(u, cookies)
		}
	}, nil
}

type page struct {
	Title   string
	Message string
	Failed  bool
	Bridge  string
}

var pageTmpl = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #0f0f14; color: #e5e5ea; }
        .container { text-align: center; padding: 2rem; border-radius: 12px; background: #1c1c24; }
        h1 { margin: 0 0 1rem 0; color: {{if .Failed}}#f87171{{else}}#a78bfa{{end}}; }
        p { color: #9ca3af; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1 id="title">{{.Title}}</h1>
        <p id="message">{{.Message}}</p>
    </div>
{{- if .Bridge}}
    <script>
        fetch({{.Bridge}}, { method: "POST", credentials: "same-origin" }).then(function (r) {
            document.getElementById("title").textContent = r.ok ? "Login successful" : "Login failed";
            document.getElementById("message").textContent = r.ok
                ? "You can close this window and return to the terminal."
                : "Return to the terminal and try again.";
        });
    </script>
{{- end}}
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTmpl.Execute(w, p)
}
