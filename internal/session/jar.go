package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/publicsuffix"
)

// storedCookie is one persisted cookie together with the URL that set it.
type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

// key identifies a cookie the way a browser does: name, domain and path.
func (c storedCookie) key() string {
	u, _ := url.Parse(c.URL)
	domain, p := c.Domain, c.Path
	if domain == "" && u != nil {
		domain = u.Hostname()
	}
	if p == "" && u != nil {
		p = defaultCookiePath(u.Path)
	}
	return c.Name + "|" + strings.TrimPrefix(domain, ".") + "|" + p
}

// defaultCookiePath is the RFC 6265 default-path of a request path.
func defaultCookiePath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func (c storedCookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// Jar is an [http.CookieJar] whose contents survive restarts.
//
// Cookie matching is delegated to [cookiejar.Jar]. Every SetCookies is also
// mirrored into the backend under [KeyCookies].
type Jar struct {
	backend Backend
	logger  *log.Logger
	now     func() time.Time

	mu      sync.Mutex
	jar     *cookiejar.Jar
	entries map[string]storedCookie
}

// NewJar loads previously stored cookies from b.
func NewJar(ctx context.Context, b Backend, logger *log.Logger) (*Jar, error) {
	j := &Jar{backend: b, logger: logger, now: time.Now}
	if err := j.reset(); err != nil {
		return nil, err
	}

	stored, err := b.Load(ctx, KeyCookies)
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}
	raw, ok := stored[KeyCookies]
	if !ok {
		return j, nil
	}

	var cookies []storedCookie
	if err := json.Unmarshal(raw, &cookies); err != nil {
		logger.Warn("discarding malformed stored cookies", "error", err)
		return j, nil
	}

	now := j.now()
	for _, c := range cookies {
		if c.expired(now) {
			continue
		}
		u, err := url.Parse(c.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{c.httpCookie()})
		j.entries[c.key()] = c
	}
	return j, nil
}

func (j *Jar) reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	j.jar = jar
	j.entries = make(map[string]storedCookie)
	return nil
}

func (c storedCookie) httpCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

// SetCookies implements [http.CookieJar].
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
	now := j.now()
	for _, c := range cookies {
		sc := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge < 0:
			sc.Expires = now.Add(-time.Second)
		case c.MaxAge > 0:
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		default:
			sc.Expires = c.Expires
		}

		if sc.expired(now) {
			delete(j.entries, sc.key())
			continue
		}
		j.entries[sc.key()] = sc
	}

	if err := j.persist(context.Background()); err != nil {
		j.logger.Warn("could not persist cookies", "error", err)
	}
}

// Cookies implements [http.CookieJar].
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Len is the number of live persisted cookies.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Clear drops every cookie from memory and storage.
func (j *Jar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.reset(); err != nil {
		return err
	}
	if err := j.backend.Delete(ctx, KeyCookies); err != nil {
		return fmt.Errorf("failed to delete cookies: %w", err)
	}
	return nil
}

// persist must be called with j.mu held.
func (j *Jar) persist(ctx context.Context) error {
	list := make([]storedCookie, 0, len(j.entries))
	for _, c := range j.entries {
		list = append(list, c)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return j.backend.Save(ctx, map[string][]byte{KeyCookies: data})
}
