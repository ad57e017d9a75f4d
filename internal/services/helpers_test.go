package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/desertthunder/stagelog/internal/session"
	"github.com/desertthunder/stagelog/internal/shared"
	tu "github.com/desertthunder/stagelog/internal/testing"
)

// signOutRecorder records every forced sign-out.
type signOutRecorder struct {
	mu      sync.Mutex
	entries []string
	causes  []error
}

func (r *signOutRecorder) fn(_ context.Context, entry string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	r.causes = append(r.causes, cause)
}

func (r *signOutRecorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

type clientOpt func(*ClientOpts)

func withRefresh(fn RefreshFunc) clientOpt { return func(o *ClientOpts) { o.Refresh = fn } }
func withTimeout(d time.Duration) clientOpt {
	return func(o *ClientOpts) { o.Config.Timeout = d }
}

func newTestClient(t *testing.T, baseURL string, rec *signOutRecorder, opts ...clientOpt) *Client {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	store := session.NewStore(session.NewMemoryBackend(), logger)
	jar, err := session.NewJar(context.Background(), session.NewMemoryBackend(), logger)
	require.NoError(t, err)

	o := ClientOpts{
		Config: shared.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Store:  store,
		Jar:    jar,
		Logger: logger,
	}
	if rec != nil {
		o.SignOut = rec.fn
	}
	for _, opt := range opts {
		opt(&o)
	}
	return NewClient(o)
}

// signedInWithStaleToken logs in as the fake user and then invalidates the
// access token server-side, leaving a valid refresh cookie in the jar.
func signedInWithStaleToken(t *testing.T, c *Client, f *tu.FakeBackend) {
	t.Helper()
	_, err := c.Auth.Login(context.Background(), "stagefan", "abc123!@")
	require.NoError(t, err)
	f.SetAccessToken("rotated-elsewhere")
}

// waitForPending blocks until n requests are queued behind the refresh.
func waitForPending(t *testing.T, c *Client, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for c.Dispatcher.Coordinator().Pending() < n {
		if time.Now().After(deadline) {
			t.Errorf("timed out waiting for %d queued requests, have %d", n, c.Dispatcher.Coordinator().Pending())
			return
		}
		time.Sleep(time.Millisecond)
	}
}
