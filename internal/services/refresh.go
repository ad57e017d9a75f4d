package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

// SignInEntry is where a forced sign-out sends the user.
const SignInEntry = "/login"

// State of a [RefreshCoordinator].
type State int

const (
	// Idle: no refresh in flight and no waiters.
	Idle State = iota
	// Refreshing: exactly one refresh call is outstanding; 401s are queued behind it.
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// outcome settles a waiter: the refreshed token and identity, or the refresh error.
type outcome struct {
	token string
	user  models.UserInfo
	err   error
}

// RefreshCoordinator makes sure concurrent 401s share a single refresh call.
//
// The first 401 seen while Idle flips the state to Refreshing under the lock
// and performs the refresh; any 401 arriving meanwhile waits on a buffered
// channel. When the refresh settles every waiter is released, the state
// returns to Idle, and each caller re-sends its own request once through the
// dispatcher with the new token.
type RefreshCoordinator struct {
	dispatcher *Dispatcher
	refresh    RefreshFunc
	signOut    SignOutFunc
	logger     *log.Logger

	mu    sync.Mutex
	state State
	queue []chan outcome
}

func newRefreshCoordinator(d *Dispatcher, refresh RefreshFunc, signOut SignOutFunc, logger *log.Logger) *RefreshCoordinator {
	if signOut == nil {
		signOut = func(context.Context, string, error) {}
	}
	return &RefreshCoordinator{
		dispatcher: d,
		refresh:    refresh,
		signOut:    signOut,
		logger:     shared.WithLogger(logger, "component", "refresh"),
	}
}

// State returns the current state.
func (c *RefreshCoordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending is the number of queued waiters.
func (c *RefreshCoordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// recover handles a 401 for req, which was sent carrying staleToken.
func (c *RefreshCoordinator) recover(ctx context.Context, req Request, staleToken string) (*Response, error) {
	c.mu.Lock()
	if c.state == Idle {
		// A refresh finished between this request's send and its 401.
		if current, ok := c.dispatcher.store.Token(); ok && current != staleToken {
			c.mu.Unlock()
			c.logger.Debug("replaying with already refreshed token", "path", req.Path)
			return c.replay(ctx, req, current)
		}

		c.state = Refreshing
		c.mu.Unlock()

		out := c.lead(ctx)
		if out.err != nil {
			return nil, out.err
		}
		return c.replay(ctx, req, out.token)
	}

	wait := c.enqueue()
	c.mu.Unlock()
	c.logger.Debug("queued behind refresh", "method", req.Method, "path", req.Path)

	out, err := c.await(ctx, wait, req.Method, req.Path)
	if err != nil {
		return nil, err
	}
	return c.replay(ctx, req, out.token)
}

// Refresh obtains a new access token outside of any failed request, as an
// explicit refresh or an OAuth2 completion does. It joins a refresh already
// in flight rather than starting a second one. Failure signs the user out
// exactly like a refresh triggered by a 401.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (models.UserInfo, error) {
	c.mu.Lock()
	if c.state == Idle {
		c.state = Refreshing
		c.mu.Unlock()
		out := c.lead(ctx)
		return out.user, out.err
	}

	wait := c.enqueue()
	c.mu.Unlock()
	c.logger.Debug("joined refresh in flight")

	out, err := c.await(ctx, wait, http.MethodPost, refreshPath)
	if err != nil {
		return models.UserInfo{}, err
	}
	return out.user, nil
}

// enqueue adds a waiter. c.mu must be held.
func (c *RefreshCoordinator) enqueue() chan outcome {
	wait := make(chan outcome, 1)
	c.queue = append(c.queue, wait)
	return wait
}

func (c *RefreshCoordinator) await(ctx context.Context, wait <-chan outcome, method, path string) (outcome, error) {
	select {
	case out := <-wait:
		return out, out.err
	case <-ctx.Done():
		return outcome{}, &NetworkError{Method: method, Path: path, Err: ctx.Err()}
	}
}

// lead performs the refresh. It must be entered with state already set to
// Refreshing by the caller, and always leaves the state Idle.
func (c *RefreshCoordinator) lead(ctx context.Context) outcome {
	settled := false
	defer func() {
		if !settled {
			c.settle(outcome{err: fmt.Errorf("%w: refresh aborted", shared.ErrRefreshFailed)})
		}
	}()

	c.logger.Info("access token rejected, refreshing")

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.dispatcher.timeout)
	defer cancel()

	tr, err := c.refresh(rctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
		if clearErr := c.dispatcher.store.ClearSession(rctx); clearErr != nil {
			c.logger.Warn("could not clear stored session", "error", clearErr)
		}
		settled = true
		c.settle(outcome{err: err})

		c.logger.Warn("refresh failed, signing out", "error", err)
		c.signOut(ctx, SignInEntry, err)
		return outcome{err: err}
	}

	out := outcome{token: tr.AccessToken, user: tr.UserInfo()}
	if err := c.dispatcher.store.SetSession(rctx, out.token, out.user); err != nil {
		c.logger.Warn("refreshed session was not persisted", "error", err)
	}
	settled = true
	c.settle(out)
	c.logger.Info("access token refreshed")
	return out
}

// settle releases every waiter and returns to Idle.
func (c *RefreshCoordinator) settle(out outcome) {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.state = Idle
	c.mu.Unlock()

	for _, wait := range queue {
		wait <- out
	}
	if len(queue) > 0 {
		c.logger.Debug("released queued requests", "count", len(queue), "ok", out.err == nil)
	}
}

func (c *RefreshCoordinator) replay(ctx context.Context, req Request, token string) (*Response, error) {
	return c.dispatcher.send(ctx, req, attempt{retried: true, token: token})
}

// rejected handles a 401 on a request that was already re-sent with a
// refreshed token. The error is final; if the rejected token is still the
// current one the session is unusable and the user is signed out.
func (c *RefreshCoordinator) rejected(ctx context.Context, token string, cause *APIError) error {
	err := fmt.Errorf("%w: %w", shared.ErrSessionRejected, cause)

	cleared, clearErr := c.dispatcher.store.ClearIfToken(ctx, token)
	if clearErr != nil {
		c.logger.Warn("could not clear stored session", "error", clearErr)
	}
	if cleared {
		c.logger.Warn("refreshed token rejected, signing out", "path", cause.Path)
		c.signOut(ctx, SignInEntry, err)
	}
	return err
}
