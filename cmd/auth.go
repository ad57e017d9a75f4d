package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/server"
	"github.com/desertthunder/stagelog/internal/session"
	"github.com/desertthunder/stagelog/internal/shared"
)

// AuthLogin signs in with user ID and password, prompting for whatever flags omit.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	userID := cmd.String("user-id")
	if userID == "" {
		var err error
		if userID, err = r.prompt("User ID"); err != nil {
			return err
		}
	}
	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.promptSecret("Password"); err != nil {
			return err
		}
	}

	user, err := r.client.Auth.Login(ctx, userID, password)
	if err != nil {
		var fe shared.FieldErrors
		if errors.As(err, &fe) {
			return err
		}
		return fmt.Errorf("login failed: %w", err)
	}

	r.writePlain("✓ Signed in as %s (%s)\n", user.Nickname, user.Email)
	return nil
}

// AuthSignup creates an account and, unless --login=false, signs in with it.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	form := shared.SignupForm{
		UserID:   cmd.String("user-id"),
		Nickname: cmd.String("nickname"),
		Email:    cmd.String("email"),
	}
	fields := []struct {
		label string
		value *string
	}{
		{"User ID", &form.UserID},
		{"Nickname", &form.Nickname},
		{"Email", &form.Email},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := r.prompt(f.label)
		if err != nil {
			return err
		}
		*f.value = v
	}

	var err error
	if form.Password, err = r.promptSecret("Password"); err != nil {
		return err
	}
	if form.PasswordConfirm, err = r.promptSecret("Confirm password"); err != nil {
		return err
	}

	if !cmd.Bool("login") {
		id, err := r.client.Auth.Signup(ctx, form)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		r.writePlain("✓ Account %s created (id %d)\n", form.UserID, id)
		return nil
	}

	user, err := r.client.Auth.SignupAndLogin(ctx, form)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	r.writePlain("✓ Account created, signed in as %s\n", user.Nickname)
	return nil
}

// AuthLogout signs out. Local state is cleared even when the server call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if !r.client.Store().Authenticated() {
		r.writePlain("Not signed in\n")
		return nil
	}

	if err := r.client.Auth.Logout(ctx); err != nil {
		if r.client.Store().Authenticated() {
			return fmt.Errorf("logout failed: %w", err)
		}
		r.logger.Warn("server logout failed", "error", err)
	}
	r.writePlain("✓ Signed out\n")
	return nil
}

// AuthOAuth runs a social login: the browser visits the backend's
// authorization URL, the provider redirects to a local callback listener, and
// the refresh cookie it carries is exchanged for an access token.
func (r *Runner) AuthOAuth(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if r.jar == nil {
		return fmt.Errorf("%w: cookie jar not initialized", shared.ErrServiceUnavailable)
	}

	provider := cmd.String("provider")
	if provider == "" {
		provider = r.config.OAuth.Provider
	}
	if provider == "" {
		return fmt.Errorf("%w: --provider is required", shared.ErrMissingArgument)
	}

	adopt, err := server.JarAdopter(r.jar, r.config.API.BaseURL)
	if err != nil {
		return err
	}

	timeout := r.config.OAuth.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	handler := server.NewOAuthCallbackHandler(r.client.Auth.CompleteOAuth2, adopt, r.config.API.Timeout)

	router := server.NewBasicRouter()
	router.Use(server.RecoverMiddleware(r.logger), server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	listenCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	listener, err := server.Listen(listenCtx, r.config.OAuth.CallbackAddr(), router)
	if err != nil {
		return err
	}
	defer listener.Close()
	r.logger.Debug("callback listener started", "addr", listener.Addr())

	loginURL := r.client.Auth.AuthorizationURL(provider)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to sign in:\n  %s\n", loginURL)
	} else if err := r.openBrowser(loginURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		r.writePlain("Open this URL to sign in:\n  %s\n", loginURL)
	} else {
		r.writePlain("Waiting for %s login in your browser...\n", provider)
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("oauth login failed: %w", err)
		}
		r.writePlain("✓ Signed in as %s (%s)\n", result.User.Nickname, result.User.Email)
		return nil
	case <-listenCtx.Done():
		if errors.Is(listenCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, timeout)
		}
		return listenCtx.Err()
	}
}

type authStatus struct {
	Authenticated bool      `json:"authenticated"`
	UserID        int64     `json:"userId,omitempty"`
	Nickname      string    `json:"nickname,omitempty"`
	Email         string    `json:"email,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Role          string    `json:"role,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitzero"`
	Expired       bool      `json:"expired"`
	Cookies       int       `json:"cookies"`
}

// AuthStatus prints the stored session and what the access token claims.
// Nothing is sent to the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	status := authStatus{}
	if r.jar != nil {
		status.Cookies = r.jar.Len()
	}
	if user, ok := r.client.Store().User(); ok {
		status.UserID, status.Nickname, status.Email = user.UserID, user.Nickname, user.Email
	}
	token, ok := r.client.Store().Token()
	status.Authenticated = ok
	if ok {
		claims, err := session.ParseClaims(token)
		if err != nil {
			r.logger.Debug("access token is not a readable JWT", "error", err)
		} else {
			status.Subject, status.Role, status.ExpiresAt = claims.Subject, claims.Role, claims.ExpiresAt
			status.Expired = claims.Expired(r.now())
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		r.writePlain("Not signed in. Run `stagelog auth login`.\n")
		return nil
	}
	r.writePlainHeader("Session")
	r.writePlain("User:     %s (%s)\n", status.Nickname, status.Email)
	r.writePlain("User ID:  %d\n", status.UserID)
	if status.Role != "" {
		r.writePlain("Role:     %s\n", status.Role)
	}
	switch {
	case status.ExpiresAt.IsZero():
		r.writePlain("Expires:  unknown\n")
	case status.Expired:
		r.writePlain("Expires:  expired %s (refreshed on next request)\n", status.ExpiresAt.Local().Format(time.DateTime))
	default:
		r.writePlain("Expires:  %s\n", status.ExpiresAt.Local().Format(time.DateTime))
	}
	r.writePlain("Cookies:  %d\n", status.Cookies)
	return nil
}

// AuthRefresh forces a token refresh using the stored cookie.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	user, err := r.client.Auth.Refresh(ctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Token refreshed for %s\n", user.Nickname)
	return nil
}

// AuthCheckUserID reports whether a user ID can still be registered.
func (r *Runner) AuthCheckUserID(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user-id")
	if userID == "" {
		return fmt.Errorf("%w: user-id", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	taken, err := r.client.Auth.CheckUserID(ctx, userID)
	if err != nil {
		return err
	}
	if taken {
		r.writePlain("✗ %s is already taken\n", userID)
	} else {
		r.writePlain("✓ %s is available\n", userID)
	}
	return nil
}
