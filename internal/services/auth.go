package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/session"
	"github.com/desertthunder/stagelog/internal/shared"
)

// AuthService covers login, signup, logout and OAuth2 completion. Every call
// that yields a token commits it to the session store.
type AuthService struct {
	d      *Dispatcher
	jar    *session.Jar
	logger *log.Logger
}

// NewAuthService returns an AuthService. jar may be nil when cookies are not persisted.
func NewAuthService(d *Dispatcher, jar *session.Jar, logger *log.Logger) *AuthService {
	return &AuthService{d: d, jar: jar, logger: shared.WithLogger(logger, "component", "auth")}
}

// Login authenticates with user ID and password. A 401 here means bad
// credentials and is returned as-is.
func (s *AuthService) Login(ctx context.Context, userID, password string) (models.UserInfo, error) {
	if err := shared.ValidateLogin(userID, password); err != nil {
		return models.UserInfo{}, err
	}

	tr, err := call[models.TokenResponse](ctx, s.d, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   models.LoginRequest{UserID: userID, Password: password},
		Kind:   KindLogin,
	})
	if err != nil {
		return models.UserInfo{}, err
	}
	return s.commit(ctx, tr)
}

// Signup registers a new account and returns its id. It does not log in.
func (s *AuthService) Signup(ctx context.Context, form shared.SignupForm) (int64, error) {
	if err := shared.ValidateSignup(form); err != nil {
		return 0, err
	}

	resp, err := s.d.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/signup",
		Body: models.SignupRequest{
			UserID:   form.UserID,
			Nickname: form.Nickname,
			Email:    form.Email,
			Password: form.Password,
		},
		Kind: KindSignup,
	})
	if err != nil {
		return 0, err
	}

	// the body is the bare new id
	var id int64
	if len(resp.Body) > 0 {
		if err := resp.Decode(&id); err != nil {
			s.logger.Debug("signup response had no id", "error", err)
		}
	}
	return id, nil
}

// SignupAndLogin registers and then logs in with the same credentials.
func (s *AuthService) SignupAndLogin(ctx context.Context, form shared.SignupForm) (models.UserInfo, error) {
	if _, err := s.Signup(ctx, form); err != nil {
		return models.UserInfo{}, err
	}
	return s.Login(ctx, form.UserID, form.Password)
}

// Logout tells the server to drop the refresh cookie, then clears local
// state whether or not the server call succeeded. The server error is
// returned for logging only.
func (s *AuthService) Logout(ctx context.Context) error {
	_, serverErr := s.d.Send(ctx, Request{Method: http.MethodPost, Path: "/api/auth/logout"})
	if serverErr != nil {
		s.logger.Warn("logout request failed, clearing local session anyway", "error", serverErr)
	}

	if err := s.d.store.ClearSession(ctx); err != nil {
		return err
	}
	if s.jar != nil {
		if err := s.jar.Clear(ctx); err != nil {
			return err
		}
	}
	return serverErr
}

// Refresh exchanges the refresh cookie for a new access token through the
// dispatcher's coordinator, so it never races a refresh started by a 401.
func (s *AuthService) Refresh(ctx context.Context) (models.UserInfo, error) {
	user, err := s.d.coordinator.Refresh(ctx)
	if err != nil {
		return models.UserInfo{}, err
	}
	s.logger.Debug("token refreshed", "user", user.Nickname)
	return user, nil
}

// CompleteOAuth2 finishes a provider login. The backend has already set the
// refresh cookie on the callback redirect, so the access token is obtained by
// refreshing. providerErr is the callback's error parameter.
func (s *AuthService) CompleteOAuth2(ctx context.Context, providerErr string) (models.UserInfo, error) {
	if providerErr != "" {
		return models.UserInfo{}, fmt.Errorf("%w: %s", shared.ErrOAuthDenied, providerErr)
	}
	user, err := s.Refresh(ctx)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return user, nil
}

// AuthorizationURL is the backend URL that starts an OAuth2 login with provider.
func (s *AuthService) AuthorizationURL(provider string) string {
	return s.d.baseURL + "/oauth2/authorization/" + url.PathEscape(provider)
}

// CheckUserID reports whether userID is already taken.
func (s *AuthService) CheckUserID(ctx context.Context, userID string) (bool, error) {
	if !shared.IsValidUserID(userID) {
		return false, shared.FieldErrors{"userId": "user ID must be 2-20 letters, digits or underscores"}
	}
	return call[bool](ctx, s.d, Request{
		Method: http.MethodGet,
		Path:   "/api/auth/check-userid",
		Query:  url.Values{"userId": {userID}},
	})
}

func (s *AuthService) commit(ctx context.Context, tr models.TokenResponse) (models.UserInfo, error) {
	user := tr.UserInfo()
	if tr.AccessToken == "" {
		return user, fmt.Errorf("%w: response carried no access token", shared.ErrAuthFailed)
	}
	if err := s.d.store.SetSession(ctx, tr.AccessToken, user); err != nil {
		s.logger.Warn("session will not survive a restart", "error", err)
	}
	s.logger.Debug("signed in", "user", user.Nickname)
	return user, nil
}
