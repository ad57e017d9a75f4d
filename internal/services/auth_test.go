package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
	tu "github.com/desertthunder/stagelog/internal/testing"
)

func TestAuthLogin(t *testing.T) {
	ctx := context.Background()
	f := tu.NewFakeBackend(t)
	c := newTestClient(t, f.URL, nil)

	var events []bool
	c.Store().Subscribe(func(a bool) { events = append(events, a) })

	user, err := c.Auth.Login(ctx, "stagefan", "abc123!@")
	require.NoError(t, err)
	assert.Equal(t, f.User(), user)

	token, ok := c.Store().Token()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
	stored, _ := c.Store().User()
	assert.Equal(t, "stagefan", stored.Nickname)
	assert.Equal(t, []bool{true}, events)

	_, err = c.Reviews.List(ctx)
	require.NoError(t, err)
	assert.Zero(t, f.Count(http.MethodPost, "/api/auth/refresh"))
}

func TestAuthLoginValidation(t *testing.T) {
	f := tu.NewFakeBackend(t)
	c := newTestClient(t, f.URL, nil)

	_, err := c.Auth.Login(context.Background(), " ", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	var fe shared.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "userId")
	assert.Contains(t, fe, "password")
	assert.Empty(t, f.Requests(), "invalid forms never reach the network")
}

func TestAuthSignup(t *testing.T) {
	ctx := context.Background()
	f := tu.NewFakeBackend(t)
	c := newTestClient(t, f.URL, nil)

	form := shared.SignupForm{
		UserID:          "newfan",
		Nickname:        "새팬",
		Email:           "new@stagelog.kr",
		Password:        "pass123!",
		PasswordConfirm: "pass123!",
	}

	t.Run("signup and login", func(t *testing.T) {
		user, err := c.Auth.SignupAndLogin(ctx, form)
		require.NoError(t, err)
		assert.NotZero(t, user.UserID)
		assert.True(t, c.Store().Authenticated())
	})

	t.Run("duplicate user id", func(t *testing.T) {
		_, err := c.Auth.Signup(ctx, form)
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, StatusCode(err))
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		bad := form
		bad.UserID = "other"
		bad.PasswordConfirm = "nope"
		_, err := c.Auth.Signup(ctx, bad)
		var fe shared.FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "passwords do not match", fe["passwordConfirm"])
	})

	assert.Zero(t, f.Count(http.MethodPost, "/api/auth/refresh"))
}

func TestAuthSignupUnauthorizedIsFinal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	refreshed := false
	c := newTestClient(t, srv.URL, nil, withRefresh(func(context.Context) (models.TokenResponse, error) {
		refreshed = true
		return models.TokenResponse{}, nil
	}))
	_, err := c.Auth.Signup(context.Background(), shared.SignupForm{
		UserID: "newfan", Nickname: "newfan", Email: "a@b.kr", Password: "pass123!", PasswordConfirm: "pass123!",
	})
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.False(t, refreshed)
}

func TestAuthLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears session and cookies", func(t *testing.T) {
		f := tu.NewFakeBackend(t)
		c := newTestClient(t, f.URL, nil)
		_, err := c.Auth.Login(ctx, "stagefan", "abc123!@")
		require.NoError(t, err)
		require.Equal(t, 1, c.Auth.jar.Len())

		require.NoError(t, c.Auth.Logout(ctx))
		assert.False(t, c.Store().Authenticated())
		assert.Zero(t, c.Auth.jar.Len())
		assert.Equal(t, 1, f.Count(http.MethodPost, "/api/auth/logout"))
	})

	t.Run("server failure still clears local state", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, nil)
		require.NoError(t, c.Store().SetSession(ctx, "T1", models.UserInfo{UserID: 1}))

		err := c.Auth.Logout(ctx)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
		assert.False(t, c.Store().Authenticated())
	})
}

func TestAuthRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates token", func(t *testing.T) {
		f := tu.NewFakeBackend(t)
		c := newTestClient(t, f.URL, nil)
		_, err := c.Auth.Login(ctx, "stagefan", "abc123!@")
		require.NoError(t, err)

		_, err = c.Auth.Refresh(ctx)
		require.NoError(t, err)
		token, _ := c.Store().Token()
		assert.Equal(t, "T2", token)
	})

	t.Run("401 on refresh is not itself refreshed", func(t *testing.T) {
		f := tu.NewFakeBackend(t)
		f.FailRefresh(http.StatusUnauthorized)
		rec := &signOutRecorder{}
		c := newTestClient(t, f.URL, rec)

		_, err := c.Auth.Refresh(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrRefreshFailed)
		assert.Equal(t, 1, f.Count(http.MethodPost, "/api/auth/refresh"))
		assert.Equal(t, []string{SignInEntry}, rec.calls())
		assert.Equal(t, Idle, c.Dispatcher.Coordinator().State())
	})
}

func TestAuthCompleteOAuth2(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		f := tu.NewFakeBackend(t)
		c := newTestClient(t, f.URL, nil)
		_, err := c.Auth.CompleteOAuth2(ctx, "access_denied")
		assert.ErrorIs(t, err, shared.ErrOAuthDenied)
		assert.Empty(t, f.Requests())
	})

	t.Run("refresh cookie from callback", func(t *testing.T) {
		f := tu.NewFakeBackend(t)
		c := newTestClient(t, f.URL, nil)
		// leaves the refresh cookie in the jar, as the provider redirect would
		_, err := c.Auth.Login(ctx, "stagefan", "abc123!@")
		require.NoError(t, err)
		require.NoError(t, c.Store().ClearSession(ctx))

		user, err := c.Auth.CompleteOAuth2(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "stagefan", user.Nickname)
		token, _ := c.Store().Token()
		assert.Equal(t, "T2", token)
	})

	t.Run("no cookie", func(t *testing.T) {
		f := tu.NewFakeBackend(t)
		c := newTestClient(t, f.URL, nil)
		_, err := c.Auth.CompleteOAuth2(ctx, "")
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.ErrorIs(t, err, shared.ErrRefreshFailed)
		assert.False(t, c.Store().Authenticated())
	})
}

func TestAuthorizationURL(t *testing.T) {
	c := newTestClient(t, "http://localhost:8080/", nil)
	assert.Equal(t, "http://localhost:8080/oauth2/authorization/kakao", c.Auth.AuthorizationURL("kakao"))
}

func TestCheckUserID(t *testing.T) {
	ctx := context.Background()
	f := tu.NewFakeBackend(t)
	c := newTestClient(t, f.URL, nil)

	taken, err := c.Auth.CheckUserID(ctx, "stagefan")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = c.Auth.CheckUserID(ctx, "someone_new")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = c.Auth.CheckUserID(ctx, "no spaces")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
