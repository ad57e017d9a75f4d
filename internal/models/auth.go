package models

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and refresh. The refresh token itself
// arrives as an HttpOnly cookie and never appears here.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType,omitempty"`
	UserID      int64  `json:"userId"`
	Email       string `json:"email"`
	Nickname    string `json:"nickname"`
}

// UserInfo is the signed-in identity, persisted as JSON under the userInfo key.
type UserInfo struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// UserInfo extracts the identity half of the response.
func (t TokenResponse) UserInfo() UserInfo {
	return UserInfo{UserID: t.UserID, Email: t.Email, Nickname: t.Nickname}
}
