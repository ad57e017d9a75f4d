package shared

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	userIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_]{2,20}$`)
	nicknamePattern = regexp.MustCompile(`^[가-힣a-zA-Z0-9_]{2,20}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*#?&]{8,20}$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`\d`)
	hasSpecial      = regexp.MustCompile(`[@$!%*#?&]`)
)

// Review length limits, counted in characters.
const (
	ReviewTitleMax   = 100
	ReviewContentMax = 5000
)

// FieldErrors maps a form field to the message shown next to it.
//
// It never reaches the network: callers check it before dispatching.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, fe[f])
	}
	return fmt.Sprintf("%v: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (fe FieldErrors) Unwrap() error { return ErrInvalidInput }

// Err returns nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func IsValidUserID(s string) bool   { return userIDPattern.MatchString(s) }
func IsValidNickname(s string) bool { return nicknamePattern.MatchString(s) }
func IsValidEmail(s string) bool    { return emailPattern.MatchString(s) }

// IsValidPassword requires 8-20 characters from letters, digits and @$!%*#?&,
// with at least one of each class.
func IsValidPassword(s string) bool {
	return passwordCharset.MatchString(s) &&
		hasLetter.MatchString(s) &&
		hasDigit.MatchString(s) &&
		hasSpecial.MatchString(s)
}

// ValidateLogin checks that both login fields are present.
func ValidateLogin(userID, password string) error {
	fe := FieldErrors{}
	if strings.TrimSpace(userID) == "" {
		fe["userId"] = "user ID is required"
	}
	if password == "" {
		fe["password"] = "password is required"
	}
	return fe.Err()
}

// SignupForm is the user-entered signup data, including the confirmation field.
type SignupForm struct {
	UserID          string
	Nickname        string
	Email           string
	Password        string
	PasswordConfirm string
}

// ValidateSignup applies the field rules of the signup form.
func ValidateSignup(f SignupForm) error {
	fe := FieldErrors{}
	switch {
	case f.UserID == "":
		fe["userId"] = "user ID is required"
	case !IsValidUserID(f.UserID):
		fe["userId"] = "user ID must be 2-20 letters, digits or underscores"
	}
	switch {
	case f.Nickname == "":
		fe["nickname"] = "nickname is required"
	case !IsValidNickname(f.Nickname):
		fe["nickname"] = "nickname must be 2-20 Hangul, letters, digits or underscores"
	}
	switch {
	case f.Email == "":
		fe["email"] = "email is required"
	case !IsValidEmail(f.Email):
		fe["email"] = "email is not a valid address"
	}
	switch {
	case f.Password == "":
		fe["password"] = "password is required"
	case !IsValidPassword(f.Password):
		fe["password"] = "password must be 8-20 characters with a letter, a digit and one of @$!%*#?&"
	}
	if f.PasswordConfirm != f.Password {
		fe["passwordConfirm"] = "passwords do not match"
	}
	return fe.Err()
}

// ValidateReview checks title and content lengths. Content is HTML and is
// measured as-is.
func ValidateReview(title, content string) error {
	fe := FieldErrors{}
	switch n := utf8.RuneCountInString(strings.TrimSpace(title)); {
	case n == 0:
		fe["title"] = "title is required"
	case n > ReviewTitleMax:
		fe["title"] = fmt.Sprintf("title must be at most %d characters", ReviewTitleMax)
	}
	switch n := utf8.RuneCountInString(content); {
	case strings.TrimSpace(content) == "":
		fe["content"] = "content is required"
	case n > ReviewContentMax:
		fe["content"] = fmt.Sprintf("content must be at most %d characters", ReviewContentMax)
	}
	return fe.Err()
}
