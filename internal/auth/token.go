// Package auth turns whatever session the caller holds into a bearer token
// for the repository host.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated means there is no session or it carries no token.
var ErrUnauthenticated = errors.New("authentication required")

// SessionCookie is the name of the cookie holding an encoded Session.
const SessionCookie = "session"

// Token is a bearer token for the repository host. It is never empty.
type Token string

// Session is the session shape issued by the sign-in flow. The token may sit
// at the session level or on the linked account under either spelling.
type Session struct {
	AccessToken string   `json:"accessToken,omitempty"`
	Account     *Account `json:"account,omitempty"`
}

// Account is the provider account linked to a Session.
type Account struct {
	AccessTokenSnake string `json:"access_token,omitempty"`
	AccessToken      string `json:"accessToken,omitempty"`
}

// RequireToken returns the session's bearer token, looking at the session
// level first and then at the account.
func RequireToken(s *Session) (Token, error) {
	if s == nil {
		return "", ErrUnauthenticated
	}
	candidates := []string{s.AccessToken}
	if s.Account != nil {
		candidates = append(candidates, s.Account.AccessTokenSnake, s.Account.AccessToken)
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return Token(c), nil
		}
	}
	return "", ErrUnauthenticated
}

// SessionFromRequest reads a session from a non-empty Authorization bearer
// header or, failing that, from the session cookie (base64url-encoded JSON). It returns
// nil when the request carries neither.
func SessionFromRequest(r *http.Request) *Session {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, _ := strings.Cut(h, " ")
		tok = strings.TrimSpace(tok)
		if strings.EqualFold(scheme, "Bearer") && tok != "" {
			return &Session{AccessToken: tok}
		}
	}

	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c.Value, "="))
	if err != nil {
		return nil
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// EncodeSession is the inverse of the cookie decoding in SessionFromRequest.
func EncodeSession(s Session) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
