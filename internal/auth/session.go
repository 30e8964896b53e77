package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoSubject    = errors.New("access token has no subject")
	ErrTokenExpired = errors.New("access token expired")
)

const devIssuer = "fitcalc-devserver"

// ParseAccessToken reads the claims of an access token. The signature is
// not checked here; the backend verifies it on every call.
func ParseAccessToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// IssueDevToken signs an access token for userID, used against the dev
// server only.
func IssueDevToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    devIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}

// Session is the signed in user. Without a user every history query stays
// disabled.
type Session struct {
	mutex     sync.Mutex
	token     string
	claims    *jwt.RegisteredClaims
	onSignOut []func(userID string)
	now       func() time.Time
}

func NewSession() *Session {
	return &Session{now: time.Now}
}

// SignIn replaces the current user with the subject of token. An empty
// token signs out.
func (s *Session) SignIn(token string) (string, error) {
	if token == "" {
		s.SignOut()
		return "", nil
	}

	claims, err := ParseAccessToken(token)
	if err != nil {
		return "", err
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		return "", ErrTokenExpired
	}

	s.mutex.Lock()
	previous := s.userIDLocked()
	s.token = token
	s.claims = claims
	listeners := s.onSignOut
	s.mutex.Unlock()

	if previous != "" && previous != claims.Subject {
		notify(listeners, previous)
	}
	log.Debugf("auth: signed in as %s", claims.Subject)
	return claims.Subject, nil
}

func (s *Session) SignOut() {
	s.mutex.Lock()
	previous := s.userIDLocked()
	s.token = ""
	s.claims = nil
	listeners := s.onSignOut
	s.mutex.Unlock()

	if previous != "" {
		notify(listeners, previous)
	}
}

// OnSignOut registers fn to run with the user id whenever that user stops
// being the signed in one.
func (s *Session) OnSignOut(fn func(userID string)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onSignOut = append(s.onSignOut, fn)
}

// UserID is "" when nobody is signed in or the token expired.
func (s *Session) UserID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.userIDLocked()
}

func (s *Session) Token() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.userIDLocked() == "" {
		return ""
	}
	return s.token
}

func (s *Session) userIDLocked() string {
	if s.claims == nil {
		return ""
	}
	if s.claims.ExpiresAt != nil && !s.claims.ExpiresAt.After(s.now()) {
		return ""
	}
	return s.claims.Subject
}

func notify(listeners []func(string), userID string) {
	for _, fn := range listeners {
		fn(userID)
	}
}
