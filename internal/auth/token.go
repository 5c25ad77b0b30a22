// Package auth supplies the access token for the summary service. A
// missing or expired token is reported as "", never as an error.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/chris/worklog/internal/logging"
)

// ErrEmptyToken is returned when saving a blank token
var ErrEmptyToken = errors.New("token cannot be empty")

// TokenInfo is what can be read from a token without verifying it
type TokenInfo struct {
	JWT       bool
	Subject   string
	ExpiresAt *time.Time
}

// Expired reports whether the token carries an expiry at or before now
func (i TokenInfo) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// Inspect reads the registered claims of a JWT without checking its
// signature; the service does that. Opaque tokens come back with JWT false.
func Inspect(token string) TokenInfo {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}
	info := TokenInfo{JWT: true, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		info.ExpiresAt = &exp
	}
	return info
}

// Source implements summarize.TokenSource. A literal token wins over the
// token file.
type Source struct {
	token  string
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Source
type Option func(*Source)

// WithNow sets the clock used for expiry checks
func WithNow(fn func() time.Time) Option {
	return func(s *Source) { s.now = fn }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Source) { s.logger = logging.OrNop(l) }
}

// NewSource creates a Source from a literal token and/or a token file path
func NewSource(token, path string, opts ...Option) *Source {
	s := &Source{
		token:  token,
		path:   path,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessToken returns the current token, or "" when signed out or expired
func (s *Source) AccessToken(ctx context.Context) (string, error) {
	token := s.token
	if token == "" && s.path != "" {
		t, err := ReadTokenFile(s.path)
		if err != nil {
			return "", err
		}
		token = t
	}
	if token == "" {
		return "", nil
	}

	if info := Inspect(token); info.Expired(s.now()) {
		s.logger.Info("access token expired", zap.Time("expired_at", *info.ExpiresAt))
		return "", nil
	}
	return token, nil
}
