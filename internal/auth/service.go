// Package auth implements admin authentication: a single env-configured
// account, bcrypt-checked, issuing short-lived JWTs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of an issued admin token.
const TokenTTL = time.Hour

// ErrBadCredentials is returned for any username/password mismatch. The
// message never says which of the two was wrong.
var ErrBadCredentials = errors.New("incorrect credentials")

// Service verifies admin credentials and issues JWTs.
type Service struct {
	username     string
	passwordHash string
	jwtSecret    string
	log          *zap.Logger
}

// NewService creates an auth Service from the configured admin account.
// passwordHash is a bcrypt hash.
func NewService(username, passwordHash, jwtSecret string, log *zap.Logger) *Service {
	return &Service{username: username, passwordHash: passwordHash, jwtSecret: jwtSecret, log: log}
}

// Login checks the credentials and returns a signed token valid for TokenTTL.
func (s *Service) Login(username, password string) (string, error) {
	if username != s.username {
		s.log.Warn("login failed: unknown username", zap.String("username", username))
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		s.log.Warn("login failed: wrong password", zap.String("username", username))
		return "", ErrBadCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  username,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(TokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.log.Info("admin logged in", zap.String("username", username))
	return signed, nil
}
