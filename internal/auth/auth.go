package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// User is one entry of the provisioned staff list.
type User struct {
	Username     string
	PasswordHash string // bcrypt
}

// Service authenticates staff users and issues short-lived HS256 tokens.
type Service struct {
	users    map[string]string
	secret   []byte
	tokenTTL time.Duration
}

func NewService(users []User, secret string) *Service {
	byName := make(map[string]string, len(users))
	for _, u := range users {
		byName[u.Username] = u.PasswordHash
	}
	return &Service{
		users:    byName,
		secret:   []byte(secret),
		tokenTTL: time.Hour,
	}
}

// Login verifies the password against the stored bcrypt hash and returns a
// signed token. Unknown user and wrong password are indistinguishable to the
// caller.
func (s *Service) Login(username, password string) (string, error) {
	hash, ok := s.users[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a bearer token and returns the username it was
// issued to.
func (s *Service) ValidateToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidCredentials
	}
	return sub, nil
}

// HashPassword is a provisioning helper for generating config entries.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
