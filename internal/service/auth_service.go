package service

import (
	"crypto/subtle"
	"github.com/golang-jwt/jwt/v5"
	"storefront-service/internal/apperror"
	"time"
)

const adminTokenTTL = 24 * time.Hour

// AdminClaims is carried by admin bearer tokens.
type AdminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService checks the single configured admin account. It is a placeholder, not an
// account system.
type AuthService struct {
	username string
	password string
	secret   []byte
	now      func() time.Time
}

func NewAuthService(username, password, secret string) *AuthService {
	return &AuthService{
		username: username,
		password: password,
		secret:   []byte(secret),
		now:      time.Now,
	}
}

// AdminLogin returns a signed HS256 token for matching credentials.
func (s *AuthService) AdminLogin(username, password string) (string, error) {
	const op = "service.AdminLogin"

	if username == "" || password == "" {
		return "", apperror.Validation(op, "username and password are required")
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return "", apperror.Unauthorized(op, "invalid credentials")
	}

	now := s.now()
	claims := &AdminClaims{
		Username: username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.secret)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, op, err, "could not issue token")
	}
	return t, nil
}

// Secret is the key admin tokens are signed with.
func (s *AuthService) Secret() []byte {
	return s.secret
}
