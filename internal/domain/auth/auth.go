// Package auth provides password hashing and bearer-token issuance for
// customer accounts.
package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned for tokens that are malformed, expired, signed
// with the wrong key, or missing required claims.
var ErrInvalidToken = errors.New("could not validate credentials")

// Claims are the JWT claims carried by an access token. The subject is the
// customer's email.
type Claims struct {
	CustomerID int64 `json:"cid"`
	RoleID     int64 `json:"rid"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 access tokens and hashes passwords.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a Service signing tokens with secret, valid for ttl.
func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func (s *Service) VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// CreateToken issues a signed access token for the given customer identity.
func (s *Service) CreateToken(email string, customerID, roleID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		CustomerID: customerID,
		RoleID:     roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// ParseToken validates a token string and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.CustomerID == 0 {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
