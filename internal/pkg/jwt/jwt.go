// Package jwt signs and checks the bearer tokens handed out at admin login
// and OTP verification. A token names an account and nothing more; what the
// account may do is looked up on every request.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuer = "sportsequip"

var ErrInvalidToken = errors.New("invalid token")

// Claims carry the account id and which table it lives in ("admin" or
// "student"). Subject repeats both as "role:id" for log correlation.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

// Service is an HS256 signer with a fixed lifetime per token.
type Service struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwtlib.Parser
}

func New(secret string, ttl time.Duration) *Service {
	s := &Service{key: []byte(secret), ttl: ttl, now: time.Now}
	s.parser = jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

func (s *Service) TTL() time.Duration { return s.ttl }

// GenerateToken issues a token for the account that expires after TTL.
func (s *Service) GenerateToken(userID int64, role string) (string, error) {
	issued := s.now()
	c := &Claims{UserID: userID, Role: role}
	c.Issuer = issuer
	c.Subject = fmt.Sprintf("%s:%d", role, userID)
	c.IssuedAt = jwtlib.NewNumericDate(issued)
	c.ExpiresAt = jwtlib.NewNumericDate(issued.Add(s.ttl))

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.key)
}

// ValidateToken returns the claims of a well-formed, unexpired token signed
// with this service's key. Every failure is ErrInvalidToken.
func (s *Service) ValidateToken(raw string) (*Claims, error) {
	var c Claims
	if _, err := s.parser.ParseWithClaims(raw, &c, s.keyFunc); err != nil {
		return nil, ErrInvalidToken
	}
	if c.UserID == 0 || c.Role == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

func (s *Service) keyFunc(*jwtlib.Token) (any, error) { return s.key, nil }
