package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens. The subject is the principal id.
type Claims struct {
	Role   Role   `json:"role,omitempty"`
	Status Status `json:"status,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens issued by the identity provider.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}
}

func (v *Verifier) Verify(token string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	p := Principal{ID: claims.Subject, Role: claims.Role, Status: claims.Status}
	if p.Role == "" {
		p.Role = RoleClient
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if err := ValidatePrincipal(p); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// Sign mints a token for p. Used by tests and local tooling; production
// tokens come from the identity provider.
func (v *Verifier) Sign(p Principal, ttl time.Duration) (string, error) {
	if v == nil || len(v.secret) == 0 {
		return "", errors.New("signing secret is empty")
	}
	now := time.Now()
	claims := Claims{
		Role:   p.Role,
		Status: p.Status,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
