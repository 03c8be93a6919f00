package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the bearer token claims. The ledger only reads user_id, which
// becomes the owner of every row the request touches.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// OwnerID parses the user_id claim
func (c *Claims) OwnerID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrMissingUserID
	}
	return id, nil
}

// JWTService verifies HS256 bearer tokens issued by the identity service
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a JWTService from the jwt configuration section
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// Validate parses and verifies tokenString. Only HS256 is accepted, and the
// issuer must match when one is configured.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.OwnerID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Issue signs a token for ownerID. The server never issues tokens itself;
// this backs tests and local tooling.
func (s *JWTService) Issue(ownerID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   ownerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: ownerID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
