package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier turns a bearer token into a principal. Tokens are issued elsewhere.
type TokenVerifier interface {
	Verify(tokenString string) (authz.Principal, error)
}

type JWTClaims struct {
	Org  string `json:"org"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenService struct {
	log    *logger.Logger
	secret []byte
	ttl    time.Duration
}

func NewTokenService(log *logger.Logger, secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		log:    log.With("service", "TokenService"),
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs an HS256 token for p. Used by ledgerctl and tests.
func (s *TokenService) Issue(p authz.Principal) (string, error) {
	if !p.Valid() {
		return "", fmt.Errorf("invalid principal")
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("missing signing secret")
	}
	now := time.Now()
	claims := JWTClaims{
		Org:  p.OrganizationID.String(),
		Role: strings.ToLower(strings.TrimSpace(p.Role)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) Verify(tokenString string) (authz.Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" || len(s.secret) == 0 {
		return authz.Principal{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		s.log.Debug("token rejected", "error", err)
		return authz.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return authz.Principal{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return authz.Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	orgID, err := uuid.Parse(claims.Org)
	if err != nil {
		return authz.Principal{}, fmt.Errorf("%w: bad org", ErrInvalidToken)
	}
	p := authz.Principal{UserID: userID, OrganizationID: orgID, Role: strings.ToLower(strings.TrimSpace(claims.Role))}
	if !p.Valid() {
		return authz.Principal{}, ErrInvalidToken
	}
	return p, nil
}
