package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrValidatorNotConfigured = errors.New("token validator is not configured")

// Claims are the verified identity of an access token.
type Claims struct {
	Uid       string
	Email     string
	ExpiresAt time.Time
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenValidator verifies HS256 access tokens issued by the identity provider.
type TokenValidator struct {
	secret []byte
	clock  utils.Clock
}

func NewTokenValidator(secret string, clock utils.Clock) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), clock: clock}
}

func (v *TokenValidator) Validate(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperr.Authentication("Access token is required", nil)
	}
	if len(v.secret) == 0 {
		return Claims{}, apperr.Authentication("Access token cannot be verified", ErrValidatorNotConfigured)
	}

	var parsed accessTokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if _, err := uuid.Parse(parsed.Subject); err != nil {
		return Claims{}, apperr.Authentication("Access token subject is invalid", err)
	}

	return Claims{
		Uid:       parsed.Subject,
		Email:     parsed.Email,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Authentication("Access token is expired", err).WithCode("TOKEN_EXPIRED")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperr.Authentication("Access token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return apperr.Authentication("Access token is missing required claims", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperr.Authentication("Access token is malformed", err)
	default:
		return apperr.Authentication("Access token is invalid", err)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
