package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domain "campus-enrollment/internal/domain/enrollment"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds bearer token signing and verification parameters.
type Config struct {
	Secret string
	Issuer string
}

// ErrMissingToken is returned by Parse for an empty or blank token string.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Parse validates an HS256 token and returns the principal it names.
func Parse(token string, cfg Config) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	userID, err := uuid.Parse(subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	role := domain.Role(fmt.Sprint(claims["role"]))
	switch role {
	case domain.RoleStudent, domain.RoleFaculty, domain.RoleAdmin:
	default:
		return domain.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}

	return domain.Principal{UserID: userID, Role: role}, nil
}

// Issue signs a token for the principal, valid for ttl.
func Issue(principal domain.Principal, cfg Config, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  principal.UserID.String(),
		"role": string(principal.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if cfg.Issuer != "" {
		claims["iss"] = cfg.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}
