package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned when an issuer is built without a signing key.
	ErrMissingSecret = errors.New("auth secret not configured")
)

const DefaultTokenTTL = 30 * 24 * time.Hour

// secretBytes is the size of generated signing keys.
const secretBytes = 32

// Claims carries the signed-in user; the profile fields spare a store lookup on every request.
type Claims struct {
	UID        string `json:"uid"`
	ExternalID string `json:"ext"`
	Name       string `json:"name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// User rebuilds the domain user from the token.
func (c *Claims) User() *domain.User {
	return &domain.User{
		ID:          c.UID,
		ExternalID:  c.ExternalID,
		DisplayName: c.Name,
		AvatarURL:   c.Avatar,
	}
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	users  app.UserRepository
	now    func() time.Time
}

// NewIssuer builds an issuer. The secret is required.
func NewIssuer(secret string, ttl time.Duration, users app.UserRepository) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, users: users, now: time.Now}, nil
}

// RandomSecret generates a process-local signing key. Tokens signed with it stop verifying
// once the process exits.
func RandomSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate auth secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// WithClock is test-only for deterministic expiry.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Users exposes the backing user store, nil when running without persistence.
func (i *Issuer) Users() app.UserRepository {
	return i.users
}

func (i *Issuer) Sign(user domain.User) (string, error) {
	now := i.now()
	claims := Claims{
		UID:        user.ID,
		ExternalID: user.ExternalID,
		Name:       user.DisplayName,
		Avatar:     user.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) Parse(raw string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// SignIn stores the provider profile and issues a token for it.
func (i *Issuer) SignIn(ctx context.Context, profile domain.Profile) (domain.User, string, error) {
	if i.users == nil {
		return domain.User{}, "", domain.ErrStorageUnavailable
	}
	if strings.TrimSpace(profile.ExternalID) == "" {
		return domain.User{}, "", fmt.Errorf("sign in: external id is required")
	}
	user, err := i.users.UpsertUser(ctx, profile)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("upsert user: %w", err)
	}
	token, err := i.Sign(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}
