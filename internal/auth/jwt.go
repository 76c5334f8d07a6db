// Package auth resolves bearer tokens into sessions. It is handed to the transport as a
// capability so nothing else reads token state directly.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms-quiz-service/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour

	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

type Claims struct {
	UserID string      `json:"user_id"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
	Type   string      `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs an access and a refresh token for the session.
func (m *TokenManager) IssuePair(session domain.Session) (TokenPair, error) {
	access, err := m.sign(session, tokenAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := m.sign(session, tokenRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Resolve validates an access token and returns its session.
func (m *TokenManager) Resolve(_ context.Context, token string) (domain.Session, error) {
	claims, err := m.parse(token, tokenAccess)
	if err != nil {
		return domain.Session{}, err
	}
	return claims.session(), nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (m *TokenManager) Refresh(refreshToken string) (string, error) {
	claims, err := m.parse(refreshToken, tokenRefresh)
	if err != nil {
		return "", err
	}
	return m.sign(claims.session(), tokenAccess, m.accessTTL)
}

func (m *TokenManager) sign(session domain.Session, kind string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: session.UserID,
		Name:   session.DisplayName,
		Role:   session.Role,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) parse(token, kind string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Type != kind || claims.UserID == "" {
		return nil, fmt.Errorf("%w: not an %s token", domain.ErrUnauthorized, kind)
	}
	return claims, nil
}

func (c *Claims) session() domain.Session {
	role := c.Role
	if role == "" {
		role = domain.RoleLearner
	}
	name := c.Name
	if name == "" {
		name = c.UserID
	}
	return domain.Session{UserID: c.UserID, DisplayName: name, Role: role}
}

// DevResolver accepts unsigned tokens of the form "userID" or "userID:role" and is only
// wired when no signing secret is configured.
type DevResolver struct{}

func (DevResolver) Resolve(_ context.Context, token string) (domain.Session, error) {
	userID, role, _ := strings.Cut(token, ":")
	if userID == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}
	switch domain.Role(role) {
	case "", domain.RoleLearner:
		return domain.Session{UserID: userID, DisplayName: userID, Role: domain.RoleLearner}, nil
	case domain.RoleTeacher:
		return domain.Session{UserID: userID, DisplayName: userID, Role: domain.RoleTeacher}, nil
	default:
		return domain.Session{}, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, role)
	}
}

// Refresh is unsupported in dev mode.
func (DevResolver) Refresh(string) (string, error) {
	return "", errors.New("token refresh requires a signing secret")
}
