package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "yatube"
	tokenAudience = "yatube-web"

	invalidLoginMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// ErrInvalidToken is returned for tokens that are malformed, expired, forged or revoked.
var ErrInvalidToken = errors.New("invalid or expired token")

// Session is the identity carried by a valid token.
type Session struct {
	UserID    uint
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// AuthService registers accounts and issues and revokes session tokens.
type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration, rdb *redis.Client) *AuthService {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, rdb: rdb, now: time.Now}
}

// Signup validates the form and creates the account with a bcrypt password hash.
func (s *AuthService) Signup(ctx context.Context, form validation.SignupForm) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Password:  string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Authenticate checks the credentials. Unknown usernames and wrong passwords
// produce the same validation error.
func (s *AuthService) Authenticate(ctx context.Context, form validation.LoginForm) (*models.User, error) {
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(form.Username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewValidationError(invalidLoginMessage)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		return nil, models.NewValidationError(invalidLoginMessage)
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      expires.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ParseToken verifies a token and returns its session. Revoked tokens are
// rejected while Redis is reachable.
func (s *AuthService) ParseToken(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	session := &Session{UserID: uint(userID), ExpiresAt: exp.Time}
	session.Username, _ = claims["username"].(string)
	session.TokenID, _ = claims["jti"].(string)

	if session.TokenID != "" && s.rdb != nil {
		n, err := s.rdb.Exists(ctx, cache.RevokedTokenKey(session.TokenID)).Result()
		if err == nil && n > 0 {
			return nil, ErrInvalidToken
		}
	}
	return session, nil
}

// Revoke blacklists the token until it would have expired anyway. Invalid
// tokens are ignored.
func (s *AuthService) Revoke(ctx context.Context, raw string) error {
	session, err := s.ParseToken(ctx, raw)
	if err != nil || session.TokenID == "" || s.rdb == nil {
		return nil
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, cache.RevokedTokenKey(session.TokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "session revoked", slog.Uint64("user_id", uint64(session.UserID)))
	return nil
}

// CurrentUser loads the account behind a session.
func (s *AuthService) CurrentUser(ctx context.Context, session *Session) (*models.User, error) {
	return s.users.GetByID(ctx, session.UserID)
}
