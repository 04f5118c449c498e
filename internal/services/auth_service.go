package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"taxdesk/internal/caching"
	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"
	"taxdesk/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginRateLimit  = 10
	loginRateWindow = 15 * time.Minute
	resetTokenTTL   = 15 * time.Minute
)

// AuthService is the identity provider: credential verification, account
// creation, token issuance/refresh, password reset, and session-change
// notifications. Everything else treats principals as opaque.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*models.TokenResponse, *session.Principal, error)
	SignUp(ctx context.Context, email, password string) (*session.Principal, error)
	SignOut(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)

	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	UpdateEmail(ctx context.Context, principalID uuid.UUID, newEmail string) error
	UpdatePassword(ctx context.Context, principalID uuid.UUID, currentPassword, newPassword string) error

	// Subscribe registers fn for sign-in/sign-out events across this
	// process. fn receives nil on sign-out. The returned func unsubscribes.
	Subscribe(fn func(p *session.Principal)) func()
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

type authService struct {
	credentials repositories.CredentialRepository
	users       repositories.UserRepository
	cacheSvc    caching.CacheService
	jwtSecret   []byte
	tokenTTL    int // Access token TTL in seconds
	refreshTTL  int // Refresh token TTL in seconds

	mu          sync.Mutex
	subscribers map[int]func(p *session.Principal)
	nextSubID   int
}

// NewAuthService creates a new authentication service
func NewAuthService(credentials repositories.CredentialRepository, users repositories.UserRepository, cacheSvc caching.CacheService, jwtSecret string, tokenTTLSeconds, refreshTTLSeconds int) AuthService {
	return &authService{
		credentials: credentials,
		users:       users,
		cacheSvc:    cacheSvc,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTLSeconds,
		refreshTTL:  refreshTTLSeconds,
		subscribers: make(map[int]func(p *session.Principal)),
	}
}

// SignIn verifies the credential and issues tokens. Bad email and bad
// password are indistinguishable to the caller.
func (s *authService) SignIn(ctx context.Context, email, password string) (*models.TokenResponse, *session.Principal, error) {
	limited, err := s.cacheSvc.IsRateLimited(ctx, "login:"+strings.ToLower(email), loginRateLimit, loginRateWindow)
	if err != nil {
		log.Printf("WARN: login rate-limit check failed: %v", err)
	} else if limited {
		return nil, nil, fmt.Errorf("%w: too many sign-in attempts, try again later", common.ErrAuth)
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email or password", common.ErrAuth)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email or password", common.ErrAuth)
	}

	principal := &session.Principal{ID: cred.ID, Email: cred.Email}

	tokens, err := s.generateTokens(ctx, principal)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.TouchLastLogin(ctx, cred.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		// Employees have no profile row; anything else is worth a line.
		log.Printf("WARN: failed to record last login for %s: %v", cred.ID, err)
	}

	s.notify(principal)
	return tokens, principal, nil
}

// SignUp creates a provider credential and returns the new principal. It
// does not create any profile or employee metadata; callers own that step
// and its failure mode.
func (s *authService) SignUp(ctx context.Context, email, password string) (*session.Principal, error) {
	if err := common.ValidateRequiredString(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &models.Credential{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAuth, err)
	}

	return &session.Principal{ID: cred.ID, Email: cred.Email}, nil
}

// SignOut revokes the refresh token and broadcasts the session end.
func (s *authService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		hash := s.hashToken(refreshToken)
		if err := s.cacheSvc.Delete(ctx, "refresh_token:"+hash); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	s.notify(nil)
	return nil
}

// RefreshToken validates and uses refresh token to generate new tokens
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	hash := s.hashToken(refreshToken)
	tokenData, err := s.cacheSvc.GetString(ctx, "refresh_token:"+hash)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", common.ErrAuth)
	}

	parts := strings.Split(tokenData, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: invalid token data", common.ErrAuth)
	}

	userIDStr, email, expiryStr := parts[0], parts[1], parts[2]
	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token expiry", common.ErrAuth)
	}
	if time.Now().Unix() > expiry {
		s.cacheSvc.Delete(ctx, "refresh_token:"+hash)
		return nil, fmt.Errorf("%w: refresh token expired", common.ErrAuth)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID in token", common.ErrAuth)
	}

	// Rotate: old token is gone once new tokens are issued.
	s.cacheSvc.Delete(ctx, "refresh_token:"+hash)

	return s.generateTokens(ctx, &session.Principal{ID: userID, Email: email})
}

// ValidateToken validates JWT access token
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	jwtToken, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: token validation failed: %v", common.ErrAuth, err)
	}

	if claims, ok := jwtToken.Claims.(*TokenClaims); ok && jwtToken.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("%w: invalid token claims", common.ErrAuth)
}

// SendPasswordReset stores a short-lived reset token for the account. The
// token would go out by email; delivery is outside this service.
func (s *authService) SendPasswordReset(ctx context.Context, email string) error {
	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		// Do not leak which emails exist.
		log.Printf("password reset requested for unknown email")
		return nil
	}

	token := s.generateSecureToken()
	key := "password_reset:" + s.hashToken(token)
	if err := s.cacheSvc.SetString(ctx, key, cred.ID.String(), resetTokenTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	log.Printf("password reset token issued for account %s", cred.ID)
	return nil
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (s *authService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", common.ErrValidation)
	}

	key := "password_reset:" + s.hashToken(token)
	idStr, err := s.cacheSvc.GetString(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired reset token", common.ErrAuth)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("%w: invalid reset token data", common.ErrAuth)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.credentials.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Single use.
	s.cacheSvc.Delete(ctx, key)
	return nil
}

// UpdateEmail changes the credential email for the current principal.
func (s *authService) UpdateEmail(ctx context.Context, principalID uuid.UUID, newEmail string) error {
	if err := common.ValidateRequiredString(newEmail, "email"); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := s.credentials.UpdateEmail(ctx, principalID, newEmail); err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	// Keep the profile copy in step when one exists.
	if err := s.users.UpdateEmail(ctx, principalID, newEmail); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("WARN: failed to sync profile email for %s: %v", principalID, err)
	}
	return nil
}

// UpdatePassword changes the password after verifying the current one.
func (s *authService) UpdatePassword(ctx context.Context, principalID uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", common.ErrValidation)
	}

	cred, err := s.credentials.GetByID(ctx, principalID)
	if err != nil {
		return fmt.Errorf("%w: account not found", common.ErrAuth)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", common.ErrAuth)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.credentials.UpdatePassword(ctx, principalID, string(hash))
}

func (s *authService) Subscribe(fn func(p *session.Principal)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *authService) notify(p *session.Principal) {
	s.mu.Lock()
	fns := make([]func(*session.Principal), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// generateTokens issues a signed access token and a redis-backed refresh
// token for the principal.
func (s *authService) generateTokens(ctx context.Context, principal *session.Principal) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:  principal.ID.String(),
		Email:   principal.Email,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taxdesk-auth",
			Subject:   principal.ID.String(),
			Audience:  jwt.ClaimStrings{"taxdesk-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.tokenTTL) * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %v", err)
	}

	refreshToken := s.generateSecureToken()
	refreshTokenHash := s.hashToken(refreshToken)

	refreshTokenData := fmt.Sprintf("%s:%s:%d", principal.ID.String(), principal.Email, now.Unix()+int64(s.refreshTTL))
	cacheKey := "refresh_token:" + refreshTokenHash
	if err := s.cacheSvc.SetString(ctx, cacheKey, refreshTokenData, time.Duration(s.refreshTTL)*time.Second); err != nil {
		log.Printf("Failed to store refresh token: %v", err)
		// Continue - token generation succeeded
	}

	return &models.TokenResponse{
		AccessToken:  accessTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    s.tokenTTL,
		RefreshToken: refreshToken,
		UserID:       principal.ID.String(),
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// generateSecureToken generates a cryptographically secure random token
func (s *authService) generateSecureToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)
}

// hashToken creates a SHA-256 hash of the token for secure storage
func (s *authService) hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
