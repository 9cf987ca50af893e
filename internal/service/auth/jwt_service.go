package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/ports"
)

const tokenTypeAccess = "access"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims represents the custom JWT claims used by the application.
type Claims struct {
	jwt.RegisteredClaims
	Role           string `json:"role,omitempty"`
	OrganisationID string `json:"org,omitempty"`
	Type           string `json:"type"`
}

// JWTService issues and validates the bearer tokens of the API.
type JWTService struct {
	secret         string
	issuer         string
	accessDuration time.Duration
	cache          ports.Cache
	now            func() time.Time
	log            *zap.Logger
}

var _ ports.TokenValidator = (*JWTService)(nil)

// NewJWTService creates a new JWTService instance. cache may be nil, revocation is then disabled.
func NewJWTService(secret, issuer string, accessDuration time.Duration, cache ports.Cache, log *zap.Logger) *JWTService {
	if accessDuration <= 0 {
		accessDuration = time.Hour
	}
	log.Info("JWT service initialized",
		zap.String("issuer", issuer),
		zap.Duration("access_duration", accessDuration),
	)

	return &JWTService{
		secret:         secret,
		issuer:         issuer,
		accessDuration: accessDuration,
		cache:          cache,
		now:            time.Now,
		log:            log,
	}
}

// GenerateAccessToken creates a signed JWT access token for the given user.
// The token includes sub (user ID), role, org, exp, type="access", and jti.
func (s *JWTService) GenerateAccessToken(user *domain.User) (string, error) {
	jti := uuid.New().String()
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		Role:           string(user.TeamRole),
		OrganisationID: user.OrganisationID,
		Type:           tokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.secret))
	if err != nil {
		s.log.Error("failed to sign access token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	s.log.Debug("access token generated",
		zap.String("user_id", user.ID),
		zap.String("jti", jti),
	)

	return signedToken, nil
}

// ParseToken verifies the signature, expiry and issuer of tokenString.
func (s *JWTService) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	}, opts...)
	if err != nil {
		s.log.Debug("token validation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	if claims.Type != tokenTypeAccess {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims, nil
}

// ValidateToken implements ports.TokenValidator.
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*ports.Principal, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" && s.IsTokenRevoked(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}

	s.log.Debug("token validated",
		zap.String("subject", claims.Subject),
		zap.String("jti", claims.ID),
	)

	return &ports.Principal{
		UserID:         claims.Subject,
		OrganisationID: claims.OrganisationID,
		Role:           claims.Role,
	}, nil
}

// RevokeToken stores the token ID in the cache until the token would have expired.
func (s *JWTService) RevokeToken(ctx context.Context, tokenID string) error {
	if s.cache == nil {
		return fmt.Errorf("failed to revoke token: no cache configured")
	}

	err := s.cache.Set(ctx, revokedKey(tokenID), "revoked", s.accessDuration)
	if err != nil {
		s.log.Error("failed to revoke token",
			zap.String("token_id", tokenID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.log.Info("token revoked",
		zap.String("token_id", tokenID),
	)

	return nil
}

// IsTokenRevoked checks whether a token ID has been revoked.
func (s *JWTService) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	if s.cache == nil {
		return false
	}

	val, err := s.cache.Get(ctx, revokedKey(tokenID))
	if err != nil {
		// Missing key or cache failure: treat as not revoked.
		return false
	}

	return val == "revoked"
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("revoked_token:%s", tokenID)
}
