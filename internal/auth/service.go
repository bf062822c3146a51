package auth

import (
	"errors"
	"fmt"
	"time"

	"religious_services_backend/internal/config"
	"religious_services_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrWrongTokenType means an access token was presented where a refresh
// token was expected, or the reverse.
var ErrWrongTokenType = errors.New("wrong token type")

// JWTService signs and verifies HS256 tokens. Every token gets a random jti
// so it can be revoked on its own.
type JWTService struct {
	secret   []byte
	issuer   string
	ttls     map[string]time.Duration
	parseOpt []jwt.ParserOption
	logger   *zap.Logger
}

var _ shared.TokenService = (*JWTService)(nil)

func NewJWTService(cfg *config.Config, logger *zap.Logger) *JWTService {
	return &JWTService{
		secret: []byte(cfg.JWTSecretKey),
		issuer: cfg.JWTIssuer,
		ttls: map[string]time.Duration{
			shared.AccessToken:  cfg.JWTAccessTokenExpiryMinutes,
			shared.RefreshToken: cfg.JWTRefreshTokenExpiryDays,
		},
		parseOpt: []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.JWTIssuer),
			jwt.WithExpirationRequired(),
		},
		logger: logger.Named("JWTService"),
	}
}

func (s *JWTService) GenerateAccessToken(u shared.UserDataForToken) (string, time.Time, error) {
	return s.sign(u, shared.AccessToken)
}

func (s *JWTService) GenerateRefreshToken(u shared.UserDataForToken) (string, time.Time, error) {
	return s.sign(u, shared.RefreshToken)
}

func (s *JWTService) sign(u shared.UserDataForToken, typ string) (string, time.Time, error) {
	issuedAt := time.Now()
	expiresAt := issuedAt.Add(s.ttls[typ])
	claims := shared.Claims{
		UserID:    u.GetID(),
		Email:     u.GetEmail(),
		Role:      u.GetRole(),
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.GetID().String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies an access token.
func (s *JWTService) ValidateToken(token string) (*shared.Claims, error) {
	return s.verify(token, shared.AccessToken)
}

// ParseRefreshToken verifies a refresh token.
func (s *JWTService) ParseRefreshToken(token string) (*shared.Claims, error) {
	return s.verify(token, shared.RefreshToken)
}

func (s *JWTService) verify(raw, typ string) (*shared.Claims, error) {
	var claims shared.Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, s.parseOpt...)
	if err != nil {
		s.logger.Debug("Token rejected", zap.String("want", typ), zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.TokenType != typ {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrWrongTokenType, typ, claims.TokenType)
	}
	return &claims, nil
}
