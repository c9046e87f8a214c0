package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/auth/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Claims mirrors the access tokens minted by the external auth provider.
type Claims struct {
	Email       string      `json:"email,omitempty"`
	UserRole    string      `json:"user_role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

type Service struct {
	log    *zap.Logger
	secret []byte
	parser *jwt.Parser
}

func New(cfg config.Config, log *zap.Logger) domain.Service {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.AuthIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.AuthIssuer))
	}

	svc := &Service{
		log:    log.Named("auth.service"),
		secret: []byte(cfg.AuthJWTSecret),
		parser: jwt.NewParser(opts...),
	}
	if len(svc.secret) == 0 {
		svc.log.Warn("AUTH_JWT_SECRET is empty, every bearer token will be rejected")
	}
	return svc
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, domain.ErrMissingToken
	}
	if len(s.secret) == 0 {
		return nil, domain.ErrNotConfigured
	}

	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		s.log.Debug("token rejected", zap.Error(err))
		return nil, domain.ErrInvalidToken
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   roleFromClaims(claims),
	}, nil
}

// roleFromClaims prefers app_metadata.role and falls back to user_role.
func roleFromClaims(claims *Claims) string {
	if role := domain.NormalizeRole(claims.AppMetadata.Role); role != "" {
		return role
	}
	return domain.NormalizeRole(claims.UserRole)
}
