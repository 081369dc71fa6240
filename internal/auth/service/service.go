package service

import (
	"context"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/password"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/roles"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/token"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/config"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

const msgInvalidCredentials = "invalid credentials"

// Service implements sign-in, refresh rotation, and sign-out.
type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

// New creates a new auth service.
func New(repo *repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SignIn verifies credentials and issues a token pair. Inactive users are
// rejected the same way as bad credentials to avoid account probing.
func (s *Service) SignIn(ctx context.Context, req transport.SignInRequest) (transport.TokenPairResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		s.log.AuthEvent("sign_in", req.Email, false, "unknown user")
		return transport.TokenPairResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("sign_in", req.Email, false, "password mismatch")
		return transport.TokenPairResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if !user.IsActive {
		s.log.AuthEvent("sign_in", req.Email, false, "inactive user")
		return transport.TokenPairResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return transport.TokenPairResponse{}, err
	}

	s.log.AuthEvent("sign_in", req.Email, true, "")
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked whether or
// not a new pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (transport.TokenPairResponse, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid refresh token")
	}

	_ = s.repo.RevokeRefreshToken(ctx, hash)

	if time.Now().After(expiresAt) {
		return transport.TokenPairResponse{}, apperr.Unauthorized("refresh token expired")
	}

	return s.issueTokens(ctx, userID)
}

// SignOut revokes the presented refresh token.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(refreshToken))
}

// Me returns the authenticated user's profile including the resolved primary role.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.MeResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.MeResponse{}, err
	}

	held, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return transport.MeResponse{}, err
	}

	return transport.MeResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Roles:       held,
		PrimaryRole: string(roles.PrimaryRole(held)),
	}, nil
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (transport.TokenPairResponse, error) {
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return transport.TokenPairResponse{}, err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"roles": roles,
		"type":  accessTokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}

	refreshToken, err := token.GenerateRandomToken(32)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Wrap(apperr.KindInternal, "generate refresh token", err)
	}

	expiresAt := now.Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, token.HashSHA256(refreshToken), expiresAt); err != nil {
		return transport.TokenPairResponse{}, err
	}

	return transport.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
