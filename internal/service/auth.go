package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/notedapp/noted-server/internal/auth"
	"github.com/notedapp/noted-server/internal/domain"
	domainerrors "github.com/notedapp/noted-server/internal/errors"
	"github.com/notedapp/noted-server/internal/id"
	"github.com/notedapp/noted-server/internal/store"
)

// loginCodeDuration bounds how long an issued login code can be exchanged.
const loginCodeDuration = 5 * time.Minute

// AuthService handles registration, login, and token verification.
// Session management is delegated to SessionService.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// LoginRequest contains user credentials and client information.
type LoginRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required"`
	Client   auth.ClientInfo `json:"client"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string          `json:"refresh_token" validate:"required"`
	Client       auth.ClientInfo `json:"client"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a new user account and an initial session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, client auth.ClientInfo) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: passwordHash,
		DisplayName:  req.DisplayName,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User registered",
			"user_id", userID,
			"email", user.Email,
		)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByEmailLower(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Log but don't fail login
		if s.logger != nil {
			s.logger.Warn("Failed to update last login time",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "user_id", user.ID)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// RefreshTokens generates new tokens using a refresh token.
// The old refresh token is invalidated (token rotation).
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.Client)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Logout revokes a session, invalidating its refresh token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// IssueLoginCode creates a short-lived single-use code for an
// authenticated user. The code is returned in plain form once; only
// its hash is stored.
func (s *AuthService) IssueLoginCode(ctx context.Context, userID string) (string, error) {
	code, err := auth.GenerateLoginCode()
	if err != nil {
		return "", fmt.Errorf("generate login code: %w", err)
	}

	codeID, err := id.Generate("code")
	if err != nil {
		return "", fmt.Errorf("generate code ID: %w", err)
	}

	now := time.Now()
	record := &domain.LoginCode{
		ID:        codeID,
		UserID:    userID,
		CodeHash:  auth.HashLoginCode(code),
		ExpiresAt: now.Add(loginCodeDuration),
		CreatedAt: now,
	}

	if err := s.store.CreateLoginCode(ctx, record); err != nil {
		return "", fmt.Errorf("save login code: %w", err)
	}

	return code, nil
}

// ExchangeLoginCode redeems a login code for a session. Each code can
// be exchanged exactly once; expired or replayed codes are rejected.
func (s *AuthService) ExchangeLoginCode(ctx context.Context, code string, client auth.ClientInfo) (*AuthResponse, error) {
	if code == "" {
		return nil, domainerrors.Validation("code is required")
	}

	record, err := s.store.GetLoginCodeByHash(ctx, auth.HashLoginCode(code))
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired code")
	}

	if record.IsExpired() || record.IsUsed() {
		return nil, domainerrors.Unauthorized("invalid or expired code")
	}

	// Conditional update guards against a concurrent exchange of the
	// same code; the loser sees no rows updated.
	if err := s.store.ConsumeLoginCode(ctx, record.ID); err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired code")
	}

	user, err := s.store.GetUser(ctx, record.UserID)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired code")
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Login code exchanged", "user_id", user.ID)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// DeleteExpiredLoginCodes removes stale codes. Run periodically.
func (s *AuthService) DeleteExpiredLoginCodes(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredLoginCodes(ctx)
}
