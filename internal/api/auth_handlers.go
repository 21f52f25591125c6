package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/notedapp/noted-server/internal/auth"
	"github.com/notedapp/noted-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new user",
		Description: "Creates a new user account and returns an initial session",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the specified session",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "issueLoginCode",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/code",
		Summary:     "Issue login code",
		Description: "Issues a one-time short-lived code exchangeable via the callback flow",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleIssueLoginCode)
}

// === DTOs ===

// ClientInfo contains client metadata for session tracking.
type ClientInfo struct {
	ClientName string `json:"client_name,omitempty" validate:"omitempty,max=100" doc:"Client name (Noted Web, Noted CLI)"`
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email       string     `json:"email" validate:"required,email,max=254" doc:"User email address"`
	Password    string     `json:"password" validate:"required,min=8,max=1024" doc:"User password"`
	DisplayName string     `json:"display_name" validate:"required,min=1,max=100" doc:"Display name"`
	Client      ClientInfo `json:"client,omitempty" doc:"Client info"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body          RegisterRequest
	UserAgent     string `header:"User-Agent"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string     `json:"email" validate:"required,email,max=254" doc:"User email"`
	Password string     `json:"password" validate:"required,max=1024" doc:"User password"`
	Client   ClientInfo `json:"client,omitempty" doc:"Client info"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	UserAgent     string `header:"User-Agent"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string     `json:"refresh_token" validate:"required" doc:"Refresh token"`
	Client       ClientInfo `json:"client,omitempty" doc:"Updated client info"`
}

// RefreshInput wraps the refresh request with headers for Huma.
type RefreshInput struct {
	Body          RefreshRequest
	UserAgent     string `header:"User-Agent"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LogoutRequest is the request body for logout.
type LogoutRequest struct {
	SessionID string `json:"session_id" validate:"required,max=100" doc:"Session ID to revoke"`
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Body LogoutRequest
}

// IssueLoginCodeInput contains parameters for issuing a login code.
type IssueLoginCodeInput struct {
	Authorization string `header:"Authorization"`
}

// LoginCodeResponse contains a freshly issued one-time code.
type LoginCodeResponse struct {
	Code      string `json:"code" doc:"One-time login code, shown exactly once"`
	ExpiresIn int    `json:"expires_in" doc:"Seconds until the code expires"`
}

// LoginCodeOutput wraps the login code response for Huma.
type LoginCodeOutput struct {
	Body LoginCodeResponse
}

// UserResponse contains user information in auth responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"User email"`
	DisplayName string    `json:"display_name" doc:"Display name"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update timestamp"`
	LastLoginAt time.Time `json:"last_login_at" doc:"Last login timestamp"`
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Refresh token"`
	SessionID    string       `json:"session_id" doc:"Session identifier"`
	TokenType    string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int          `json:"expires_in" doc:"Token expiry in seconds"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkAuthRateLimit(ip); err != nil {
		return nil, err
	}

	req := service.RegisterRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
	}
	client := auth.ClientInfo{
		ClientName: input.Body.Client.ClientName,
		UserAgent:  input.UserAgent,
		IPAddress:  ip,
	}

	resp, err := s.services.Auth.Register(ctx, req, client)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkAuthRateLimit(ip); err != nil {
		return nil, err
	}

	req := service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Client: auth.ClientInfo{
			ClientName: input.Body.Client.ClientName,
			UserAgent:  input.UserAgent,
			IPAddress:  ip,
		},
	}

	resp, err := s.services.Auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkAuthRateLimit(ip); err != nil {
		return nil, err
	}

	req := service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		Client: auth.ClientInfo{
			ClientName: input.Body.Client.ClientName,
			UserAgent:  input.UserAgent,
			IPAddress:  ip,
		},
	}

	resp, err := s.services.Auth.RefreshTokens(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	if err := s.services.Auth.Logout(ctx, input.Body.SessionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully"}}, nil
}

func (s *Server) handleIssueLoginCode(ctx context.Context, input *IssueLoginCodeInput) (*LoginCodeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	code, err := s.services.Auth.IssueLoginCode(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &LoginCodeOutput{
		Body: LoginCodeResponse{
			Code:      code,
			ExpiresIn: int((5 * time.Minute).Seconds()),
		},
	}, nil
}

// handleAuthCallback exchanges a one-time login code for a session and
// redirects. Lives outside huma because the response is a redirect with
// cookies, not an envelope.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	next := sanitizeNextPath(r.URL.Query().Get("next"))

	if code == "" {
		redirectLoginError(w, r, "missing_code")
		return
	}

	client := auth.ClientInfo{
		ClientName: "Noted Web",
		UserAgent:  r.UserAgent(),
		IPAddress:  getClientIP(r),
	}

	resp, err := s.services.Auth.ExchangeLoginCode(r.Context(), code, client)
	if err != nil {
		s.logger.Warn("Login code exchange failed", "error", err)
		redirectLoginError(w, r, "invalid_code")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    resp.AccessToken,
		Path:     "/",
		MaxAge:   resp.ExpiresIn,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    resp.RefreshToken,
		Path:     "/api/v1/auth",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, next, http.StatusFound)
}

// sanitizeNextPath keeps redirects on-site. Anything that is not a
// plain absolute path falls back to the dashboard.
func sanitizeNextPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	return next
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(reason), http.StatusFound)
}

// === Helpers ===

func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    resp.SessionID,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User:         mapUser(resp.User),
	}
}
