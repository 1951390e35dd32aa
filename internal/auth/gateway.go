package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"campushub/portal/internal/api"
	"campushub/portal/internal/model"
	"campushub/portal/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("invalid registration data")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrNoRefreshToken     = errors.New("no refresh token")
	ErrRefreshRejected    = errors.New("refresh token rejected")
)

// Gateway performs the authentication flows against the backend and keeps
// the session store in sync. Failures are returned as typed errors and never
// retried here; the caller decides whether to re-prompt.
type Gateway struct {
	api      *api.Client
	sessions *session.Store
}

func NewGateway(client *api.Client, sessions *session.Store) *Gateway {
	return &Gateway{api: client, sessions: sessions}
}

type authPayload struct {
	User         model.Principal `json:"user"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session and persists it. Credentials are
// passed through as-is; form validation is the caller's concern.
func (g *Gateway) Login(ctx context.Context, email, password string) (session.Session, error) {
	var payload authPayload
	err := g.api.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &payload)
	if err != nil {
		var status *api.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusUnauthorized {
			return session.Session{}, ErrInvalidCredentials
		}
		return session.Session{}, fmt.Errorf("login: %w", err)
	}

	return g.establish(payload)
}

type RegisterProfile struct {
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Role       model.Role `json:"role"`
	Department string     `json:"department,omitempty"`
}

// Register creates an account and persists the resulting session, the same
// contract as Login.
func (g *Gateway) Register(ctx context.Context, profile RegisterProfile) (session.Session, error) {
	var payload authPayload
	err := g.api.Post(ctx, "/auth/register", profile, &payload)
	if err != nil {
		var status *api.StatusError
		if errors.As(err, &status) {
			switch status.StatusCode {
			case http.StatusConflict:
				return session.Session{}, ErrDuplicateEmail
			case http.StatusBadRequest:
				return session.Session{}, fmt.Errorf("%w: %s", ErrValidation, status.Message)
			}
		}
		return session.Session{}, fmt.Errorf("register: %w", err)
	}

	return g.establish(payload)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshPayload struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges the stored refresh token for a new token pair. Only the
// tokens are replaced; the Principal stays as it was.
func (g *Gateway) Refresh(ctx context.Context) (session.Session, error) {
	refreshToken := g.sessions.RefreshToken()
	if refreshToken == "" {
		return session.Session{}, ErrNoRefreshToken
	}

	var payload refreshPayload
	err := g.api.Post(ctx, "/auth/refresh-token", refreshRequest{RefreshToken: refreshToken}, &payload)
	if err != nil {
		var status *api.StatusError
		if errors.As(err, &status) && status.StatusCode < http.StatusInternalServerError {
			return session.Session{}, ErrRefreshRejected
		}
		return session.Session{}, fmt.Errorf("refresh: %w", err)
	}

	if err := g.sessions.SetTokens(payload.Token, payload.RefreshToken); err != nil {
		log.Printf("session persist error: %v", err)
	}
	current, _ := g.sessions.Get()
	return current, nil
}

// Logout ends the process-wide session unconditionally. It never fails and
// is idempotent: a second call leaves the same empty state.
func (g *Gateway) Logout() {
	if err := g.sessions.Clear(); err != nil {
		log.Printf("session clear error: %v", err)
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword rotates the account password over the authenticated session.
func (g *Gateway) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	err := g.api.Post(ctx, "/auth/change-password", changePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, nil)
	if err != nil {
		var status *api.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusUnauthorized {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// UpdateProfile pushes profile edits to the backend and refreshes the cached
// Principal with what the server stored.
func (g *Gateway) UpdateProfile(ctx context.Context, updates map[string]interface{}) error {
	var updated model.Principal
	if err := g.api.Put(ctx, "/auth/profile", updates, &updated); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	current, ok := g.sessions.Get()
	if !ok {
		return nil
	}
	if err := g.sessions.Set(&updated, current.Token, current.RefreshToken); err != nil {
		log.Printf("session persist error: %v", err)
	}
	return nil
}

func (g *Gateway) establish(payload authPayload) (session.Session, error) {
	if err := g.sessions.Set(&payload.User, payload.Token, payload.RefreshToken); err != nil {
		log.Printf("session persist error: %v", err)
	}
	current, _ := g.sessions.Get()
	return current, nil
}
