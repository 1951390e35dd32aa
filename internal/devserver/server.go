package devserver

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campushub/portal/internal/config"
	"campushub/portal/internal/model"
)

// Server is an in-memory stand-in for the campus event backend. It
// implements only the contract the portal client consumes: the auth flows
// and the notification endpoints.
type Server struct {
	cfg   config.Config
	store *memStore
}

func NewServer(cfg config.Config) *Server {
	return &Server{cfg: cfg, store: newMemStore()}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/refresh-token", s.handleRefresh)
		r.With(s.authMiddleware).Put("/auth/profile", s.handleUpdateProfile)
		r.With(s.authMiddleware).Post("/auth/change-password", s.handleChangePassword)

		r.Route("/notifications", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.handleListNotifications)
			r.Put("/mark-all-read", s.handleMarkAllRead)
			r.Put("/{id}/read", s.handleMarkRead)
			r.Delete("/clear-all", s.handleClearAll)
			r.Delete("/{id}", s.handleDeleteNotification)
		})
	})

	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authData struct {
	User         model.Principal `json:"user"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	s.respondWithSession(w, user)
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "role must be admin, teacher or student")
		return
	}

	user, err := s.store.CreateUser(model.Principal{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		FullName:   strings.TrimSpace(req.FirstName + " " + req.LastName),
		Role:       role,
		Department: req.Department,
	}, req.Password)
	if err != nil {
		if errors.Is(err, errDuplicateEmail) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}

	s.respondWithSession(w, user)
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	userID, err := s.store.ConsumeRefreshSession(hashToken(req.RefreshToken), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	user, err := s.store.GetUser(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeData(w, http.StatusOK, map[string]string{
		"token":        accessToken,
		"refreshToken": refreshToken,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	user, err := s.store.GetUser(claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	var updates struct {
		FirstName      *string `json:"firstName"`
		LastName       *string `json:"lastName"`
		Department     *string `json:"department"`
		ProfilePicture *string `json:"profilePicture"`
	}
	if err := decodeJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if updates.FirstName != nil {
		user.FirstName = *updates.FirstName
	}
	if updates.LastName != nil {
		user.LastName = *updates.LastName
	}
	if updates.Department != nil {
		user.Department = *updates.Department
	}
	if updates.ProfilePicture != nil {
		user.ProfilePicture = *updates.ProfilePicture
	}
	user.FullName = strings.TrimSpace(user.FirstName + " " + user.LastName)

	if err := s.store.UpdateUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "could not update user")
		return
	}
	writeData(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.ChangePassword(claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, errBadCredentials) {
			writeError(w, http.StatusUnauthorized, "current password is wrong")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not change password")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	writeData(w, http.StatusOK, s.store.Notifications(claims.UserID))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := s.store.MarkRead(claims.UserID, id); err != nil {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	s.store.MarkAllRead(claims.UserID)
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteNotification(claims.UserID, id); err != nil {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	s.store.ClearNotifications(claims.UserID)
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

type claimsKey struct{}

type accessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.parseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *accessClaims {
	claims, _ := ctx.Value(claimsKey{}).(*accessClaims)
	return claims
}

func (s *Server) respondWithSession(w http.ResponseWriter, user model.Principal) {
	accessToken, refreshToken, err := s.issueTokens(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeData(w, http.StatusOK, authData{
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
	})
}

func (s *Server) issueTokens(user model.Principal) (string, string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", err
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return "", "", err
	}
	s.store.CreateRefreshSession(hashToken(refreshToken), user.ID, now.Add(s.cfg.RefreshTokenTTL))

	return accessToken, refreshToken, nil
}

func (s *Server) parseToken(tokenString string) (*accessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(_ *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}
