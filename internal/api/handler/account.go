package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/purrpal/purrpal/internal/api/middleware"
	"github.com/purrpal/purrpal/internal/api/response"
	"github.com/purrpal/purrpal/internal/auth"
	"github.com/purrpal/purrpal/internal/store"
	"github.com/purrpal/purrpal/pkg/models"
)

const minPasswordLen = 6

// UserStore is the user half of store.Store.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, error)
}

// AccountHandler serves /api/auth and /api/users.
type AccountHandler struct {
	users  UserStore
	tokens TokenIssuer
}

func NewAccountHandler(users UserStore, tokens TokenIssuer) *AccountHandler {
	return &AccountHandler{users: users, tokens: tokens}
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if _, err := mail.ParseAddress(req.Email); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "A valid email is required", nil)
		return
	}
	if req.Username == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "username is required", nil)
		return
	}
	if len(req.Password) < minPasswordLen {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 6 characters", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w, "Failed to create account", err)
		return
	}

	fullName := req.Username
	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     &fullName,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusBadRequest, "DUPLICATE", "Email or username already exists", nil)
			return
		}
		internalError(w, "Failed to create account", err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		internalError(w, "Failed to create account", err)
		return
	}
	response.Created(w, authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if errors.Is(err, store.ErrNotFound) {
		invalidCredentials(w)
		return
	}
	if err != nil {
		internalError(w, "Failed to login", err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		invalidCredentials(w)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		internalError(w, "Failed to login", err)
		return
	}
	response.JSON(w, authResponse{Token: token, User: user})
}

// Profile handles GET /api/users/profile.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	response.JSON(w, user)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	var req models.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, req)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}
	if err != nil {
		internalError(w, "Failed to update profile", err)
		return
	}
	response.JSON(w, user)
}

// ChangePassword handles PUT /api/users/password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PASSWORD", "Current password is incorrect", nil)
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 6 characters", nil)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		internalError(w, "Failed to update password", err)
		return
	}
	if err := h.users.UpdatePasswordHash(r.Context(), user.ID, hash); err != nil {
		internalError(w, "Failed to update password", err)
		return
	}
	response.JSON(w, map[string]string{"message": "Password updated successfully"})
}

// ChangeEmail handles PUT /api/users/email.
func (h *AccountHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewEmail string `json:"newEmail"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PASSWORD", "Password is incorrect", nil)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.NewEmail))
	if _, err := mail.ParseAddress(email); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "A valid email is required", nil)
		return
	}

	if err := h.users.UpdateEmail(r.Context(), user.ID, email); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusBadRequest, "DUPLICATE", "Email already exists", nil)
			return
		}
		internalError(w, "Failed to update email", err)
		return
	}
	response.JSON(w, map[string]string{"message": "Email updated successfully"})
}

func (h *AccountHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required", nil)
		return nil, false
	}
	user, err := h.users.GetUserByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return nil, false
	}
	if err != nil {
		internalError(w, "Failed to fetch profile", err)
		return nil, false
	}
	return user, true
}

func invalidCredentials(w http.ResponseWriter) {
	response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return false
	}
	return true
}

func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", msg, nil)
}
