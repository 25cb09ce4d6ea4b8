package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/purrpal/purrpal/internal/api/handler"
	"github.com/purrpal/purrpal/internal/auth"
	storemock "github.com/purrpal/purrpal/internal/store/mock"
	"github.com/purrpal/purrpal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-entropy"

type authData struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func newAccountHandler(t *testing.T) (*handler.AccountHandler, *storemock.MemoryStore, *auth.Issuer) {
	t.Helper()
	st := storemock.NewMemoryStore()
	issuer := auth.NewIssuer(testSecret, time.Hour)
	return handler.NewAccountHandler(st, issuer), st, issuer
}

func signup(t *testing.T, h *handler.AccountHandler, email, username, password string) authData {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Signup(rec, jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[authData](t, rec)
}

func TestSignup_IssuesTokenForNewUser(t *testing.T) {
	h, st, issuer := newAccountHandler(t)

	data := signup(t, h, "Mira@Example.com", "mira", "secret123")

	assert.Equal(t, "mira@example.com", data.User.Email)
	assert.Equal(t, "mira", data.User.Username)
	require.NotNil(t, data.User.FullName)
	assert.Equal(t, "mira", *data.User.FullName)

	id, err := issuer.Parse(data.Token)
	require.NoError(t, err)
	assert.Equal(t, data.User.ID, id)

	stored, err := st.GetUserByEmail(context.Background(), "mira@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NoError(t, auth.CheckPassword(stored.PasswordHash, "secret123"))
}

func TestSignup_Duplicate(t *testing.T) {
	h, _, _ := newAccountHandler(t)
	signup(t, h, "mira@example.com", "mira", "secret123")

	rec := httptest.NewRecorder()
	h.Signup(rec, jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "mira@example.com",
		"username": "other",
		"password": "secret123",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email or username already exists", decodeErr(t, rec).Error)
}

func TestSignup_Validation(t *testing.T) {
	h, _, _ := newAccountHandler(t)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"bad email", map[string]string{"email": "nope", "username": "a", "password": "secret123"}, "A valid email is required"},
		{"no username", map[string]string{"email": "a@b.co", "password": "secret123"}, "username is required"},
		{"short password", map[string]string{"email": "a@b.co", "username": "a", "password": "123"}, "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Signup(rec, jsonRequest(t, http.MethodPost, "/api/auth/signup", tt.body))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeErr(t, rec).Error)
		})
	}
}

func TestSignup_StoreFailure(t *testing.T) {
	h, st, _ := newAccountHandler(t)
	st.Err = errors.New("connection reset")

	rec := httptest.NewRecorder()
	h.Signup(rec, jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "a@b.co", "username": "a", "password": "secret123",
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogin(t *testing.T) {
	h, _, issuer := newAccountHandler(t)
	created := signup(t, h, "mira@example.com", "mira", "secret123")

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "MIRA@example.com", "password": "secret123",
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeData[authData](t, rec)
		id, err := issuer.Parse(data.Token)
		require.NoError(t, err)
		assert.Equal(t, created.User.ID, id)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "mira@example.com", "password": "nope",
		}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", decodeErr(t, rec).Error)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "ghost@example.com", "password": "secret123",
		}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", decodeErr(t, rec).Error)
	})
}

func TestProfile_GetAndUpdate(t *testing.T) {
	h, _, _ := newAccountHandler(t)
	created := signup(t, h, "mira@example.com", "mira", "secret123")

	bio := "Rescues strays in Banda Aceh"
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, asUser(jsonRequest(t, http.MethodPut, "/api/users/profile", map[string]any{"bio": bio}), created.User.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[models.User](t, rec)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, bio, *updated.Bio)
	require.NotNil(t, updated.FullName, "untouched fields keep their value")
	assert.Equal(t, "mira", *updated.FullName)

	rec = httptest.NewRecorder()
	h.Profile(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/users/profile", nil), created.User.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData[models.User](t, rec)
	require.NotNil(t, got.Bio)
	assert.Equal(t, bio, *got.Bio)
}

func TestProfile_UnknownUser(t *testing.T) {
	h, _, _ := newAccountHandler(t)

	rec := httptest.NewRecorder()
	h.Profile(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/users/profile", nil), uuid.New()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangePassword(t *testing.T) {
	h, st, _ := newAccountHandler(t)
	created := signup(t, h, "mira@example.com", "mira", "secret123")

	rec := httptest.NewRecorder()
	h.ChangePassword(rec, asUser(jsonRequest(t, http.MethodPut, "/api/users/password", map[string]string{
		"currentPassword": "wrong", "newPassword": "newsecret",
	}), created.User.ID))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", decodeErr(t, rec).Error)

	rec = httptest.NewRecorder()
	h.ChangePassword(rec, asUser(jsonRequest(t, http.MethodPut, "/api/users/password", map[string]string{
		"currentPassword": "secret123", "newPassword": "newsecret",
	}), created.User.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := st.GetUserByID(context.Background(), created.User.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.CheckPassword(stored.PasswordHash, "newsecret"))
}

func TestChangeEmail(t *testing.T) {
	h, _, _ := newAccountHandler(t)
	mira := signup(t, h, "mira@example.com", "mira", "secret123")
	signup(t, h, "budi@example.com", "budi", "secret123")

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantErr  string
	}{
		{"wrong password", map[string]string{"newEmail": "new@example.com", "password": "nope"}, http.StatusBadRequest, "Password is incorrect"},
		{"taken", map[string]string{"newEmail": "budi@example.com", "password": "secret123"}, http.StatusBadRequest, "Email already exists"},
		{"ok", map[string]string{"newEmail": "mira.new@example.com", "password": "secret123"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ChangeEmail(rec, asUser(jsonRequest(t, http.MethodPut, "/api/users/email", tt.body), mira.User.ID))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeErr(t, rec).Error)
			}
		})
	}

	rec := httptest.NewRecorder()
	h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "mira.new@example.com", "password": "secret123",
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
}
