package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nexora-club/membership-backend/middleware"
	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/services"
	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	user  *models.User
	token string
	err   error
}

func (s *stubAuthService) Signup(_ context.Context, _ services.SignupInput) (*models.User, string, error) {
	return s.user, s.token, s.err
}

func (s *stubAuthService) Login(_ context.Context, _ services.LoginInput) (*models.User, string, error) {
	return s.user, s.token, s.err
}

func (s *stubAuthService) LoginFederated(_ context.Context, _ string) (*models.User, string, error) {
	return s.user, s.token, s.err
}

type stubUserService struct {
	user *models.User
	err  error
}

func (s *stubUserService) GetProfile(_ context.Context, _ int) (*models.User, error) {
	return s.user, s.err
}

func (s *stubUserService) UpdateProfile(_ context.Context, _ *services.Claims, _ int, _ models.ProfileUpdate) (*models.User, error) {
	return s.user, s.err
}

func TestSignupHandler(t *testing.T) {
	auth := &stubAuthService{
		user:  &models.User{ID: 1, Username: "alice", Email: "alice@x.com", Role: models.RoleStudent},
		token: "signed-token",
	}
	handler := NewAuthHandler(auth, &stubUserService{})

	body := `{"username":"alice","email":"alice@x.com","password":"hunter22","role":"student"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Signup(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "signed-token", got.Token)
	require.Equal(t, "alice", got.User.Username)
	require.NotContains(t, rec.Body.String(), "password_hash")
}

func TestSignupHandlerRejectsBadJSON(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, &stubUserService{})

	for _, body := range []string{"", "{", `{"username":"a","unknown":true}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Signup(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestSignupHandlerMapsConflict(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{err: services.ErrUsernameTaken}, &stubUserService{})

	body := `{"username":"alice","email":"alice@x.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Signup(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginHandlerMapsInvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{err: services.ErrInvalidCredentials}, &stubUserService{})

	body := `{"usernameOrEmail":"alice","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleLoginHandler(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{err: services.ErrFederationUnavailable}, &stubUserService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":""}`))
	rec := httptest.NewRecorder()
	handler.GoogleLogin(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":"opaque"}`))
	rec = httptest.NewRecorder()
	handler.GoogleLogin(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMeHandlerLooksUpStoredProfile(t *testing.T) {
	users := &stubUserService{user: &models.User{ID: 42, Username: "alice", Role: models.RoleStudent}}
	handler := NewAuthHandler(&stubAuthService{}, users)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), &services.Claims{UserID: 42, Username: "alice", Role: models.RoleStudent}))
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 42, got.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec = httptest.NewRecorder()
	handler.Me(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
