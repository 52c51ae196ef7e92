package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/askbox-backend/api/middleware"
	"github.com/angelmondragon/askbox-backend/internal/auth"
	"github.com/angelmondragon/askbox-backend/internal/users"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
)

type stubRegister struct {
	user  *users.UserDTO
	err   error
	calls int
}

func (s *stubRegister) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.calls++
	return s.user, s.err
}

type stubAdminRegister struct {
	user *users.UserDTO
	req  auth.AdminRegisterRequest
}

func (s *stubAdminRegister) CreatePrivileged(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	s.req = req
	return s.user, nil
}

type stubAuthService struct {
	resp       *auth.LoginResponse
	loginErr   error
	started    uuid.UUID
	lastLogin  auth.LoginRequest
	sessionErr error
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.lastLogin = req
	return s.resp, s.loginErr
}

func (s *stubAuthService) StartSession(ctx context.Context, userID uuid.UUID) (*auth.LoginResponse, error) {
	s.started = userID
	return s.resp, s.sessionErr
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRegisterStartsSession(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "dana", Email: "dana@example.com"}
	reg := &stubRegister{user: user}
	svc := &stubAuthService{resp: &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh", User: user}}

	rec := postJSON(t, AuthRegister(reg, svc, nil),
		`{"username":"dana","email":"dana@example.com","password":"pw","confirm_password":"pw"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "access", rec.Header().Get(middleware.TokenHeader))
	require.Equal(t, user.ID, svc.started)

	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Equal(t, "refresh", envelope.Data.RefreshToken)
	require.Equal(t, "dana", envelope.Data.User.Username)
}

func TestAuthRegisterRejectionCarriesFields(t *testing.T) {
	rejected := pkgerrors.New(pkgerrors.CodeValidation, "registration rejected").WithDetails(auth.RejectionDetails{
		Fields: auth.FieldRejections{
			auth.FieldUsername: {{Reason: auth.ReasonReservedName, Message: "This username is reserved."}},
		},
		Input: map[string]string{"username": "admin", "email": "a@example.com"},
	})
	reg := &stubRegister{err: rejected}
	svc := &stubAuthService{}

	rec := postJSON(t, AuthRegister(reg, svc, nil),
		`{"username":"admin","email":"a@example.com","password":"pw","confirm_password":"pw"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, rec.Header().Get(middleware.TokenHeader))
	require.Equal(t, uuid.Nil, svc.started)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)

	var details auth.RejectionDetails
	require.NoError(t, json.Unmarshal(envelope.Error.Details, &details))
	require.True(t, details.Fields.Has(auth.FieldUsername, auth.ReasonReservedName))
	require.Equal(t, "admin", details.Input["username"])
	require.NotContains(t, details.Input, "password")
}

func TestAuthRegisterMalformedBody(t *testing.T) {
	reg := &stubRegister{}
	rec := postJSON(t, AuthRegister(reg, &stubAuthService{}, nil), `{"username":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, reg.calls)
}

func TestAuthRegisterSessionFailure(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "erin"}
	svc := &stubAuthService{sessionErr: pkgerrors.New(pkgerrors.CodeDependency, "session store unavailable")}

	rec := postJSON(t, AuthRegister(&stubRegister{user: user}, svc, nil),
		`{"username":"erin","email":"erin@example.com","password":"pw","confirm_password":"pw"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminAuthRegister(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "root", IsAdmin: true, IsStaff: true}
	reg := &stubAdminRegister{user: user}
	svc := &stubAuthService{resp: &auth.LoginResponse{AccessToken: "admin-access", User: user}}

	rec := postJSON(t, AdminAuthRegister(reg, svc, nil),
		`{"username":"root","email":"root@example.com","password":"pw"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "root", reg.req.Username)
	require.Equal(t, "admin-access", rec.Header().Get(middleware.TokenHeader))
}

func TestAuthLogin(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "fay"}
	svc := &stubAuthService{resp: &auth.LoginResponse{AccessToken: "tok", User: user}}

	rec := postJSON(t, AuthLogin(svc, nil), `{"login":"FAY","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "tok", rec.Header().Get(middleware.TokenHeader))
	require.Equal(t, "FAY", svc.lastLogin.Login)
}

func TestAuthLoginRequiresFields(t *testing.T) {
	rec := postJSON(t, AuthLogin(&stubAuthService{}, nil), `{"login":"fay"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthLoginBadCredentials(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	rec := postJSON(t, AuthLogin(svc, nil), `{"login":"fay","password":"nope"}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Equal(t, "invalid credentials", envelope.Error.Message)
}
