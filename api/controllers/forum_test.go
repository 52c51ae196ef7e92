package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/askbox-backend/api/middleware"
	"github.com/angelmondragon/askbox-backend/internal/profiles"
	"github.com/angelmondragon/askbox-backend/internal/questions"
	"github.com/angelmondragon/askbox-backend/internal/testdb"
	"github.com/angelmondragon/askbox-backend/internal/users"
	"github.com/angelmondragon/askbox-backend/pkg/config"
	"github.com/angelmondragon/askbox-backend/pkg/db"
	"github.com/angelmondragon/askbox-backend/pkg/enums"
)

type forumFixture struct {
	router      http.Handler
	users       *users.Repository
	provisioner *profiles.Provisioner
}

// newForumFixture mounts the board handlers on a chi router. The actor header
// stands in for the auth middleware.
func newForumFixture(t *testing.T) *forumFixture {
	t.Helper()
	client := testdb.New(t)
	userRepo := users.NewRepository(client.DB())

	profileSvc, err := profiles.NewService(userRepo, profiles.NewRepository(client.DB()))
	require.NoError(t, err)
	questionSvc, err := questions.NewService(questions.NewRepository(client.DB()))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if id, err := uuid.Parse(req.Header.Get("X-Test-User")); err == nil {
				ctx = middleware.WithPrincipal(ctx, middleware.Principal{
					UserID: id,
					Role:   enums.SystemRole(req.Header.Get("X-Test-Role")),
				})
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/users/{userId}/profile", ProfileGet(profileSvc, nil))
	r.Put("/users/{userId}/profile", ProfileUpdate(profileSvc, nil))
	r.Put("/admin/users/{userId}/status", AdminSetAccountStatus(userRepo, nil))
	r.Get("/questions", QuestionList(questionSvc, nil))
	r.Post("/questions", QuestionCreate(questionSvc, nil))
	r.Get("/questions/{questionId}", QuestionDetail(questionSvc, nil))
	r.Post("/questions/{questionId}/answers", AnswerCreate(questionSvc, nil))
	r.Get("/search", Search(questionSvc, nil))

	return &forumFixture{router: r, users: userRepo, provisioner: profiles.NewProvisioner(client.DB(), "")}
}

func (f *forumFixture) member(t *testing.T, username string) uuid.UUID {
	t.Helper()
	user, err := f.users.Create(context.Background(), users.CreateUserDTO{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	_, err = f.provisioner.Provision(context.Background(), user.ID)
	require.NoError(t, err)
	return user.ID
}

func (f *forumFixture) do(t *testing.T, method, target string, actor uuid.UUID, role enums.SystemRole, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("X-Test-User", actor.String())
		req.Header.Set("X-Test-Role", string(role))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
}

func TestQuestionHandlersRoundTrip(t *testing.T) {
	f := newForumFixture(t)
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")

	rec := f.do(t, http.MethodPost, "/questions", alice, enums.SystemRoleMember,
		questions.CreateQuestionRequest{Title: "Tabs or spaces?", Description: "Settle it."})
	require.Equal(t, http.StatusCreated, rec.Code)
	var question questions.QuestionDTO
	decodeData(t, rec, &question)
	require.Equal(t, "alice", question.Author.Username)

	rec = f.do(t, http.MethodPost, "/questions/"+question.ID.String()+"/answers", bob, enums.SystemRoleMember,
		questions.CreateAnswerRequest{Description: "Tabs."})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/questions/"+question.ID.String(), uuid.Nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail questions.QuestionDetailDTO
	decodeData(t, rec, &detail)
	require.Len(t, detail.Answers, 1)
	require.Equal(t, "bob", detail.Answers[0].Author.Username)

	rec = f.do(t, http.MethodGet, "/questions?limit=5&page=1", uuid.Nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list questions.QuestionListDTO
	decodeData(t, rec, &list)
	require.Len(t, list.Questions, 1)
	require.EqualValues(t, 1, list.Questions[0].AnswerCount)
	require.Equal(t, 5, list.Limit)

	rec = f.do(t, http.MethodGet, "/search?q="+url.QueryEscape("TABS"), uuid.Nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result questions.SearchResultDTO
	decodeData(t, rec, &result)
	require.EqualValues(t, 1, result.Count)
}

func TestQuestionHandlersRejections(t *testing.T) {
	f := newForumFixture(t)
	alice := f.member(t, "alice")

	rec := f.do(t, http.MethodPost, "/questions", uuid.Nil, "",
		questions.CreateQuestionRequest{Title: "t", Description: "d"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/questions", alice, enums.SystemRoleMember,
		map[string]string{"title": "no description"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/questions/not-a-uuid", uuid.Nil, "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/questions/"+uuid.NewString(), uuid.Nil, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/questions/"+uuid.NewString()+"/answers", alice, enums.SystemRoleMember,
		questions.CreateAnswerRequest{Description: "orphan"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/search?q=", uuid.Nil, "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/questions?limit=500", uuid.Nil, "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileHandlers(t *testing.T) {
	f := newForumFixture(t)
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")
	admin := f.member(t, "moderator")
	target := "/users/" + alice.String() + "/profile"

	rec := f.do(t, http.MethodGet, target, uuid.Nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile profiles.ProfileDTO
	decodeData(t, rec, &profile)
	require.Equal(t, "alice", profile.Username)
	require.Nil(t, profile.Job)

	job := "Engineer"
	rec = f.do(t, http.MethodPut, target, alice, enums.SystemRoleMember, profiles.UpdateProfileRequest{Job: &job})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &profile)
	require.NotNil(t, profile.Job)
	require.Equal(t, "Engineer", *profile.Job)

	rec = f.do(t, http.MethodPut, target, bob, enums.SystemRoleMember, profiles.UpdateProfileRequest{Job: &job})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPut, target, admin, enums.SystemRoleAdmin, profiles.UpdateProfileRequest{Job: &job})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/users/"+uuid.NewString()+"/profile", uuid.Nil, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSetAccountStatus(t *testing.T) {
	f := newForumFixture(t)
	alice := f.member(t, "alice")
	admin := f.member(t, "moderator")

	rec := f.do(t, http.MethodPut, "/admin/users/"+alice.String()+"/status", admin, enums.SystemRoleAdmin,
		map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := f.users.FindByID(context.Background(), alice)
	require.NoError(t, err)
	require.False(t, user.IsActive)

	rec = f.do(t, http.MethodPut, "/admin/users/"+alice.String()+"/status", admin, enums.SystemRoleAdmin,
		map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/admin/users/"+uuid.NewString()+"/status", admin, enums.SystemRoleAdmin,
		map[string]bool{"active": true})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandlers(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "dev", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]db.Pinger{"db": stubPinger{}, "cache": nil}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, rec, &ready)
	require.Equal(t, "ready", ready.Status)
	require.Equal(t, map[string]string{"db": "ok"}, ready.Checks)

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]db.Pinger{"db": stubPinger{}, "redis": stubPinger{err: errors.New("down")}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Contains(t, string(envelope.Error.Details), `"redis":"unavailable"`)
}
