package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"easylist/internal/auth"
	"easylist/internal/config"
	"easylist/internal/handler"
	"easylist/internal/model"
	"easylist/internal/notify"
	"easylist/internal/repository"
	"easylist/internal/sanitize"
	"easylist/internal/server"
	"easylist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []notify.Completion
}

func (s *capturingSender) Send(_ context.Context, n notify.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *capturingSender) Sent() []notify.Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Completion(nil), s.sent...)
}

type testServer struct {
	router     *gin.Engine
	users      *repository.UserRepository
	sender     *capturingSender
	dispatcher *notify.Dispatcher
	cfg        *config.Config
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.List{}))

	cfg := &config.Config{
		CORSOrigin:          "http://localhost:8081",
		MaxBodyBytes:        64 * 1024,
		JWTSecret:           "server-test-secret",
		ShareBaseURL:        "https://easylist.link/list",
		DeleteRequiresOwner: true,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sender := &capturingSender{}
	dispatcher := notify.NewDispatcher(sender, log, notify.DispatcherConfig{Workers: 1, QueueSize: 8, Attempts: 1})
	dispatcher.Start(context.Background())
	t.Cleanup(dispatcher.Close)

	users := repository.NewUserRepository(db)
	svc := service.NewListService(
		repository.NewListRepository(db),
		users,
		sanitize.New(),
		dispatcher,
		log,
		service.Options{ShareBaseURL: cfg.ShareBaseURL, DeleteRequiresOwner: true},
	)

	return &testServer{
		router:     server.NewRouter(cfg, log, handler.NewListHandler(svc, log)),
		users:      users,
		sender:     sender,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

func (s *testServer) user(t *testing.T, name string) (uuid.UUID, string) {
	t.Helper()
	u := &model.User{Email: name + "@example.com", Username: name}
	require.NoError(t, s.users.Create(context.Background(), u))
	token, err := auth.GenerateToken(s.cfg.JWTSecret, u.ID.String(), time.Hour)
	require.NoError(t, err)
	return u.ID, "Bearer " + token
}

func (s *testServer) do(method, path, authHeader string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewBuffer(jsonBody)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func listFrom(t *testing.T, resp *httptest.ResponseRecorder) handler.ListResponse {
	t.Helper()
	var body struct {
		List handler.ListResponse `json:"list"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.List
}

func TestListLifecycle(t *testing.T) {
	s := setupServer(t)
	aliceID, alice := s.user(t, "alice")
	_, bob := s.user(t, "bob")

	resp := s.do("POST", "/lists", alice, map[string]interface{}{
		"name":            "Groceries",
		"html":            `<ul><li>milk</li></ul><script>alert(1)</script>`,
		"backgroundColor": "#ffeecc",
		"notificationsOn": true,
		"isPrivate":       true,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	original := listFrom(t, resp)
	assert.Equal(t, aliceID.String(), original.AuthorID)
	assert.Equal(t, "<ul><li>milk</li></ul>", original.HTML)

	// private lists are hidden from everyone else
	resp = s.do("GET", "/lists/"+original.ID, bob, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do("PUT", "/lists/"+original.ID+"/share", alice, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var share handler.ShareResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &share))
	assert.False(t, share.IsPrivate)
	assert.Equal(t, "https://easylist.link/list/"+original.ID, share.Link)

	resp = s.do("GET", "/lists/"+original.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = s.do("POST", "/lists/"+original.ID+"/copy", bob, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	copied := listFrom(t, resp)
	assert.Equal(t, original.ID, copied.CopiedFrom)
	assert.True(t, copied.IsPrivate)
	assert.False(t, copied.NotificationsOn)

	resp = s.do("POST", "/lists/"+original.ID+"/copy", bob, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = s.do("PUT", "/lists/"+copied.ID+"/complete", bob, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, listFrom(t, resp).IsFinished)

	resp = s.do("PUT", "/lists/"+copied.ID+"/complete", bob, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	s.dispatcher.Close()
	sent := s.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].AuthorEmail)
	assert.Equal(t, "bob", sent[0].CompleterUsername)
	assert.Equal(t, "Groceries", sent[0].ListName)
}

func TestListsOfCallerAndDelete(t *testing.T) {
	s := setupServer(t)
	_, alice := s.user(t, "alice")
	_, bob := s.user(t, "bob")

	resp := s.do("GET", "/lists", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do("POST", "/lists", alice, map[string]interface{}{
		"name":            "Chores",
		"html":            "<ol><li>dishes</li></ol>",
		"backgroundColor": "#fff",
		"notificationsOn": false,
		"isPrivate":       false,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	list := listFrom(t, resp)

	resp = s.do("DELETE", "/lists/"+list.ID, bob, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do("DELETE", "/lists/"+list.ID, alice, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = s.do("GET", "/lists/"+list.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := setupServer(t)

	resp := s.do("POST", "/lists", "", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do("PUT", "/lists/"+uuid.NewString()+"/share", "Bearer nope", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := setupServer(t)

	resp := s.do("GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())

	resp = s.do("GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t)

	req, _ := http.NewRequest("OPTIONS", "/lists", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "http://localhost:8081", resp.Header().Get("Access-Control-Allow-Origin"))
}
