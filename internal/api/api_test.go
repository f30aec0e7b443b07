package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/auth"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/store"
)

type testEnv struct {
	srv    *Server
	router http.Handler
	store  store.Store

	admin    *models.User
	user     *models.User
	external *models.User

	adminToken    string
	userToken     string
	externalToken string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	authn, err := auth.New(s, "test-secret")
	require.NoError(t, err)

	env := &testEnv{
		srv:   NewServer(s, authn, nil, false),
		store: s,
	}
	env.router = env.srv.Router()

	env.admin = seedUser(t, s, "admin@example.com", models.RoleAdmin)
	env.user = seedUser(t, s, "user@example.com", models.RoleUser)
	env.external = seedUser(t, s, "ext@example.com", models.RoleExternal)

	env.adminToken = tokenFor(t, authn, env.admin)
	env.userToken = tokenFor(t, authn, env.user)
	env.externalToken = tokenFor(t, authn, env.external)

	return env
}

func seedUser(t *testing.T, s store.Store, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	u := &models.User{Email: email, Name: email, PasswordHash: hash, Role: role}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func tokenFor(t *testing.T, authn *auth.Authenticator, u *models.User) string {
	t.Helper()
	token, err := authn.IssueToken(u)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/auth/login", "", `{"email":"user@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, env.user.ID, resp.User.ID)

	// The issued token works on authenticated routes.
	w = env.do("GET", "/api/v1/auth/me", resp.Token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := setupTestServer(t)
	w := env.do("POST", "/api/v1/auth/login", "", `{"email":"user@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("GET", "/api/v1/issues", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("GET", "/api/v1/issues", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueCRUD_API(t *testing.T) {
	env := setupTestServer(t)

	// Create with defaults
	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"login broken","type":"BUG"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "login broken", created.Title)
	assert.Equal(t, models.IssueStatusTodo, created.Status)
	assert.Equal(t, models.IssuePriorityMedium, created.Priority)
	assert.Equal(t, env.user.ID, created.CreatedByID)
	assert.False(t, created.Archived)
	assert.Nil(t, created.UpdatedAt)

	// Get
	w = env.do("GET", "/api/v1/issues/"+created.ID, env.userToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Patch title
	w = env.do("PATCH", "/api/v1/issues/"+created.ID, env.userToken, `{"title":"login broken on Safari"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "login broken on Safari", updated.Title)
	assert.NotNil(t, updated.UpdatedAt)

	// List
	w = env.do("GET", "/api/v1/issues", env.userToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var page store.IssuePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Len(t, page.Items, 1)
}

func TestCreateIssue_ExternalForbidden(t *testing.T) {
	env := setupTestServer(t)
	w := env.do("POST", "/api/v1/issues", env.externalToken, `{"title":"nope","type":"BUG"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPatchCreatorFields_Conflict(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"immutable","type":"BUG"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))

	w = env.do("PATCH", "/api/v1/issues/"+issue.ID, env.adminToken, `{"createdById":"someone-else"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPatchEmptyBody_BadRequest(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"quiet","type":"BUG"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))

	// An empty patch has nothing to authorize and must not touch the record.
	w = env.do("PATCH", "/api/v1/issues/"+issue.ID, env.externalToken, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/v1/issues/"+issue.ID, env.userToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Nil(t, got.UpdatedAt)
}

func TestStatusChange_Permissions(t *testing.T) {
	env := setupTestServer(t)

	body := `{"title":"assigned to user","type":"BUG","assignedToId":"` + env.user.ID + `"}`
	w := env.do("POST", "/api/v1/issues", env.adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))

	// Assignee may change status.
	w = env.do("PATCH", "/api/v1/issues/"+issue.ID, env.userToken, `{"status":"IN_PROGRESS"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// A non-assigned, non-admin user may not.
	other := seedUser(t, env.store, "other@example.com", models.RoleUser)
	authn, err := auth.New(env.store, "test-secret")
	require.NoError(t, err)
	otherToken := tokenFor(t, authn, other)

	w = env.do("PATCH", "/api/v1/issues/"+issue.ID, otherToken, `{"status":"RESOLVED"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestArchiveLifecycle_API(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"to archive","type":"FEATURE"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))

	// Non-admin cannot archive.
	w = env.do("POST", "/api/v1/issues/"+issue.ID+"/archive", env.userToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin archives.
	w = env.do("POST", "/api/v1/issues/"+issue.ID+"/archive", env.adminToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var archived models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &archived))
	assert.True(t, archived.Archived)
	assert.NotNil(t, archived.ArchivedAt)
	assert.Equal(t, env.admin.ID, archived.ArchivedByID)

	// Archiving again conflicts.
	w = env.do("POST", "/api/v1/issues/"+issue.ID+"/archive", env.adminToken, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Archived issues drop out of the default listing.
	w = env.do("GET", "/api/v1/issues", env.userToken, "")
	var page store.IssuePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 0, page.Total)

	w = env.do("GET", "/api/v1/issues?includeArchived=true", env.userToken, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	// Unarchive clears all three fields.
	w = env.do("POST", "/api/v1/issues/"+issue.ID+"/unarchive", env.adminToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var restored models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restored))
	assert.False(t, restored.Archived)
	assert.Nil(t, restored.ArchivedAt)
	assert.Empty(t, restored.ArchivedByID)
}

func TestSoftDeleteRestore_API(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"doomed","type":"BUG"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))

	w = env.do("DELETE", "/api/v1/issues/"+issue.ID, env.adminToken, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Gone from default listing, visible with includeDeleted.
	var page store.IssuePage
	w = env.do("GET", "/api/v1/issues", env.userToken, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 0, page.Total)

	w = env.do("GET", "/api/v1/issues?includeDeleted=true", env.userToken, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	w = env.do("POST", "/api/v1/issues/"+issue.ID+"/restore", env.adminToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/api/v1/issues", env.userToken, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	// Purge is final.
	w = env.do("DELETE", "/api/v1/issues/"+issue.ID+"/purge", env.adminToken, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("GET", "/api/v1/issues/"+issue.ID, env.userToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComments_API(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"talkative","type":"QUESTION"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))

	w = env.do("POST", "/api/v1/issues/"+issue.ID+"/comments", env.userToken, `{"content":"first!"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	var comment models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, env.user.ID, comment.AuthorID)

	// External accounts cannot comment.
	w = env.do("POST", "/api/v1/issues/"+issue.ID+"/comments", env.externalToken, `{"content":"hi"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Only the author edits; admin may delete.
	w = env.do("PUT", "/api/v1/comments/"+comment.ID, env.adminToken, `{"content":"edited"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("PUT", "/api/v1/comments/"+comment.ID, env.userToken, `{"content":"edited"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("DELETE", "/api/v1/comments/"+comment.ID, env.adminToken, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("GET", "/api/v1/issues/"+issue.ID+"/comments", env.userToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list []*models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestListIssues_InvalidStatus(t *testing.T) {
	env := setupTestServer(t)
	w := env.do("GET", "/api/v1/issues?status=BOGUS", env.userToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListIssues_LegacyStatusValues(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"legacy","type":"BUG","status":"APERTA","priority":"BASSA"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))
	assert.Equal(t, models.IssueStatusTodo, issue.Status)
	assert.Equal(t, models.IssuePriorityLow, issue.Priority)

	var page store.IssuePage
	w = env.do("GET", "/api/v1/issues?status=APERTA", env.userToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
}

func TestUserManagement_AdminOnly(t *testing.T) {
	env := setupTestServer(t)

	body := `{"email":"new@example.com","name":"New","password":"secret123","role":"USER"}`
	w := env.do("POST", "/api/v1/users", env.userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("POST", "/api/v1/users", env.adminToken, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "new@example.com", created.Email)
	assert.Empty(t, created.PasswordHash, "hash must not serialize")

	// Self-update of name is allowed, role escalation is not.
	w = env.do("PUT", "/api/v1/users/"+env.user.ID, env.userToken, `{"name":"renamed"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("PUT", "/api/v1/users/"+env.user.ID, env.userToken, `{"role":"ADMIN"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExportCSV_API(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"exported","type":"BUG"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", "/api/v1/issues/export?format=csv", env.userToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "exported")
}

func TestTriage_KeywordFallback(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues/triage", env.userToken, `{"title":"Fix urgent crash in importer"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var triage struct {
		Type     string `json:"type"`
		Priority string `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &triage))
	assert.Equal(t, "BUG", triage.Type)
	assert.Equal(t, "HIGH", triage.Priority)
}

func TestStats_API(t *testing.T) {
	env := setupTestServer(t)

	w := env.do("POST", "/api/v1/issues", env.userToken, `{"title":"open one","type":"BUG"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", "/api/v1/stats", env.userToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.EqualValues(t, 1, summary["Total"])
}

func TestNotifications_API(t *testing.T) {
	env := setupTestServer(t)

	// Admin resolves an issue reported by user: user gets notified.
	body := `{"title":"notify me","type":"BUG"}`
	w := env.do("POST", "/api/v1/issues", env.userToken, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issue))

	w = env.do("PATCH", "/api/v1/issues/"+issue.ID, env.adminToken, `{"status":"RESOLVED"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/api/v1/notifications", env.userToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var list []*models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)

	w = env.do("POST", "/api/v1/notifications/"+list[0].ID+"/read", env.userToken, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("GET", "/api/v1/notifications", env.userToken, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
}

func TestCORS(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/issues", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
