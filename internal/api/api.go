package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bugboard/bugboard/internal/auth"
	"github.com/bugboard/bugboard/internal/comments"
	"github.com/bugboard/bugboard/internal/export"
	"github.com/bugboard/bugboard/internal/issues"
	"github.com/bugboard/bugboard/internal/llm"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/permission"
	"github.com/bugboard/bugboard/internal/stats"
	"github.com/bugboard/bugboard/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store       store.Store
	auth        *auth.Authenticator
	issues      *issues.Service
	comments    *comments.Service
	notify      *notify.Service
	exporter    *export.Exporter
	llm         *llm.Client
	allowClosed bool
}

// NewServer creates a new API server.
// The llmClient may be nil if no API key is configured.
func NewServer(s store.Store, authn *auth.Authenticator, llmClient *llm.Client, allowClosed bool) *Server {
	notifier := notify.NewService(s)
	issueSvc := issues.NewService(s, notifier, allowClosed)
	return &Server{
		store:       s,
		auth:        authn,
		issues:      issueSvc,
		comments:    comments.NewService(s),
		notify:      notifier,
		exporter:    export.NewExporter(issueSvc, s),
		llm:         llmClient,
		allowClosed: allowClosed,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", s.login)
	mux.HandleFunc("GET /api/v1/auth/me", s.authed(s.me))

	mux.HandleFunc("GET /api/v1/users", s.authed(s.listUsers))
	mux.HandleFunc("POST /api/v1/users", s.authed(s.createUser))
	mux.HandleFunc("GET /api/v1/users/{id}", s.authed(s.getUser))
	mux.HandleFunc("PUT /api/v1/users/{id}", s.authed(s.updateUser))
	mux.HandleFunc("DELETE /api/v1/users/{id}", s.authed(s.deleteUser))

	mux.HandleFunc("GET /api/v1/issues", s.authed(s.listIssues))
	mux.HandleFunc("POST /api/v1/issues", s.authed(s.createIssue))
	mux.HandleFunc("GET /api/v1/issues/export", s.authed(s.exportIssues))
	mux.HandleFunc("POST /api/v1/issues/triage", s.authed(s.triageIssue))
	mux.HandleFunc("GET /api/v1/issues/{id}", s.authed(s.getIssue))
	mux.HandleFunc("PATCH /api/v1/issues/{id}", s.authed(s.updateIssue))
	mux.HandleFunc("DELETE /api/v1/issues/{id}", s.authed(s.softDeleteIssue))
	mux.HandleFunc("POST /api/v1/issues/{id}/restore", s.authed(s.restoreIssue))
	mux.HandleFunc("DELETE /api/v1/issues/{id}/purge", s.authed(s.purgeIssue))
	mux.HandleFunc("POST /api/v1/issues/{id}/archive", s.authed(s.archiveIssue))
	mux.HandleFunc("POST /api/v1/issues/{id}/unarchive", s.authed(s.unarchiveIssue))
	mux.HandleFunc("GET /api/v1/issues/{id}/history", s.authed(s.issueHistory))

	mux.HandleFunc("GET /api/v1/issues/{id}/comments", s.authed(s.listComments))
	mux.HandleFunc("POST /api/v1/issues/{id}/comments", s.authed(s.createComment))
	mux.HandleFunc("PUT /api/v1/comments/{id}", s.authed(s.updateComment))
	mux.HandleFunc("DELETE /api/v1/comments/{id}", s.authed(s.deleteComment))

	mux.HandleFunc("GET /api/v1/labels", s.authed(s.listLabels))
	mux.HandleFunc("POST /api/v1/labels", s.authed(s.createLabel))
	mux.HandleFunc("DELETE /api/v1/labels/{id}", s.authed(s.deleteLabel))

	mux.HandleFunc("GET /api/v1/projects", s.authed(s.listProjects))
	mux.HandleFunc("POST /api/v1/projects", s.authed(s.createProject))
	mux.HandleFunc("GET /api/v1/projects/{id}", s.authed(s.getProject))

	mux.HandleFunc("GET /api/v1/notifications", s.authed(s.listNotifications))
	mux.HandleFunc("POST /api/v1/notifications/{id}/read", s.authed(s.readNotification))

	mux.HandleFunc("GET /api/v1/stats", s.authed(s.boardStats))

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authed wraps a handler with bearer-token authentication and passes the
// resolved actor through.
func (s *Server) authed(h func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		actor, err := s.auth.FromToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		h(w, r, actor)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service-layer sentinel errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Auth ---

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, actor *models.User) {
	writeJSON(w, http.StatusOK, actor)
}

// --- Users ---

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, actor *models.User) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, actor *models.User) {
	user, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if !permission.Can(actor, permission.ActionManageUsers, nil) {
		writeError(w, http.StatusForbidden, "user management requires the admin role")
		return
	}
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	role := models.RoleUser
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		role = parsed
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, actor *models.User) {
	id := r.PathValue("id")
	if !permission.Can(actor, permission.ActionManageUsers, nil) && actor.ID != id {
		writeError(w, http.StatusForbidden, "cannot modify another user")
		return
	}
	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		// Role changes stay admin-only even for self-updates.
		if !permission.Can(actor, permission.ActionManageUsers, nil) {
			writeError(w, http.StatusForbidden, "role changes require the admin role")
			return
		}
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		user.Role = role
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if !permission.Can(actor, permission.ActionManageUsers, nil) {
		writeError(w, http.StatusForbidden, "user management requires the admin role")
		return
	}
	if err := s.store.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Issues ---

// parseIssueFilter builds a filter from list query parameters. Enum
// parameters accept comma-separated values.
func (s *Server) parseIssueFilter(r *http.Request) (store.IssueListFilter, error) {
	q := r.URL.Query()
	filter := store.IssueListFilter{
		ProjectID:       q.Get("project"),
		AssignedToID:    q.Get("assignee"),
		Search:          q.Get("q"),
		IncludeArchived: q.Get("includeArchived") == "true",
		IncludeDeleted:  q.Get("includeDeleted") == "true",
	}
	for _, raw := range splitParam(q.Get("type")) {
		t, err := models.ParseType(raw)
		if err != nil {
			return filter, err
		}
		filter.Types = append(filter.Types, t)
	}
	for _, raw := range splitParam(q.Get("status")) {
		st, err := models.ParseStatus(raw, s.allowClosed)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	for _, raw := range splitParam(q.Get("priority")) {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return filter, err
		}
		filter.Priorities = append(filter.Priorities, p)
	}
	return filter, nil
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseListOptions(r *http.Request) store.ListOptions {
	q := r.URL.Query()
	opts := store.ListOptions{
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		opts.Page = page
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		opts.PageSize = size
	}
	return opts
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request, actor *models.User) {
	filter, err := s.parseIssueFilter(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	page, err := s.issues.List(r.Context(), filter, parseListOptions(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var req struct {
		ProjectID    string `json:"projectId"`
		Title        string `json:"title"`
		Type         string `json:"type"`
		Description  string `json:"description"`
		Priority     string `json:"priority"`
		Status       string `json:"status"`
		AssignedToID string `json:"assignedToId"`
		Image        string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	create := issues.CreateRequest{
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Description:  req.Description,
		AssignedToID: req.AssignedToID,
		Image:        req.Image,
	}
	if req.Type != "" {
		t, err := models.ParseType(req.Type)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		create.Type = t
	} else {
		create.Type = models.IssueTypeBug
	}
	if req.Priority != "" {
		p, err := models.ParsePriority(req.Priority)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		create.Priority = p
	}
	if req.Status != "" {
		st, err := models.ParseStatus(req.Status, s.allowClosed)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		create.Status = st
	}

	issue, err := s.issues.Create(r.Context(), actor, create)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	issue, err := s.issues.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var body struct {
		Title        *string    `json:"title"`
		Type         *string    `json:"type"`
		Description  *string    `json:"description"`
		Priority     *string    `json:"priority"`
		Status       *string    `json:"status"`
		AssignedToID *string    `json:"assignedToId"`
		Image        *string    `json:"image"`
		LabelIDs     []string   `json:"labelIds"`
		Archived     *bool      `json:"archived"`
		CreatedByID  *string    `json:"createdById"`
		CreatedAt    *time.Time `json:"createdAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req := issues.UpdateRequest{
		Title:        body.Title,
		Description:  body.Description,
		AssignedToID: body.AssignedToID,
		Image:        body.Image,
		LabelIDs:     body.LabelIDs,
		Archived:     body.Archived,
		CreatedByID:  body.CreatedByID,
		CreatedAt:    body.CreatedAt,
	}
	if body.Type != nil {
		t, err := models.ParseType(*body.Type)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		req.Type = &t
	}
	if body.Priority != nil {
		p, err := models.ParsePriority(*body.Priority)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		req.Priority = &p
	}
	if body.Status != nil {
		st, err := models.ParseStatus(*body.Status, s.allowClosed)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		req.Status = &st
	}

	issue, err := s.issues.Update(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) softDeleteIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if err := s.issues.SoftDelete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	issue, err := s.issues.Restore(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) purgeIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if err := s.issues.HardDelete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) archiveIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	issue, err := s.issues.Archive(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) unarchiveIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	issue, err := s.issues.Unarchive(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) issueHistory(w http.ResponseWriter, r *http.Request, actor *models.User) {
	entries, err := s.issues.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) exportIssues(w http.ResponseWriter, r *http.Request, actor *models.User) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	filter, err := s.parseIssueFilter(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	opts := parseListOptions(r)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "issues."+string(format)))
	if err := s.exporter.Write(r.Context(), w, format, filter, opts.SortBy, opts.Order); err != nil {
		// Headers are already out; nothing sensible left to send.
		return
	}
}

func (s *Server) triageIssue(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if s.llm != nil {
		triage, err := s.llm.SuggestTriage(r.Context(), req.Title, req.Description)
		if err == nil {
			writeJSON(w, http.StatusOK, triage)
			return
		}
	}
	writeJSON(w, http.StatusOK, llm.ClassifyTriage(req.Title))
}

// --- Comments ---

func (s *Server) listComments(w http.ResponseWriter, r *http.Request, actor *models.User) {
	list, err := s.comments.ListByIssue(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*models.Comment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var req struct {
		Content string `json:"content"`
		Image   string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	comment, err := s.comments.Create(r.Context(), actor, r.PathValue("id"), req.Content, req.Image)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var req struct {
		Content string `json:"content"`
		Image   string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	comment, err := s.comments.Update(r.Context(), actor, r.PathValue("id"), req.Content, req.Image)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if err := s.comments.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Labels ---

func (s *Server) listLabels(w http.ResponseWriter, r *http.Request, actor *models.User) {
	labels, err := s.store.ListLabels(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if labels == nil {
		labels = []*models.Label{}
	}
	writeJSON(w, http.StatusOK, labels)
}

func (s *Server) createLabel(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var label models.Label
	if err := json.NewDecoder(r.Body).Decode(&label); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if label.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateLabel(r.Context(), &label); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, label)
}

func (s *Server) deleteLabel(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if !permission.Can(actor, permission.ActionManageUsers, nil) {
		writeError(w, http.StatusForbidden, "label deletion requires the admin role")
		return
	}
	if err := s.store.DeleteLabel(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request, actor *models.User) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if project.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	project.CreatedByID = actor.ID
	if err := s.store.CreateProject(r.Context(), &project); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request, actor *models.User) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// --- Notifications ---

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request, actor *models.User) {
	list, err := s.notify.ListByUser(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) readNotification(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if err := s.notify.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Stats ---

func (s *Server) boardStats(w http.ResponseWriter, r *http.Request, actor *models.User) {
	filter := store.IssueListFilter{IncludeArchived: true, IncludeDeleted: true}
	all, err := s.issues.ListAll(r.Context(), filter, "", "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(all, time.Now()))
}
