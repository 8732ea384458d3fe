package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"userhub/internal/domain/user"
	"userhub/internal/http/handlers"
	"userhub/internal/http/middlewares"
	repo "userhub/internal/repo/mongo"
)

type fakeAdminStore struct {
	getByIDFn      func(ctx context.Context, id string) (user.User, error)
	listFn         func(ctx context.Context, page, limit int, search string) ([]user.User, int64, error)
	updateStatusFn func(ctx context.Context, id, status string) (user.User, error)
	updateRoleFn   func(ctx context.Context, id, role string) (user.User, error)
}

func (f *fakeAdminStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, repo.ErrUserNotFound
}

func (f *fakeAdminStore) List(ctx context.Context, page, limit int, search string) ([]user.User, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, page, limit, search)
	}
	return nil, 0, nil
}

func (f *fakeAdminStore) UpdateStatus(ctx context.Context, id, status string) (user.User, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return user.User{}, nil
}

func (f *fakeAdminStore) UpdateRole(ctx context.Context, id, role string) (user.User, error) {
	if f.updateRoleFn != nil {
		return f.updateRoleFn(ctx, id, role)
	}
	return user.User{}, nil
}

var adminActor = user.User{ID: "admin-1", Role: user.RoleAdmin, Status: user.StatusActive}

func newAdminRouter(store *fakeAdminStore) *gin.Engine {
	r := gin.New()

	r.Use(func(c *gin.Context) {
		middlewares.SetCurrentUser(c, adminActor)
		c.Next()
	})

	h := handlers.NewAdminHandler(store)

	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id/activate", h.ActivateUser)
	r.PUT("/users/:id/deactivate", h.DeactivateUser)
	r.PUT("/users/:id/role", h.SetRole)

	return r
}

func storeWith(users map[string]user.User) *fakeAdminStore {
	return &fakeAdminStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id == "bad!" {
				return user.User{}, repo.ErrInvalidID
			}

			u, ok := users[id]

			if !ok {
				return user.User{}, repo.ErrUserNotFound
			}

			return u, nil
		},
	}
}

func TestListUsersPagination(t *testing.T) {
	var gotPage, gotLimit int
	var gotSearch string

	store := &fakeAdminStore{
		listFn: func(ctx context.Context, page, limit int, search string) ([]user.User, int64, error) {
			gotPage, gotLimit, gotSearch = page, limit, search

			return []user.User{{ID: "u1"}, {ID: "u2"}}, 23, nil
		},
	}

	r := newAdminRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users?page=2&limit=10&search=ann", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if gotPage != 2 || gotLimit != 10 || gotSearch != "ann" {
		t.Fatalf("store called with page=%d limit=%d search=%q", gotPage, gotLimit, gotSearch)
	}

	var body struct {
		Users      []json.RawMessage `json:"users"`
		Pagination struct {
			CurrentPage int   `json:"currentPage"`
			TotalPages  int   `json:"totalPages"`
			TotalUsers  int64 `json:"totalUsers"`
			HasNextPage bool  `json:"hasNextPage"`
			HasPrevPage bool  `json:"hasPrevPage"`
		} `json:"pagination"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	p := body.Pagination

	if p.CurrentPage != 2 || p.TotalPages != 3 || p.TotalUsers != 23 {
		t.Fatalf("pagination = %+v", p)
	}

	if !p.HasNextPage || !p.HasPrevPage {
		t.Fatalf("pagination = %+v", p)
	}
}

func TestListUsersCapsLimit(t *testing.T) {
	var gotLimit int

	store := &fakeAdminStore{
		listFn: func(ctx context.Context, page, limit int, search string) ([]user.User, int64, error) {
			gotLimit = limit

			return nil, 0, nil
		},
	}

	r := newAdminRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users?limit=5000", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if gotLimit != 100 {
		t.Fatalf("limit = %d, want capped at 100", gotLimit)
	}
}

func TestGetUserErrors(t *testing.T) {
	r := newAdminRouter(storeWith(nil))

	cases := []struct {
		path     string
		wantCode int
		wantErr  string
	}{
		{"/users/bad!", http.StatusBadRequest, "invalid_id"},
		{"/users/missing", http.StatusNotFound, "not_found"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.wantCode {
			t.Errorf("%s: status = %d, want %d", tc.path, w.Code, tc.wantCode)
			continue
		}

		if code := errCode(t, w); code != tc.wantErr {
			t.Errorf("%s: code = %q, want %q", tc.path, code, tc.wantErr)
		}
	}
}

func TestActivateAlreadyActive(t *testing.T) {
	store := storeWith(map[string]user.User{
		"u1": {ID: "u1", Status: user.StatusActive},
	})

	r := newAdminRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/users/u1/activate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	if code := errCode(t, w); code != "already_active" {
		t.Fatalf("code = %q, want already_active", code)
	}
}

func TestDeactivateAlreadyInactive(t *testing.T) {
	store := storeWith(map[string]user.User{
		"u1": {ID: "u1", Status: user.StatusInactive},
	})

	r := newAdminRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/users/u1/deactivate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	if code := errCode(t, w); code != "already_inactive" {
		t.Fatalf("code = %q, want already_inactive", code)
	}
}

func TestStatusTransitions(t *testing.T) {
	users := map[string]user.User{
		"u1": {ID: "u1", Status: user.StatusInactive},
		"u2": {ID: "u2", Status: user.StatusActive},
	}

	store := storeWith(users)
	store.updateStatusFn = func(ctx context.Context, id, status string) (user.User, error) {
		u := users[id]
		u.Status = status

		return u, nil
	}

	r := newAdminRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/users/u1/activate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("activate: status = %d, body = %s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "User activated successfully.") {
		t.Fatalf("activate body = %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/users/u2/deactivate", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("deactivate: status = %d, body = %s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "User deactivated successfully.") {
		t.Fatalf("deactivate body = %s", w.Body.String())
	}
}

// Admins cannot flip their own account status or role.
func TestSelfActionForbidden(t *testing.T) {
	store := storeWith(map[string]user.User{
		adminActor.ID: adminActor,
	})

	r := newAdminRouter(store)

	paths := []struct {
		method, path, body string
	}{
		{http.MethodPut, "/users/admin-1/activate", ""},
		{http.MethodPut, "/users/admin-1/deactivate", ""},
		{http.MethodPut, "/users/admin-1/role", `{"role":"user"}`},
	}

	for _, tc := range paths {
		var w *httptest.ResponseRecorder

		if tc.body != "" {
			w = doJSON(r, tc.method, tc.path, tc.body)
		} else {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w = httptest.NewRecorder()
			r.ServeHTTP(w, req)
		}

		if w.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", tc.path, w.Code)
			continue
		}

		if code := errCode(t, w); code != "self_action" {
			t.Errorf("%s: code = %q, want self_action", tc.path, code)
		}
	}
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	var storeTouched bool

	store := &fakeAdminStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			storeTouched = true

			return user.User{ID: id}, nil
		},
	}

	r := newAdminRouter(store)

	w := doJSON(r, http.MethodPut, "/users/u1/role", `{"role":"superadmin"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	if code := errCode(t, w); code != "invalid_role" {
		t.Fatalf("code = %q, want invalid_role", code)
	}

	// the role value is checked before any lookup
	if storeTouched {
		t.Fatal("store queried for an invalid role")
	}
}

func TestSetRoleSuccess(t *testing.T) {
	store := storeWith(map[string]user.User{
		"u1": {ID: "u1", Role: user.RoleUser},
	})

	var gotRole string

	store.updateRoleFn = func(ctx context.Context, id, role string) (user.User, error) {
		gotRole = role

		return user.User{ID: id, Role: role}, nil
	}

	r := newAdminRouter(store)

	w := doJSON(r, http.MethodPut, "/users/u1/role", `{"role":"admin"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if gotRole != user.RoleAdmin {
		t.Fatalf("stored role = %q", gotRole)
	}

	if !strings.Contains(w.Body.String(), "User role updated to admin successfully.") {
		t.Fatalf("body = %s", w.Body.String())
	}
}
