package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"userhub/internal/authz"
	"userhub/internal/config"
	"userhub/internal/domain/user"
	"userhub/internal/http/middlewares"
	repo "userhub/internal/repo/mongo"
)

type AdminStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, page, limit int, search string) ([]user.User, int64, error)
	UpdateStatus(ctx context.Context, id, status string) (user.User, error)
	UpdateRole(ctx context.Context, id, role string) (user.User, error)
}

// AdminHandler serves the admin-only user management endpoints. Routes are
// mounted behind RequireAuth + RequireRole(admin); self-action and
// state-transition rules live in the authz guard.
type AdminHandler struct {
	users AdminStore
}

func NewAdminHandler(users AdminStore) *AdminHandler {
	return &AdminHandler{users: users}
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListUsers returns one page of users with the pagination envelope the
// dashboard table consumes.
func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", defaultPageSize)

	if limit > maxPageSize {
		limit = maxPageSize
	}

	search := ctx.Query("search")

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	users, total, err := h.users.List(cctx, page, limit, search)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	ctx.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"currentPage": page,
			"totalPages":  totalPages,
			"totalUsers":  total,
			"hasNextPage": page < totalPages,
			"hasPrevPage": page > 1,
		},
	})
}

func (h *AdminHandler) GetUser(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, ok := h.fetchTarget(ctx, cctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// ActivateUser flips an inactive account back to active. Re-activating an
// already-active account is rejected, not silently accepted.
func (h *AdminHandler) ActivateUser(ctx *gin.Context) {
	h.setStatus(ctx, user.StatusActive, authz.EnsureActivate, "User activated successfully.")
}

func (h *AdminHandler) DeactivateUser(ctx *gin.Context) {
	h.setStatus(ctx, user.StatusInactive, authz.EnsureDeactivate, "User deactivated successfully.")
}

func (h *AdminHandler) SetRole(ctx *gin.Context) {
	var req SetRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, err := authz.ParseRole(req.Role)

	if err != nil {
		RespondBadRequest(ctx, "invalid_role", "Invalid role. Must be either admin or user.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	target, ok := h.fetchTarget(ctx, cctx)

	if !ok {
		return
	}

	if !h.requireNotSelf(ctx, target.ID, "You cannot modify your own role.") {
		return
	}

	updated, err := h.users.UpdateRole(cctx, target.ID, role)

	if err != nil {
		RespondInternal(ctx, "Could not update role")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User role updated to " + role + " successfully.",
		"user":    updated,
	})
}

func (h *AdminHandler) setStatus(ctx *gin.Context, status string, guard func(user.User) error, message string) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	target, ok := h.fetchTarget(ctx, cctx)

	if !ok {
		return
	}

	if !h.requireNotSelf(ctx, target.ID, "You cannot modify your own account status.") {
		return
	}

	if err := guard(target); err != nil {
		code, msg := "already_active", "User is already active."

		if errors.Is(err, authz.ErrAlreadyInactive) {
			code, msg = "already_inactive", "User is already inactive."
		}

		RespondBadRequest(ctx, code, msg)
		return
	}

	updated, err := h.users.UpdateStatus(cctx, target.ID, status)

	if err != nil {
		RespondInternal(ctx, "Could not update status")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
		"user":    updated,
	})
}

// fetchTarget loads the :id path user, writing the error response itself on
// failure.
func (h *AdminHandler) fetchTarget(ctx *gin.Context, cctx context.Context) (user.User, bool) {
	id := ctx.Param("id")

	target, err := h.users.GetByID(cctx, id)

	if err != nil {
		switch {
		case errors.Is(err, repo.ErrInvalidID):
			RespondBadRequest(ctx, "invalid_id", "Invalid ID format.")
		case errors.Is(err, repo.ErrUserNotFound):
			RespondNotFound(ctx, "User not found.")
		default:
			RespondInternal(ctx, "Could not load user")
		}

		return user.User{}, false
	}

	return target, true
}

func (h *AdminHandler) requireNotSelf(ctx *gin.Context, targetID, message string) bool {
	actor, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return false
	}

	if err := authz.RequireNotSelf(actor.ID, targetID); err != nil {
		RespondForbidden(ctx, "self_action", message)
		return false
	}

	return true
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	v := ctx.Query(key)

	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)

	if err != nil || n < 1 {
		return fallback
	}

	return n
}
