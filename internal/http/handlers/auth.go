package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"userhub/internal/config"
	"userhub/internal/domain/user"
	"userhub/internal/http/middlewares"
	repo "userhub/internal/repo/mongo"
)

// Store and crypto dependencies are narrow interfaces so handler tests can
// swap in fakes or the memory repo.

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, fullName, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, fullName, email *string) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) (user.User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Compare(ctx context.Context, hash, plain string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthHandler struct {
	users  UserStore
	hasher PasswordHasher
	jwt    TokenIssuer
}

func NewAuthHandler(users UserStore, hasher PasswordHasher, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users:  users,
		hasher: hasher,
		jwt:    jwt,
	}
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"fullName" binding:"required,min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=2,max=100"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// Signup creates an account. No token is issued; the caller logs in next.
func (h *AuthHandler) Signup(ctx *gin.Context) {
	var req SignupRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// Explicit validation pass on top of the binding tags; every mutation
	// path goes through these same functions.
	if err := validateSignup(req); err != nil {
		RespondBadRequest(ctx, "invalid_request", err.Error())
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	hash, err := h.hasher.Hash(cctx, req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(cctx, req.Email, hash, req.FullName, user.RoleUser)

	if err != nil {
		if errors.Is(err, repo.ErrEmailAlreadyUsed) {
			RespondBadRequest(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password return the identical error so accounts cannot be enumerated.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	err = h.hasher.Compare(cctx, foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	now := time.Now().UTC()

	if err := h.users.SetLastLogin(cctx, foundUser.ID, now); err != nil {
		RespondInternal(ctx, "Could not log in")
		return
	}

	foundUser.LastLogin = &now

	token, err := h.jwt.Issue(foundUser.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":  foundUser,
		"token": token,
	})
}

// Logout is a client-side operation: there is no server-side session to tear
// down, the client just discards its token.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully.",
	})
}

// Me returns the identity resolved by the auth middleware.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// UpdateProfile patches fullName and/or email of the current user.
func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.FullName == nil && req.Email == nil {
		RespondBadRequest(ctx, "invalid_request", "Nothing to update.")
		return
	}

	if req.Email != nil {
		if err := user.ValidateEmail(*req.Email); err != nil {
			RespondBadRequest(ctx, "invalid_request", err.Error())
			return
		}
	}

	if req.FullName != nil {
		if err := user.ValidateFullName(*req.FullName); err != nil {
			RespondBadRequest(ctx, "invalid_request", err.Error())
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	updated, err := h.users.UpdateProfile(cctx, u.ID, req.FullName, req.Email)

	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEmailAlreadyUsed):
			RespondBadRequest(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, repo.ErrUserNotFound):
			RespondUnauthorized(ctx, "unauthorized", "Account no longer exists")
		default:
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": updated})
}

// ChangePassword re-hashes after proving knowledge of the current password
// and hands back a fresh token. Previously issued tokens stay valid until
// their own expiry; that is an accepted limitation of stateless auth.
func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := user.ValidatePassword(req.NewPassword); err != nil {
		RespondBadRequest(ctx, "invalid_request", err.Error())
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	err := h.hasher.Compare(cctx, u.PasswordHash, req.CurrentPassword)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Current password is incorrect.")
		return
	}

	hash, err := h.hasher.Hash(cctx, req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	if _, err := h.users.UpdatePassword(cctx, u.ID, hash); err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	token, err := h.jwt.Issue(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func validateSignup(req SignupRequest) error {
	if err := user.ValidateEmail(req.Email); err != nil {
		return err
	}

	if err := user.ValidatePassword(req.Password); err != nil {
		return err
	}

	return user.ValidateFullName(req.FullName)
}
