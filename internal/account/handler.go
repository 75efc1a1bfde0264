// Package account はログイン済みユーザー自身のアカウント操作を提供します。
package account

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
	"github.com/nikhilkumar688/SamayBihar/internal/auth"
	"github.com/nikhilkumar688/SamayBihar/internal/httpx"
	"github.com/nikhilkumar688/SamayBihar/internal/user"
)

const (
	msgUpdateForbidden = "You can only update your own account"
	msgDeleteForbidden = "You are not allowed to delete this account"
)

// CookieClearer はセッションクッキーを失効させます。
type CookieClearer interface {
	ClearSessionCookie(c *gin.Context)
}

// Handler はアカウント更新・削除のハンドラーです。
type Handler struct {
	users   user.Store
	hasher  *auth.PasswordHasher
	cookies CookieClearer
	logger  *slog.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(users user.Store, hasher *auth.PasswordHasher, cookies CookieClearer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{users: users, hasher: hasher, cookies: cookies, logger: logger}
}

// Update は PUT /api/user/update/:userId のハンドラーです。本人のみ更新できます。
func (h *Handler) Update(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpx.Fail(c, auth.ErrNoToken)
		return
	}
	userID := c.Param("userId")
	if err := auth.RequireSelf(identity, userID, msgUpdateForbidden); err != nil {
		httpx.Fail(c, err)
		return
	}

	var req UpdateUserRequest
	if !httpx.BindJSON(c, &req) {
		httpx.Fail(c, httpx.ErrInvalidBody)
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Fail(c, err)
		return
	}
	req.Normalize()

	upd, err := h.buildUpdate(req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	updated, err := h.users.Update(c.Request.Context(), userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			httpx.Fail(c, apperr.NotFound("User not found!"))
		case errors.Is(err, user.ErrDuplicateEmail):
			httpx.Fail(c, apperr.Conflict("Email is already in use"))
		default:
			httpx.Fail(c, fmt.Errorf("update user: %w", err))
		}
		return
	}

	h.logger.InfoContext(c.Request.Context(), "user updated", "user_id", userID)
	c.JSON(http.StatusOK, updated)
}

// Delete は DELETE /api/user/delete/:userId のハンドラーです。本人または管理者が削除できます。
func (h *Handler) Delete(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpx.Fail(c, auth.ErrNoToken)
		return
	}
	userID := c.Param("userId")
	if err := auth.RequireSelfOrAdmin(identity, userID, msgDeleteForbidden); err != nil {
		httpx.Fail(c, err)
		return
	}

	if err := h.users.Delete(c.Request.Context(), userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httpx.Fail(c, apperr.NotFound("User not found!"))
			return
		}
		httpx.Fail(c, fmt.Errorf("delete user: %w", err))
		return
	}

	if identity.ID == userID {
		h.cookies.ClearSessionCookie(c)
	}
	h.logger.InfoContext(c.Request.Context(), "user deleted",
		"user_id", userID,
		"by", identity.ID,
	)
	c.JSON(http.StatusOK, "User has been deleted!")
}

func (h *Handler) buildUpdate(req UpdateUserRequest) (user.Update, error) {
	var upd user.Update
	if req.Username != "" {
		upd.Username = &req.Username
	}
	if req.Email != "" {
		upd.Email = &req.Email
	}
	if req.ProfilePicture != "" {
		upd.ProfilePicture = &req.ProfilePicture
	}
	if req.Password != "" {
		hash, err := h.hasher.Hash(req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				return user.Update{}, apperr.Validation("Password is too long")
			}
			return user.Update{}, fmt.Errorf("hash password: %w", err)
		}
		upd.PasswordHash = &hash
	}
	return upd, nil
}
