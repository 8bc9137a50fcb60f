package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vvka-141/budgetbuddy/internal/auth"
	"github.com/vvka-141/budgetbuddy/internal/logging"
	"github.com/vvka-141/budgetbuddy/internal/store"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

type AuthHandler struct {
	store  *store.Store
	tokens *auth.Issuer
	errs   *errorWriter
	logger *slog.Logger
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=100"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type userView struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type tokenResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

var errInvalidCredentials = &httpError{status: http.StatusBadRequest, msg: "Invalid Credentials"}

// Register creates an account, seeds its default categories and returns a token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}
	ctx := c.Request.Context()

	_, err := h.store.Users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		h.errs.write(c, badRequest("User already exists", nil))
		return
	case !errors.Is(err, budgetbuddy.ErrNotFound):
		h.errs.write(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.errs.write(c, err)
		return
	}

	user, err := h.store.Users.Create(ctx, req.Name, req.Email, hash)
	if err != nil {
		h.errs.write(c, err)
		return
	}

	if _, err := h.store.Categories.CreateDefaults(ctx, user.ID); err != nil {
		h.logger.Error("failed to create default categories", "user_id", user.ID, logging.Err(err))
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login exchanges email and password for a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}

	user, err := h.store.Users.GetByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, budgetbuddy.ErrNotFound) {
		h.errs.write(c, errInvalidCredentials)
		return
	}
	if err != nil {
		h.errs.write(c, err)
		return
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		h.errs.write(c, errInvalidCredentials)
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.store.Users.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}

	user, err := h.store.Users.UpdateProfile(c.Request.Context(), currentUser(c), req.Name, req.Email)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the password after checking the current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}
	ctx := c.Request.Context()
	id := currentUser(c)

	user, err := h.store.Users.Get(ctx, id)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := auth.CheckPassword(user.Password, req.CurrentPassword); err != nil {
		h.errs.write(c, errInvalidCredentials)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := h.store.Users.UpdatePassword(ctx, id, hash); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Password updated"})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.store.Users.Delete(c.Request.Context(), currentUser(c)); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "User removed"})
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *store.User) {
	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(status, tokenResponse{
		Token: token,
		User:  userView{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}
