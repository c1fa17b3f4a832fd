package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/usecase"
)

type AuthHandler struct {
	useCase *usecase.AuthUseCase
	errs    errorResponder
}

func NewAuthHandler(useCase *usecase.AuthUseCase, errs errorResponder) *AuthHandler {
	return &AuthHandler{useCase: useCase, errs: errs}
}

type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req usecase.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.respond(c, err)
		return
	}

	user, err := h.useCase.Register(c.Request.Context(), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully",
		userResponse{ID: user.ID, Email: user.Email, Username: user.Username})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req usecase.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.respond(c, err)
		return
	}

	result, err := h.useCase.Login(c.Request.Context(), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.useCase.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.errs.respond(c, err)
		return
	}

	respond(c, http.StatusOK, "", userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: &user.CreatedAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		h.errs.respond(c, apperror.Authentication(""))
		return
	}

	if err := h.useCase.Logout(c.Request.Context(), claims.TokenID()); err != nil {
		h.errs.respond(c, err)
		return
	}

	respond(c, http.StatusOK, "Logout successful", nil)
}
