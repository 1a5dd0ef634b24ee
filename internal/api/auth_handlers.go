package api

import (
	"context"
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) login(c *gin.Context) {
	h.doLogin(c, h.svc.Auth.Login)
}

func (h *Handler) adminLogin(c *gin.Context) {
	h.doLogin(c, h.svc.Auth.AdminLogin)
}

func (h *Handler) doLogin(c *gin.Context, login func(ctx context.Context, req service.LoginRequest) (*service.TokenResponse, error)) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Auth.Logout(c.Request.Context(), identity(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) verify(c *gin.Context) {
	id := identity(c)
	c.JSON(http.StatusOK, gin.H{"valid": true, "user_id": id.UserID, "role": id.Role})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.svc.Auth.Me(c.Request.Context(), identity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
