package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type assignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.tokenResponse(pair))
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and refresh_token are required")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.UserID, req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.tokenResponse(pair))
}

func (h *Handler) me(c *gin.Context) {
	claims := claimsFrom(c)
	user, err := h.auth.Me(c.Request.Context(), claims.Subject)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) listRoles(c *gin.Context) {
	roles, err := h.auth.ListRoles(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]RoleResponse, len(roles))
	for i := range roles {
		resp[i] = RoleResponse{ID: roles[i].ID, Name: roles[i].Name}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) assignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}
	if err := h.auth.AssignRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
