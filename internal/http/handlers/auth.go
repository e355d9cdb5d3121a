package handlers

import (
	"net/http"

	"charter/internal/http/middleware"
	"charter/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) authService(c *gin.Context) services.AuthService {
	return services.AuthService{Users: h.Users, Tokens: h.Tokens, RequestID: middleware.GetRequestID(c)}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.authService(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me echoes the authenticated caller.
func (h *Handler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, user)
}
