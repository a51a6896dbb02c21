package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/classquest/classquest-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signupRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	AccessCode string `json:"access_code" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid signup payload")
		return
	}
	user, err := h.authService.SignupTeacher(c.Request.Context(), services.SignupTeacherInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		AccessCode: req.AccessCode,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "account created", user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Redirect string `json:"redirect"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid login payload")
		return
	}
	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, req.Redirect, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "logged in", result)
}

// Logout exists for clients that want a server acknowledgment; the token
// itself is dropped client-side.
func (h *AuthHandler) Logout(c *gin.Context) {
	respondOK(c, "logged out", nil)
}
