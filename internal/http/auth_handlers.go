package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
	"taskboard/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=50"`
	Email *string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type authResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "Registration failed")
		return
	}

	h.startSession(c, http.StatusCreated, "User registered successfully", user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "Login failed")
		return
	}

	h.startSession(c, http.StatusOK, "Login successful", user)
}

func (h *Handler) startSession(c *gin.Context, status int, message string, user *domain.User) {
	token, expiresAt, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.fail(c, err, "Failed to create session")
		return
	}

	h.setTokenCookie(c, token, int(time.Until(expiresAt).Seconds()))
	respond(c, status, message, authResponse{User: userToResponse(user), Token: token})
}

func (h *Handler) session(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respond(c, http.StatusOK, "No active session", sessionResponse{})
		return
	}
	resp := userToResponse(user)
	respond(c, http.StatusOK, "Session active", sessionResponse{Authenticated: true, User: &resp})
}

func (h *Handler) profile(c *gin.Context) {
	respond(c, http.StatusOK, "Profile retrieved successfully", gin.H{"user": userToResponse(currentUser(c))})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUser(c).ID, service.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.fail(c, err, "Failed to update profile")
		return
	}

	respond(c, http.StatusOK, "Profile updated successfully", gin.H{"user": userToResponse(user)})
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), currentUser(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err, "Failed to change password")
		return
	}

	respond(c, http.StatusOK, "Password changed successfully", nil)
}

// logout expires the session cookie. Bearer tokens stay valid until they
// expire; clients drop them locally.
func (h *Handler) logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *Handler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, value, maxAge, "/", "", h.cookieSecure, true)
}
