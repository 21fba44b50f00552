package handlers

import (
	"net/http"
	"time"

	"auction-stream/internal/domain"
	"auction-stream/internal/services"
	"auction-stream/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	auth *services.AuthService
	log  logger.Logger
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

type userResponse struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

func NewAuthHandler(auth *services.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind login request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.Credential == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Credential required"})
	}

	user, session, err := h.auth.Login(c.Request().Context(), req.Credential)
	if err != nil {
		h.log.Error("Login failed", "error", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credential"})
	}

	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) Me(c echo.Context) error {
	cookie, err := c.Cookie(domain.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	user, err := h.auth.ResolveUser(c.Request().Context(), cookie.Value)
	if err != nil {
		h.log.Error("Failed to resolve session", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Session lookup failed"})
	}
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Session expired"})
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(domain.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.auth.Logout(c.Request().Context(), cookie.Value); err != nil {
			h.log.Error("Failed to delete session", "error", err)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
	}
}
