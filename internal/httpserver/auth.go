package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront/internal/session"
)

const sessionCookie = "storefront_session"

const sessionCookieMaxAge = 7 * 24 * 60 * 60

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(c, "Email and password are required.")
		return
	}

	token, err := h.deps.Sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorBody{Message: "Invalid email or password."})
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody{Message: "Login failed.", Error: err.Error()})
		return
	}

	c.SetCookie(sessionCookie, token, sessionCookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if err := h.deps.Sessions.SignOut(c.Request.Context(), token); err != nil {
			h.log.WithError(err).Warn("sign-out failed")
		}
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// currentSession reports session presence. Absence is a 200 with a null
// user, not an error; the UI only reacts to presence.
func (h *handlers) currentSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	s, ok := h.deps.Sessions.Session(c.Request.Context(), token)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"email": s.Email, "isLoggedIn": true}})
}

func (h *handlers) requireSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "Authentication required."})
		return
	}
	if _, ok := h.deps.Sessions.Session(c.Request.Context(), token); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "Authentication required."})
		return
	}
	c.Next()
}
