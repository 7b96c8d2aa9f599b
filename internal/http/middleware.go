package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"profile-portal/internal/auth"
	"profile-portal/internal/domain"
)

const (
	ctxUserKey    = "user"
	ctxSessionKey = "session"
)

const accessDeniedNotice = "Access denied. Insufficient permissions."

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func currentSession(c *gin.Context) *domain.Session {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*domain.Session)
	return session
}

// identify resolves the session cookie into a user. Any failure leaves the
// request anonymous.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		user, session, err := h.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			h.log.WithError(err).Debug("discarding session cookie")
			h.clearSessionCookie(c)
			c.Next()
			return
		}
		c.Set(ctxUserKey, user)
		c.Set(ctxSessionKey, session)
		c.Next()
	}
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := auth.RequireRole(currentUser(c), role, func() error {
			c.Next()
			return nil
		})
		if err != nil {
			h.log.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"role": role,
			}).Warn("access denied")
			h.metrics.Event("access", "denied")
			h.addFlash(c, accessDeniedNotice)
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		}
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		}).Info("request")
	}
}

func (h *Handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		h.metrics.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		h.metrics.RequestLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
