package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"profile-portal/internal/repository"
	"profile-portal/internal/service"
)

const (
	msgInvalidUsername    = "Not a valid username!"
	msgInvalidLength      = "Username has an invalid length!"
	msgUsernameTaken      = "Username already taken!"
	msgInvalidCredentials = "Invalid username or password"
	msgFileTypeNotAllowed = "File type not allowed!"
)

// formError maps a service error to the status and inline message of a
// re-rendered form. ok is false for errors that are not the caller's fault.
func formError(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, service.ErrInvalidUsernameLength):
		return http.StatusBadRequest, msgInvalidLength, true
	case errors.Is(err, service.ErrInvalidUsername):
		return http.StatusBadRequest, msgInvalidUsername, true
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, msgUsernameTaken, true
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials, true
	case errors.Is(err, service.ErrUnsupportedImageType):
		return http.StatusBadRequest, msgFileTypeNotAllowed, true
	default:
		return http.StatusInternalServerError, "", false
	}
}

func (h *Handler) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "sign_up.html", gin.H{"title": "Sign up"})
}

func (h *Handler) register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if _, err := h.users.Register(c.Request.Context(), username, password); err != nil {
		status, message, ok := formError(err)
		if !ok {
			h.metrics.Event("register", "error")
			h.serverError(c, err)
			return
		}
		h.metrics.Event("register", "rejected")
		h.render(c, status, "sign_up.html", gin.H{
			"title":    "Sign up",
			"error":    message,
			"username": username,
		})
		return
	}

	h.metrics.Event("register", "ok")
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"title": "Log in"})
}

func (h *Handler) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	_, _, token, err := h.sessions.Login(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.Event("login", "invalid_credentials")
			h.render(c, http.StatusUnauthorized, "login.html", gin.H{
				"title":    "Log in",
				"error":    msgInvalidCredentials,
				"username": username,
			})
			return
		}
		h.metrics.Event("login", "error")
		h.serverError(c, err)
		return
	}

	h.metrics.Event("login", "ok")
	h.setSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	h.endSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) deleteAccount(c *gin.Context) {
	user := currentUser(c)
	if err := h.users.DeleteAccount(c.Request.Context(), user.Username); err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.metrics.Event("delete", "error")
		h.serverError(c, err)
		return
	}
	h.metrics.Event("delete", "ok")
	h.endSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) endSession(c *gin.Context) {
	if session := currentSession(c); session != nil {
		if err := h.sessions.Logout(c.Request.Context(), session.ID); err != nil {
			h.log.WithError(err).Warn("end session")
		}
	}
	h.clearSessionCookie(c)
}

func (h *Handler) uploadPicture(c *gin.Context) {
	user := currentUser(c)
	file, err := c.FormFile("pfp")
	if err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	if err := h.storePicture(c, user.Username, file); err != nil {
		if errors.Is(err, service.ErrUnsupportedImageType) {
			h.metrics.Event("upload", "rejected")
			h.addFlash(c, msgFileTypeNotAllowed)
			c.Redirect(http.StatusFound, "/")
			return
		}
		h.metrics.Event("upload", "error")
		h.serverError(c, err)
		return
	}

	h.metrics.Event("upload", "ok")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) storePicture(c *gin.Context, username string, file *multipart.FileHeader) error {
	if !service.AllowedImage(file.Filename) {
		return service.ErrUnsupportedImageType
	}
	body, err := file.Open()
	if err != nil {
		return err
	}
	defer body.Close()
	return h.pictures.Upload(c.Request.Context(), username, file.Filename, body)
}

func (h *Handler) settingsForm(c *gin.Context) {
	h.render(c, http.StatusOK, "settings.html", gin.H{"title": "Settings"})
}

// updateSettings applies a rename and a picture upload independently: a
// rejected name does not stop the picture from being stored.
func (h *Handler) updateSettings(c *gin.Context) {
	user := currentUser(c)
	status := http.StatusOK
	var errs []string

	reject := func(err error) bool {
		code, message, ok := formError(err)
		if !ok {
			h.serverError(c, err)
			return false
		}
		if status == http.StatusOK {
			status = code
		}
		errs = append(errs, message)
		return true
	}

	if name, ok := c.GetPostForm("name"); ok {
		renamed, err := h.users.RenameAccount(c.Request.Context(), user.Username, name)
		if err != nil {
			h.metrics.Event("rename", "rejected")
			if !reject(err) {
				return
			}
		} else {
			h.metrics.Event("rename", "ok")
			user = renamed
			c.Set(ctxUserKey, user)
		}
	}

	if file, err := c.FormFile("pfp"); err == nil {
		if err := h.storePicture(c, user.Username, file); err != nil {
			h.metrics.Event("upload", "rejected")
			if !reject(err) {
				return
			}
		} else {
			h.metrics.Event("upload", "ok")
		}
	}

	h.render(c, status, "settings.html", gin.H{
		"title":  "Settings",
		"errors": errs,
	})
}
