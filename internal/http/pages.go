package http

import (
	"io"
	"io/fs"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// section is one block of an info page.
type section struct {
	Type string
	Text string
}

var infoPages = map[string]struct {
	Title   string
	Content []section
}{
	"data": {
		Title: "Data Policy",
		Content: []section{
			{Type: "h2", Text: "Data collected from serving requests"},
			{Type: "p", Text: "Data collected from serving requests including request path, header, resulting http code, time of request and ip address are stored for " +
				"the purpose of keeping server integrity, preventing malicious behavior and moderating visits. All of the produced information is kept " +
				"secure and only accessible to the server owners."},
			{Type: "br"},
			{Type: "h2", Text: "Account data"},
			{Type: "p", Text: "Data produced from account activities are stored securely and are only accessible to server owners and moderation. Passwords are always " +
				"stored encrypted. Data uploaded by a user like profile pictures or other profile information are available to all other users."},
			{Type: "br"},
			{Type: "h2", Text: "Data collected from forms and other methods of posting"},
			{Type: "p", Text: "Data resulting from proactive posts like forms may be stored on the server along with request path, header, time of request, ip address " +
				"and client information and are only accessible to server owners."},
		},
	},
	"cookies": {
		Title: "Cookies Policy",
		Content: []section{
			{Type: "h2", Text: "Cookie usage"},
			{Type: "p", Text: "Cookies are only used for essential functionalities such as session management as part of authentication. All cookies are strictly " +
				"https only and non cross origin."},
			{Type: "br"},
			{Type: "h2", Text: "Cookie creation"},
			{Type: "p", Text: "Cookies are only created and set when a user enters a session i.e. signs in with an account."},
		},
	},
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", gin.H{"title": "Home"})
}

func (h *Handler) contact(c *gin.Context) {
	h.render(c, http.StatusOK, "contact.html", gin.H{"title": "Contact"})
}

func (h *Handler) info(c *gin.Context) {
	page, ok := infoPages[c.Param("topic")]
	if !ok {
		h.notFound(c)
		return
	}
	h.render(c, http.StatusOK, "info.html", gin.H{
		"title":   page.Title,
		"info":    page.Title,
		"content": page.Content,
	})
}

func (h *Handler) admin(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin.html", gin.H{
		"title": "Admin",
		"users": users,
	})
}

// picture serves a stored profile picture or the placeholder. The name "me"
// redirects an authenticated caller to their own picture.
func (h *Handler) picture(c *gin.Context) {
	name := c.Param("name")
	if name == "me" {
		user := currentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		c.Redirect(http.StatusMovedPermanently, "/profile/picture/"+user.Username)
		return
	}

	pic := h.pictures.Open(c.Request.Context(), name)
	defer pic.Body.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	// uploaded SVGs must not run scripts when opened directly
	c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	c.Header("Content-Type", pic.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, pic.Body); err != nil {
		h.log.WithError(err).WithField("name", name).Debug("write picture")
	}
}

// asset serves one embedded file.
func (h *Handler) asset(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.serveAsset(c, name)
	}
}

// assetDir serves embedded files from dir named by the route parameter param.
func (h *Handler) assetDir(dir, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param(param)
		if name == "" || name == "." || name == ".." {
			h.notFound(c)
			return
		}
		h.serveAsset(c, path.Join(dir, name))
	}
}

func (h *Handler) serveAsset(c *gin.Context, name string) {
	if h.assets == nil || !fs.ValidPath(name) {
		h.notFound(c)
		return
	}
	info, err := fs.Stat(h.assets, name)
	if err != nil || info.IsDir() {
		h.notFound(c)
		return
	}
	http.ServeFileFS(c.Writer, c.Request, h.assets, name)
}
