package http

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"profile-portal/internal/domain"
	"profile-portal/internal/metrics"
	"profile-portal/internal/service"
)

// Config carries the application context shared by every request handler.
type Config struct {
	Users        service.UserService
	Sessions     service.SessionService
	Pictures     service.PictureService
	Metrics      *metrics.Metrics
	Logger       logrus.FieldLogger
	Templates    *template.Template
	Assets       fs.FS
	CookieName   string
	CookieSecure bool
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	sessions     service.SessionService
	pictures     service.PictureService
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
	templates    *template.Template
	assets       fs.FS
	cookieName   string
	cookieSecure bool
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	return &Handler{
		users:        cfg.Users,
		sessions:     cfg.Sessions,
		pictures:     cfg.Pictures,
		metrics:      cfg.Metrics,
		log:          cfg.Logger,
		templates:    cfg.Templates,
		assets:       cfg.Assets,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	if h.templates != nil {
		router.SetHTMLTemplate(h.templates)
	}
	router.Use(gin.CustomRecovery(h.recovered))
	router.Use(h.requestLogger(), h.observe(), h.identify())
	router.NoRoute(h.notFound)
	router.NoMethod(h.notFound)

	router.GET("/", h.index)
	router.GET("/register", h.registerForm)
	router.POST("/register", h.register)
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/profile/picture/:name", h.picture)
	router.GET("/contact", h.contact)
	router.GET("/info/:topic", h.info)

	router.GET("/main.css", h.asset("style/main.css"))
	router.GET("/favicon.ico", h.asset("resources/favicon.ico"))
	router.GET("/js/:script", h.assetDir("script", "script"))
	router.GET("/resources/:resource", h.assetDir("resources", "resource"))

	authed := router.Group("/", h.requireAuth())
	{
		authed.GET("/logout", h.logout)
		authed.GET("/delete_account", h.deleteAccount)
		authed.POST("/upload_profile_picture", h.uploadPicture)
		authed.GET("/settings", h.settingsForm)
		authed.POST("/settings", h.updateSettings)
	}

	router.GET("/admin", h.requireRole(domain.RoleAdmin), h.admin)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

// render adds the caller identity and pending notices to data and renders a page.
func (h *Handler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["user"] = currentUser(c)
	data["flashes"] = h.takeFlashes(c)
	c.HTML(status, page, data)
}

func (h *Handler) renderError(c *gin.Context, status int) {
	h.render(c, status, "error.html", gin.H{
		"title":   http.StatusText(status),
		"status":  status,
		"message": http.StatusText(status),
	})
}

func (h *Handler) notFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound)
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	h.renderError(c, http.StatusInternalServerError)
	c.Abort()
}

func (h *Handler) recovered(c *gin.Context, rec any) {
	h.log.WithField("panic", rec).WithField("path", c.Request.URL.Path).Error("recovered from panic")
	h.renderError(c, http.StatusInternalServerError)
	c.Abort()
}
