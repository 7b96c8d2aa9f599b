package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie = "flash"
	ctxFlashKey = "flashes"
)

// addFlash queues a one-shot notice shown on the next rendered page.
func (h *Handler) addFlash(c *gin.Context, message string) {
	pending := append(pendingFlashes(c), message)
	c.Set(ctxFlashKey, pending)
	h.writeFlashCookie(c, pending)
}

// takeFlashes returns queued notices and clears the flash cookie.
func (h *Handler) takeFlashes(c *gin.Context) []string {
	var messages []string
	if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
		if data, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(data, &messages)
		}
		h.writeFlashCookie(c, nil)
	}
	if pending := pendingFlashes(c); len(pending) > 0 {
		messages = append(messages, pending...)
		c.Set(ctxFlashKey, []string(nil))
		h.writeFlashCookie(c, nil)
	}
	return messages
}

func pendingFlashes(c *gin.Context) []string {
	v, ok := c.Get(ctxFlashKey)
	if !ok {
		return nil
	}
	messages, _ := v.([]string)
	return messages
}

func (h *Handler) writeFlashCookie(c *gin.Context, messages []string) {
	cookie := &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
	if len(messages) == 0 {
		cookie.MaxAge = -1
	} else {
		data, err := json.Marshal(messages)
		if err != nil {
			return
		}
		cookie.Value = base64.RawURLEncoding.EncodeToString(data)
	}
	http.SetCookie(c.Writer, cookie)
}
