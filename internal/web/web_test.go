package web

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"home.html", "sign_up.html", "login.html", "settings.html", "admin.html", "contact.html", "info.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "error.html", map[string]any{"status": 404, "message": "Not Found"}))
	assert.Contains(t, buf.String(), "Not Found")
	assert.Contains(t, buf.String(), `href="/login"`, "anonymous navigation")
}

func TestStatic(t *testing.T) {
	assets := Static()
	for _, name := range []string{"style/main.css", "script/common.js", "script/settings.js", "resources/favicon.ico", PlaceholderPicture} {
		_, err := fs.Stat(assets, name)
		assert.NoError(t, err, name)
	}
}
