package static

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleConfigure(t *testing.T) {
	app := fiber.New()
	app.Get("/configure", HandleConfigure("1.2.3"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/configure", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "manifest.json")
	assert.Contains(t, string(body), "v1.2.3")
	assert.NotContains(t, string(body), "{{version}}")
}
