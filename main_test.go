package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"studio-site-backend/config"
	"studio-site-backend/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("http://192.168.41.*:8081", "http://192.168.41.7:8081"))
	assert.False(t, matchOriginPattern("http://192.168.41.*:8081", "http://192.168.42.7:8081"))
	assert.False(t, matchOriginPattern("http://localhost:3000", "http://localhost:3000"))
	assert.False(t, matchOriginPattern("http://*.*:3000", "http://a.b:3000"))
}

func TestCorsConfig(t *testing.T) {
	open := corsConfig([]string{"*"})
	assert.Equal(t, []string{"*"}, open.AllowOrigins)
	assert.False(t, open.AllowCredentials)

	scoped := corsConfig([]string{"https://studio.test", "http://10.0.0.*:3000"})
	require.NotNil(t, scoped.AllowOriginsFunc)
	assert.True(t, scoped.AllowCredentials)
	assert.True(t, scoped.AllowOriginsFunc("https://studio.test"))
	assert.True(t, scoped.AllowOriginsFunc("http://10.0.0.12:3000"))
	assert.False(t, scoped.AllowOriginsFunc("https://evil.test"))
}

func TestErrorHandlerUsesEnvelope(t *testing.T) {
	app := newApp(&config.Config{AppName: "test", CorsOrigins: []string{"*"}}, zap.NewNop())
	app.Get("/teapot", func(c fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/panic", func(c fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "short and stout", body.Message)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var internal map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&internal))
	assert.Equal(t, "Internal server error", internal["message"])
	assert.Equal(t, fiber.ErrInternalServerError.Message, internal["error"], "the cause is never exposed")
}
