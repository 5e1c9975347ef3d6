package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notekeeper/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "", bearerToken(""))
	assert.Equal(t, "", bearerToken("   "))
	assert.Equal(t, "abc.def.ghi", bearerToken("Bearer abc.def.ghi"))
	assert.Equal(t, "abc.def.ghi", bearerToken("bearer  abc.def.ghi "))
	assert.Equal(t, "Basic dXNlcg==", bearerToken("Basic dXNlcg=="))
	assert.Equal(t, "Bearer", bearerToken("Bearer"))
}

func TestAuthRequired(t *testing.T) {
	tokens := services.NewTokenService("test_jwt_secret_value", time.Hour)
	auth := services.NewAuthService(nil, nil, tokens, nil, nil, zap.NewNop())

	app := fiber.New()
	app.Get("/private", AuthRequired(auth), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tokens.Issue("user-123")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "user-123", string(body))
}
