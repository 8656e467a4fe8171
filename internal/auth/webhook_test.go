package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/p2p-exchange-bot/pkg/util"
)

func newApp(secret string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	app.Post("/telegram/webhook", WebhookSecret(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestWebhookSecret_MatchingTokenPasses(t *testing.T) {
	app := newApp("hush")

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil)
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hush")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookSecret_WrongTokenRejected(t *testing.T) {
	app := newApp("hush")

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil)
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "guess")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookSecret_MissingTokenRejected(t *testing.T) {
	app := newApp("hush")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookSecret_EmptySecretPassesThrough(t *testing.T) {
	app := newApp("")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
