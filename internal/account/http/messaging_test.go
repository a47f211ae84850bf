package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMSEndpoints(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "sms@example.test")

	t.Run("requires authentication", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/sms", "", map[string]string{
			"to": "+4915112345678", "body": "hello",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts and dispatches", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/sms", user.AccessToken, map[string]string{
			"to": "+4915112345678", "body": "hello",
		})
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		sent := env.sms.wait(t)
		require.Equal(t, "+4915112345678", sent.To)
		require.Equal(t, "hello", sent.Body)
	})

	t.Run("validates the number", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/sms", user.AccessToken, map[string]string{
			"to": "015112345678", "body": "hello",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("delivery receipts are acknowledged without auth", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/dlr", "", map[string]string{
			"message_id": "msg-1",
			"to":         "+4915112345678",
			"status":     "DELIVERED",
			"timestamp":  "2026-09-01T10:00:00Z",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestMailEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "mailer@example.test")

	t.Run("requires authentication", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/mail", "", map[string]string{
			"to": "friend@example.test", "subject": "hi", "body": "hello",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts and dispatches", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/mail", user.AccessToken, map[string]string{
			"to": "friend@example.test", "subject": "hi", "body": "hello",
		})
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		sent := env.mailer.wait(t)
		require.Equal(t, "friend@example.test", sent.To)
		require.Equal(t, "hi", sent.Subject)
	})

	t.Run("validates the address", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/mail", user.AccessToken, map[string]string{
			"to": "not-an-address", "subject": "hi", "body": "hello",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestShopifyEndpoints(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "shop@example.test")

	t.Run("auth url requires authentication", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/integrations/shopify/auth-url?shop=demo.myshopify.com", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("auth url embeds the app parameters", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/integrations/shopify/auth-url?shop=demo.myshopify.com", user.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body map[string]string
		decodeBody(t, rec, &body)
		require.Contains(t, body["authorization_url"], "https://demo.myshopify.com/admin/oauth/authorize")
		require.Contains(t, body["authorization_url"], "client_id=test-key")
		require.Contains(t, body["authorization_url"], "state=")
	})

	t.Run("auth url rejects a missing or foreign shop domain", func(t *testing.T) {
		missing := env.do(t, http.MethodGet, "/integrations/shopify/auth-url", user.AccessToken, nil)
		require.Equal(t, http.StatusUnprocessableEntity, missing.Code)

		foreign := env.do(t, http.MethodGet, "/integrations/shopify/auth-url?shop=evil.example.test", user.AccessToken, nil)
		require.Equal(t, http.StatusUnprocessableEntity, foreign.Code)
	})

	t.Run("confirmation rejects a bad signature", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/integrations/shopify/confirmation", user.AccessToken, map[string]string{
			"shop":      "demo.myshopify.com",
			"code":      "abc123",
			"state":     "nonce",
			"timestamp": "1756720000",
			"hmac":      "deadbeef",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Contains(t, body.Fields, "hmac")
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	livez := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, livez.Code)

	readyz := env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, readyz.Code)

	var body map[string]any
	decodeBody(t, readyz, &body)
	require.Equal(t, "ok", body["status"])
}
