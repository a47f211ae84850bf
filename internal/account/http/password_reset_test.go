package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetTokenFromMail(t *testing.T, body string) string {
	t.Helper()
	for _, field := range strings.Fields(body) {
		if strings.Contains(field, "/user/password/reset/") {
			parts := strings.Split(field, "/")
			return parts[len(parts)-1]
		}
	}
	t.Fatalf("no reset link in mail body: %q", body)
	return ""
}

func TestPasswordResetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "reset@example.test")

	t.Run("request responds 204 for known and unknown email alike", func(t *testing.T) {
		known := env.do(t, http.MethodPost, "/user/password/reset", "", map[string]string{
			"email": "reset@example.test",
		})
		require.Equal(t, http.StatusNoContent, known.Code)
		env.mailer.wait(t)

		unknown := env.do(t, http.MethodPost, "/user/password/reset", "", map[string]string{
			"email": "nobody@example.test",
		})
		require.Equal(t, http.StatusNoContent, unknown.Code)
	})

	t.Run("full reset round trip", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/user/password/reset", "", map[string]string{
			"email": "reset@example.test",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
		raw := resetTokenFromMail(t, env.mailer.wait(t).Body)

		validate := env.do(t, http.MethodPost, "/user/password/reset/validate", "", map[string]string{
			"token": raw,
		})
		require.Equal(t, http.StatusOK, validate.Code)
		var validity map[string]bool
		decodeBody(t, validate, &validity)
		require.True(t, validity["is_valid"])

		reset := env.do(t, http.MethodPatch, "/user/password/reset/"+raw, "", map[string]string{
			"password":          "N3wsecret!",
			"repeated_password": "N3wsecret!",
		})
		require.Equal(t, http.StatusOK, reset.Code, reset.Body.String())
		var body map[string]string
		decodeBody(t, reset, &body)
		require.Equal(t, user.AccessToken, body["access_token"])

		login := env.do(t, http.MethodPost, "/auth/token", "", map[string]string{
			"email":    "reset@example.test",
			"password": "N3wsecret!",
		})
		require.Equal(t, http.StatusOK, login.Code)

		// Spent tokens read as absent.
		again := env.do(t, http.MethodPatch, "/user/password/reset/"+raw, "", map[string]string{
			"password":          "An0thersecret!",
			"repeated_password": "An0thersecret!",
		})
		require.Equal(t, http.StatusNotFound, again.Code)
	})

	t.Run("mismatched repeated password is a validation failure", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/user/password/reset/whatever", "", map[string]string{
			"password":          "N3wsecret!",
			"repeated_password": "D1fferent!",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Contains(t, body.Fields, "repeated_password")
	})

	t.Run("unknown token is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/user/password/reset/bogus", "", map[string]string{
			"password":          "N3wsecret!",
			"repeated_password": "N3wsecret!",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("validate reports an unknown token as invalid", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/user/password/reset/validate", "", map[string]string{
			"token": "bogus",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var validity map[string]bool
		decodeBody(t, rec, &validity)
		require.False(t, validity["is_valid"])
	})
}

func TestEmailConfirmationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "confirm@example.test")

	t.Run("requires authentication", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/user/email-confirmation", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("send and confirm round trip", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/user/email-confirmation", user.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		mail := env.mailer.wait(t)
		lines := strings.Split(strings.TrimSpace(mail.Body), "\n")
		raw := lines[len(lines)-1]

		confirm := env.do(t, http.MethodPatch, "/user/email-confirmation", user.AccessToken, map[string]string{
			"token": raw,
		})
		require.Equal(t, http.StatusOK, confirm.Code, confirm.Body.String())
		var body map[string]string
		decodeBody(t, confirm, &body)
		require.Equal(t, user.AccessToken, body["access_token"])

		show := env.do(t, http.MethodGet, "/user", user.AccessToken, nil)
		var got userResponse
		decodeBody(t, show, &got)
		require.True(t, got.EmailConfirmed)
	})

	t.Run("unknown token is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/user/email-confirmation", user.AccessToken, map[string]string{
			"token": "bogus",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("another user's token is 404", func(t *testing.T) {
		other := env.register(t, "other@example.test")

		rec := env.do(t, http.MethodPost, "/user/email-confirmation", other.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		mail := env.mailer.wait(t)
		lines := strings.Split(strings.TrimSpace(mail.Body), "\n")
		raw := lines[len(lines)-1]

		confirm := env.do(t, http.MethodPatch, "/user/email-confirmation", user.AccessToken, map[string]string{
			"token": raw,
		})
		require.Equal(t, http.StatusNotFound, confirm.Code)
	})
}
