package csrf

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSecureKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func newTestApp(cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return c.Status(richErr.Code).SendString(richErr.TextCode)
			}
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
	app.Use(New(cfg))
	app.Get("/form", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(DefaultContextKey).(string))
	})
	app.Get("/helpers", func(c *fiber.Ctx) error {
		helpers := TemplateHelpers(c)
		return c.SendString(helpers["csrf_field"].(string))
	})
	app.Post("/form", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

// fetchToken returns a token and the cookies it is bound to
func fetchToken(t *testing.T, app *fiber.App, cookies ...*http.Cookie) (string, []*http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, body)
	return string(body), append(cookies, resp.Cookies()...)
}

func postForm(t *testing.T, app *fiber.App, values url.Values, cookies ...*http.Cookie) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestStatelessTokenValidationSuccess(t *testing.T) {
	app := newTestApp(Config{SecureKey: newTestSecureKey()})

	token, cookies := fetchToken(t, app)

	status, body := postForm(t, app, url.Values{DefaultFormFieldName: {token}}, cookies...)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestTokenFromHeader(t *testing.T) {
	app := newTestApp(Config{SecureKey: newTestSecureKey()})

	token, cookies := fetchToken(t, app)

	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	req.Header.Set(DefaultHeaderName, token)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatelessTokenValidationFailures(t *testing.T) {
	app := newTestApp(Config{SecureKey: newTestSecureKey()})
	other := newTestApp(Config{SecureKey: []byte("fedcba9876543210fedcba9876543210")})

	_, cookies := fetchToken(t, app)
	foreign, _ := fetchToken(t, other, cookies...)

	tests := []struct {
		name     string
		token    string
		status   int
		textCode string
	}{
		{
			name:     "missing",
			token:    "",
			status:   http.StatusBadRequest,
			textCode: "CSRF_TOKEN_MISSING",
		},
		{
			name:     "tampered",
			token:    "tampered",
			status:   http.StatusForbidden,
			textCode: "CSRF_TOKEN_MISMATCH",
		},
		{
			name:     "signed with another key",
			token:    foreign,
			status:   http.StatusForbidden,
			textCode: "CSRF_TOKEN_MISMATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postForm(t, app, url.Values{DefaultFormFieldName: {tt.token}}, cookies...)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.textCode, body)
		})
	}
}

func TestTokenBoundToSessionKey(t *testing.T) {
	key := "visitor-a"
	app := newTestApp(Config{
		SecureKey:  newTestSecureKey(),
		SessionKey: func(*fiber.Ctx) string { return key },
	})

	token, _ := fetchToken(t, app)

	key = "visitor-b"
	status, body := postForm(t, app, url.Values{DefaultFormFieldName: {token}})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "CSRF_TOKEN_MISMATCH", body)
}

func TestTokenBoundToClientCookie(t *testing.T) {
	app := newTestApp(Config{SecureKey: newTestSecureKey(), CookieSecure: true})

	token, cookies := fetchToken(t, app)
	require.Len(t, cookies, 1)
	client := cookies[0]
	assert.Equal(t, DefaultCookieName, client.Name)
	assert.True(t, client.HttpOnly)
	assert.True(t, client.Secure)
	assert.Equal(t, http.SameSiteLaxMode, client.SameSite)

	t.Run("same client", func(t *testing.T) {
		status, body := postForm(t, app, url.Values{DefaultFormFieldName: {token}}, client)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body)
	})

	t.Run("another client", func(t *testing.T) {
		_, others := fetchToken(t, app)
		status, body := postForm(t, app, url.Values{DefaultFormFieldName: {token}}, others...)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "CSRF_TOKEN_MISMATCH", body)
	})

	t.Run("no client cookie", func(t *testing.T) {
		status, body := postForm(t, app, url.Values{DefaultFormFieldName: {token}})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "CSRF_TOKEN_MISMATCH", body)
	})

	t.Run("existing cookie is kept", func(t *testing.T) {
		_, again := fetchToken(t, app, client)
		assert.Len(t, again, 1)
	})
}

func TestIPSessionKey(t *testing.T) {
	app := newTestApp(Config{SecureKey: newTestSecureKey(), SessionKey: IPSessionKey})

	token, cookies := fetchToken(t, app)
	assert.Empty(t, cookies)

	status, _ := postForm(t, app, url.Values{DefaultFormFieldName: {token}})
	assert.Equal(t, http.StatusOK, status)
}

func TestStatelessTokenExpiration(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	app := newTestApp(Config{
		SecureKey:  newTestSecureKey(),
		Expiration: time.Minute,
		now:        func() time.Time { return now },
	})

	token, cookies := fetchToken(t, app)

	now = now.Add(2 * time.Minute)
	status, body := postForm(t, app, url.Values{DefaultFormFieldName: {token}}, cookies...)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "CSRF_TOKEN_EXPIRED", body)
}

func TestTemplateHelpers(t *testing.T) {
	app := newTestApp(Config{SecureKey: newTestSecureKey()})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/helpers", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `<input type="hidden" name="_token" value="`)
}

func TestSkip(t *testing.T) {
	app := newTestApp(Config{
		SecureKey: newTestSecureKey(),
		Skip:      func(c *fiber.Ctx) bool { return c.Get("X-Internal") == "1" },
	})

	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	req.Header.Set("X-Internal", "1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenLookup(t *testing.T) {
	extractors := getExtractors("header:X-Token, form:csrf", "_token", DefaultHeaderName)
	assert.Len(t, extractors, 2)

	assert.Len(t, getExtractors("", "_token", DefaultHeaderName), 2)
	assert.Empty(t, getExtractors("query:token", "_token", DefaultHeaderName))
}

func TestShortSecureKeyPanics(t *testing.T) {
	require.Panics(t, func() {
		New(Config{SecureKey: []byte("short")})
	})
}
