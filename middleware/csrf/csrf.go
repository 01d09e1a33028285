package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var ErrTokenMissing = goerrors.New("CSRF token missing", goerrors.CategoryBadInput).
	WithCode(fiber.StatusBadRequest).
	WithTextCode("CSRF_TOKEN_MISSING")

var ErrTokenMismatch = goerrors.New("CSRF token mismatch", goerrors.CategoryAuthz).
	WithCode(fiber.StatusForbidden).
	WithTextCode("CSRF_TOKEN_MISMATCH")

var ErrTokenExpired = goerrors.New("CSRF token expired", goerrors.CategoryAuthz).
	WithCode(fiber.StatusForbidden).
	WithTextCode("CSRF_TOKEN_EXPIRED")

// DefaultTokenLength is the default nonce length in bytes
const DefaultTokenLength = 32

// DefaultTemplateHelpersKey is the locals key holding the template helpers
const DefaultTemplateHelpersKey = "template_helpers"

// DefaultContextKey is the default key for storing CSRF tokens in locals
const DefaultContextKey = "csrf_token"

// DefaultFormFieldName is the default name for the CSRF token form field
const DefaultFormFieldName = "_token"

// DefaultHeaderName is the default header name for CSRF tokens
const DefaultHeaderName = "X-CSRF-Token"

// DefaultCookieName holds the client id tokens are bound to
const DefaultCookieName = "csrf_client"

// Config defines the configuration for CSRF middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(*fiber.Ctx) bool

	// TokenLength defines the nonce length
	TokenLength int

	// ContextKey defines the key for storing the token in locals
	ContextKey string

	// FormFieldName defines the name of the form field containing the token
	FormFieldName string

	// HeaderName defines the header name for the token
	HeaderName string

	// TokenLookup defines where to look for the token
	// Format: "form:_token,header:X-CSRF-Token"
	TokenLookup string

	// ErrorHandler receives validation failures. The default returns the
	// error to the app error handler.
	ErrorHandler fiber.ErrorHandler

	// SafeMethods defines HTTP methods that don't require CSRF protection
	SafeMethods []string

	// Expiration defines how long tokens are valid
	Expiration time.Duration

	// SecureKey signs the tokens. It must be at least 32 bytes.
	SecureKey []byte

	// SessionKey binds a token to the visitor. Defaults to a random client
	// id kept in the CookieName cookie.
	SessionKey func(*fiber.Ctx) string

	// CookieName names the client id cookie
	CookieName string

	// CookieSecure marks the client id cookie as HTTPS only
	CookieSecure bool

	// TemplateHelpersKey defines the locals key used to store the helper map
	TemplateHelpersKey string

	bindCookie bool
	now        func() time.Time
}

// TokenExtractor defines a function to extract token from request
type TokenExtractor func(*fiber.Ctx) string

// New creates a new CSRF middleware
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		if cfg.bindCookie {
			ensureClientID(c, cfg)
		}

		token, err := generateToken(c, cfg)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, token)
		c.Locals(cfg.TemplateHelpersKey, mergeHelpers(c, cfg.TemplateHelpersKey, templateHelpers(token, cfg)))

		// safe methods don't require validation
		if slices.Contains(cfg.SafeMethods, strings.ToUpper(c.Method())) {
			return c.Next()
		}

		if err := validateToken(c, cfg); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		return c.Next()
	}
}

// TemplateHelpers returns the helpers stored by the middleware for this request
func TemplateHelpers(c *fiber.Ctx, key ...string) map[string]any {
	k := DefaultTemplateHelpersKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	helpers, _ := c.Locals(k).(map[string]any)
	return helpers
}

func mergeHelpers(c *fiber.Ctx, key string, helpers map[string]any) map[string]any {
	out := map[string]any{}
	if existing, ok := c.Locals(key).(map[string]any); ok {
		for k, v := range existing {
			out[k] = v
		}
	}
	for k, v := range helpers {
		out[k] = v
	}
	return out
}

func templateHelpers(token string, cfg Config) map[string]any {
	return map[string]any{
		"csrf_token":       token,
		"csrf_field":       `<input type="hidden" name="` + cfg.FormFieldName + `" value="` + token + `">`,
		"csrf_meta":        `<meta name="csrf-token" content="` + token + `">`,
		"csrf_header_name": cfg.HeaderName,
	}
}

func generateToken(c *fiber.Ctx, cfg Config) (string, error) {
	nonce := make([]byte, cfg.TokenLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to generate csrf nonce")
	}

	timestamp := cfg.now().UTC().Unix()
	payload := fmt.Sprintf("%d:%s:%s", timestamp, hex.EncodeToString(nonce), cfg.SessionKey(c))

	token := fmt.Sprintf("%s:%s", payload, hex.EncodeToString(sign(cfg.SecureKey, payload)))
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func validateToken(c *fiber.Ctx, cfg Config) error {
	token := extractToken(c, cfg)
	if token == "" {
		return ErrTokenMissing
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenMismatch
	}

	// session keys may contain colons, e.g. IPv6 addresses
	raw := string(decoded)
	first := strings.Index(raw, ":")
	last := strings.LastIndex(raw, ":")
	if first < 0 || first == last {
		return ErrTokenMismatch
	}
	payload, signatureHex := raw[:last], raw[last+1:]

	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 {
		return ErrTokenMismatch
	}
	timestampStr, nonceHex, sessionFromToken := parts[0], parts[1], parts[2]

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}

	if _, err := hex.DecodeString(nonceHex); err != nil {
		return ErrTokenMismatch
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return ErrTokenMismatch
	}

	if !hmac.Equal(signature, sign(cfg.SecureKey, payload)) {
		return ErrTokenMismatch
	}

	if subtle.ConstantTimeCompare([]byte(sessionFromToken), []byte(cfg.SessionKey(c))) != 1 {
		return ErrTokenMismatch
	}

	if cfg.Expiration > 0 {
		expiresAt := time.Unix(timestamp, 0).Add(cfg.Expiration)
		if cfg.now().UTC().After(expiresAt) {
			return ErrTokenExpired
		}
	}

	return nil
}

func sign(key []byte, payload string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func extractToken(c *fiber.Ctx, cfg Config) string {
	for _, extractor := range getExtractors(cfg.TokenLookup, cfg.FormFieldName, cfg.HeaderName) {
		if token := extractor(c); token != "" {
			return token
		}
	}
	return ""
}

// IPSessionKey binds tokens to the client IP. Visitors sharing an address
// share tokens and a visitor changing address loses theirs.
func IPSessionKey(c *fiber.Ctx) string {
	return "csrf_ip_" + c.IP()
}

func cookieSessionKey(name string) func(*fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		return "csrf_client_" + c.Cookies(name)
	}
}

// ensureClientID issues a client id cookie when the request has no valid
// one. The id is also written to the request so this request's token is
// bound to it.
func ensureClientID(c *fiber.Ctx, cfg Config) {
	if _, err := uuid.Parse(c.Cookies(cfg.CookieName)); err == nil {
		return
	}

	id := uuid.NewString()
	c.Request().Header.SetCookie(cfg.CookieName, id)
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// getExtractors returns token extractors based on configuration
func getExtractors(tokenLookup, formField, header string) []TokenExtractor {
	if tokenLookup == "" {
		return []TokenExtractor{
			extractorFromForm(formField),
			extractorFromHeader(header),
		}
	}

	var extractors []TokenExtractor
	// Parse tokenLookup: "form:_token,header:X-CSRF-Token"
	for _, part := range strings.Split(tokenLookup, ",") {
		part = strings.TrimSpace(part)
		if field, ok := strings.CutPrefix(part, "form:"); ok {
			extractors = append(extractors, extractorFromForm(field))
		} else if headerName, ok := strings.CutPrefix(part, "header:"); ok {
			extractors = append(extractors, extractorFromHeader(headerName))
		}
	}

	return extractors
}

func extractorFromForm(fieldName string) TokenExtractor {
	return func(c *fiber.Ctx) string {
		return c.FormValue(fieldName)
	}
}

func extractorFromHeader(headerName string) TokenExtractor {
	return func(c *fiber.Ctx) string {
		return c.Get(headerName)
	}
}

// configDefault returns a default config
func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions, fiber.MethodTrace}
	}

	if cfg.Expiration == 0 {
		cfg.Expiration = 24 * time.Hour
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ *fiber.Ctx, err error) error {
			return err
		}
	}

	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	if cfg.SessionKey == nil {
		cfg.bindCookie = true
		cfg.SessionKey = cookieSessionKey(cfg.CookieName)
	}

	if cfg.TemplateHelpersKey == "" {
		cfg.TemplateHelpersKey = DefaultTemplateHelpersKey
	}

	if cfg.now == nil {
		cfg.now = time.Now
	}

	cfg.SecureKey = initializeSecureKey(cfg.SecureKey)

	return cfg
}

func initializeSecureKey(current []byte) []byte {
	if len(current) > 0 {
		if len(current) < 32 {
			panic(fmt.Errorf("csrf: secure key must be at least 32 bytes, got %d", len(current)))
		}
		return current
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		panic(fmt.Errorf("csrf: unable to initialize secure key: %w", err))
	}
	return key
}
