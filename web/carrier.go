package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// cookieCarrier moves the session token through the request cookie.
// The session check runs on its own goroutine and fiber.Ctx is not safe to
// share, so writes are buffered until flush runs on the handler goroutine.
type cookieCarrier struct {
	name   string
	secure bool

	mu      sync.Mutex
	token   string
	pending *fiber.Cookie
}

func newCookieCarrier(c *fiber.Ctx, name string, secure bool) *cookieCarrier {
	return &cookieCarrier{
		name:   name,
		secure: secure,
		// fiber reuses the request buffer once the handler returns
		token: utils.CopyString(c.Cookies(name)),
	}
}

func (k *cookieCarrier) Token() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.token
}

func (k *cookieCarrier) SetToken(token string, expires time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.token = token
	k.pending = &fiber.Cookie{
		Name:     k.name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   k.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (k *cookieCarrier) ClearToken() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.token = ""
	k.pending = &fiber.Cookie{
		Name:     k.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   k.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// flush writes the last buffered change to the response
func (k *cookieCarrier) flush(c *fiber.Ctx) {
	k.mu.Lock()
	pending := k.pending
	k.pending = nil
	k.mu.Unlock()

	if pending != nil {
		c.Cookie(pending)
	}
}
