package web

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/django/v3"
	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/config"
	"github.com/goliatone/go-scratch/identity"
	"github.com/goliatone/go-scratch/logging"
	"github.com/goliatone/go-scratch/middleware/csrf"
	"github.com/goliatone/go-scratch/report"
	"github.com/rs/zerolog"
)

// CSRFCookieName holds the client id form tokens are bound to
const CSRFCookieName = "scratch_csrf"

// DefaultBootTimeout bounds how long a request waits for the session check
const DefaultBootTimeout = 5 * time.Second

// Server serves the shell and its pages over HTTP
type Server struct {
	app      *fiber.App
	identity *identity.Service
	log      zerolog.Logger
	reporter scratch.ErrorReporter
	views    *django.Engine
	renderer scratch.Renderer
	routes   scratch.Routes

	brand         string
	cookieName    string
	secureCookies bool
	csrfKey       []byte
	bootTimeout   time.Duration
	development   bool
}

// Option configures a Server
type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithErrorReporter overrides the zerolog reporter
func WithErrorReporter(reporter scratch.ErrorReporter) Option {
	return func(s *Server) {
		if reporter != nil {
			s.reporter = reporter
		}
	}
}

// WithBootTimeout bounds the per request session check
func WithBootTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.bootTimeout = d
		}
	}
}

// WithShellRenderer overrides the shell layout renderer
func WithShellRenderer(renderer scratch.Renderer) Option {
	return func(s *Server) {
		s.renderer = renderer
	}
}

// NewServer wires the routes and middleware. Nothing listens until Listen.
func NewServer(cfg *config.Config, svc *identity.Service, opts ...Option) *Server {
	if svc == nil {
		panic("Missing identity Service in web server...")
	}

	s := &Server{
		identity:      svc,
		log:           zerolog.Nop(),
		views:         NewViews(nil),
		routes:        scratch.DefaultRoutes(),
		brand:         cfg.App.Brand,
		cookieName:    cfg.Auth.GetContextKey(),
		secureCookies: cfg.Server.SecureCookies,
		csrfKey:       deriveKey(cfg.Auth.GetSigningKey(), "csrf"),
		bootTimeout:   DefaultBootTimeout,
		development:   cfg.App.Development,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.reporter == nil {
		s.reporter = report.NewLogReporter(s.log, report.WithDevelopment(s.development))
	}

	s.app = fiber.New(fiber.Config{
		AppName:               s.brand,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		Views:                 s.views,
	})

	s.app.Use(recover.New(recover.Config{EnableStackTrace: s.development}))
	s.app.Use(requestid.New())
	s.app.Use(s.accessLog)
	s.app.Use(s.shellMiddleware)
	s.app.Use(csrf.New(csrf.Config{
		SecureKey:    s.csrfKey,
		CookieName:   CSRFCookieName,
		CookieSecure: s.secureCookies,
	}))

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.app.Get(s.routes.Home, s.home)
	s.app.Get(s.routes.Login, s.loginShow)
	s.app.Post(s.routes.Login, s.loginPost)
	s.app.Get(s.routes.Signup, s.signupShow)
	s.app.Post(s.routes.Signup, s.signupPost)
	s.app.Get(s.routes.Settings, s.settings)
	s.app.Post(s.routes.Logout, s.logout)
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving addr
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("http server listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	evt := s.log.Debug()
	if err != nil {
		evt = s.log.Info().Err(err)
	}
	evt.
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Str("request_id", requestID(c)).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	return err
}

func (s *Server) shellLogger(c *fiber.Ctx) scratch.Logger {
	return logging.NewAdapter(s.log.With().Str("request_id", requestID(c)).Logger(), "shell")
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// deriveKey keeps the csrf key distinct from the token signing key
func deriveKey(secret, purpose string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}
