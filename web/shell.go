package web

import (
	"context"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/activitymap"
	"github.com/goliatone/go-scratch/report"
)

const (
	shellLocalsKey   = "scratch_shell"
	carrierLocalsKey = "scratch_carrier"
)

// TextCodeSessionCheckTimeout marks requests whose session check did not
// settle in time
const TextCodeSessionCheckTimeout = "SESSION_CHECK_TIMEOUT"

// shellMiddleware mounts a shell for the request. Handlers run once the
// session check has settled, with the AppContext in the user context.
func (s *Server) shellMiddleware(c *fiber.Ctx) error {
	carrier := newCookieCarrier(c, s.cookieName, s.secureCookies)
	logger := s.shellLogger(c)
	id := requestID(c)

	shell := scratch.New(s.identity.ForRequest(carrier),
		scratch.WithErrorReporter(s.requestReporter(id)),
		scratch.WithNavigator(redirectNavigator(c)),
		scratch.WithRenderer(s.renderer),
		scratch.WithLogger(logger),
		scratch.WithBrand(s.brand),
		scratch.WithRoutes(s.routes),
		scratch.WithActivitySink(s.activitySink(id)),
	)

	ctx := c.UserContext()
	if err := shell.Mount(ctx); err != nil {
		return err
	}
	defer shell.Unmount()

	waitCtx, cancel := context.WithTimeout(ctx, s.bootTimeout)
	defer cancel()

	if err := shell.Wait(waitCtx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "session check did not complete").
			WithCode(fiber.StatusServiceUnavailable).
			WithTextCode(TextCodeSessionCheckTimeout)
	}
	carrier.flush(c)

	c.Locals(shellLocalsKey, shell)
	c.Locals(carrierLocalsKey, carrier)
	c.SetUserContext(scratch.WithAppContext(ctx, shell.AppContext()))

	err := c.Next()
	carrier.flush(c)
	return err
}

func shellFrom(c *fiber.Ctx) (*scratch.Shell, error) {
	shell, ok := c.Locals(shellLocalsKey).(*scratch.Shell)
	if !ok {
		return nil, goerrors.New("shell not mounted for request", goerrors.CategoryInternal).
			WithCode(fiber.StatusInternalServerError)
	}
	return shell, nil
}

func carrierFrom(c *fiber.Ctx) (*cookieCarrier, error) {
	carrier, ok := c.Locals(carrierLocalsKey).(*cookieCarrier)
	if !ok {
		return nil, goerrors.New("session carrier missing for request", goerrors.CategoryInternal).
			WithCode(fiber.StatusInternalServerError)
	}
	return carrier, nil
}

// redirectNavigator turns the shell's replace navigation into a 303
func redirectNavigator(c *fiber.Ctx) scratch.Navigator {
	return scratch.NavigatorFunc(func(_ context.Context, path string) error {
		return c.Redirect(path, fiber.StatusSeeOther)
	})
}

func (s *Server) requestReporter(id string) scratch.ErrorReporter {
	return scratch.ErrorReporterFunc(func(ctx context.Context, err error) {
		richErr := report.Normalize(err)
		if id != "" && richErr.RequestID == "" {
			richErr = richErr.WithRequestID(id)
		}
		s.reporter.Report(ctx, richErr)
	})
}

func (s *Server) activitySink(id string) scratch.ActivitySink {
	return scratch.ActivitySinkFunc(func(_ context.Context, evt scratch.ActivityEvent) error {
		record := activitymap.Normalize(evt, activitymap.WithRequestID(id))
		s.log.Info().
			Str("verb", record.Verb).
			Str("actor_id", record.ActorID).
			Str("channel", record.Channel).
			Interface("activity", record).
			Msg("shell activity")
		return nil
	})
}
