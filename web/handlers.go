package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/identity"
	"github.com/goliatone/go-scratch/repository"
)

func (s *Server) home(c *fiber.Ctx) error {
	return s.renderPage(c, fiber.StatusOK, pageHome, fiber.Map{
		"brand": s.brand,
	})
}

func (s *Server) loginShow(c *fiber.Ctx) error {
	return s.renderPage(c, fiber.StatusOK, pageLogin, fiber.Map{
		"title":  "Login",
		"errors": map[string]string{},
		"record": identity.Credentials{},
	})
}

func (s *Server) loginPost(c *fiber.Ctx) error {
	payload := identity.Credentials{}
	if err := c.BodyParser(&payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse login form").
			WithCode(fiber.StatusBadRequest)
	}

	carrier, err := carrierFrom(c)
	if err != nil {
		return err
	}

	if _, err := s.identity.SignIn(c.UserContext(), carrier, payload); err != nil {
		return s.renderFormError(c, pageLogin, "Login", payload, err)
	}

	return s.authenticated(c)
}

func (s *Server) signupShow(c *fiber.Ctx) error {
	return s.renderPage(c, fiber.StatusOK, pageSignup, fiber.Map{
		"title":  "Signup",
		"errors": map[string]string{},
		"record": identity.Registration{},
	})
}

func (s *Server) signupPost(c *fiber.Ctx) error {
	payload := identity.Registration{}
	if err := c.BodyParser(&payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse signup form").
			WithCode(fiber.StatusBadRequest)
	}

	carrier, err := carrierFrom(c)
	if err != nil {
		return err
	}

	if _, err := s.identity.SignUp(c.UserContext(), carrier, payload); err != nil {
		return s.renderFormError(c, pageSignup, "Signup", payload, err)
	}

	return s.authenticated(c)
}

// authenticated flips the shared flag and sends the user home
func (s *Server) authenticated(c *fiber.Ctx) error {
	app, ok := scratch.AppContextFrom(c.UserContext())
	if !ok {
		return goerrors.New("app context missing for request", goerrors.CategoryInternal).
			WithCode(fiber.StatusInternalServerError)
	}
	app.SetAuthenticated(true)
	return c.Redirect(s.routes.Home, fiber.StatusSeeOther)
}

func (s *Server) settings(c *fiber.Ctx) error {
	if !scratch.IsAuthenticated(c.UserContext()) {
		return c.Redirect(s.routes.Login, fiber.StatusSeeOther)
	}

	carrier, err := carrierFrom(c)
	if err != nil {
		return err
	}

	data := fiber.Map{"title": "Settings"}
	if claims, err := s.identity.Tokens().Validate(carrier.Token()); err == nil {
		data["user_id"] = claims.UID
	}

	return s.renderPage(c, fiber.StatusOK, pageSettings, data)
}

func (s *Server) logout(c *fiber.Ctx) error {
	shell, err := shellFrom(c)
	if err != nil {
		return err
	}

	if err := shell.Logout(c.UserContext()); err != nil {
		if errors.Is(err, scratch.ErrNotAuthenticated) {
			return c.Redirect(s.routes.Login, fiber.StatusSeeOther)
		}
		return err
	}
	return nil
}

// renderFormError re-renders a form for user errors and escalates the rest
func (s *Server) renderFormError(c *fiber.Ctx, page, title string, record any, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return err
	}

	var status int
	fields := map[string]string{}

	switch {
	case richErr.Category == goerrors.CategoryValidation:
		status = fiber.StatusUnprocessableEntity
		fields = richErr.ValidationMap()
	case errors.Is(err, identity.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
		fields["authentication"] = "Invalid email or password"
	case errors.Is(err, repository.ErrDuplicateEmail):
		status = fiber.StatusConflict
		fields["email"] = "Email is already registered"
	default:
		return err
	}

	s.log.Debug().
		Str("request_id", requestID(c)).
		Str("text_code", richErr.TextCode).
		Msg("form rejected")

	return s.renderPage(c, status, page, fiber.Map{
		"title":  title,
		"errors": fields,
		"record": record,
	})
}
