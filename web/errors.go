package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// errorMappers extend the go-errors defaults with fiber's own errors
var errorMappers = append([]goerrors.ErrorMapper{mapFiberError}, goerrors.DefaultErrorMappers()...)

func mapFiberError(err error) *goerrors.Error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return nil
	}
	return goerrors.New(fe.Message, goerrors.HTTPStatusToCategory(fe.Code)).
		WithCode(fe.Code).
		WithTextCode(goerrors.HTTPStatusToTextCode(fe.Code))
}

// toRichError maps err to a rich error. The result is a copy so package
// level sentinels are never mutated.
func toRichError(err error) *goerrors.Error {
	mapped := goerrors.MapToError(err, errorMappers)
	out := *mapped
	return &out
}

func statusOf(richErr *goerrors.Error) int {
	if richErr.Code < fiber.StatusBadRequest || richErr.Code > 599 {
		return fiber.StatusInternalServerError
	}
	return richErr.Code
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	richErr := toRichError(err)
	id := requestID(c)
	if id != "" {
		richErr = richErr.WithRequestID(id)
	}
	status := statusOf(richErr)

	if richErr.Category == goerrors.CategoryAuth {
		return c.Redirect(s.routes.Login, fiber.StatusSeeOther)
	}

	evt := s.log.Info()
	if status >= fiber.StatusInternalServerError {
		evt = s.log.Error()
	}
	evt.
		Str("request_id", id).
		Str("category", richErr.Category.String()).
		Str("text_code", richErr.TextCode).
		Int("status", status).
		Err(err).
		Msg("request failed")

	message := richErr.Message
	if status >= fiber.StatusInternalServerError && !s.development {
		message = "Something went wrong"
	}

	data := fiber.Map{
		"title":      "Error",
		"status":     status,
		"message":    message,
		"request_id": id,
		"home":       s.routes.Home,
	}

	if _, serr := shellFrom(c); serr == nil {
		if rerr := s.renderPage(c, status, pageError, data); rerr == nil {
			return nil
		}
	}

	// no shell, e.g. the session check timed out
	if rerr := s.renderBare(c, status, pageError, data); rerr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}
