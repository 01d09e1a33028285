package web

import (
	"bytes"
	"context"
	"embed"
	"io"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/middleware/csrf"
)

//go:embed views
var viewsFS embed.FS

const (
	viewLayout   = "layout"
	viewShell    = "shell"
	pageHome     = "home"
	pageLogin    = "login"
	pageSignup   = "signup"
	pageSettings = "settings"
	pageError    = "error"
)

// GetViewsFS returns the page templates rooted at the views directory
func GetViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewViews creates the django engine for the page templates in fsys
func NewViews(fsys fs.FS) *django.Engine {
	if fsys == nil {
		fsys = GetViewsFS()
	}
	return django.NewFileSystem(http.FS(fsys), ".html")
}

// renderPage draws page inside the shell and the document layout
func (s *Server) renderPage(c *fiber.Ctx, status int, page string, data map[string]any) error {
	shell, err := shellFrom(c)
	if err != nil {
		return err
	}

	ctx := scratch.WithViewData(c.UserContext(), csrf.TemplateHelpers(c))

	outlet := scratch.OutletFunc(func(ctx context.Context, w io.Writer) error {
		return s.views.Render(w, page, fiber.Map(scratch.MergeTemplateData(ctx, data)))
	})

	var body bytes.Buffer
	if err := shell.Render(ctx, &body, c.Path(), outlet); err != nil {
		return err
	}

	return c.Status(status).Render(viewShell, s.document(data, fiber.Map{
		"shell": body.String(),
	}), viewLayout)
}

// renderBare draws page in the document layout without the shell
func (s *Server) renderBare(c *fiber.Ctx, status int, page string, data map[string]any) error {
	return c.Status(status).Render(page, s.document(data, data), viewLayout)
}

// document adds the values the layout reads to bind
func (s *Server) document(data map[string]any, bind fiber.Map) fiber.Map {
	out := fiber.Map{}
	for k, v := range bind {
		out[k] = v
	}
	out["brand"] = s.brand
	if title, ok := data["title"].(string); ok {
		out["title"] = title
	}
	return out
}
