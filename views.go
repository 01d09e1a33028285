package scratch

import (
	"io"
	"io/fs"

	"github.com/flosch/pongo2/v6"
)

// ShellView is the data the layout template renders
type ShellView struct {
	Nav     NavBar
	Content string
	// Data holds extra template globals. nav and content take precedence.
	Data map[string]any
}

// Renderer draws the shell layout around the routed content
type Renderer interface {
	RenderShell(w io.Writer, view ShellView) error
}

// DefaultLayout is the template rendered by the pongo2 renderer
const DefaultLayout = "shell.html"

// PongoRenderer renders the shell with pongo2 templates
type PongoRenderer struct {
	set    *pongo2.TemplateSet
	layout string
}

// NewPongoRenderer creates a renderer backed by fsys. A nil fsys uses the
// embedded templates.
func NewPongoRenderer(fsys fs.FS) *PongoRenderer {
	if fsys == nil {
		fsys = GetViewsFS()
	}
	return &PongoRenderer{
		set:    pongo2.NewSet("shell", pongo2.NewFSLoader(fsys)),
		layout: DefaultLayout,
	}
}

// RenderShell implements Renderer
func (r *PongoRenderer) RenderShell(w io.Writer, view ShellView) error {
	tpl, err := r.set.FromCache(r.layout)
	if err != nil {
		return err
	}
	data := pongo2.Context{}
	data.Update(view.Data)
	data["nav"] = view.Nav
	data["content"] = view.Content
	return tpl.ExecuteWriter(data, w)
}
