package server

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

const baseLayout = "layouts/base"

func newViews(mediaURL string) (*html.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("media", func(name string) string {
		return mediaURL + strings.TrimPrefix(name, "/")
	})
	engine.AddFunc("linebreaks", func(text string) template.HTML {
		escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	})
	engine.AddFunc("dict", func(pairs ...any) (map[string]any, error) {
		if len(pairs)%2 != 0 {
			return nil, errors.New("dict needs key/value pairs")
		}
		out := make(map[string]any, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			key, ok := pairs[i].(string)
			if !ok {
				return nil, errors.New("dict keys must be strings")
			}
			out[key] = pairs[i+1]
		}
		return out, nil
	})

	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}

// wantsJSON reports whether the client prefers JSON over an HTML page.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// render writes a page: the named template inside the base layout, or data as
// JSON when the client asked for it.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	if wantsJSON(c) {
		return c.JSON(data)
	}

	view := fiber.Map{
		"path":   c.Path(),
		"errors": map[string]string{},
	}
	if user := currentUser(c); user != nil {
		view["viewer"] = user
	}
	for k, v := range data {
		view[k] = v
	}
	return c.Render(name, view, baseLayout)
}

// renderForm re-renders a form page after a validation failure. HTML clients
// get the page back with 200 and the field messages; JSON clients get a 400.
func (s *Server) renderForm(c *fiber.Ctx, name string, data fiber.Map, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return s.respondError(c, err)
	}
	if wantsJSON(c) {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	fields := map[string]string{}
	for k, v := range appErr.Fields {
		fields[k] = v
	}
	if len(fields) == 0 {
		fields["__all__"] = appErr.Message
	}
	data["errors"] = fields
	return s.render(c, name, data)
}
