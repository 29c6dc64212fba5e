package main

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/myrjola/teamcheck/internal/contexthelpers"
	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/ui"
)

// pageNames lists the pages under ui/templates/pages. Each defines the "title" and "page" templates.
var pageNames = []string{"home"}

type pageTemplate struct {
	t *template.Template
}

type BaseTemplateData struct {
	CurrentPath string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	return BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
	}
}

// assetURL returns the /assets/ path of file inside dir or "" when there is no file.
func assetURL(dir string, file any) string {
	var name string
	switch f := file.(type) {
	case string:
		name = f
	case *string:
		if f != nil {
			name = *f
		}
	}
	if name == "" {
		return ""
	}
	return path.Join("/assets", dir, url.PathEscape(name))
}

// conditionIconURL picks the icon directory by the kind of the condition.
func conditionIconURL(c models.Condition) string {
	switch c.Kind { //nolint:exhaustive // tags and unknown kinds use role icons
	case models.ConditionKindFaction:
		return assetURL("faction_icons", c.Icon)
	case models.ConditionKindAttribute:
		return assetURL("element_icons", c.Icon)
	default:
		return assetURL("role_icons", c.Icon)
	}
}

// parsePageTemplates parses every page together with the base layout and the partials.
func parsePageTemplates() (map[string]*pageTemplate, error) {
	pages := make(map[string]*pageTemplate, len(pageNames))
	for _, name := range pageNames {
		// The request dependent functions are replaced in render.
		t, err := template.New(name).Funcs(template.FuncMap{
			"nonce": func() template.HTMLAttr {
				panic("not implemented")
			},
			"csrf": func() template.HTML {
				panic("not implemented")
			},
			"asset":         assetURL,
			"conditionIcon": conditionIconURL,
		}).ParseFS(ui.Files,
			"templates/base.gohtml",
			"templates/partials/*.gohtml",
			fmt.Sprintf("templates/pages/%s.gohtml", name),
		)
		if err != nil {
			return nil, errors.Wrap(err, "parse page template", slog.String("page", name))
		}
		pages[name] = &pageTemplate{t: t}
	}
	return pages, nil
}

// forRequest clones the page template with the nonce and CSRF token of r.
func (p *pageTemplate) forRequest(r *http.Request) (*template.Template, error) {
	t, err := p.t.Clone()
	if err != nil {
		return nil, errors.Wrap(err, "clone template")
	}
	ctx := r.Context()
	nonce := fmt.Sprintf("nonce=%q", contexthelpers.CSPNonce(ctx))
	csrf := fmt.Sprintf("<input type=\"hidden\" name=\"csrf_token\" value=%q>",
		template.HTMLEscapeString(contexthelpers.CSRFToken(ctx)))
	t.Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // generated by us, not user input
		},
		"csrf": func() template.HTML {
			return template.HTML(csrf) //nolint:gosec // generated by us, not user input
		},
	})
	return t, nil
}

// render writes the full page.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	app.execute(w, r, status, page, "base", data)
}

// renderPartial writes only the named template of page, used for htmx swaps.
func (app *application) renderPartial(
	w http.ResponseWriter, r *http.Request, status int, page, name string, data any,
) {
	app.execute(w, r, status, page, name, data)
}

func (app *application) execute(w http.ResponseWriter, r *http.Request, status int, page, name string, data any) {
	p, ok := app.pages[page]
	if !ok {
		app.serverError(w, r, errors.New("page not found", slog.String("page", page)))
		return
	}
	t, err := p.forRequest(r)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "prepare template", slog.String("page", page)))
		return
	}

	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, name, data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template",
			slog.String("page", page), slog.String("template", name)))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
