package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/desertthunder/customify/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// pageData is the payload handed to every template.
type pageData struct {
	Title     string
	Flash     *Flash
	LoggedIn  bool
	Username  string
	Connected bool
	Premium   bool
	Profile   *services.Profile
	Tracks    []services.Track
	Form      map[string]string
	Errors    []string
}

// templateSet holds one compiled template per page, each paired with the
// base layout.
type templateSet struct {
	pages map[string]*template.Template
}

var pageNames = []string{"home", "register", "login", "profile", "customize", "recommendations"}

func parseTemplates() (*templateSet, error) {
	set := &templateSet{pages: make(map[string]*template.Template, len(pageNames))}

	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		set.pages[name] = tmpl
	}

	return set, nil
}

// render writes the named page. Render failures surface as a 500 because a
// missing template is a programming error, not user input.
func (a *App) render(w http.ResponseWriter, page string, data pageData) {
	tmpl, ok := a.templates.pages[page]
	if !ok {
		a.logger.Error("unknown template", "page", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		a.logger.Error("failed to render template", "page", page, "error", err)
	}
}
