package view

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/taxi-insights/taxi-insights/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates. Refresh, when
// positive, makes the page reload itself after that many seconds.
type TemplateData struct {
	Title       string
	CurrentPath string
	Refresh     int
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
