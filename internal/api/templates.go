package api

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/dxblabs/metroprice/internal/ensemble"
)

//go:embed templates/*
var templateFS embed.FS

type templateSet struct {
	tmpl *template.Template
}

// newTemplates creates and parses the HTML templates with custom
// functions.
func newTemplates() *templateSet {
	funcs := template.FuncMap{
		"aed": ensemble.FormatAED,
		"km": func(f float64) string {
			return fmt.Sprintf("%.2f km", f)
		},
	}
	return &templateSet{
		tmpl: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}
}

func (t *templateSet) render(w http.ResponseWriter, name string, data any) {
	if err := t.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("template %s: %v", name, err)
	}
}
