package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"github.com/shindakun/urlshort/internal/models"
	"github.com/shindakun/urlshort/internal/web/templates"
)

// TemplateData holds common data passed to templates
type TemplateData struct {
	Title   string
	Session *models.Session
	Login   *models.LoginPageData // login page only

	Notification       models.Notification
	NotificationMillis int64
	Loading            models.LoadingState

	Year      int
	Version   string
	CSRFField template.HTML // hidden input for forms
}

// bannerData feeds the banner partial
type bannerData struct {
	Field   string
	Message string
}

// templateFuncs returns custom template functions
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"banner": func(field, message string) bannerData {
			return bannerData{Field: field, Message: message}
		},
	}
}

var pageNames = []string{"login", "profile", "not_found"}

// parseTemplates builds one template set per page: base layout + page + partials
func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templates.FS,
			"layouts/base.html",
			"pages/"+name+".html",
			"partials/*.html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// renderTemplate renders a page with the base layout and the given status
func (h *Handlers) renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data TemplateData) error {
	tmpl, ok := h.pages[templateName]
	if !ok {
		return fmt.Errorf("unknown template %q", templateName)
	}

	// Add CSRF field to template data
	data.CSRFField = csrf.TemplateField(r)
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	if data.Loading == "" {
		data.Loading = models.LoadingIdle
	}
	if data.NotificationMillis == 0 {
		data.NotificationMillis = h.notifyDuration.Milliseconds()
	}

	// Render to a buffer so a template error can still become a 500
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
