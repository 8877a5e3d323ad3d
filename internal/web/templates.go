package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"truncate":    truncate,
	"take":        take,
	"fmtDate":     fmtDate,
	"statusLabel": statusLabel,
	"rank":        func(i int) int { return i + 1 },
}

var pageTemplates = map[string]*template.Template{
	"index":    parsePage("index.html"),
	"detail":   parsePage("detail.html"),
	"trending": parsePage("trending.html"),
	"roadmap":  parsePage("roadmap.html"),
	"notfound": parsePage("notfound.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(
		template.New("base").Funcs(templateFuncs).ParseFS(templatesFS, "templates/base.html", "templates/"+name),
	)
}

func renderPage(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := pageTemplates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	// Render to a buffer first so a template error does not produce a
	// half-written page.
	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, "base", data); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(sb.String()))
	return err
}

// truncate limits s to n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// take returns at most the first n elements of ss.
func take(ss []string, n int) []string {
	if len(ss) <= n {
		return ss
	}
	return ss[:n]
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// statusLabel turns "coming-soon" into "Coming Soon".
func statusLabel(status string) string {
	words := strings.Split(strings.ReplaceAll(status, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
