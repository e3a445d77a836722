package main

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages are rendered inside templates/base.html, each defining "content".
var pages = []string{
	"home.html",
	"detail.html",
	"create.html",
	"edit.html",
	"delete.html",
	"login.html",
	"register.html",
}

// paragraphs escapes s and renders each blank-line separated block as a
// paragraph, with single newlines kept as line breaks.
func paragraphs(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var out strings.Builder
	for _, block := range strings.Split(template.HTMLEscapeString(s), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString("<p>" + strings.ReplaceAll(block, "\n", "<br>") + "</p>")
	}
	return template.HTML(out.String())
}

func displayTime(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 15:04")
}

// loadTemplates parses the base layout once and clones it for every page.
func loadTemplates() map[string]*template.Template {
	base := template.Must(template.New("").Funcs(template.FuncMap{
		"paragraphs": paragraphs,
		"date":       displayTime,
	}).ParseFS(templateFS, "templates/base.html"))

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		templates[page] = template.Must(template.Must(base.Clone()).ParseFS(templateFS, "templates/"+page))
	}
	return templates
}
