package mail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/notification.html"))
	textTmpl = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/notification.txt"))
)

// Row is one label/value line in the summary table.
type Row struct {
	Label string
	Value string
}

// Content is the data behind every notification email.
type Content struct {
	Subject  string
	Heading  string
	Intro    string
	Rows     []Row
	Link     string
	LinkText string
	Footer   string
}

// Render produces the text and HTML bodies for c.
func Render(c Content) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textTmpl.Execute(&tb, c); err != nil {
		return "", "", err
	}
	if err := htmlTmpl.Execute(&hb, c); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
