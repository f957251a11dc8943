// Package web provides the embedded chat page for the hrbp server.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates
var templatesFS embed.FS

var chatTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// ChatPage is the data rendered into the chat page.
type ChatPage struct {
	Title   string
	Model   string
	Dataset string // file the answers come from
	Rows    int
}

// ChatTemplate returns the parsed chat page template.
func ChatTemplate() *template.Template {
	return chatTemplate
}
