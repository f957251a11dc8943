// Package hrbp holds the prompts sent to the dataframe agent.
package hrbp

import (
	_ "embed"
	"text/template"

	"github.com/jackzampolin/hrbp/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the agent's standing instructions.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt wraps question in the per-request instructions. The question is
// inserted verbatim; wantsTable selects the table directive. It panics if the
// embedded template fails to execute.
func UserPrompt(question string, wantsTable bool) string {
	data := struct {
		Question   string
		WantsTable bool
	}{Question: question, WantsTable: wantsTable}

	out, err := prompts.Render(userTemplate, data)
	if err != nil {
		panic("hrbp: render user prompt: " + err.Error())
	}
	return out
}

// Prompt keys
const (
	SystemPromptKey = "hrbp.agent.system"
	UserPromptKey   = "hrbp.agent.user"
)

// RegisterPrompts registers the agent prompts with the registry.
func RegisterPrompts(r *prompts.Registry) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "HR Business Partner system prompt - table rules and response style",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Per-question instructions wrapping the user's question",
	})
}
