// Package prompts manages the prompt templates embedded in the binary.
//
// Each prompt family lives in its own subpackage with .tmpl files compiled in
// via go:embed. Subpackages register their templates with a Registry so the
// server can list them and clients can inspect the exact text sent to the model.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key"`                   // Hierarchical key: hrbp.agent.system
	Text        string   `json:"text"`                  // The prompt text (Go template)
	Description string   `json:"description,omitempty"` // Human-readable description
	Variables   []string `json:"variables,omitempty"`   // Extracted template variables
	Hash        string   `json:"hash"`                  // SHA256 hash of the text for change detection
}
