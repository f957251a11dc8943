package prompts

import (
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "plain text", nil},
		{"simple", "Hello {{.Name}}", []string{"Name"}},
		{"sorted and deduped", "{{.B}} {{ .A }} {{.B}}", []string{"A", "B"}},
		{"conditional", "{{if .WantsTable}}x{{else}}y{{end}} {{.Question}}", []string{"Question", "WantsTable"}},
		{"nested", "{{.Row.Name}}", []string{"Row.Name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariables(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractVariables(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHashText(t *testing.T) {
	if HashText("a") == HashText("b") {
		t.Error("different text should hash differently")
	}
	if HashText("a") != HashText("a") {
		t.Error("hash should be stable")
	}
	if len(HashText("a")) != 64 {
		t.Errorf("expected hex sha256, got %q", HashText("a"))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(EmbeddedPrompt{Key: "b.user", Text: "Q: {{.Question}}"})
	r.Register(EmbeddedPrompt{Key: "a.system", Text: "system"})

	p, err := r.Get("b.user")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Hash != HashText("Q: {{.Question}}") {
		t.Errorf("Hash not computed")
	}
	if !reflect.DeepEqual(p.Variables, []string{"Question"}) {
		t.Errorf("Variables = %v", p.Variables)
	}

	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for missing prompt")
	}

	list := r.List()
	if len(list) != 2 || list[0].Key != "a.system" || list[1].Key != "b.user" {
		t.Errorf("List() not sorted by key: %+v", list)
	}
}
