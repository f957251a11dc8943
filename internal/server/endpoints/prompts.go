package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/hrbp/internal/api"
	"github.com/jackzampolin/hrbp/internal/prompts"
	"github.com/jackzampolin/hrbp/internal/svcctx"
)

// PromptResponse represents a single prompt.
type PromptResponse struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash,omitempty"`
}

// PromptsListResponse contains all prompts.
type PromptsListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}

func toPromptResponse(p prompts.EmbeddedPrompt) PromptResponse {
	return PromptResponse{
		Key:         p.Key,
		Text:        p.Text,
		Description: p.Description,
		Variables:   p.Variables,
		Hash:        p.Hash,
	}
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List all prompts
//	@Description	Get all registered prompt templates
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{object}	PromptsListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	registry := svcctx.PromptsFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusInternalServerError, "prompt registry not available")
		return
	}

	list := registry.List()
	resp := PromptsListResponse{Prompts: make([]PromptResponse, len(list))}
	for i, p := range list {
		resp.Prompts[i] = toPromptResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Command is nil; the CLI form lives under PromptCommands.
func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

func (e *ListPromptsEndpoint) command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key...}.
type GetPromptEndpoint struct{}

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key...}", e.handler
}

func (e *GetPromptEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Get a prompt
//	@Description	Get a specific prompt template by key
//	@Tags			prompts
//	@Produce		json
//	@Param			key	path		string	true	"Prompt key (e.g., hrbp.agent.user)"
//	@Success		200	{object}	PromptResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/prompts/{key} [get]
func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	registry := svcctx.PromptsFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusInternalServerError, "prompt registry not available")
		return
	}

	p, err := registry.Get(key)
	if err != nil {
		writeError(w, http.StatusNotFound, "prompt not found: "+key)
		return
	}
	writeJSON(w, http.StatusOK, toPromptResponse(p))
}

// Command is nil; the CLI form lives under PromptCommands.
func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

func (e *GetPromptEndpoint) command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a prompt by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Get(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PromptCommands groups the prompt commands under "prompts".
func PromptCommands(getServerURL func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect prompt templates",
	}
	cmd.AddCommand((&ListPromptsEndpoint{}).command(getServerURL))
	cmd.AddCommand((&GetPromptEndpoint{}).command(getServerURL))
	return cmd
}
