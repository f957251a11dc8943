package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/hrbp/internal/api"
	"github.com/jackzampolin/hrbp/internal/hrbp"
	"github.com/jackzampolin/hrbp/internal/svcctx"
)

// maxChatBody bounds the request body size.
const maxChatBody = 1 << 20

// ErrMessageRequired is the error text for a missing or empty message.
const ErrMessageRequired = "Message is required"

// ChatRequest is the request body for POST /api/chat/.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the answer to a chat message.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatEndpoint handles POST /api/chat/.
type ChatEndpoint struct{}

func (e *ChatEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/chat/{$}", e.handler
}

func (e *ChatEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Ask a question
//	@Description	Answers an HR question about the loaded dataset
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChatRequest	true	"Question"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/chat/ [post]
func (e *ChatEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := svcctx.LoggerFrom(ctx)
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("request_id", svcctx.RequestIDFrom(ctx))

	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, ErrMessageRequired)
		return
	}

	responder := svcctx.ResponderFrom(ctx)
	route := responder.Classify(req.Message)
	start := time.Now()

	reply, err := responder.Ask(ctx, req.Message)
	if err != nil {
		var remote *hrbp.RemoteError
		if errors.As(err, &remote) {
			logger.Error("remote model call failed", "route", route, "error", remote.Err)
		} else {
			logger.Error("chat failed", "route", route, "error", err)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("chat answered", "route", route, "duration", time.Since(start), "reply_len", len(reply))
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

func (e *ChatEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message...>",
		Short: "Ask the running server a question",
		Args:  cobra.MinimumNArgs(1),
		Example: `  hrbp api chat how many employees are there
  hrbp api chat "Top 5 salaries in a table" -o text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ChatResponse
			req := ChatRequest{Message: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/api/chat/", req, &resp); err != nil {
				return err
			}
			if api.GetOutputFormat() == api.OutputFormatText {
				return api.Output(resp.Reply)
			}
			return api.Output(resp)
		},
	}
}
