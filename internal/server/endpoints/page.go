package endpoints

import (
	"bytes"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/hrbp/internal/svcctx"
	"github.com/jackzampolin/hrbp/web"
)

// PageEndpoint serves the chat page at GET /.
type PageEndpoint struct{}

func (e *PageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/{$}", e.handler
}

func (e *PageEndpoint) RequiresInit() bool { return false }

func (e *PageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := web.ChatPage{Title: "HRBP Assistant"}
	if s := svcctx.ServicesFrom(ctx); s != nil {
		page.Model = s.Model
	}
	if ds := svcctx.DatasetFrom(ctx); ds != nil {
		page.Dataset = filepath.Base(ds.Source())
		page.Rows = ds.Len()
	}

	var buf bytes.Buffer
	if err := web.ChatTemplate().Execute(&buf, page); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render page: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (e *PageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}
