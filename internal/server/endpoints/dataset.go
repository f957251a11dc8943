package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/hrbp/internal/api"
	"github.com/jackzampolin/hrbp/internal/dataset"
	"github.com/jackzampolin/hrbp/internal/svcctx"
)

const (
	defaultPreviewRows = 5
	maxPreviewRows     = 100
)

// DatasetSummary describes the loaded dataset.
type DatasetSummary struct {
	Source  string   `json:"source"`
	Format  string   `json:"format"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// DatasetResponse is the response for GET /api/dataset.
type DatasetResponse struct {
	DatasetSummary
	Preview []map[string]string `json:"preview"`
}

func summarize(ds *dataset.Dataset) DatasetSummary {
	return DatasetSummary{
		Source:  ds.Source(),
		Format:  string(ds.Format()),
		Rows:    ds.Len(),
		Columns: ds.Columns(),
	}
}

// DatasetEndpoint handles GET /api/dataset.
type DatasetEndpoint struct{}

func (e *DatasetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/dataset", e.handler
}

func (e *DatasetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Describe the dataset
//	@Description	Returns the dataset's source, columns, row count and leading rows
//	@Tags			dataset
//	@Produce		json
//	@Param			preview	query		int	false	"Number of leading rows (default 5, max 100)"
//	@Success		200		{object}	DatasetResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/dataset [get]
func (e *DatasetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ds := svcctx.DatasetFrom(r.Context())
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	n := defaultPreviewRows
	if v := r.URL.Query().Get("preview"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid preview: "+v)
			return
		}
		n = min(parsed, maxPreviewRows)
	}

	writeJSON(w, http.StatusOK, DatasetResponse{
		DatasetSummary: summarize(ds),
		Preview:        ds.Head(n),
	})
}

func (e *DatasetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var preview int
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Describe the dataset the server answers from",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DatasetResponse
			path := "/api/dataset?preview=" + strconv.Itoa(preview)
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&preview, "preview", defaultPreviewRows, "Number of leading rows to include")
	return cmd
}
