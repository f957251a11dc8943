package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/hrbp/internal/api"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Answer one question without starting the server",
	Args:  cobra.MinimumNArgs(1),
	Example: `  hrbp ask how many employees are there
  hrbp ask "Average salary by department in a table" -o text`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		reply, err := env.responder.Ask(cmd.Context(), question)
		if err != nil {
			return err
		}

		if api.GetOutputFormat() == api.OutputFormatText {
			return api.Output(reply)
		}
		return api.Output(map[string]string{
			"route": env.responder.Classify(question),
			"reply": reply,
		})
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
