package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/af-corp/chat-orchestrator/internal/store"
	"github.com/spf13/cobra"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var lastModel string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "preview <message>",
		Short: "Classify a draft message and suggest a model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config()
			c := buildCore(cmd.Context(), ctx.loader, ctx.logger)
			// Previews never read conversations.
			orch := c.orchestrator(store.NewMemoryStore(), cfg.Routing, nil, ctx.logger)

			result := orch.PreviewRouting(cmd.Context(), strings.Join(args, " "), lastModel)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Intent", "Suggested model", "Reason"},
				[][]string{{string(result.Intent), result.SuggestedModel, result.Reason}},
				nil,
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&lastModel, "last-model", "", "Model used for the previous turn")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}
