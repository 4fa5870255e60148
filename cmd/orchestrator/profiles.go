package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List model profiles and the backend each one routes to",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := buildCore(cmd.Context(), ctx.loader, ctx.logger)

			rows := make([][]string, 0)
			for _, p := range c.profiles.Profiles() {
				provider, _ := c.registry.Get(p.Route.ProviderID)
				rows = append(rows, []string{
					p.Name,
					p.DisplayName,
					string(p.Route.ProviderID),
					p.Route.BackendModelID,
					availability(provider != nil && provider.Available()),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Profile", "Name", "Provider", "Backend model", "Credential"},
				rows,
				nil,
			))
			fallback := c.profiles.Fallback()
			fmt.Fprintf(cmd.OutOrStdout(), "Unknown profiles route to %s/%s; default profile is %q\n",
				fallback.ProviderID, fallback.BackendModelID, ctx.config().Routing.DefaultModelProfile)
			return nil
		},
	}
}

func availability(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}
