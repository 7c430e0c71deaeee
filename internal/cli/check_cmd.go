package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the backend can reach its job database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.backendClient(cmd.Context())
			if err != nil {
				return err
			}
			status, err := client.TestConnection(cmd.Context())
			if err != nil {
				return fmt.Errorf("test connection: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:  %s\n", client.BaseURL())
			fmt.Fprintf(out, "status:   %s\n", status.Status)
			if status.Server != "" {
				fmt.Fprintf(out, "server:   %s\n", status.Server)
			}
			if status.Database != "" {
				fmt.Fprintf(out, "database: %s\n", status.Database)
			}
			if status.SQLVersion != "" {
				fmt.Fprintf(out, "version:  %s\n", status.SQLVersion)
			}
			if !status.Connected() {
				return fmt.Errorf("backend is not connected: %s", status.Error)
			}
			return nil
		},
	}
}
