package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fboessen22/jobdash/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the jobdash version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "jobdash %s\n", version.String())
			return nil
		},
	}
}
