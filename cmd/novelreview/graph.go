package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the analysis graph as a Mermaid flowchart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := a.pipeline()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), p.Mermaid())
			return nil
		},
	}
}
