package main

import (
	"github.com/spf13/cobra"

	"github.com/spetersoncode/novelreview/internal/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	var noArchive bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analyze_manuscript tool over MCP stdio",
		Long: "Serve the analyze_manuscript tool to MCP clients over stdin/stdout.\n" +
			"Logs go to stderr so they never corrupt the protocol stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := a.pipeline()
			if err != nil {
				return err
			}
			opts := []mcpserver.Option{
				mcpserver.WithVersion(version),
				mcpserver.WithLogger(a.logger),
			}
			if !noArchive {
				st, err := a.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				opts = append(opts, mcpserver.WithStore(st))
			}
			return mcpserver.ServeStdio(p, opts...)
		},
	}
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Do not archive runs")
	return cmd
}
