package main

import (
	"github.com/spf13/cobra"

	"github.com/spetersoncode/novelreview/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr      string
		noArchive bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API with AG-UI progress streaming",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := a.pipeline()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			opts := []server.Option{
				server.WithLogger(a.logger),
				server.WithAddr(addr),
				server.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout),
			}
			if !noArchive {
				st, err := a.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				opts = append(opts, server.WithStore(st))
			}
			return server.New(p, opts...).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Do not archive runs")
	return cmd
}
