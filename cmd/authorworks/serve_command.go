package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/authorworks/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int
	var schedule string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP export surface and optional scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("schedule") {
				cfg.Export.Schedule = schedule
			}
			return web.Serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Override SERVER_PORT")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Override EXPORT_SCHEDULE (cron expression)")

	return cmd
}
