package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run a single background job pass",
	Long: `Run one pass of a background job and print its counts as JSON. Intended for
cron or a Kubernetes CronJob; the jobs take the same locks as the in-process
scheduler, so overlapping runs are safe.`,
}

func init() {
	jobsCmd.AddCommand(
		jobCommand("domestic-sync", "Poll the courier for every booked domestic shipment",
			func(ctx context.Context, a *app) (any, error) { return a.domesticSync.Run(ctx) }),
		jobCommand("international-simulation", "Advance every international shipment by one step",
			func(ctx context.Context, a *app) (any, error) { return a.simulation.Run(ctx) }),
		jobCommand("stuck-detection", "Flag domestic shipments older than 48 hours",
			func(ctx context.Context, a *app) (any, error) { return a.stuck.Run(ctx) }),
	)
}

func jobCommand(name, short string, run func(ctx context.Context, a *app) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			res, err := run(ctx, a)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
