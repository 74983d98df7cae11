// Package serve implements the serve command that runs the HTTP API.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aggregator/cmd/common"
	"github.com/jonesrussell/north-cloud/aggregator/internal/api"
	"github.com/jonesrussell/north-cloud/aggregator/internal/scheduler"
)

// Command returns the serve command.
func Command() *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			rt, err := common.NewRuntime(ctx, deps)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if withScheduler {
				sched, schedErr := newScheduler(rt)
				if schedErr != nil {
					return schedErr
				}
				if startErr := sched.Start(ctx); startErr != nil {
					return startErr
				}
				defer sched.Stop()
			}

			handler := api.NewCrawlHandler(rt.Service, rt.Crawler, rt.Store, rt.Locker, deps.Logger)
			router := api.SetupRouter(api.RouterParams{
				Handler:  handler,
				Gatherer: rt.Registry,
				Logger:   deps.Logger,
				Debug:    deps.Config.App.Debug,
			})

			return run(ctx, api.NewServer(deps.Config.Server, router, deps.Logger))
		},
	}

	cmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the periodic scheduler")
	return cmd
}

func run(ctx context.Context, srv *api.Server) error {
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func newScheduler(rt *common.Runtime) (*scheduler.Scheduler, error) {
	return scheduler.New(scheduler.Params{
		Lister:           rt.Store,
		Crawler:          rt.Service,
		Locker:           rt.Locker,
		Metrics:          rt.Metrics,
		Logger:           rt.Logger,
		Spec:             rt.Config.Scheduler.Spec,
		DispatchInterval: rt.Config.Scheduler.DispatchInterval,
	})
}
