// Package schedule implements the schedule command that crawls due sources periodically.
package schedule

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aggregator/cmd/common"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
	"github.com/jonesrussell/north-cloud/aggregator/internal/scheduler"
)

// Command returns the schedule command.
func Command() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Crawl sources whose interval has elapsed, on a cron schedule",
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

			sched, err := scheduler.New(scheduler.Params{
				Lister:           rt.Store,
				Crawler:          rt.Service,
				Locker:           rt.Locker,
				Metrics:          rt.Metrics,
				Logger:           deps.Logger,
				Spec:             deps.Config.Scheduler.Spec,
				DispatchInterval: deps.Config.Scheduler.DispatchInterval,
			})
			if err != nil {
				return err
			}

			if once {
				crawled, runErr := sched.RunOnce(ctx)
				deps.Logger.Info("Sweep finished", logger.Int("crawled", crawled))
				return runErr
			}

			if err = sched.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single sweep and exit")
	return cmd
}
