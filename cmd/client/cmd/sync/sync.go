package sync

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fieldinspect/internal/app/client"
	"fieldinspect/internal/domain/sync"
)

var (
	watch      bool
	noProgress bool
)

const barTemplate = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }}`

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending records to the authority",
	Long: `Run one sync cycle: every pending, unconflicted record is pushed to the
authority. Records the server changed in the meantime become conflicts;
records that could not be sent stay pending for the next cycle.

With --watch the command keeps syncing periodically until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if watch {
			fmt.Fprintf(cmd.OutOrStdout(), "Syncing every %s, Ctrl+C to stop\n", app.Config.Sync.Interval)
			return app.Watch(ctx)
		}

		var bar *pb.ProgressBar
		var opts []sync.CycleOption
		if !noProgress {
			opts = append(opts, sync.WithProgress(func(done, total int) {
				if total == 0 {
					return
				}
				if bar == nil {
					bar = pb.New(total)
					bar.SetWriter(cmd.ErrOrStderr())
					bar.SetTemplate(barTemplate)
					bar.Set("prefix", "pushing")
					bar.Start()
				}
				bar.SetCurrent(int64(done))
			}))
		}

		res, err := app.Scheduler.Sync(ctx, opts...)
		if bar != nil {
			bar.Finish()
		}
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("sync: %w", err)
		}

		printResult(cmd.OutOrStdout(), res)

		st, stErr := app.Status.Status(cmd.Context())
		if stErr == nil {
			fmt.Fprintln(cmd.OutOrStdout(), st.String())
		}
		return nil
	},
}

func printResult(w io.Writer, res *sync.CycleResult) {
	if res == nil {
		return
	}
	if res.Total == 0 {
		fmt.Fprintln(w, "Nothing to push")
		return
	}

	fmt.Fprintf(w, "Pushed %d records in %s\n", res.Total, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  synced:    %s\n", color.GreenString("%d", res.Count(sync.OutcomeSynced)))
	if n := res.Count(sync.OutcomeConflict); n > 0 {
		fmt.Fprintf(w, "  conflicts: %s  (inspectctl conflicts list)\n", color.RedString("%d", n))
	}
	if n := res.Count(sync.OutcomePending) + res.Count(sync.OutcomeAdvanced); n > 0 {
		fmt.Fprintf(w, "  pending:   %s\n", color.YellowString("%d", n))
	}
	if res.AllFailed() {
		fmt.Fprintln(w, color.YellowString("The authority is unreachable, records are kept locally."))
	}
}

func init() {
	SyncCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep syncing until interrupted")
	SyncCmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")
}
