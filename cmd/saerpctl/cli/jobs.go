package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/southern-apparels/sa-erp/internal/querykeys"
	"github.com/southern-apparels/sa-erp/jobs"
)

func jobsCmd(env *Env) *cobra.Command {
	c := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and feed the list refresh queue",
	}

	c.AddCommand(jobsStatsCmd(env))
	c.AddCommand(jobsRefreshCmd(env))
	return c
}

func jobsStatsCmd(env *Env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue depth and totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := jobs.Stats(env.Inspector)
			if err != nil {
				return fmt.Errorf("queue stats: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "queue\t%s\n", stats.Queue)
			fmt.Fprintf(tw, "pending\t%d\n", stats.Pending)
			fmt.Fprintf(tw, "scheduled\t%d\n", stats.Scheduled)
			fmt.Fprintf(tw, "retry\t%d\n", stats.Retry)
			fmt.Fprintf(tw, "archived\t%d\n", stats.Archived)
			fmt.Fprintf(tw, "processed\t%d\n", stats.Processed)
			fmt.Fprintf(tw, "failed\t%d\n", stats.Failed)
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func jobsRefreshCmd(env *Env) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "refresh [list-key...]",
		Short:   "Queue a reload of cached lists",
		Example: "  saerpctl jobs refresh sample-tna-list buyers-list\n  saerpctl jobs refresh --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				_, err := env.Queue.EnqueueContext(cmd.Context(), jobs.NewWarmTask(), asynq.Queue(jobs.QueueDefault))
				if err != nil {
					return fmt.Errorf("queue warm-up: %w", err)
				}
				fmt.Fprintln(out, "queued warm-up of every list")
				return nil
			}
			if len(args) == 0 {
				return errors.New("name at least one list key or pass --all")
			}

			payloads := make([]jobs.RefreshPayload, 0, len(args))
			for _, arg := range args {
				path, ok := querykeys.ListPath(querykeys.Key(arg))
				if !ok {
					return fmt.Errorf("unknown list key %q", arg)
				}
				payloads = append(payloads, jobs.RefreshPayload{Key: arg, Path: path})
			}
			for _, payload := range payloads {
				task, err := jobs.NewRefreshTask(payload)
				if err != nil {
					return err
				}
				_, err = env.Queue.EnqueueContext(cmd.Context(), task, jobs.RefreshOptions(0)...)
				switch {
				case errors.Is(err, asynq.ErrDuplicateTask):
					fmt.Fprintf(out, "%s already queued\n", payload.Key)
				case err != nil:
					return fmt.Errorf("queue %s: %w", payload.Key, err)
				default:
					fmt.Fprintf(out, "queued %s\n", payload.Key)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Warm every list")
	return cmd
}
