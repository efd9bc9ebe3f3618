package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func cacheCmd(env *Env) *cobra.Command {
	c := &cobra.Command{
		Use:   "cache",
		Short: "Manage the gateway list cache",
	}

	c.AddCommand(cacheFlushCmd(env))
	c.AddCommand(cacheKeysCmd(env))
	return c
}

func cacheFlushCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Drop every cached list by starting a new generation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := env.Cache.Bump(cmd.Context())
			if err != nil {
				return fmt.Errorf("flush list cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "list cache generation is now %d\n", version)
			return nil
		},
	}
}

func cacheKeysCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the cached lists of the current generation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			version, err := env.Cache.Version(ctx)
			if err != nil {
				return fmt.Errorf("read cache generation: %w", err)
			}
			keys, err := env.Cache.Keys(ctx)
			if err != nil {
				return fmt.Errorf("scan list cache: %w", err)
			}
			sort.Strings(keys)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "generation %d, %d cached\n", version, len(keys))
			for _, k := range keys {
				fmt.Fprintf(out, "- %s\n", k)
			}
			return nil
		},
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
