package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/routes"
)

func backendCmd(env *Env) *cobra.Command {
	c := &cobra.Command{
		Use:   "backend",
		Short: "Inspect the ERP backend link",
	}

	c.AddCommand(backendPingCmd(env))
	return c
}

func backendPingCmd(env *Env) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel func()
				ctx, cancel = withTimeout(ctx, timeout)
				defer cancel()
			}

			start := time.Now()
			_, err := env.Backend.Fetch(ctx, routes.AuthMe, env.ServiceToken)
			status, reachable := pingOutcome(err)
			if !reachable {
				return fmt.Errorf("backend %s unreachable: %w", env.BackendURL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend %s reachable (HTTP %d) in %s\n",
				env.BackendURL, status, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up after this long")
	return cmd
}

// pingOutcome treats any answer below 500 as proof of life; an auth rejection still
// means the backend is up.
func pingOutcome(err error) (int, bool) {
	if err == nil {
		return 200, true
	}
	if errors.Is(err, backend.ErrUnavailable) {
		return 0, false
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return apiErr.Status, true
	}
	return 0, false
}
