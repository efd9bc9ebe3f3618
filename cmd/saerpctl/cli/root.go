// Package cli implements saerpctl, the operator tool for the gateway's backend link,
// refresh queue and list cache.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/southern-apparels/sa-erp/internal/app"
	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/listcache"
	"github.com/southern-apparels/sa-erp/jobs"
)

// Fetcher reaches the backend API.
type Fetcher interface {
	Fetch(ctx context.Context, path, token string) (json.RawMessage, error)
}

// CacheAdmin manages the list cache generation.
type CacheAdmin interface {
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
	Keys(ctx context.Context) ([]string, error)
}

// Env holds the collaborators every command works against.
type Env struct {
	BackendURL   string
	ServiceToken string
	Backend      Fetcher
	Inspector    jobs.QueueInspector
	Queue        jobs.Enqueuer
	Cache        CacheAdmin
}

// Execute runs the CLI against the environment configuration and returns the exit code.
func Execute() int {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}
	env, closeEnv := connect(cfg)
	defer closeEnv()

	if err := newRootCmd(env).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// connect builds lazy clients; nothing dials until a command needs it.
func connect(cfg *app.Config) (*Env, func()) {
	logger := app.NewLogger(cfg)
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	inspector := asynq.NewInspector(redisOpts)
	queue := jobs.NewClient(redisOpts)

	env := &Env{
		BackendURL:   cfg.BackendURL,
		ServiceToken: cfg.ServiceToken,
		Backend:      backend.NewClient(cfg.BackendURL, backend.NewHTTPClient(backend.Options{Timeout: cfg.ProxyTimeout}), logger),
		Inspector:    inspector,
		Queue:        queue,
		Cache:        listcache.New(redisClient, cfg.ListCacheTTL),
	}
	return env, func() {
		_ = queue.Close()
		_ = inspector.Close()
		_ = redisClient.Close()
	}
}

func newRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "saerpctl",
		Short:         "Operate the Southern Apparels ERP gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(backendCmd(env))
	root.AddCommand(jobsCmd(env))
	root.AddCommand(cacheCmd(env))
	return root
}
