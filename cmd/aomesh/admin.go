package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/aomesh/internal/httpapi"
	"github.com/rmacdonaldsmith/aomesh/pkg/httpclient"
)

// adminOptions holds the flags shared by the admin subcommands
type adminOptions struct {
	*options
	server  string
	token   string
	timeout time.Duration
}

func newAdminCommand(opts *options) *cobra.Command {
	a := &adminOptions{options: opts}
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Inspect a running instance (requires an admin token)",
		Long: `Admin queries the HTTP diagnostics API of a running instance. Without
--token an admin token is minted from http.secret.`,
	}

	cmd.PersistentFlags().StringVar(&a.server, "server", "", "HTTP API URL (default http://<http.listen>)")
	cmd.PersistentFlags().StringVar(&a.token, "token", "", "Admin JWT")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "Request timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "subscriptions",
		Short: "List the subscribers of every signal",
		Args:  cobra.NoArgs,
		RunE:  a.run(runAdminSubscriptions),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pools",
		Short: "Show event pool usage",
		Args:  cobra.NoArgs,
		RunE:  a.run(runAdminPools),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "objects",
		Short: "Show active object statistics",
		Args:  cobra.NoArgs,
		RunE:  a.run(runAdminObjects),
	})

	return cmd
}

type adminFunc func(ctx context.Context, cmd *cobra.Command, client *httpclient.Client) error

// run resolves the server and token and then calls fn
func (a *adminOptions) run(fn adminFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		server, token := a.server, a.token
		if server == "" || token == "" {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			if server == "" {
				server = "http://" + cfg.HTTP.Listen
			}
			if token == "" {
				if cfg.HTTP.Secret == "" {
					return fmt.Errorf("--token is required when http.secret is not configured")
				}
				token, _, err = httpapi.NewJWTAuth(cfg.HTTP.Secret).GenerateToken(appName+"-cli", true, time.Minute)
				if err != nil {
					return fmt.Errorf("failed to generate token: %w", err)
				}
			}
		}

		client, err := httpclient.NewClient(httpclient.Config{
			ServerURL: server,
			Token:     token,
			Timeout:   a.timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
		defer cancel()
		return fn(ctx, cmd, client)
	}
}

func runAdminSubscriptions(ctx context.Context, cmd *cobra.Command, client *httpclient.Client) error {
	resp, err := client.AdminListSubscriptions(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(resp.Signals) == 0 {
		fmt.Fprintln(out, "No subscriptions")
		return nil
	}
	for _, s := range resp.Signals {
		prios := make([]string, len(s.Priorities))
		for i, p := range s.Priorities {
			prios[i] = fmt.Sprint(p)
		}
		fmt.Fprintf(out, "%-12s %3d  %s\n", s.Name, s.Signal, strings.Join(prios, ","))
	}
	fmt.Fprintf(out, "%d subscription(s)\n", resp.Total)
	return nil
}

func runAdminPools(ctx context.Context, cmd *cobra.Command, client *httpclient.Client) error {
	resp, err := client.AdminListPools(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %10s %7s %5s %8s\n", "POOL", "BLOCK SIZE", "BLOCKS", "FREE", "MIN FREE")
	for _, p := range resp.Pools {
		fmt.Fprintf(out, "%-4d %10d %7d %5d %8d\n", p.ID, p.BlockSize, p.Blocks, p.Free, p.MinFree)
	}
	return nil
}

func runAdminObjects(ctx context.Context, cmd *cobra.Command, client *httpclient.Client) error {
	resp, err := client.AdminListObjects(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s %4s %6s %9s %6s\n", "NAME", "PRIO", "QUEUED", "PROCESSED", "PANICS")
	for _, o := range resp.Objects {
		fmt.Fprintf(out, "%-16s %4d %6d %9d %6d\n", o.Name, o.Priority, o.Queued, o.Processed, o.Panics)
	}
	return nil
}
