package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ondemand/pkg/completed"
	"github.com/matzehuels/ondemand/pkg/config"
	"github.com/matzehuels/ondemand/pkg/errors"
)

// completedCommand creates the completed set management command.
func (c *CLI) completedCommand() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "completed",
		Short: "Inspect or clear the units completed in a session",
	}
	cmd.PersistentFlags().StringVarP(&id, "session", "s", "", "session id (required for the redis backend)")

	cmd.AddCommand(c.completedListCommand(&id))
	cmd.AddCommand(c.completedClearCommand(&id))
	return cmd
}

// completedListCommand creates the "completed list" subcommand.
func (c *CLI) completedListCommand(id *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List completed unit keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openCompleted(ctx, *id)
			if err != nil {
				return err
			}
			defer s.close()

			keys, err := s.store.Keys(ctx)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				printInfo("No completed units")
				return nil
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			printKeyValue("Store", storeName(s.store))
			return nil
		},
	}
}

// completedClearCommand creates the "completed clear" subcommand.
func (c *CLI) completedClearCommand(id *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all completed units so the next build starts over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openCompleted(ctx, *id)
			if err != nil {
				return err
			}
			defer s.close()

			keys, err := s.store.Keys(ctx)
			if err != nil {
				return err
			}
			if err := s.store.Clear(ctx); err != nil {
				return err
			}
			printSuccess("Cleared %d completed units", len(keys))
			printDetail("Store: %s", storeName(s.store))
			return nil
		},
	}
}

// openCompleted opens the configured completed set. A shared backend needs
// the session id; the local ones ignore it.
func (c *CLI) openCompleted(ctx context.Context, id string) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Backend == config.BackendRedis && id == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--session is required with the %s backend", config.BackendRedis)
	}
	return c.openSession(ctx, cfg, id)
}

// storeName describes where a completed set lives.
func storeName(s completed.Set) string {
	switch v := s.(type) {
	case *completed.FileSet:
		return v.Path()
	case *completed.RedisSet:
		return v.String()
	}
	return "memory"
}
