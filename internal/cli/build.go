package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ondemand/pkg/config"
	"github.com/matzehuels/ondemand/pkg/observability"
)

// buildOpts holds the flags shared by the build and remove commands.
type buildOpts struct {
	session  string // session id; generated when empty
	discover string // directory scanned for pom.xml files
	force    bool   // rebuild units already in the local repository
	latest   bool   // build snapshot units from working copies
	pick     bool   // choose units interactively
	trace    bool   // print OpenTelemetry spans to stderr
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build units in dependency order",
		Long: `Build every unit after the units it depends on.

Units come from the [[unit]] entries of the configuration file and from
pom.xml files found with --discover. Units built successfully in the same
session are skipped, so running the command again retries only failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSession(cmd.Context(), opts, true)
		},
	}
	addBuildFlags(cmd, &opts)
	return cmd
}

// removeCommand creates the remove command.
func (c *CLI) removeCommand() *cobra.Command {
	var opts buildOpts
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Process units in reverse dependency order",
		Long: `Process every unit before the units it depends on, the order needed to
tear a stack down. Configure the goals to run with [build] goals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSession(cmd.Context(), opts, false)
		},
	}
	addBuildFlags(cmd, &opts)
	return cmd
}

func addBuildFlags(cmd *cobra.Command, opts *buildOpts) {
	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "session id shared by repeated runs (default: random)")
	cmd.Flags().StringVarP(&opts.discover, "discover", "d", "", "also build the pom.xml files found under this directory")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "rebuild units already in the local repository")
	cmd.Flags().BoolVar(&opts.latest, "latest", false, "build snapshot units from working copies")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose units interactively")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print OpenTelemetry spans to stderr")
}

// runSession performs one orchestration call and prints its summary.
func (c *CLI) runSession(ctx context.Context, opts buildOpts, bottomFirst bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	units, err := c.loadUnits(cfg, opts.discover)
	if err != nil {
		return err
	}
	if opts.pick {
		if units, err = pickUnits(units); err != nil {
			return err
		}
		if len(units) == 0 {
			printInfo("No units selected")
			return nil
		}
	}

	if opts.trace {
		shutdown, err := observability.InitTracer(ctx, appName, os.Stderr)
		if err != nil {
			return err
		}
		observability.SetBuildHooks(observability.NewTracingHooks())
		defer func() {
			observability.Reset()
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				loggerFromContext(ctx).Warn("flushing traces", "err", err)
			}
		}()
	}

	s, err := c.openSession(ctx, cfg, opts.session)
	if err != nil {
		return err
	}
	defer s.close()

	s.req.Force = s.req.Force || opts.force
	s.req.UseLatestProjectSources = s.req.UseLatestProjectSources || opts.latest

	prog := newProgress(c.Logger)
	rep, err := s.orch.Run(ctx, units, s.req, bottomFirst)
	if rep == nil {
		return err
	}
	prog.done(fmt.Sprintf("Session %s finished", s.req.SessionID))

	printNewline()
	printSummary(rep)
	if err != nil {
		printNewline()
		if cfg.Store.Backend == config.BackendMemory {
			printDetail("Completed units are only kept in memory; set [store] backend = %q to skip them on retry", config.BackendFile)
		}
		printNextStep("Retry the failed units", retryCommand(s.req.SessionID, opts, bottomFirst))
	}
	return err
}

// retryCommand suggests the invocation that resumes session id.
func retryCommand(id string, opts buildOpts, bottomFirst bool) string {
	verb := "build"
	if !bottomFirst {
		verb = "remove"
	}
	cmd := fmt.Sprintf("%s %s --session %s", appName, verb, id)
	if opts.discover != "" {
		cmd += " --discover " + opts.discover
	}
	if opts.force {
		cmd += " --force"
	}
	if opts.latest {
		cmd += " --latest"
	}
	return cmd
}
