package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ondemand/pkg/orchestrator"
	"github.com/matzehuels/ondemand/pkg/project"
	"github.com/matzehuels/ondemand/pkg/reactor"
)

// orderOpts holds the flags of the order command.
type orderOpts struct {
	session  string
	discover string
	remove   bool
	force    bool
}

// orderCommand creates the order command, a dry run of build and remove.
func (c *CLI) orderCommand() *cobra.Command {
	var opts orderOpts
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the order units would be processed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrder(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "skip units completed in this session")
	cmd.Flags().StringVarP(&opts.discover, "discover", "d", "", "also include the pom.xml files found under this directory")
	cmd.Flags().BoolVar(&opts.remove, "remove", false, "print the reverse order used by remove")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "include units already in the local repository")
	return cmd
}

func (c *CLI) runOrder(ctx context.Context, opts orderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	units, err := c.loadUnits(cfg, opts.discover)
	if err != nil {
		return err
	}

	s, err := c.openSession(ctx, cfg, opts.session)
	if err != nil {
		return err
	}
	defer s.close()
	s.req.Force = s.req.Force || opts.force

	ordered, skipped, err := c.orderedUnits(ctx, units, s.req, !opts.remove)
	if err != nil {
		return err
	}

	for i, u := range ordered {
		fmt.Printf("%3d  %s\n", i+1, u.ID())
	}
	for _, key := range skipped {
		printDetail("skipped %s", key)
	}
	return nil
}

// orderedUnits drops completed and installed units and orders the rest,
// reversed when bottomFirst is false.
func (c *CLI) orderedUnits(ctx context.Context, units []*project.Unit, req *orchestrator.Request, bottomFirst bool) ([]*project.Unit, []string, error) {
	if err := req.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	resolver := &orchestrator.CandidateResolver{
		Completed:       req.Completed,
		LocalRepository: req.LocalRepository,
		Force:           req.Force,
		Logger:          c.Logger,
	}
	candidates, skipped, err := resolver.Candidates(ctx, units)
	if err != nil {
		return nil, nil, err
	}
	g, err := reactor.Build(candidates)
	if err != nil {
		return nil, nil, err
	}
	ordered, err := g.Order()
	if err != nil {
		return nil, nil, err
	}
	if !bottomFirst {
		ordered = reactor.Reverse(ordered)
	}
	return ordered, skipped, nil
}
