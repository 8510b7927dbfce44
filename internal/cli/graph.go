package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ondemand/pkg/reactor"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	output   string
	format   string
	discover string
	session  string
	detailed bool
}

// graphCommand creates the graph command for exporting the build graph.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatDOT}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the build graph as DOT or SVG",
		Long: `Export the build graph of all configured units.

Edges point from a unit to the units it needs built first. With --session,
units already completed in that session are drawn dashed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return fmt.Errorf("invalid format: %s (must be %s or %s)", opts.format, formatDOT, formatSVG)
			}
			return c.runGraph(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "F", opts.format, "output format: dot (default), svg")
	cmd.Flags().StringVarP(&opts.discover, "discover", "d", "", "also include the pom.xml files found under this directory")
	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "mark units completed in this session")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show packaging and version in node labels")
	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts graphOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	units, err := c.loadUnits(cfg, opts.discover)
	if err != nil {
		return err
	}
	g, err := reactor.Build(units)
	if err != nil {
		return err
	}

	dotOpts := reactor.DOTOptions{Detailed: opts.detailed}
	if opts.session != "" {
		s, err := c.openSession(ctx, cfg, opts.session)
		if err != nil {
			return err
		}
		defer s.close()
		keys, err := s.store.Keys(ctx)
		if err != nil {
			return err
		}
		dotOpts.Completed = make(map[string]bool, len(keys))
		for _, k := range keys {
			dotOpts.Completed[k] = true
		}
	}

	dot, err := g.DOT(dotOpts)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("build graph", "units", g.Len(), "edges", g.EdgeCount())
	data := []byte(dot)
	if opts.format == formatSVG {
		spinner := newSpinnerWithContext(ctx, os.Stderr, "Rendering SVG...")
		spinner.Start()
		data, err = reactor.RenderSVG(ctx, dot)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return err
		}
		spinner.Stop()
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Graph exported")
	printStats(g.Len(), g.EdgeCount(), 0)
	printFile(opts.output)
	return nil
}
