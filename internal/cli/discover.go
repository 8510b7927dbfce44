package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ondemand/pkg/config"
	"github.com/matzehuels/ondemand/pkg/pom"
)

// discoverCommand creates the discover command, which lists the units a
// directory tree would contribute to a build.
func (c *CLI) discoverCommand() *cobra.Command {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "discover [dir]",
		Short: "List the units found under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			var broken []string
			spinner := newSpinnerWithContext(cmd.Context(), os.Stderr, "Scanning "+root+"...")
			spinner.Start()
			units, err := pom.Discover(config.ExpandHome(root), maxDepth, func(path string, err error) {
				broken = append(broken, fmt.Sprintf("%s: %v", path, err))
			})
			spinner.Stop()
			if err != nil {
				return err
			}
			for _, b := range broken {
				printWarning("%s", b)
			}
			if len(units) == 0 {
				printInfo("No %s found under %s", pom.FileName, root)
				return nil
			}

			for _, u := range units {
				printInfo("%s", u.ID())
				if u.Parent != nil {
					printDetail("parent %s:%s", u.Parent, u.ParentVersion)
				}
				if len(u.Dependencies) > 0 {
					printDetail("%d dependencies", len(u.Dependencies))
				}
				printFile(u.Descriptor)
			}
			printNewline()
			printSuccess("Found %d units", len(units))
			if len(broken) > 0 {
				printWarning("%d descriptors could not be read", len(broken))
			}
			printNextStep("Build them", appName+" build --discover "+root)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "directories to descend below the root (-1: unlimited)")
	return cmd
}
