// Package cli implements the ondemand command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ondemand/pkg/buildinfo"
	"github.com/matzehuels/ondemand/pkg/completed"
	"github.com/matzehuels/ondemand/pkg/config"
	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/orchestrator"
	"github.com/matzehuels/ondemand/pkg/pom"
	"github.com/matzehuels/ondemand/pkg/project"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for the service name and display.
	appName = "ondemand"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the TOML file read by every command. A missing file at
	// the default path falls back to the built-in defaults.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		ConfigPath: config.DefaultFile,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Build interdependent Maven projects in dependency order",
		Long: `ondemand builds a set of interdependent Maven projects one at a time,
dependencies first. It locates each project's sources, rewrites its pom.xml
parent for the build session, runs Maven and remembers what has been built
so repeated runs only retry what failed.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", c.ConfigPath, "configuration file")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.discoverCommand())
	root.AddCommand(c.completedCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration and Units
// =============================================================================

// loadConfig reads the configuration. An explicitly named file must exist.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.ConfigPath == config.DefaultFile {
		return config.LoadOrDefault(c.ConfigPath)
	}
	return config.Load(c.ConfigPath)
}

// loadUnits returns the configured units followed by those discovered under
// root (or the configured discover root when root is empty). A discovered
// unit whose key is already declared is dropped in favour of the declaration.
func (c *CLI) loadUnits(cfg *config.Config, root string) ([]*project.Unit, error) {
	units, err := cfg.Units()
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = cfg.Discover.Root
	}
	if root != "" {
		found, err := pom.Discover(config.ExpandHome(root), cfg.Discover.MaxDepth, func(path string, err error) {
			c.Logger.Warn("skipping descriptor", "path", path, "err", err)
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
		seen := make(map[string]bool, len(units))
		for _, u := range units {
			seen[u.Key().String()] = true
		}
		for _, u := range found {
			if key := u.Key().String(); !seen[key] {
				seen[key] = true
				units = append(units, u)
			}
		}
		c.Logger.Debug("discovered units", "root", root, "found", len(found))
	}
	if len(units) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no units: declare [[unit]] entries in %s or pass --discover", c.ConfigPath)
	}
	return units, nil
}

// =============================================================================
// Session Factory
// =============================================================================

// session bundles everything one orchestration call needs.
type session struct {
	orch  *orchestrator.Orchestrator
	req   *orchestrator.Request
	store completed.Set
	close func()
}

// openSession opens the completed set and report sinks for id, generating
// an id when it is empty.
func (c *CLI) openSession(ctx context.Context, cfg *config.Config, id string) (*session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	store, closeStore, err := cfg.OpenStore(ctx, id)
	if err != nil {
		return nil, err
	}
	sink, err := cfg.OpenSink(ctx)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	orch := orchestrator.New(nil, nil, nil, c.Logger)
	orch.Sink = sink

	req := cfg.Request()
	req.Completed = store
	req.SessionID = id

	return &session{
		orch:  orch,
		req:   req,
		store: store,
		close: func() {
			if sink != nil {
				if err := sink.Close(context.WithoutCancel(ctx)); err != nil {
					c.Logger.Warn("closing report sink", "err", err)
				}
			}
			if err := closeStore(); err != nil {
				c.Logger.Warn("closing completed set", "err", err)
			}
		},
	}, nil
}
