// Package invoker launches Maven builds.
//
// A [Configuration] describes one invocation. The orchestrator keeps a
// prototype configuration per session and clones it for every unit, setting
// only the base directory, so per-unit changes never leak into the next
// build.
package invoker

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ondemand/pkg/pom"
)

// DefaultExecutable is launched when a configuration names none.
const DefaultExecutable = "mvn"

// LaunchFailure is the exit code reported when the build could not be
// started or did not exit normally.
const LaunchFailure = -1

// Configuration describes one build invocation.
type Configuration struct {
	BaseDirectory   string
	Executable      string
	Goals           []string
	Profiles        []string
	Properties      map[string]string
	LocalRepository string
	Offline         bool
	Batch           bool
	Env             map[string]string

	Stdout io.Writer
	Stderr io.Writer
}

// Clone returns a copy that shares no slices or maps with c. Output
// writers are shared.
func (c Configuration) Clone() Configuration {
	out := c
	out.Goals = slices.Clone(c.Goals)
	out.Profiles = slices.Clone(c.Profiles)
	out.Properties = maps.Clone(c.Properties)
	out.Env = maps.Clone(c.Env)
	return out
}

// Args returns the command line arguments, without the executable.
// Properties are emitted in key order.
func (c Configuration) Args() []string {
	var args []string
	if c.BaseDirectory != "" {
		args = append(args, "-f", filepath.Join(c.BaseDirectory, pom.FileName))
	}
	if c.Batch {
		args = append(args, "-B")
	}
	if c.Offline {
		args = append(args, "-o")
	}
	if len(c.Profiles) > 0 {
		args = append(args, "-P", strings.Join(c.Profiles, ","))
	}
	for _, k := range slices.Sorted(maps.Keys(c.Properties)) {
		args = append(args, "-D"+k+"="+c.Properties[k])
	}
	if c.LocalRepository != "" {
		args = append(args, "-Dmaven.repo.local="+c.LocalRepository)
	}
	return append(args, c.Goals...)
}

// Result is the outcome of one invocation. ExitCode is the process exit
// status, or [LaunchFailure] with Err set when the process never ran to
// completion.
type Result struct {
	ExitCode int
	Err      error
}

// Success reports whether the build exited with status 0.
func (r Result) Success() bool { return r.Err == nil && r.ExitCode == 0 }

// Invoker runs builds. Execute blocks until the build exits.
type Invoker interface {
	Execute(ctx context.Context, cfg Configuration) Result
}

// ExecInvoker runs the configured executable as a child process.
type ExecInvoker struct {
	Logger *log.Logger
}

// NewExecInvoker creates an invoker that logs to logger (log.Default() if nil).
func NewExecInvoker(logger *log.Logger) *ExecInvoker {
	if logger == nil {
		logger = log.Default()
	}
	return &ExecInvoker{Logger: logger}
}

// Execute implements [Invoker]. The process is killed when ctx is cancelled.
func (e *ExecInvoker) Execute(ctx context.Context, cfg Configuration) Result {
	executable := cfg.Executable
	if executable == "" {
		executable = DefaultExecutable
	}
	args := cfg.Args()

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = cfg.BaseDirectory
	cmd.Stdout = cfg.Stdout
	cmd.Stderr = cfg.Stderr
	if len(cfg.Env) > 0 {
		env := os.Environ()
		for _, k := range slices.Sorted(maps.Keys(cfg.Env)) {
			env = append(env, fmt.Sprintf("%s=%s", k, cfg.Env[k]))
		}
		cmd.Env = env
	}

	e.Logger.Debug("invoking build", "dir", cfg.BaseDirectory, "cmd", executable+" "+strings.Join(args, " "))

	err := cmd.Run()
	if err == nil {
		return Result{}
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) && exitErr.ExitCode() >= 0 && ctx.Err() == nil {
		return Result{ExitCode: exitErr.ExitCode()}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return Result{ExitCode: LaunchFailure, Err: fmt.Errorf("launch %s: %w", executable, err)}
}

var _ Invoker = (*ExecInvoker)(nil)
