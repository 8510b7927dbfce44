// Package orchestrator builds a set of interdependent Maven projects in
// dependency order.
//
// One orchestration call filters the candidate units, orders them with
// [reactor], checks the descriptor rewrite for the whole set, and then
// builds the units one at a time. For each unit it resolves a source
// directory, rewrites that directory's pom.xml for the unit and runs the
// build. A unit that fails does not stop the others; all failures are
// reported together at the end. Units that build successfully are added to
// the request's completed set, so later calls of the same session skip them
// while failed units are retried.
//
// Duplicate units, dependency cycles and a failed bulk rewrite abort the
// call before anything is built.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ondemand/pkg/completed"
	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/invoker"
	"github.com/matzehuels/ondemand/pkg/observability"
	"github.com/matzehuels/ondemand/pkg/pom"
	"github.com/matzehuels/ondemand/pkg/project"
	"github.com/matzehuels/ondemand/pkg/reactor"
	"github.com/matzehuels/ondemand/pkg/report"
	"github.com/matzehuels/ondemand/pkg/source"
)

// Orchestrator runs build sessions. It keeps no state between calls
// except what the request carries, so one Orchestrator can serve many
// sessions, though not concurrently for the same completed set.
type Orchestrator struct {
	Resolver source.Resolver
	Rewriter pom.Rewriter
	Invoker  invoker.Invoker

	// Sink receives the report of every call when set. Sink errors are
	// logged and never fail the call.
	Sink report.Sink

	Logger *log.Logger
}

// New creates an orchestrator. Nil collaborators are replaced by the
// filesystem and exec implementations; a nil logger discards output.
func New(resolver source.Resolver, rewriter pom.Rewriter, inv invoker.Invoker, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if resolver == nil {
		resolver = source.NewDirResolver(logger)
	}
	if rewriter == nil {
		rewriter = pom.NewFileRewriter(logger)
	}
	if inv == nil {
		inv = invoker.NewExecInvoker(logger)
	}
	return &Orchestrator{
		Resolver: resolver,
		Rewriter: rewriter,
		Invoker:  inv,
		Logger:   logger,
	}
}

// ProcessDependencies builds units in dependency order, or tears them down
// in the opposite order when buildBottomFirst is false. It returns nil when
// every candidate succeeded.
func (o *Orchestrator) ProcessDependencies(ctx context.Context, units []*project.Unit, req *Request, buildBottomFirst bool) error {
	_, err := o.Run(ctx, units, req, buildBottomFirst)
	return err
}

// Run is [Orchestrator.ProcessDependencies] returning the session report as
// well. The report is nil only when the call failed before building.
func (o *Orchestrator) Run(ctx context.Context, units []*project.Unit, req *Request, buildBottomFirst bool) (*Report, error) {
	if err := req.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	rep := &Report{SessionID: req.SessionID, Mode: "build", Started: time.Now()}
	if !buildBottomFirst {
		rep.Mode = "remove"
	}

	// Step 1: candidates
	resolver := &CandidateResolver{
		Completed:       req.Completed,
		LocalRepository: req.LocalRepository,
		Force:           req.Force,
		Logger:          o.Logger,
	}
	candidates, skipped, err := resolver.Candidates(ctx, units)
	if err != nil {
		return nil, err
	}
	rep.Skipped = skipped

	// Step 2: graph and order
	g, err := reactor.Build(candidates)
	if err != nil {
		return nil, err
	}
	ordered, err := g.Order()
	if err != nil {
		return nil, err
	}
	if !buildBottomFirst {
		ordered = reactor.Reverse(ordered)
	}

	// Step 3: bulk rewrite, nothing touches disk yet
	if req.Rewrite.IsEmpty() {
		for i, u := range ordered {
			ordered[i] = u.Clone()
		}
	} else {
		ordered, err = o.Rewriter.Rewrite(ctx, ordered, req.Rewrite, req.LocalRepository)
		if err != nil {
			if !errors.Is(err, errors.ErrCodeRewriteFailed) {
				err = errors.Wrap(errors.ErrCodeRewriteFailed, err, "rewrite descriptors")
			}
			return nil, err
		}
	}

	o.Logger.Info("starting build session",
		"session", req.SessionID,
		"mode", rep.Mode,
		"units", len(ordered),
		"skipped", len(skipped))

	hooks := observability.Build()
	sctx := hooks.OnSessionStart(ctx, req.SessionID, len(ordered))

	// Step 4: build one unit at a time
	var interrupted error
	for i, u := range ordered {
		if err := ctx.Err(); err != nil {
			interrupted = fmt.Errorf("build session interrupted before %s (%d of %d units attempted): %w",
				u.ID(), i, len(ordered), err)
			o.Logger.Warn("build session interrupted", "next", u.ID())
			break
		}
		rep.Outcomes = append(rep.Outcomes, o.processUnit(sctx, u, req))
	}

	rep.Finished = time.Now()
	failures := len(rep.Failures())
	hooks.OnSessionComplete(sctx, req.SessionID, failures, rep.Finished.Sub(rep.Started))
	o.save(ctx, rep)

	o.Logger.Info("build session finished",
		"session", req.SessionID,
		"built", len(rep.Outcomes)-failures,
		"failed", failures,
		"duration", rep.Finished.Sub(rep.Started).Round(time.Millisecond))

	buildErr := rep.Err()
	switch {
	case interrupted != nil && buildErr != nil:
		return rep, fmt.Errorf("%w\n%w", interrupted, buildErr)
	case interrupted != nil:
		return rep, interrupted
	}
	return rep, buildErr
}

func (o *Orchestrator) processUnit(ctx context.Context, u *project.Unit, req *Request) Outcome {
	id, key := u.ID(), u.Key().String()
	start := time.Now()

	hooks := observability.Build()
	uctx := hooks.OnUnitStart(ctx, key)

	out := o.buildUnit(uctx, u, req)
	out.Duration = time.Since(start)

	var hookErr error
	if !out.Success {
		hookErr = errors.New(errors.ErrCodeBuildFailed, "%s", out.Reason)
		o.Logger.Error("unit failed", "unit", id, "kind", out.Kind, "exit", out.ExitCode)
	}
	hooks.OnUnitComplete(uctx, key, out.Success, out.Duration, hookErr)
	return out
}

func (o *Orchestrator) buildUnit(ctx context.Context, u *project.Unit, req *Request) Outcome {
	id, key := u.ID(), u.Key().String()
	latest := req.UseLatestProjectSources && u.IsSnapshot()

	// a. sources and the unit's own rewrite directive
	var (
		dir string
		err error
	)
	if latest {
		dir, err = o.Resolver.ResolveLatestProjectSources(ctx, u, source.LatestRequest{
			Workspace:       req.Workspace,
			LocalRepository: req.LocalRepository,
		})
	} else {
		dir, err = o.Resolver.ResolveProjectSources(ctx, u, req.ProjectsDirectory, req.LocalRepository)
	}
	directive := DirectiveFor(u, req.Rewrite, latest)

	// b. unresolved sources
	if err != nil || dir == "" {
		out := resolveFailure(id, key)
		if err != nil {
			out.Reason += ": " + err.Error()
		}
		return out
	}

	// c. per-unit configuration
	cfg := req.Prototype.Clone()
	cfg.BaseDirectory = dir

	// d. materialise the rewrite on this copy of the sources
	if !req.Rewrite.IsEmpty() && !directive.IsEmpty() {
		o.Logger.Debug("rewriting descriptor", "unit", id, "directive", directive.String())
		if err := o.Rewriter.RewriteOnDisk(filepath.Join(dir, pom.FileName), directive); err != nil {
			return Outcome{
				Unit:     id,
				Key:      key,
				ExitCode: invoker.LaunchFailure,
				Reason:   fmt.Sprintf("failed to rewrite descriptor for %s: %v", id, err),
				Kind:     FailureRewrite,
			}
		}
	}

	// e. build
	o.Logger.Info("building", "unit", id, "dir", dir)
	return o.BuildProject(ctx, u, cfg, req.Completed)
}

// BuildProject builds one unit with cfg and adds its key to done when the
// build succeeds. A failed unit never enters done.
func (o *Orchestrator) BuildProject(ctx context.Context, u *project.Unit, cfg invoker.Configuration, done completed.Set) Outcome {
	id, key := u.ID(), u.Key().String()
	start := time.Now()

	res := o.Invoker.Execute(ctx, cfg)
	if !res.Success() {
		out := buildFailure(id, key, res)
		out.Duration = time.Since(start)
		return out
	}

	out := Outcome{Unit: id, Key: key, Success: true, Duration: time.Since(start)}
	if err := done.Add(ctx, key); err != nil {
		out.Success = false
		out.Kind = FailureStore
		out.Reason = fmt.Sprintf("Build for project: %s succeeded but could not be recorded: %v", id, err)
		return out
	}
	observability.Store().OnAdd(ctx, key)
	o.Logger.Info("built", "unit", id, "duration", out.Duration.Round(time.Millisecond))
	return out
}

// DirectiveFor computes the on-disk rewrite of one unit. In latest mode a
// unit without a parent, or with an archive placeholder parent, is pointed
// at the working-set parent; otherwise the unit's own (possibly
// session-overridden) parent is written back. A unit without a parent gets
// an empty directive.
func DirectiveFor(u *project.Unit, cfg pom.Config, latest bool) pom.Directive {
	if latest && (u.Parent == nil || cfg.IsArchiveParent(u.Parent.ArtifactID)) {
		ws := cfg.WorkingSetParent
		return pom.Directive{
			ParentGroupID:    ws.GroupID,
			ParentArtifactID: ws.ArtifactID,
			ParentVersion:    ws.Version,
		}
	}
	if u.Parent == nil {
		return pom.Directive{}
	}
	return pom.Directive{
		ParentGroupID:    u.Parent.GroupID,
		ParentArtifactID: u.Parent.ArtifactID,
		ParentVersion:    u.ParentVersion,
	}
}

func (o *Orchestrator) save(ctx context.Context, rep *Report) {
	if o.Sink == nil {
		return
	}
	if err := o.Sink.Save(context.WithoutCancel(ctx), rep.Record()); err != nil {
		o.Logger.Error("failed to save build report", "session", rep.SessionID, "err", err)
	}
}
