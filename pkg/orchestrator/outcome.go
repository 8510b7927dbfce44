package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/ondemand/pkg/buildinfo"
	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/invoker"
	"github.com/matzehuels/ondemand/pkg/report"
)

// FailureKind classifies why a unit failed.
type FailureKind string

const (
	FailureResolve FailureKind = "resolve" // no source directory
	FailureRewrite FailureKind = "rewrite" // on-disk descriptor rewrite failed
	FailureExit    FailureKind = "exit"    // build exited non-zero
	FailureLaunch  FailureKind = "launch"  // build could not be run
	FailureStore   FailureKind = "store"   // build passed but could not be recorded
)

// Outcome is the result of one unit's build attempt.
type Outcome struct {
	Unit     string // full ID, group:artifact:packaging:version
	Key      string // versionless key
	Success  bool
	ExitCode int
	Reason   string
	Kind     FailureKind
	Duration time.Duration
}

func resolveFailure(id, key string) Outcome {
	return Outcome{
		Unit:     id,
		Key:      key,
		ExitCode: invoker.LaunchFailure,
		Reason:   fmt.Sprintf("failed to resolve project sources for %s", id),
		Kind:     FailureResolve,
	}
}

func buildFailure(id, key string, res invoker.Result) Outcome {
	o := Outcome{
		Unit:     id,
		Key:      key,
		ExitCode: res.ExitCode,
		Reason:   fmt.Sprintf("Build for project: %s failed; exit code: %d", id, res.ExitCode),
		Kind:     FailureExit,
	}
	if res.Err != nil {
		o.Reason += " (" + res.Err.Error() + ")"
		o.Kind = FailureLaunch
	}
	return o
}

// Report collects the outcomes of one orchestration call in processing
// order.
type Report struct {
	SessionID string
	Mode      string
	Started   time.Time
	Finished  time.Time
	Skipped   []string
	Outcomes  []Outcome
}

// Failures returns the failed outcomes in processing order.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Built returns the keys of units built successfully.
func (r *Report) Built() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Success {
			out = append(out, o.Key)
		}
	}
	return out
}

// Err returns nil when every unit succeeded, and otherwise a BUILD_FAILED
// error with one line per failure.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	lines := make([]string, len(failures))
	for i, f := range failures {
		lines[i] = "  " + f.Reason
	}
	return errors.New(errors.ErrCodeBuildFailed, "%d of %d unit(s) failed:\n%s",
		len(failures), len(r.Outcomes), strings.Join(lines, "\n"))
}

// Record converts the report for a [report.Sink].
func (r *Report) Record() *report.Record {
	rec := &report.Record{
		SessionID: r.SessionID,
		Tool:      buildinfo.Short(),
		Mode:      r.Mode,
		Started:   r.Started,
		Finished:  r.Finished,
		Units:     make([]report.UnitRecord, len(r.Outcomes)),
		Failed:    len(r.Failures()),
	}
	for i, o := range r.Outcomes {
		rec.Units[i] = report.UnitRecord{
			Unit:       o.Unit,
			Key:        o.Key,
			Success:    o.Success,
			ExitCode:   o.ExitCode,
			Kind:       string(o.Kind),
			Reason:     o.Reason,
			DurationMS: o.Duration.Milliseconds(),
		}
	}
	return rec
}
