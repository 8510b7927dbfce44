package orchestrator

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ondemand/pkg/completed"
	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/observability"
	"github.com/matzehuels/ondemand/pkg/pom"
	"github.com/matzehuels/ondemand/pkg/project"
)

// CandidateResolver selects the units an orchestration call builds.
type CandidateResolver struct {
	Completed       completed.Set
	LocalRepository string
	Force           bool
	Logger          *log.Logger
}

// Candidates returns the units of units still to be built, in input
// order, and the keys of the skipped ones. Units in the completed set are
// always skipped. Released units whose POM is already installed in the
// local repository are skipped unless Force is set.
func (c *CandidateResolver) Candidates(ctx context.Context, units []*project.Unit) ([]*project.Unit, []string, error) {
	var out []*project.Unit
	var skipped []string

	for _, u := range units {
		key := u.Key().String()
		done, err := c.Completed.Contains(ctx, key)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeStore, err, "check completed set for %s", key)
		}
		observability.Store().OnLookup(ctx, key, done)
		if done {
			c.Logger.Debug("skipping completed unit", "unit", u.ID())
			skipped = append(skipped, key)
			continue
		}
		if !c.Force && c.installed(u) {
			c.Logger.Debug("skipping installed unit", "unit", u.ID())
			skipped = append(skipped, key)
			continue
		}
		out = append(out, u)
	}
	return out, skipped, nil
}

func (c *CandidateResolver) installed(u *project.Unit) bool {
	if c.LocalRepository == "" || u.IsSnapshot() || u.Version == "" {
		return false
	}
	_, err := os.Stat(pom.RepositoryPath(c.LocalRepository, u.Key(), u.Version, "pom"))
	return err == nil
}
