package orchestrator

import (
	"github.com/google/uuid"

	"github.com/matzehuels/ondemand/pkg/completed"
	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/invoker"
	"github.com/matzehuels/ondemand/pkg/pom"
)

// Request is the session-scoped configuration of an orchestration call.
type Request struct {
	// LocalRepository is the Maven repository builds install into.
	LocalRepository string

	// ProjectsDirectory holds unpacked released sources.
	ProjectsDirectory string

	// Workspace holds working copies for latest-source builds.
	Workspace string

	// Prototype is cloned for every unit; only its base directory changes.
	Prototype invoker.Configuration

	// Rewrite holds the session-wide descriptor rewrite rules.
	Rewrite pom.Config

	// Completed carries successfully built units across calls of one
	// session. It is shared by reference and only ever grows.
	Completed completed.Set

	// Force rebuilds units already installed in LocalRepository.
	Force bool

	// UseLatestProjectSources builds snapshot units from working copies.
	UseLatestProjectSources bool

	// SessionID identifies the session in reports and shared stores.
	SessionID string
}

// ValidateAndSetDefaults checks the request and fills in a session id and
// an in-memory completed set when missing.
func (r *Request) ValidateAndSetDefaults() error {
	if r.LocalRepository != "" {
		if err := errors.ValidatePath("local repository", r.LocalRepository); err != nil {
			return err
		}
	}
	if r.ProjectsDirectory != "" {
		if err := errors.ValidatePath("projects directory", r.ProjectsDirectory); err != nil {
			return err
		}
	}
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	if r.Completed == nil {
		r.Completed = completed.NewMemory()
	}
	return nil
}
