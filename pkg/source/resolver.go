// Package source locates the directory holding a unit's sources before it
// is built.
//
// Two modes exist. Latest sources come from a working copy, which is what a
// developer edits; released sources come from an unpacked source release or
// a sources directory in the local Maven repository. A resolver returns the
// empty string when it found nothing, and an error only when looking failed.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ondemand/pkg/pom"
	"github.com/matzehuels/ondemand/pkg/project"
)

// LatestRequest carries the settings for latest-source resolution.
type LatestRequest struct {
	// Workspace is the working-copy root holding one directory per artifactId.
	Workspace string

	// LocalRepository is the local Maven repository of the session.
	LocalRepository string
}

// Resolver finds source directories for units.
type Resolver interface {
	// ResolveLatestProjectSources returns the working-copy directory of u.
	ResolveLatestProjectSources(ctx context.Context, u *project.Unit, req LatestRequest) (string, error)

	// ResolveProjectSources returns the released source directory of u.
	ResolveProjectSources(ctx context.Context, u *project.Unit, projectsDir, localRepository string) (string, error)
}

// DirResolver resolves sources from directories already on disk. A
// directory only counts when it contains a pom.xml.
type DirResolver struct {
	Logger *log.Logger
}

// NewDirResolver creates a resolver that logs to logger (log.Default() if nil).
func NewDirResolver(logger *log.Logger) *DirResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &DirResolver{Logger: logger}
}

// ResolveLatestProjectSources implements [Resolver]. It tries, in order,
// <workspace>/<artifactId>, the directory of the unit's descriptor, and the
// unit's source hint when that names a local directory.
func (r *DirResolver) ResolveLatestProjectSources(ctx context.Context, u *project.Unit, req LatestRequest) (string, error) {
	var candidates []string
	if req.Workspace != "" {
		candidates = append(candidates, filepath.Join(req.Workspace, u.ArtifactID))
	}
	if u.Descriptor != "" {
		candidates = append(candidates, filepath.Dir(u.Descriptor))
	}
	if hint := localHint(u.SourceHint); hint != "" {
		candidates = append(candidates, hint)
	}
	return r.first(ctx, u, candidates)
}

// ResolveProjectSources implements [Resolver]. It tries, in order,
// <projectsDir>/<artifactId>-<version>, <projectsDir>/<artifactId> and
// <localRepository>/<group path>/<artifactId>/<version>/sources.
func (r *DirResolver) ResolveProjectSources(ctx context.Context, u *project.Unit, projectsDir, localRepository string) (string, error) {
	var candidates []string
	if projectsDir != "" {
		candidates = append(candidates,
			filepath.Join(projectsDir, u.ArtifactID+"-"+u.Version),
			filepath.Join(projectsDir, u.ArtifactID))
	}
	if localRepository != "" {
		artifact := pom.RepositoryPath(localRepository, u.Key(), u.Version, "pom")
		candidates = append(candidates, filepath.Join(filepath.Dir(artifact), "sources"))
	}
	return r.first(ctx, u, candidates)
}

func (r *DirResolver) first(ctx context.Context, u *project.Unit, candidates []string) (string, error) {
	for _, dir := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ok, err := hasDescriptor(dir)
		if err != nil {
			return "", fmt.Errorf("inspect %s: %w", dir, err)
		}
		if ok {
			r.Logger.Debug("resolved sources", "unit", u.ID(), "dir", dir)
			return dir, nil
		}
	}
	r.Logger.Debug("no sources found", "unit", u.ID(), "tried", len(candidates))
	return "", nil
}

func hasDescriptor(dir string) (bool, error) {
	info, err := os.Stat(filepath.Join(dir, pom.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// localHint returns the hint as a directory path, or "" when it is an SCM
// or remote URL.
func localHint(hint string) string {
	switch {
	case hint == "":
		return ""
	case strings.HasPrefix(hint, "file://"):
		return strings.TrimPrefix(hint, "file://")
	case strings.Contains(hint, "://"), strings.HasPrefix(hint, "scm:"):
		return ""
	}
	return hint
}

var _ Resolver = (*DirResolver)(nil)
