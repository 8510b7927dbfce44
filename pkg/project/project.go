// Package project defines the build unit model shared by the graph builder,
// the orchestrator and its collaborators.
//
// A [Unit] is one Maven project taking part in a build session. Units are
// keyed in graphs and completed sets by their versionless [Coordinate]
// ("groupId:artifactId"); the full [Unit.ID] ("groupId:artifactId:packaging:version")
// is only used for logging and error messages.
package project

import (
	"slices"
	"strings"

	"github.com/matzehuels/ondemand/pkg/errors"
)

const (
	// DefaultPackaging is assumed when a unit does not declare one.
	DefaultPackaging = "jar"

	snapshotSuffix = "-SNAPSHOT"
)

// Coordinate is a versionless Maven coordinate.
type Coordinate struct {
	GroupID    string
	ArtifactID string
}

// String returns "groupId:artifactId".
func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID
}

// IsZero reports whether both parts are empty.
func (c Coordinate) IsZero() bool {
	return c.GroupID == "" && c.ArtifactID == ""
}

// Validate checks both parts with [errors.ValidateCoordinatePart].
func (c Coordinate) Validate() error {
	if err := errors.ValidateCoordinatePart("groupId", c.GroupID); err != nil {
		return err
	}
	return errors.ValidateCoordinatePart("artifactId", c.ArtifactID)
}

// ParseCoordinate parses "groupId:artifactId" and ignores any trailing
// segments (version, packaging), returning only the versionless part.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Coordinate{}, errors.New(errors.ErrCodeInvalidCoordinate,
			"invalid coordinate %q (expected groupId:artifactId)", s)
	}
	c := Coordinate{GroupID: parts[0], ArtifactID: parts[1]}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Unit is a single buildable project participating in one orchestration session.
//
// The zero value is not usable; GroupID, ArtifactID and Version must be set.
// The orchestrator treats caller-owned units as read-only and works on
// clones when it needs to annotate them.
type Unit struct {
	GroupID    string
	ArtifactID string
	Version    string
	Packaging  string // defaults to "jar" when empty

	// Dependencies lists the versionless coordinates this unit depends on.
	// Entries outside the candidate set are ignored by the graph builder.
	Dependencies []Coordinate

	// Parent is the parent POM coordinate, nil when the unit has no parent.
	Parent        *Coordinate
	ParentVersion string

	// SourceHint tells source resolvers where the unit's sources live
	// (an SCM URL or a directory). It may be empty.
	SourceHint string

	// Descriptor is the path to the unit's pom.xml when it is known.
	Descriptor string
}

// Key returns the versionless identity used as graph vertex and completed-set key.
func (u *Unit) Key() Coordinate {
	return Coordinate{GroupID: u.GroupID, ArtifactID: u.ArtifactID}
}

// ID returns the full identity "groupId:artifactId:packaging:version".
func (u *Unit) ID() string {
	return u.GroupID + ":" + u.ArtifactID + ":" + u.PackagingOrDefault() + ":" + u.Version
}

// PackagingOrDefault returns Packaging, or [DefaultPackaging] when empty.
func (u *Unit) PackagingOrDefault() string {
	if u.Packaging == "" {
		return DefaultPackaging
	}
	return u.Packaging
}

// IsSnapshot reports whether the unit's version denotes an unreleased build.
func (u *Unit) IsSnapshot() bool {
	return strings.HasSuffix(u.Version, snapshotSuffix)
}

// ParentArtifactID returns the parent's artifactId, or "" when there is no parent.
func (u *Unit) ParentArtifactID() string {
	if u.Parent == nil {
		return ""
	}
	return u.Parent.ArtifactID
}

// Validate checks the unit's coordinate, version and dependency list.
func (u *Unit) Validate() error {
	if err := u.Key().Validate(); err != nil {
		return err
	}
	if err := errors.ValidateVersion(u.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidCoordinate, err, "unit %s", u.Key())
	}
	for _, d := range u.Dependencies {
		if err := d.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidCoordinate, err, "dependency of %s", u.Key())
		}
	}
	if u.Parent != nil {
		if err := u.Parent.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidCoordinate, err, "parent of %s", u.Key())
		}
	}
	return nil
}

// Clone returns a deep copy of the unit.
func (u *Unit) Clone() *Unit {
	c := *u
	c.Dependencies = slices.Clone(u.Dependencies)
	if u.Parent != nil {
		p := *u.Parent
		c.Parent = &p
	}
	return &c
}

// Keys returns the versionless identities of units in order.
func Keys(units []*Unit) []string {
	keys := make([]string, len(units))
	for i, u := range units {
		keys[i] = u.Key().String()
	}
	return keys
}
