// Package pom reads Maven build descriptors and rewrites their parent
// reference before a unit is built.
package pom

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/matzehuels/ondemand/pkg/project"
)

// FileName is the conventional descriptor name inside a project directory.
const FileName = "pom.xml"

// Project is the subset of a pom.xml the orchestrator needs.
type Project struct {
	GroupID      string       `xml:"groupId"`
	ArtifactID   string       `xml:"artifactId"`
	Version      string       `xml:"version"`
	Packaging    string       `xml:"packaging"`
	Name         string       `xml:"name"`
	Parent       *Parent      `xml:"parent"`
	Dependencies []Dependency `xml:"dependencies>dependency"`
	Modules      []string     `xml:"modules>module"`
	SCM          *SCM         `xml:"scm"`
}

// Parent is the <parent> element.
type Parent struct {
	GroupID      string `xml:"groupId"`
	ArtifactID   string `xml:"artifactId"`
	Version      string `xml:"version"`
	RelativePath string `xml:"relativePath"`
}

// Dependency is one <dependency> element.
type Dependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// SCM is the <scm> element.
type SCM struct {
	Connection          string `xml:"connection"`
	DeveloperConnection string `xml:"developerConnection"`
	URL                 string `xml:"url"`
}

// Read parses the descriptor at path.
func Read(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes descriptor bytes.
func Parse(data []byte) (*Project, error) {
	var p Project
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// EffectiveGroupID returns groupId, inherited from the parent when absent.
func (p *Project) EffectiveGroupID() string {
	if p.GroupID == "" && p.Parent != nil {
		return p.Parent.GroupID
	}
	return p.GroupID
}

// EffectiveVersion returns version, inherited from the parent when absent.
func (p *Project) EffectiveVersion() string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

// Unit converts the descriptor into a build unit. descriptor is recorded as
// the unit's descriptor path and may be empty.
func (p *Project) Unit(descriptor string) *project.Unit {
	u := &project.Unit{
		GroupID:      p.EffectiveGroupID(),
		ArtifactID:   p.ArtifactID,
		Version:      p.EffectiveVersion(),
		Packaging:    p.Packaging,
		Dependencies: p.dependencies(),
		Descriptor:   descriptor,
	}
	if p.Parent != nil && p.Parent.ArtifactID != "" {
		u.Parent = &project.Coordinate{GroupID: p.Parent.GroupID, ArtifactID: p.Parent.ArtifactID}
		u.ParentVersion = p.Parent.Version
	}
	if p.SCM != nil {
		u.SourceHint = firstNonEmpty(p.SCM.DeveloperConnection, p.SCM.Connection, p.SCM.URL)
	}
	return u
}

func (p *Project) dependencies() []project.Coordinate {
	var deps []project.Coordinate
	seen := make(map[project.Coordinate]bool)

	for _, dep := range p.Dependencies {
		// Test and provided scope dependencies do not order the build
		if dep.Scope == "test" || dep.Scope == "provided" || dep.Optional == "true" {
			continue
		}
		groupID := dep.GroupID
		if groupID == "${project.groupId}" {
			groupID = p.EffectiveGroupID()
		}
		// Skip dependencies with unresolved Maven properties
		if strings.HasPrefix(groupID, "${") || strings.HasPrefix(dep.ArtifactID, "${") {
			continue
		}
		c := project.Coordinate{GroupID: groupID, ArtifactID: dep.ArtifactID}
		if !seen[c] {
			seen[c] = true
			deps = append(deps, c)
		}
	}
	return deps
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
