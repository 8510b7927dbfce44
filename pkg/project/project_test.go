package project

import (
	"testing"

	"github.com/matzehuels/ondemand/pkg/errors"
)

func TestUnitIdentity(t *testing.T) {
	u := &Unit{GroupID: "group", ArtifactID: "artifact", Version: "version"}

	if got := u.Key().String(); got != "group:artifact" {
		t.Errorf("Key() = %q, want %q", got, "group:artifact")
	}
	if got := u.ID(); got != "group:artifact:jar:version" {
		t.Errorf("ID() = %q, want %q", got, "group:artifact:jar:version")
	}

	u.Packaging = "pom"
	if got := u.ID(); got != "group:artifact:pom:version" {
		t.Errorf("ID() = %q, want %q", got, "group:artifact:pom:version")
	}
}

func TestUnitIsSnapshot(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0-SNAPSHOT", true},
		{"1.0", false},
		{"1.0-snapshot", false},
		{"SNAPSHOT", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			u := &Unit{Version: tt.version}
			if got := u.IsSnapshot(); got != tt.want {
				t.Errorf("IsSnapshot() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input   string
		want    Coordinate
		wantErr bool
	}{
		{"org.example:core", Coordinate{"org.example", "core"}, false},
		{"org.example:core:1.0", Coordinate{"org.example", "core"}, false},
		{" org.example:core ", Coordinate{"org.example", "core"}, false},
		{"org.example", Coordinate{}, true},
		{":core", Coordinate{}, true},
		{"org.example:", Coordinate{}, true},
		{"", Coordinate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCoordinate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidCoordinate) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidCoordinate)
			}
			if got != tt.want {
				t.Errorf("ParseCoordinate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnitClone(t *testing.T) {
	orig := &Unit{
		GroupID:      "g",
		ArtifactID:   "a",
		Version:      "1",
		Dependencies: []Coordinate{{"g", "b"}},
		Parent:       &Coordinate{"g", "parent"},
	}

	c := orig.Clone()
	c.Dependencies[0].ArtifactID = "changed"
	c.Parent.ArtifactID = "other"
	c.Version = "2"

	if orig.Dependencies[0].ArtifactID != "b" {
		t.Error("Clone() shares the dependency slice")
	}
	if orig.Parent.ArtifactID != "parent" {
		t.Error("Clone() shares the parent coordinate")
	}
	if orig.Version != "1" {
		t.Error("Clone() shares the version")
	}
}

func TestUnitValidate(t *testing.T) {
	valid := &Unit{GroupID: "org.example", ArtifactID: "core", Version: "1.0"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	noVersion := &Unit{GroupID: "org.example", ArtifactID: "core"}
	if err := noVersion.Validate(); err == nil {
		t.Error("Validate() should reject an empty version")
	}

	badDep := valid.Clone()
	badDep.Dependencies = []Coordinate{{"org example", "x"}}
	if err := badDep.Validate(); err == nil {
		t.Error("Validate() should reject an invalid dependency")
	}
}

func TestParentArtifactID(t *testing.T) {
	u := &Unit{}
	if got := u.ParentArtifactID(); got != "" {
		t.Errorf("ParentArtifactID() = %q, want empty", got)
	}
	u.Parent = &Coordinate{"g", "parent"}
	if got := u.ParentArtifactID(); got != "parent" {
		t.Errorf("ParentArtifactID() = %q, want %q", got, "parent")
	}
}
