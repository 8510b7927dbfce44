package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/ondemand/pkg/completed"
	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/report"
)

const sample = `
local_repository = "~/repo"
projects_directory = "/srv/projects"
use_latest_sources = true

[build]
goals = ["clean", "install"]
profiles = ["ci"]
offline = true
properties = { skipTests = "true" }

[rewrite]
archive_parents = ["archive-parent", "src-parent"]

[rewrite.working_set_parent]
group_id = "org.example"
artifact_id = "working-set-parent"
version = "1-SNAPSHOT"

[store]
backend = "file"
path = "state/completed.json"
ttl = "48h"

[[unit]]
coordinate = "org.example:core:1.0-SNAPSHOT"
dependencies = ["org.example:api"]
parent = "org.example:parent"
parent_version = "3"
source = "scm:git:https://example.org/core.git"

[[unit]]
coordinate = "org.example:api:bundle:1.0"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.LocalRepository != filepath.Join(home, "repo") {
		t.Errorf("LocalRepository = %q, want ~ expanded", cfg.LocalRepository)
	}
	if cfg.Workspace != "workspace" {
		t.Errorf("Workspace = %q, want default", cfg.Workspace)
	}
	if !slices.Equal(cfg.Build.Goals, []string{"clean", "install"}) || !cfg.Build.Batch {
		t.Errorf("Build = %+v", cfg.Build)
	}
	if cfg.Build.Executable != "mvn" {
		t.Errorf("Executable = %q, want default mvn", cfg.Build.Executable)
	}

	rw := cfg.RewriteConfig()
	if !rw.IsArchiveParent("src-parent") || rw.WorkingSetParent.ArtifactID != "working-set-parent" {
		t.Errorf("RewriteConfig() = %+v", rw)
	}

	units, err := cfg.Units()
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 2 {
		t.Fatalf("Units() = %d units, want 2", len(units))
	}
	core := units[0]
	if core.ID() != "org.example:core:jar:1.0-SNAPSHOT" || core.Parent.String() != "org.example:parent" || core.ParentVersion != "3" {
		t.Errorf("core = %s parent=%v:%s", core.ID(), core.Parent, core.ParentVersion)
	}
	if len(core.Dependencies) != 1 || core.Dependencies[0].String() != "org.example:api" {
		t.Errorf("core dependencies = %v", core.Dependencies)
	}
	if units[1].ID() != "org.example:api:bundle:1.0" {
		t.Errorf("api = %s", units[1].ID())
	}

	req := cfg.Request()
	if !req.UseLatestProjectSources || req.Prototype.Properties["skipTests"] != "true" ||
		req.Prototype.LocalRepository != cfg.LocalRepository || !req.Prototype.Offline {
		t.Errorf("Request() = %+v", req)
	}
	req.Prototype.Goals[0] = "deploy"
	if cfg.Build.Goals[0] != "clean" {
		t.Error("Request() prototype shares goals with the config")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "local_repository = ", "parse"},
		{"unknown key", "colour = \"blue\"", "unknown keys"},
		{"empty goals", "[build]\ngoals = []", "build.goals"},
		{"backend", "[store]\nbackend = \"s3\"", "store.backend"},
		{"redis url", "[store]\nbackend = \"redis\"\nredis_url = \"http://x\"", "store.redis_url"},
		{"ttl", "[store]\nttl = \"soon\"", "store.ttl"},
		{"mongo", "[report]\nmongo_uri = \"localhost\"", "report.mongo_uri"},
		{"partial working set", "[rewrite.working_set_parent]\nartifact_id = \"ws\"", "working_set_parent"},
		{"coordinate", "[[unit]]\ncoordinate = \"org.example:core\"", "unit[0]"},
		{"dependency", "[[unit]]\ncoordinate = \"g:a:1\"\ndependencies = [\"bad\"]", "unit[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Load() = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() = %v", err)
	}
	if cfg.Store.Backend != BackendMemory || cfg.Discover.MaxDepth != -1 {
		t.Errorf("defaults = %+v", cfg)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"~":        home,
		"~/x/y":    filepath.Join(home, "x/y"),
		"/abs":     "/abs",
		"rel/~":    "rel/~",
		"~someone": "~someone",
	}
	for in, want := range tests {
		if got := ExpandHome(in); got != want {
			t.Errorf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	s, closeFn, err := cfg.OpenStore(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := s.(*completed.Memory); !ok {
		t.Errorf("OpenStore(memory) = %T", s)
	}

	cfg.Store.Backend = BackendFile
	cfg.Store.Path = filepath.Join(t.TempDir(), "completed.json")
	s, _, err = cfg.OpenStore(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := s.(*completed.FileSet); !ok || fs.Path() != cfg.Store.Path {
		t.Errorf("OpenStore(file) = %T", s)
	}
}

func TestOpenSink(t *testing.T) {
	ctx := context.Background()
	cfg := Default()

	sink, err := cfg.OpenSink(ctx)
	if err != nil || sink != nil {
		t.Errorf("OpenSink() without reports = %v, %v; want nil", sink, err)
	}

	cfg.Report.Dir = t.TempDir()
	sink, err = cfg.OpenSink(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Save(ctx, &report.Record{SessionID: "s1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Report.Dir, "s1.json")); err != nil {
		t.Errorf("report file missing: %v", err)
	}
}
