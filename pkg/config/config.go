// Package config loads the ondemand TOML configuration.
//
// A configuration file describes one build environment: where the local
// Maven repository and the source trees live, how to invoke Maven, the
// descriptor rewrite rules, where completed units and session reports are
// stored, and optionally the units themselves:
//
//	local_repository = "~/.m2/repository"
//	workspace = "./workspace"
//
//	[build]
//	goals = ["install"]
//	properties = { skipTests = "true" }
//
//	[rewrite.working_set_parent]
//	group_id = "org.example"
//	artifact_id = "working-set-parent"
//	version = "1-SNAPSHOT"
//
//	[[unit]]
//	coordinate = "org.example:core:1.0-SNAPSHOT"
//	dependencies = ["org.example:api"]
//
// Paths may start with "~/". Unknown keys are rejected so that typos do not
// silently fall back to defaults.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/invoker"
	"github.com/matzehuels/ondemand/pkg/orchestrator"
	"github.com/matzehuels/ondemand/pkg/pom"
	"github.com/matzehuels/ondemand/pkg/project"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "ondemand.toml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the top-level configuration.
type Config struct {
	LocalRepository   string `toml:"local_repository"`
	ProjectsDirectory string `toml:"projects_directory"`
	Workspace         string `toml:"workspace"`
	Force             bool   `toml:"force"`
	UseLatestSources  bool   `toml:"use_latest_sources"`

	Build    Build    `toml:"build"`
	Rewrite  Rewrite  `toml:"rewrite"`
	Store    Store    `toml:"store"`
	Report   Report   `toml:"report"`
	Discover Discover `toml:"discover"`

	UnitEntries []Unit `toml:"unit"`
}

// Build configures the Maven invocation.
type Build struct {
	Executable string            `toml:"executable"`
	Goals      []string          `toml:"goals"`
	Profiles   []string          `toml:"profiles"`
	Offline    bool              `toml:"offline"`
	Batch      bool              `toml:"batch"`
	Properties map[string]string `toml:"properties"`
	Env        map[string]string `toml:"env"`
}

// Rewrite configures descriptor rewriting.
type Rewrite struct {
	Parent           pom.ParentRef `toml:"parent"`
	WorkingSetParent pom.ParentRef `toml:"working_set_parent"`
	ArchiveParents   []string      `toml:"archive_parents"`
}

// Store configures the completed set backend.
type Store struct {
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`
	RedisURL string `toml:"redis_url"`
	TTL      string `toml:"ttl"`
}

// Report configures where session reports go. Both sinks are optional.
type Report struct {
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
}

// Discover configures scanning a directory tree for pom.xml files.
type Discover struct {
	Root     string `toml:"root"`
	MaxDepth int    `toml:"max_depth"`
}

// Unit declares one build unit inline.
type Unit struct {
	// Coordinate is "groupId:artifactId:version" or
	// "groupId:artifactId:packaging:version".
	Coordinate    string   `toml:"coordinate"`
	Dependencies  []string `toml:"dependencies"`
	Parent        string   `toml:"parent"`
	ParentVersion string   `toml:"parent_version"`
	Source        string   `toml:"source"`
	Descriptor    string   `toml:"descriptor"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LocalRepository:   "~/.m2/repository",
		ProjectsDirectory: "projects",
		Workspace:         "workspace",
		Build: Build{
			Executable: invoker.DefaultExecutable,
			Goals:      []string{"install"},
			Batch:      true,
		},
		Rewrite: Rewrite{
			ArchiveParents: []string{pom.DefaultArchiveParent},
		},
		Store: Store{
			Backend:  BackendMemory,
			Path:     filepath.Join(".ondemand", "completed.json"),
			RedisURL: "redis://localhost:6379/0",
		},
		Discover: Discover{MaxDepth: -1},
	}
}

// Load reads path over the defaults, expands home directories and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.expand()
		return cfg, nil
	}
	return Load(path)
}

func (c *Config) expand() {
	for _, p := range []*string{
		&c.LocalRepository, &c.ProjectsDirectory, &c.Workspace,
		&c.Store.Path, &c.Report.Dir, &c.Discover.Root,
	} {
		*p = ExpandHome(*p)
	}
	for i := range c.UnitEntries {
		c.UnitEntries[i].Descriptor = ExpandHome(c.UnitEntries[i].Descriptor)
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks the configuration. All errors are INVALID_CONFIG.
func (c *Config) Validate() error {
	if len(c.Build.Goals) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "build.goals cannot be empty")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if err := errors.ValidatePath("store.path", c.Store.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "store.path")
		}
	case BackendRedis:
		if err := errors.ValidateURL(c.Store.RedisURL, "redis", "rediss"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "store.redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend must be one of %s, %s, %s; got %q",
			BackendMemory, BackendFile, BackendRedis, c.Store.Backend)
	}
	if _, err := c.Store.ttl(); err != nil {
		return err
	}

	if c.Report.MongoURI != "" {
		if err := errors.ValidateURL(c.Report.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "report.mongo_uri")
		}
	}

	ws := c.Rewrite.WorkingSetParent
	if !ws.IsZero() && (ws.GroupID == "" || ws.ArtifactID == "" || ws.Version == "") {
		return errors.New(errors.ErrCodeInvalidConfig,
			"rewrite.working_set_parent needs group_id, artifact_id and version")
	}

	for i, u := range c.UnitEntries {
		if _, err := u.toUnit(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "unit[%d]", i)
		}
	}
	return nil
}

func (s Store) ttl() (time.Duration, error) {
	if s.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.TTL)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "store.ttl: invalid duration %q", s.TTL)
	}
	return d, nil
}

// Units converts the declared [[unit]] entries, in file order.
func (c *Config) Units() ([]*project.Unit, error) {
	units := make([]*project.Unit, 0, len(c.UnitEntries))
	for i, u := range c.UnitEntries {
		pu, err := u.toUnit()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "unit[%d]", i)
		}
		units = append(units, pu)
	}
	return units, nil
}

func (u Unit) toUnit() (*project.Unit, error) {
	parts := strings.Split(u.Coordinate, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return nil, errors.New(errors.ErrCodeInvalidCoordinate,
			"coordinate %q must be groupId:artifactId[:packaging]:version", u.Coordinate)
	}
	key, err := project.ParseCoordinate(u.Coordinate)
	if err != nil {
		return nil, err
	}

	pu := &project.Unit{
		GroupID:       key.GroupID,
		ArtifactID:    key.ArtifactID,
		Version:       parts[len(parts)-1],
		ParentVersion: u.ParentVersion,
		SourceHint:    u.Source,
		Descriptor:    u.Descriptor,
	}
	if len(parts) == 4 {
		pu.Packaging = parts[2]
	}
	if err := errors.ValidateVersion(pu.Version); err != nil {
		return nil, err
	}
	for _, d := range u.Dependencies {
		dep, err := project.ParseCoordinate(d)
		if err != nil {
			return nil, err
		}
		pu.Dependencies = append(pu.Dependencies, dep)
	}
	if u.Parent != "" {
		parent, err := project.ParseCoordinate(u.Parent)
		if err != nil {
			return nil, err
		}
		pu.Parent = &parent
	}
	return pu, nil
}

// RewriteConfig returns the descriptor rewrite rules.
func (c *Config) RewriteConfig() pom.Config {
	return pom.Config{
		Parent:           c.Rewrite.Parent,
		WorkingSetParent: c.Rewrite.WorkingSetParent,
		ArchiveParents:   slices.Clone(c.Rewrite.ArchiveParents),
	}
}

// Prototype returns the build configuration cloned for every unit.
func (c *Config) Prototype() invoker.Configuration {
	proto := invoker.Configuration{
		Executable:      c.Build.Executable,
		Goals:           c.Build.Goals,
		Profiles:        c.Build.Profiles,
		Properties:      c.Build.Properties,
		LocalRepository: c.LocalRepository,
		Offline:         c.Build.Offline,
		Batch:           c.Build.Batch,
		Env:             c.Build.Env,
	}
	return proto.Clone()
}

// Request returns an orchestration request for this configuration. The
// caller supplies the completed set and session id.
func (c *Config) Request() *orchestrator.Request {
	return &orchestrator.Request{
		LocalRepository:         c.LocalRepository,
		ProjectsDirectory:       c.ProjectsDirectory,
		Workspace:               c.Workspace,
		Prototype:               c.Prototype(),
		Rewrite:                 c.RewriteConfig(),
		Force:                   c.Force,
		UseLatestProjectSources: c.UseLatestSources,
	}
}
