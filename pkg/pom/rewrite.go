package pom

import (
	"bytes"
	"context"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html/charset"

	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/project"
)

// DefaultArchiveParent is the placeholder parent used by units unpacked
// from source archives rather than checked out from a working copy.
const DefaultArchiveParent = "archive-parent"

// ParentRef names a parent POM by coordinate and version.
type ParentRef struct {
	GroupID    string `toml:"group_id"`
	ArtifactID string `toml:"artifact_id"`
	Version    string `toml:"version"`
}

// IsZero reports whether no part of the reference is set.
func (p ParentRef) IsZero() bool {
	return p.GroupID == "" && p.ArtifactID == "" && p.Version == ""
}

// Config is the session-wide rewrite configuration.
type Config struct {
	// Parent, when its ArtifactID is set, replaces the parent of every
	// candidate that declares one. Empty GroupID and Version keep the
	// unit's own values.
	Parent ParentRef

	// WorkingSetParent is substituted for missing or archive placeholder
	// parents when building from the latest sources, so the modules of a
	// live multi-module build agree on versions.
	WorkingSetParent ParentRef

	// ArchiveParents lists parent artifactIds treated as archive placeholders.
	ArchiveParents []string
}

// IsEmpty reports whether the configuration overrides nothing.
func (c Config) IsEmpty() bool {
	return c.Parent.ArtifactID == "" && c.WorkingSetParent.ArtifactID == ""
}

// IsArchiveParent reports whether artifactID is an archive placeholder parent.
func (c Config) IsArchiveParent(artifactID string) bool {
	if len(c.ArchiveParents) == 0 {
		return artifactID == DefaultArchiveParent
	}
	return slices.Contains(c.ArchiveParents, artifactID)
}

// Directive is the rewrite applied to one unit's descriptor on disk.
// It is computed from that unit alone and never shared between units.
type Directive struct {
	ParentGroupID    string
	ParentArtifactID string
	ParentVersion    string
}

// IsEmpty reports whether the directive changes nothing.
func (d Directive) IsEmpty() bool { return d.ParentArtifactID == "" }

// String formats the directive for logs.
func (d Directive) String() string {
	if d.IsEmpty() {
		return "none"
	}
	return fmt.Sprintf("parent=%s:%s:%s", d.ParentGroupID, d.ParentArtifactID, d.ParentVersion)
}

// Rewriter rewrites build descriptors before units are built.
type Rewriter interface {
	// Rewrite checks every unit against cfg and returns annotated clones.
	// It writes nothing; any failure fails the whole set.
	Rewrite(ctx context.Context, units []*project.Unit, cfg Config, localRepository string) ([]*project.Unit, error)

	// RewriteOnDisk applies d to the descriptor at path in place.
	RewriteOnDisk(path string, d Directive) error
}

// FileRewriter is the filesystem implementation of [Rewriter].
type FileRewriter struct {
	Logger *log.Logger
}

// NewFileRewriter creates a rewriter that logs to logger (log.Default() if nil).
func NewFileRewriter(logger *log.Logger) *FileRewriter {
	if logger == nil {
		logger = log.Default()
	}
	return &FileRewriter{Logger: logger}
}

// Rewrite implements [Rewriter].
//
// For each unit it clones the unit, applies cfg.Parent, checks that a
// known descriptor parses, and checks that an overridden parent is either a
// candidate or installed in localRepository. All problems are collected
// and returned as one REWRITE_FAILED error.
func (r *FileRewriter) Rewrite(ctx context.Context, units []*project.Unit, cfg Config, localRepository string) ([]*project.Unit, error) {
	out := make([]*project.Unit, 0, len(units))
	candidates := make(map[string]bool, len(units))
	for _, u := range units {
		candidates[u.Key().String()] = true
	}

	var errs []error
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := u.Clone()

		if c.Descriptor != "" {
			if _, err := Read(c.Descriptor); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", u.ID(), err))
				continue
			}
		}

		if cfg.Parent.ArtifactID != "" && c.Parent != nil {
			applyParent(c, cfg.Parent)
			if err := checkParent(c, candidates, localRepository); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", u.ID(), err))
				continue
			}
			r.Logger.Debug("rewrote parent", "unit", c.ID(), "parent", c.Parent.String())
		}
		out = append(out, c)
	}

	if len(errs) > 0 {
		return nil, errors.Wrap(errors.ErrCodeRewriteFailed, stderrors.Join(errs...),
			"rewrite of %d unit(s) failed", len(errs))
	}
	return out, nil
}

func applyParent(u *project.Unit, ref ParentRef) {
	group := ref.GroupID
	if group == "" {
		group = u.Parent.GroupID
	}
	u.Parent = &project.Coordinate{GroupID: group, ArtifactID: ref.ArtifactID}
	if ref.Version != "" {
		u.ParentVersion = ref.Version
	}
}

func checkParent(u *project.Unit, candidates map[string]bool, localRepository string) error {
	if candidates[u.Parent.String()] || localRepository == "" || u.ParentVersion == "" {
		return nil
	}
	path := RepositoryPath(localRepository, *u.Parent, u.ParentVersion, "pom")
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("parent %s:%s not found in candidates or local repository", u.Parent, u.ParentVersion)
	}
	return nil
}

// RepositoryPath returns the path of an artifact file inside a Maven
// repository laid out as group/path/artifact/version/artifact-version.ext.
func RepositoryPath(repo string, c project.Coordinate, version, ext string) string {
	groupPath := filepath.FromSlash(strings.ReplaceAll(c.GroupID, ".", "/"))
	return filepath.Join(repo, groupPath, c.ArtifactID, version, c.ArtifactID+"-"+version+"."+ext)
}

// RewriteOnDisk implements [Rewriter]. The parent's artifactId (and groupId
// and version when set in d) are replaced in place; every other byte of the
// file is preserved. When the descriptor has no <parent>, one is inserted
// right after the <project> start tag, which requires all three parts of d.
// An empty directive leaves the file untouched.
func (r *FileRewriter) RewriteOnDisk(path string, d Directive) error {
	if d.IsEmpty() {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	updated, err := rewriteParent(data, d)
	if err != nil {
		return fmt.Errorf("rewrite %s: %w", path, err)
	}
	if bytes.Equal(updated, data) {
		return nil
	}
	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return err
	}
	r.Logger.Debug("rewrote descriptor", "path", path, "directive", d.String())
	return nil
}

type edit struct {
	start, end int
	text       string
}

type span struct {
	start, end int
	found      bool
}

func rewriteParent(data []byte, d Directive) ([]byte, error) {
	nonASCII := bytes.IndexFunc(data, func(r rune) bool { return r >= 0x80 }) >= 0

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if _, name := charset.Lookup(label); nonASCII && name != "utf-8" {
			return nil, fmt.Errorf("in-place rewrite does not support %s encoded descriptors", label)
		}
		return charset.NewReaderLabel(label, input)
	}

	var (
		stack      []string
		projectEnd = -1
		inParent   bool
		hasParent  bool
		parentEnd  int
		openTag    span // the <parent> start tag
		selfClosed bool
		children   = map[string]*span{"groupId": {}, "artifactId": {}, "version": {}}
		current    *span
	)

	for {
		before := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			switch {
			case len(stack) == 1 && t.Name.Local == "project":
				projectEnd = int(dec.InputOffset())
			case len(stack) == 2 && stack[0] == "project" && t.Name.Local == "parent":
				inParent, hasParent = true, true
				openTag = span{start: before, end: int(dec.InputOffset()), found: true}
			case len(stack) == 3 && inParent:
				if s, ok := children[t.Name.Local]; ok {
					s.start, s.found = before, true
					current = s
				}
			}
		case xml.EndElement:
			switch {
			case len(stack) == 3 && inParent && current != nil:
				current.end = int(dec.InputOffset())
				current = nil
			case len(stack) == 2 && inParent:
				// <parent/> yields an EndElement without consuming input.
				parentEnd = before
				selfClosed = int(dec.InputOffset()) == openTag.end
				inParent = false
			}
			stack = stack[:len(stack)-1]
		}
	}

	if projectEnd < 0 {
		return nil, fmt.Errorf("no <project> root element")
	}

	values := map[string]string{
		"groupId":    d.ParentGroupID,
		"artifactId": d.ParentArtifactID,
		"version":    d.ParentVersion,
	}

	var edits []edit
	switch {
	case selfClosed:
		if d.ParentGroupID == "" || d.ParentVersion == "" {
			return nil, fmt.Errorf("descriptor has an empty <parent/> and directive %s lacks groupId or version", d)
		}
		edits = append(edits, edit{openTag.start, openTag.end, strings.TrimPrefix(parentBlock(d), "\n  ")})
	case hasParent:
		var missing []string
		for _, name := range []string{"groupId", "artifactId", "version"} {
			v := values[name]
			if v == "" {
				continue
			}
			if s := children[name]; s.found {
				edits = append(edits, edit{s.start, s.end, element(name, v)})
			} else {
				missing = append(missing, element(name, v))
			}
		}
		if len(missing) > 0 {
			edits = append(edits, edit{parentEnd, parentEnd, "  " + strings.Join(missing, "\n    ") + "\n  "})
		}
	default:
		if d.ParentGroupID == "" || d.ParentVersion == "" {
			return nil, fmt.Errorf("descriptor has no <parent> and directive %s lacks groupId or version", d)
		}
		edits = append(edits, edit{projectEnd, projectEnd, parentBlock(d)})
	}

	return applyEdits(data, edits), nil
}

// parentBlock renders a complete <parent> element preceded by a newline
// and indentation.
func parentBlock(d Directive) string {
	return "\n  <parent>\n    " + element("groupId", d.ParentGroupID) +
		"\n    " + element("artifactId", d.ParentArtifactID) +
		"\n    " + element("version", d.ParentVersion) + "\n  </parent>"
}

func element(name, value string) string {
	var b strings.Builder
	b.WriteString("<" + name + ">")
	_ = xml.EscapeText(&b, []byte(value))
	b.WriteString("</" + name + ">")
	return b.String()
}

func applyEdits(data []byte, edits []edit) []byte {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := slices.Clone(data)
	for _, e := range edits {
		out = slices.Concat(out[:e.start], []byte(e.text), out[e.end:])
	}
	return out
}
