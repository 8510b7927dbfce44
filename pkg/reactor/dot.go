package reactor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures build graph export.
type DOTOptions struct {
	// Detailed adds version and packaging to node labels.
	// When false, only the versionless coordinate is shown.
	Detailed bool

	// Completed marks keys already built in this session; they are drawn
	// with a dashed grey outline.
	Completed map[string]bool
}

// DOT converts the build graph to Graphviz DOT format. Nodes appear in
// build order, and edges point from a unit to what it needs built first.
func (g *Graph) DOT(opts DOTOptions) (string, error) {
	order, err := g.Order()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("digraph build {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, u := range order {
		key := u.Key().String()
		label := key
		if opts.Detailed {
			label = fmt.Sprintf("%s\n%s %s", key, u.PackagingOrDefault(), u.Version)
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if opts.Completed[key] {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e[0], e[1])
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
