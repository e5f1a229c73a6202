// Package render turns anchor graphs into visual artifacts for debugging
// generated layouts: Graphviz DOT text and SVG rendered from it.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/stagehand-dev/stagehand/pkg/anchor"
)

// Options configures anchor graph rendering.
type Options struct {
	// Detailed includes the declared parent reference in node labels.
	// When false, only the object ID is shown.
	Detailed bool
}

// ToDOT converts an anchor graph to Graphviz DOT format. Edges point from
// child to parent. Missing parents are drawn as dashed ghost nodes and
// cycle members are outlined in red, so a glance at the diagram shows why
// a layout produced warnings.
//
// The resulting DOT string can be rendered with [RenderSVG].
func ToDOT(g *anchor.Graph, opts Options) string {
	blocked := g.Unresolvable()
	ghosts := missingParents(g)

	var buf bytes.Buffer
	buf.WriteString("digraph anchors {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, id := range g.Objects() {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		attrs := fmtAttrs(*n, opts.Detailed, blocked[id])
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}
	for _, ghost := range ghosts {
		fmt.Fprintf(&buf, "  %q [style=\"rounded,dashed\", fillcolor=none, fontcolor=grey];\n", ghost)
	}

	buf.WriteString("\n")
	for _, id := range g.Objects() {
		n, ok := g.Node(id)
		if !ok || n.Parent == "" {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", id, n.Parent)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n anchor.Node, detailed, blocked bool) []string {
	label := n.ID
	if detailed && n.Parent != "" {
		label = fmt.Sprintf("%s\nparent: %s", n.ID, n.Parent)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if blocked {
		attrs = append(attrs, "color=red", "fontcolor=red")
	}
	return attrs
}

// missingParents returns the parent references that have no node, in
// stable object order without duplicates.
func missingParents(g *anchor.Graph) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range g.Dangling() {
		n, ok := g.Node(id)
		if !ok || seen[n.Parent] {
			continue
		}
		seen[n.Parent] = true
		out = append(out, n.Parent)
	}
	return out
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
