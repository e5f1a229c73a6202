package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/pkg/anchor"
	"github.com/stagehand-dev/stagehand/pkg/render"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// Output formats for the graph command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphCommand creates the graph command for visualizing anchor graphs.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph [layout.json]",
		Short: "Visualize a layout's anchor graph",
		Long: `Visualize a layout's anchor graph.

The graph command renders the parent/anchor references of a layout as a
Graphviz diagram. Missing parents show as dashed ghost nodes and cycle
members are outlined in red, making it easy to see why a layout produced
warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], output, format, detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout for dot, <input>.svg for svg)")
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include parent references in node labels")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input, output, format string, detailed bool) error {
	layout, err := scene.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	g := anchor.New()
	for _, obj := range layout.Objects {
		if err := g.Add(obj.ID, obj.Parent); err != nil {
			c.Logger.Warn("skipping object", "id", obj.ID, "err", err)
		}
	}

	dot := render.ToDOT(g, render.Options{Detailed: detailed})

	switch format {
	case formatDOT:
		if output == "" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
	case formatSVG:
		svg, err := render.RenderSVG(ctx, dot)
		if err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
		if output == "" {
			base := strings.TrimSuffix(input, filepath.Ext(input))
			output = base + ".svg"
		}
		if err := os.WriteFile(output, svg, 0644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
	default:
		return fmt.Errorf("unknown format %q (want dot or svg)", format)
	}

	printSuccess("Graph rendered")
	printFile(output)
	return nil
}
