package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// resolveCommand creates the resolve command for turning raw layouts into
// resolved scenes.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		output      string
		catalogPath string
		noCache     bool
		showStats   bool
		gridStep    float64
		passes      int
		noFloor     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [layout.json | directory]",
		Short: "Resolve a generated layout into a valid scene",
		Long: `Resolve a generated layout into a valid scene.

The resolve command takes a layout.json file (a room plus a list of objects
with optional parent/anchor references) and produces a resolved scene:
absolute transforms for every object, snapped to the grid, clamped into the
room, rested on the floor, and with overlapping furniture pushed apart.

Anomalies in the input never fail the run; they are reported as warnings
and the rest of the layout still resolves. Only an invalid room is fatal.

Passing a directory opens an interactive picker over the layouts in it.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInputPath(args[0])
			if err != nil || input == "" {
				return err
			}
			return c.runResolve(cmd.Context(), input, output, catalogPath, noCache, showStats, gridStep, passes, noFloor)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.resolved.json)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "model catalog file (TOML)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print per-stage statistics")
	cmd.Flags().Float64Var(&gridStep, "grid-step", 0, "grid snap resolution in meters (default: 0.1)")
	cmd.Flags().IntVar(&passes, "passes", 0, "overlap mitigation pass cap (default: 4)")
	cmd.Flags().BoolVar(&noFloor, "no-floor", false, "disable resting unparented objects on the floor")

	return cmd
}

// resolveInputPath turns the positional argument into a layout file path,
// running the interactive picker for directories. Returns "" when the user
// quit the picker.
func resolveInputPath(arg string) (string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", arg, err)
	}
	if info.IsDir() {
		return pickLayout(arg)
	}
	return arg, nil
}

// runResolve loads the layout, resolves it, and writes the scene.
func (c *CLI) runResolve(ctx context.Context, input, output, catalogPath string, noCache, showStats bool, gridStep float64, passes int, noFloor bool) error {
	layout, err := scene.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	cat, closeCatalog, err := c.newCatalog(ctx, catalogPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer closeCatalog()

	runner := c.newRunner(ctx, noCache)
	defer runner.Close()

	opts := c.resolveOptions()
	opts.Catalog = cat
	if gridStep > 0 {
		opts.GridStep = gridStep
	}
	if passes > 0 {
		opts.OverlapPasses = passes
	}
	if noFloor {
		opts.SkipFloorFallback = true
	}

	spinner := newSpinnerWithContext(ctx, "Resolving layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, layout, opts)
	if err != nil {
		spinner.StopWithError("Resolution failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".resolved.json"
	}

	if err := scene.WriteResolvedFile(result.Scene, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Scene resolved")
	printFile(outputPath)
	printStats(len(result.Scene.Placements), len(result.Scene.Warnings), result.Cache.Hit)
	for _, w := range result.Scene.Warnings {
		printWarning("%s", w)
	}

	if showStats && !result.Cache.Hit {
		printNewline()
		printKeyValue("objects", fmt.Sprintf("%d", result.Stats.ObjectCount))
		printKeyValue("roots", fmt.Sprintf("%d", result.Stats.RootCount))
		printKeyValue("passes", fmt.Sprintf("%d", result.Stats.OverlapPassesRun))
		printKeyValue("graph", result.Stats.GraphTime.String())
		printKeyValue("place", result.Stats.PlaceTime.String())
		printKeyValue("mitigate", result.Stats.MitigateTime.String())
	}

	printNewline()
	printNextStep("Inspect the anchor graph", "stagehand graph "+input)

	return nil
}
