package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/pkg/catalog"
)

// catalogCommand creates the catalog inspection command.
func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect a model catalog",
	}

	cmd.AddCommand(c.catalogListCommand())
	cmd.AddCommand(c.catalogShowCommand())

	return cmd
}

// catalogListCommand creates the "catalog list" subcommand.
func (c *CLI) catalogListCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the models in a catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openStaticCatalog(catalogPath)
			if err != nil {
				return err
			}

			rows := [][]string{}
			for _, name := range cat.Models() {
				dims, _ := cat.Lookup(cmd.Context(), name)
				rows = append(rows, []string{
					name,
					fmt.Sprintf("%g × %g × %g", dims.Size.W, dims.Size.D, dims.Size.H),
					fmt.Sprintf("%d", len(dims.Anchors)),
				})
			}

			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Model", "Size (m)", "Anchors").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return headerStyle
					}
					return lipgloss.NewStyle()
				})

			fmt.Println(t.Render())
			printDetail("%d models", cat.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "model catalog file (TOML)")
	return cmd
}

// catalogShowCommand creates the "catalog show" subcommand.
func (c *CLI) catalogShowCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "show [model]",
		Short: "Show one model's dimensions and anchors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openStaticCatalog(catalogPath)
			if err != nil {
				return err
			}

			dims, ok := cat.Lookup(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("model %q not found in catalog", args[0])
			}

			printKeyValue("model", args[0])
			printKeyValue("width", fmt.Sprintf("%gm", dims.Size.W))
			printKeyValue("depth", fmt.Sprintf("%gm", dims.Size.D))
			printKeyValue("height", fmt.Sprintf("%gm", dims.Size.H))

			if len(dims.Anchors) > 0 {
				printNewline()
				names := make([]string, 0, len(dims.Anchors))
				for name := range dims.Anchors {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					a := dims.Anchors[name]
					printKeyValue(name, fmt.Sprintf("(%g, %g, %g)", a.X, a.Y, a.Z))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "model catalog file (TOML)")
	return cmd
}

// openStaticCatalog loads the TOML catalog named by the flag or the config
// file. Inspection requires a file catalog; the Mongo backend has no
// listing operation.
func (c *CLI) openStaticCatalog(catalogPath string) (*catalog.Static, error) {
	path := catalogPath
	if path == "" {
		path = c.Config.Catalog.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no catalog configured; pass --catalog or set catalog.path in the config file")
	}
	return catalog.LoadFile(path)
}
