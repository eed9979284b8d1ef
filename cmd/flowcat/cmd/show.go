package cmd

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vflow-stack/flowcat/internal/catalog"
	"github.com/vflow-stack/flowcat/internal/console"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [dir]",
	Short: "Show the current catalog",
	Long: `Show the entries of an existing catalog file without rescanning.

Examples:
  flowcat show              # Summarize ./workflows/index.json
  flowcat show ./flows --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the catalog as JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	path := filepath.Join(e.cfg.ScanDir(args), e.cfg.Catalog.FileName)
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}

	if showJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(c)
	}
	console.NewPrinter(cmd.OutOrStdout()).Catalog(c)
	return nil
}
