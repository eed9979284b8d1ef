package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vflow-stack/flowcat/internal/console"
	"github.com/vflow-stack/flowcat/internal/indexer"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate workflow files without writing anything",
	Long: `Validate every workflow file in a directory without normalizing files
or writing the catalog.

Checks:
- JSON syntax (the document must be an object)
- Presence of the _meta object
- Required _meta fields (id, name, description, author, version, vFlowLevel)
- _meta.id matches the file name
- Field types and semantic version format (reported as warnings)

Examples:
  flowcat validate                    # Validate ./workflows
  flowcat validate ./flows -f json    # Machine-readable report`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "report format: text, json, or yaml")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	switch validateFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json, or yaml)", validateFormat)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	opts := indexer.OptionsFromConfig(e.cfg, e.cfg.ScanDir(args))
	opts.DryRun = true
	out := cmd.OutOrStdout()

	if validateFormat == "text" {
		return indexOnce(commandContext(cmd), opts, e.logger, console.NewPrinter(out))
	}

	res, err := indexer.New(opts, e.logger).Run(commandContext(cmd))
	if err != nil {
		return err
	}
	if err := writeReport(out, validateFormat, res.Report()); err != nil {
		return err
	}
	if res.HasErrors() {
		return fmt.Errorf("%d workflow(s) failed: %w", len(res.Failed()), errValidationFailed)
	}
	return nil
}

func writeReport(w io.Writer, format string, rep indexer.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}
